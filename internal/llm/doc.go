// Package llm provides the external classifier used to categorize transactions
// no rule matched and to validate medium-confidence rule matches. It supports
// OpenAI and Anthropic with retry logic, rate limiting and response caching,
// plus a deterministic offline stub.
package llm
