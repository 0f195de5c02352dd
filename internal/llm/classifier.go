package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/engine"
)

var _ engine.Classifier = (*Classifier)(nil)

// Classifier implements engine.Classifier on top of a language model client.
type Classifier struct {
	client    Client
	cache     *suggestionCache
	limiter   *rate.Limiter
	logger    *slog.Logger
	retryOpts common.RetryOptions
}

// NewClassifier creates a classifier for the configured provider.
func NewClassifier(cfg Config) (*Classifier, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return newClassifierWithClient(client, cfg), nil
}

func newClassifierWithClient(client Client, cfg Config) *Classifier {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RateLimit))
	}

	return &Classifier{
		client:  client,
		cache:   newSuggestionCache(cfg.CacheTTL),
		limiter: rate.NewLimiter(limit, 1),
		logger:  slog.Default().With("component", "llm", "provider", cfg.Provider),
		retryOpts: common.RetryOptions{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     cfg.MaxDelay,
			Multiplier:   2.0,
		},
	}
}

// ClassifyBatch answers every request in one model call. Cached answers are
// served without calling the model.
func (c *Classifier) ClassifyBatch(ctx context.Context, requests []engine.ClassificationRequest, categories []string) ([]engine.Suggestion, error) {
	suggestions := make([]engine.Suggestion, 0, len(requests))
	var misses []engine.ClassificationRequest

	for _, req := range requests {
		if key := cacheKey(req); key != "" {
			if cached, ok := c.cache.get(key); ok {
				cached.TransactionID = req.Transaction.ID
				suggestions = append(suggestions, cached)
				continue
			}
		}
		misses = append(misses, req)
	}

	if len(misses) == 0 {
		c.logger.Debug("All requests served from cache", "requests", len(requests))
		return suggestions, nil
	}

	prompt, err := buildPrompt(misses, categories)
	if err != nil {
		return nil, err
	}

	var answers []engine.Suggestion
	err = common.WithRetry(ctx, func() error {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return &common.RetryableError{Err: waitErr, Retryable: false}
		}

		content, completeErr := c.client.Complete(ctx, systemPrompt, prompt)
		if completeErr != nil {
			return completeErr
		}

		parsed, parseErr := parseSuggestions(content)
		if parseErr != nil {
			return &common.RetryableError{Err: parseErr, Retryable: true}
		}
		answers = parsed
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	byID := make(map[string]engine.ClassificationRequest, len(misses))
	for _, req := range misses {
		byID[req.Transaction.ID] = req
	}

	for _, s := range answers {
		req, ok := byID[s.TransactionID]
		if !ok {
			c.logger.Warn("Ignoring answer for unknown transaction", "transaction_id", s.TransactionID)
			continue
		}
		delete(byID, s.TransactionID)
		if key := cacheKey(req); key != "" && s.Category != "" {
			c.cache.set(key, s)
		}
		suggestions = append(suggestions, s)
	}

	if len(byID) > 0 {
		missing := make([]string, 0, len(byID))
		for id := range byID {
			missing = append(missing, id)
		}
		c.logger.Warn("Classifier returned no answer for some transactions",
			"missing", strings.Join(missing, ","))
	}

	c.logger.Debug("Classified batch",
		"requests", len(requests),
		"cached", len(requests)-len(misses),
		"answers", len(suggestions))

	return suggestions, nil
}

// Close releases the cache cleanup goroutine.
func (c *Classifier) Close() error {
	c.cache.Close()
	return nil
}
