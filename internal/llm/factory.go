package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/engine"
)

// Provider names accepted by NewFromConfig.
const (
	ProviderNone      = "none"
	ProviderStub      = "stub"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// newClient creates a model client for the configured provider.
func newClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}

// NewFromConfig returns the classifier for cfg.Provider. Provider "none"
// returns a nil classifier, which disables escalation.
func NewFromConfig(cfg Config) (engine.Classifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderStub:
		return NewStubClassifier(), nil
	default:
		classifier, err := NewClassifier(cfg)
		if err != nil {
			return nil, err
		}
		return classifier, nil
	}
}
