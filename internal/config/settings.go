package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/llm"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/plaid"
	"github.com/Veraticus/the-spice-must-sort/internal/simplefin"
)

// Settings is the resolved application configuration.
type Settings struct {
	RulesPath    string
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Intelligence model.IntelligenceMode
	Strategy     model.UpdateStrategy
	Processing   model.ProcessingMode
	LLM          llm.Config
	Plaid        plaid.Config
	SimpleFIN    simplefin.Config
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rules.path", "~/.config/spice/rules.yaml")
	v.SetDefault("database.path", filepath.Join("$HOME", ".local", "share", "spice", "spice.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("categorization.intelligence_mode", string(model.ModeSmart))
	v.SetDefault("categorization.update_strategy", string(model.StrategySkipExisting))
	v.SetDefault("categorization.processing_mode", string(model.ProcessingDryRun))
	v.SetDefault("llm.provider", llm.ProviderStub)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.max_delay", 30*time.Second)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("simplefin.state_path", filepath.Join("~", ".local", "share", "spice", "simplefin_auth.json"))
}

// Load resolves settings from v. Viper keys (config file or SPICE_ env vars)
// win; provider credentials fall back to their conventional environment
// variables.
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)

	intelligence, err := model.ParseIntelligenceMode(v.GetString("categorization.intelligence_mode"))
	if err != nil {
		return Settings{}, err
	}
	strategy, err := model.ParseUpdateStrategy(v.GetString("categorization.update_strategy"))
	if err != nil {
		return Settings{}, err
	}
	processing, err := model.ParseProcessingMode(v.GetString("categorization.processing_mode"))
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		RulesPath:    ExpandPath(v.GetString("rules.path")),
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		Intelligence: intelligence,
		Strategy:     strategy,
		Processing:   processing,
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			MaxDelay:    v.GetDuration("llm.max_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			Timeout:     v.GetDuration("llm.timeout"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Plaid: plaid.Config{
			ClientID:    v.GetString("plaid.client_id"),
			Secret:      v.GetString("plaid.secret"),
			Environment: v.GetString("plaid.environment"),
			AccessToken: v.GetString("plaid.access_token"),
		},
		SimpleFIN: simplefin.Config{
			AccessURL: v.GetString("simplefin.access_url"),
			Token:     v.GetString("simplefin.token"),
			StatePath: ExpandPath(v.GetString("simplefin.state_path")),
		},
	}

	if s.LLM.APIKey == "" {
		switch s.LLM.Provider {
		case llm.ProviderOpenAI:
			s.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case llm.ProviderAnthropic:
			s.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if s.Plaid.ClientID == "" {
		s.Plaid.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if s.Plaid.Secret == "" {
		s.Plaid.Secret = os.Getenv("PLAID_SECRET")
	}
	if s.SimpleFIN.Token == "" {
		s.SimpleFIN.Token = os.Getenv("SIMPLEFIN_TOKEN")
	}

	switch s.LLM.Provider {
	case llm.ProviderNone, llm.ProviderStub:
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
		if s.LLM.APIKey == "" {
			return Settings{}, fmt.Errorf("%w: llm.api_key is required for provider %q", common.ErrMissingConfig, s.LLM.Provider)
		}
	default:
		return Settings{}, fmt.Errorf("%w: unknown llm.provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}

	if _, err := common.ParseLevel(s.LogLevel); err != nil {
		return Settings{}, err
	}

	return s, nil
}
