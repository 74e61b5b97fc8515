package config

import (
	"context"
	"fmt"

	"github.com/entrhq/litscreen/pkg/llm"
	"github.com/entrhq/litscreen/pkg/llm/gemini"
	"github.com/entrhq/litscreen/pkg/llm/openai"
)

// defaultModels holds the screening and duplicate-comparison models of each
// provider, used for whichever of the two is not configured.
var defaultModels = map[string]struct{ screening, duplicate string }{
	ProviderGemini: {gemini.DefaultModel, "gemini-2.0-flash-lite"},
	ProviderOpenAI: {openai.DefaultModel, openai.DefaultModel},
}

// ApplyModelDefaults fills empty model names for the selected provider. It
// runs after every layer is applied so a provider switched by flag or
// environment never inherits another provider's models.
func (c *Config) ApplyModelDefaults() {
	d, ok := defaultModels[c.LLM.Provider]
	if !ok {
		return
	}
	if c.LLM.ScreeningModel == "" {
		c.LLM.ScreeningModel = d.screening
	}
	if c.LLM.DuplicateModel == "" {
		c.LLM.DuplicateModel = d.duplicate
	}
}

// BuildProvider creates the reasoning-service provider selected by
// llm.provider, targeting llm.screening_model. Use llm.WithModel to derive
// the duplicate-comparison provider from it.
func BuildProvider(ctx context.Context, cfg *Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case ProviderGemini:
		opts := []gemini.ProviderOption{}
		if cfg.LLM.ScreeningModel != "" {
			opts = append(opts, gemini.WithModel(cfg.LLM.ScreeningModel))
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.LLM.BaseURL))
		}
		p, err := gemini.NewProvider(ctx, cfg.LLM.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return p, nil

	case ProviderOpenAI:
		opts := []openai.ProviderOption{openai.WithMaxRetries(cfg.LLM.MaxRetries)}
		if cfg.LLM.ScreeningModel != "" {
			opts = append(opts, openai.WithModel(cfg.LLM.ScreeningModel))
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
		}
		p, err := openai.NewProvider(cfg.LLM.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return p, nil

	default:
		return nil, &ConfigError{Invalid: []string{fmt.Sprintf("llm.provider=%q", cfg.LLM.Provider)}}
	}
}
