package config

import (
	"context"
	"testing"

	"github.com/entrhq/litscreen/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
	}{
		{name: "gemini", provider: ProviderGemini},
		{name: "openai", provider: ProviderOpenAI},
		{name: "unknown", provider: "llama", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.Provider = tt.provider
			cfg.LLM.APIKey = "test-key"
			cfg.LLM.ScreeningModel = "screen-model"
			cfg.LLM.BaseURL = "http://127.0.0.1:1/"

			p, err := BuildProvider(context.Background(), cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "screen-model", p.GetModel())
			assert.Equal(t, "dup-model", llm.WithModel(p, "dup-model").GetModel())
		})
	}
}

func TestBuildProvider_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderOpenAI

	_, err := BuildProvider(context.Background(), cfg)
	assert.Error(t, err)
}
