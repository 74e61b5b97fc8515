package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/litscreen/pkg/llm/gemini"
	"github.com/entrhq/litscreen/pkg/llm/openai"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 50, cfg.Screening.BatchSize)
	assert.Equal(t, 6*time.Second, cfg.Screening.Delay)
	assert.Equal(t, 5000, cfg.Dedupe.FetchSize)
	assert.Equal(t, 5*time.Second, cfg.Dedupe.Delay)
	assert.Equal(t, 120*time.Second, cfg.Session.CaptureTimeout)
	assert.Equal(t, "SEARCH", cfg.Session.CaptureMethod)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.False(t, cfg.Session.Headless)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	// Models depend on the provider and are resolved by Load.
	assert.Empty(t, cfg.LLM.ScreeningModel)
	assert.Empty(t, cfg.LLM.DuplicateModel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litscreen.yaml")
	content := `
review_id: "12345"
llm:
  provider: openai
  screening_model: gpt-4o-mini
screening:
  batch_size: 20
  delay: 2s
session:
  dir: /tmp/sessions
  capture_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "12345", cfg.ReviewID)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ScreeningModel)
	assert.Equal(t, 20, cfg.Screening.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Screening.Delay)
	assert.Equal(t, 30*time.Second, cfg.Session.CaptureTimeout)
	assert.Equal(t, "/tmp/sessions/headers.json", cfg.HeadersPath())
	assert.Equal(t, "/tmp/sessions/auth.json", cfg.StatePath())
	// Untouched sections keep their defaults.
	assert.Equal(t, 5000, cfg.Dedupe.FetchSize)
	assert.Equal(t, path, cfg.ConfigFilePath)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("review_id: [unclosed"), 0600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverlay(t *testing.T) {
	t.Setenv("REVIEW_ID", "999")
	t.Setenv("RAYYAN_EMAIL", "me@example.com")
	t.Setenv("RAYYAN_PASSWORD", "secret")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("LITSCREEN_SCREENING_DELAY", "1500ms")

	cfg, err := Load("", NewViper())
	require.NoError(t, err)

	assert.Equal(t, "999", cfg.ReviewID)
	assert.Equal(t, "me@example.com", cfg.Account.Email)
	assert.Equal(t, "secret", cfg.Account.Password)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.Equal(t, 1500*time.Millisecond, cfg.Screening.Delay)
	assert.NoError(t, cfg.Validate(RequireAccount, RequireLLM))
}

func TestLoad_OpenAIKeyFollowsProvider(t *testing.T) {
	t.Setenv("LITSCREEN_LLM_PROVIDER", "openai")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	cfg, err := Load("", NewViper())
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "oa-key", cfg.LLM.APIKey)
}

func TestLoad_ModelDefaultsFollowProvider(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		wantScreening string
		wantDuplicate string
	}{
		{
			name:          "gemini by default",
			wantScreening: gemini.DefaultModel,
			wantDuplicate: "gemini-2.0-flash-lite",
		},
		{
			name:          "openai from environment",
			env:           map[string]string{"LITSCREEN_LLM_PROVIDER": "openai"},
			wantScreening: openai.DefaultModel,
			wantDuplicate: openai.DefaultModel,
		},
		{
			name: "explicit model kept",
			env: map[string]string{
				"LITSCREEN_LLM_PROVIDER":    "openai",
				"LITSCREEN_SCREENING_MODEL": "gpt-4.1-mini",
			},
			wantScreening: "gpt-4.1-mini",
			wantDuplicate: openai.DefaultModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}

			cfg, err := Load("", NewViper())
			require.NoError(t, err)
			assert.Equal(t, tt.wantScreening, cfg.LLM.ScreeningModel)
			assert.Equal(t, tt.wantDuplicate, cfg.LLM.DuplicateModel)
		})
	}
}

func TestLoad_ProviderFlagOverridesFileModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litscreen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("review_id: \"1\"\n"), 0600))

	v := NewViper()
	fs := pflag.NewFlagSet("litscreen", pflag.ContinueOnError)
	fs.String("provider", "", "")
	require.NoError(t, v.BindPFlag("llm.provider", fs.Lookup("provider")))
	require.NoError(t, fs.Parse([]string{"--provider", "openai"}))

	cfg, err := Load(path, v)
	require.NoError(t, err)

	cfg.LLM.APIKey = "test-key"
	p, err := BuildProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, openai.DefaultModel, p.GetModel())
}

func TestLoad_NumericAndDurationOverlay(t *testing.T) {
	t.Setenv("LITSCREEN_BATCH_SIZE", "20")
	t.Setenv("LITSCREEN_FETCH_SIZE", "800")
	t.Setenv("LITSCREEN_MAX_ABSTRACT_TOKENS", "600")
	t.Setenv("LITSCREEN_LLM_MAX_RETRIES", "0")
	t.Setenv("LITSCREEN_CAPTURE_TIMEOUT", "45s")
	t.Setenv("LITSCREEN_VERBOSITY", "debug")

	cfg, err := Load("", NewViper())
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Screening.BatchSize)
	assert.Equal(t, 800, cfg.Dedupe.FetchSize)
	assert.Equal(t, 600, cfg.LLM.MaxAbstractTokens)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Session.CaptureTimeout)
	assert.Equal(t, "debug", cfg.Logging.Verbosity)
}

func TestLoad_SubcommandFlagsOverlay(t *testing.T) {
	v := NewViper()
	fs := pflag.NewFlagSet("screen", pflag.ContinueOnError)
	fs.Int("batch-size", 50, "")
	fs.Duration("delay", 0, "")
	require.NoError(t, v.BindPFlag("screening.batch_size", fs.Lookup("batch-size")))
	require.NoError(t, v.BindPFlag("screening.delay", fs.Lookup("delay")))
	require.NoError(t, fs.Parse([]string{"--batch-size", "0"}))

	cfg, err := Load("", v)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Screening.BatchSize)
	assert.Equal(t, 6*time.Second, cfg.Screening.Delay, "unchanged flag must not override")

	cfg.ReviewID = "1"
	var ce *ConfigError
	require.ErrorAs(t, cfg.Validate(), &ce)
	assert.Contains(t, ce.Invalid, "screening.batch_size")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		reqs        []Requirement
		wantMissing []string
		wantInvalid bool
	}{
		{
			name:        "review id always required",
			mutate:      func(c *Config) {},
			wantMissing: []string{"REVIEW_ID"},
		},
		{
			name: "account required for bootstrap",
			mutate: func(c *Config) {
				c.ReviewID = "1"
			},
			reqs:        []Requirement{RequireAccount},
			wantMissing: []string{"RAYYAN_EMAIL", "RAYYAN_PASSWORD"},
		},
		{
			name: "gemini key required",
			mutate: func(c *Config) {
				c.ReviewID = "1"
			},
			reqs:        []Requirement{RequireLLM},
			wantMissing: []string{"GEMINI_API_KEY"},
		},
		{
			name: "openai key required",
			mutate: func(c *Config) {
				c.ReviewID = "1"
				c.LLM.Provider = ProviderOpenAI
			},
			reqs:        []Requirement{RequireLLM},
			wantMissing: []string{"OPENAI_API_KEY"},
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.ReviewID = "1"
				c.LLM.Provider = "llama"
				c.LLM.APIKey = "k"
			},
			reqs:        []Requirement{RequireLLM},
			wantInvalid: true,
		},
		{
			name: "bad batch size",
			mutate: func(c *Config) {
				c.ReviewID = "1"
				c.Screening.BatchSize = 0
			},
			wantInvalid: true,
		},
		{
			name: "valid",
			mutate: func(c *Config) {
				c.ReviewID = "1"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate(tt.reqs...)
			if len(tt.wantMissing) == 0 && !tt.wantInvalid {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantMissing, ce.Missing)
			if tt.wantInvalid {
				assert.NotEmpty(t, ce.Invalid)
			}
		})
	}
}

func TestCaptureTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReviewID = "42"
	assert.Equal(t, "/api/v1/reviews/42/results", cfg.CaptureTarget())

	cfg.Session.CapturePattern = "*/results*"
	assert.Equal(t, "*/results*", cfg.CaptureTarget())
}
