package config

import (
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that set them.
// The first variable found wins.
var envBindings = map[string][]string{
	"review_id":               {"REVIEW_ID", "LITSCREEN_REVIEW_ID"},
	"account.email":           {"RAYYAN_EMAIL", "LITSCREEN_EMAIL"},
	"account.password":        {"RAYYAN_PASSWORD", "LITSCREEN_PASSWORD"},
	"llm.provider":            {"LITSCREEN_LLM_PROVIDER"},
	"llm.gemini_api_key":      {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"llm.openai_api_key":      {"OPENAI_API_KEY"},
	"llm.base_url":            {"OPENAI_BASE_URL"},
	"llm.screening_model":     {"LITSCREEN_SCREENING_MODEL"},
	"llm.duplicate_model":     {"LITSCREEN_DUPLICATE_MODEL"},
	"llm.max_retries":         {"LITSCREEN_LLM_MAX_RETRIES"},
	"llm.max_abstract_tokens": {"LITSCREEN_MAX_ABSTRACT_TOKENS"},
	"session.dir":             {"LITSCREEN_SESSION_DIR"},
	"session.headless":        {"LITSCREEN_HEADLESS"},
	"session.capture_timeout": {"LITSCREEN_CAPTURE_TIMEOUT"},
	"artifacts.output_dir":    {"LITSCREEN_OUTPUT_DIR"},
	"logging.level":           {"LITSCREEN_LOG_LEVEL"},
	"logging.verbosity":       {"LITSCREEN_VERBOSITY"},
	"screening.batch_size":    {"LITSCREEN_BATCH_SIZE"},
	"screening.delay":         {"LITSCREEN_SCREENING_DELAY"},
	"screening.rubric_file":   {"LITSCREEN_RUBRIC_FILE"},
	"dedupe.fetch_size":       {"LITSCREEN_FETCH_SIZE"},
	"dedupe.delay":            {"LITSCREEN_DEDUPE_DELAY"},
}

// NewViper returns a viper instance with every environment binding
// registered. Callers may bind CLI flags onto the same keys.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(args...)
	}
	return v
}

// Load reads the config file (if any), overlays values set in v, and then
// fills unset model names from the selected provider's defaults.
func Load(path string, v *viper.Viper) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if v != nil {
		Overlay(cfg, v)
	}
	cfg.ApplyModelDefaults()
	return cfg, nil
}

// Overlay copies every key explicitly set in v (by environment or flag)
// onto cfg.
func Overlay(cfg *Config, v *viper.Viper) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := v.GetString(key); s != "" {
				*dst = s
			}
		}
	}

	setString("review_id", &cfg.ReviewID)
	setString("account.email", &cfg.Account.Email)
	setString("account.password", &cfg.Account.Password)
	setString("llm.provider", &cfg.LLM.Provider)
	setString("llm.base_url", &cfg.LLM.BaseURL)
	setString("llm.screening_model", &cfg.LLM.ScreeningModel)
	setString("llm.duplicate_model", &cfg.LLM.DuplicateModel)
	setString("session.dir", &cfg.Session.Dir)
	setString("artifacts.output_dir", &cfg.Artifacts.OutputDir)
	setString("logging.level", &cfg.Logging.Level)
	setString("logging.verbosity", &cfg.Logging.Verbosity)
	setString("screening.rubric_file", &cfg.Screening.RubricFile)

	// The API key variable follows the selected provider.
	switch cfg.LLM.Provider {
	case ProviderOpenAI:
		setString("llm.openai_api_key", &cfg.LLM.APIKey)
	default:
		setString("llm.gemini_api_key", &cfg.LLM.APIKey)
	}
	setString("llm.api_key", &cfg.LLM.APIKey)

	if v.IsSet("screening.delay") {
		cfg.Screening.Delay = v.GetDuration("screening.delay")
	}
	if v.IsSet("dedupe.delay") {
		cfg.Dedupe.Delay = v.GetDuration("dedupe.delay")
	}
	if v.IsSet("screening.batch_size") {
		cfg.Screening.BatchSize = v.GetInt("screening.batch_size")
	}
	if v.IsSet("dedupe.fetch_size") {
		cfg.Dedupe.FetchSize = v.GetInt("dedupe.fetch_size")
	}
	if v.IsSet("llm.max_retries") {
		cfg.LLM.MaxRetries = v.GetInt("llm.max_retries")
	}
	if v.IsSet("llm.max_abstract_tokens") {
		cfg.LLM.MaxAbstractTokens = v.GetInt("llm.max_abstract_tokens")
	}
	if v.IsSet("session.headless") {
		cfg.Session.Headless = v.GetBool("session.headless")
	}
	if v.IsSet("session.capture_timeout") {
		cfg.Session.CaptureTimeout = v.GetDuration("session.capture_timeout")
	}
}
