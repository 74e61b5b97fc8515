// Package config loads litscreen's run configuration.
//
// Values are resolved in order of precedence: CLI flags, environment
// variables, the YAML config file, then DefaultConfig. Loading happens once
// at process start; a missing required value is a *ConfigError and is fatal
// before any pipeline work begins.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config is the complete run configuration.
type Config struct {
	// ReviewID identifies the review whose records are screened.
	ReviewID string `yaml:"review_id" json:"review_id"`

	Account   AccountConfig   `yaml:"account" json:"account"`
	Platform  PlatformConfig  `yaml:"platform" json:"platform"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Screening ScreeningConfig `yaml:"screening" json:"screening"`
	Dedupe    DedupeConfig    `yaml:"dedupe" json:"dedupe"`
	Artifacts ArtifactConfig  `yaml:"artifacts" json:"artifacts"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`

	// ConfigFilePath records where the file layer came from, if anywhere.
	ConfigFilePath string `yaml:"-" json:"-"`
}

// AccountConfig holds the platform login used by the session bootstrapper.
type AccountConfig struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"-"`
}

// PlatformConfig describes the remote screening platform.
type PlatformConfig struct {
	// APIBaseURL is the origin of the JSON API.
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`
	// LoginURL is the page the bootstrapper signs in on.
	LoginURL string `yaml:"login_url" json:"login_url"`
	// RequestTimeout bounds each platform HTTP call.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// SessionConfig controls credential capture and persistence.
type SessionConfig struct {
	Dir         string `yaml:"dir" json:"dir"`
	HeadersFile string `yaml:"headers_file" json:"headers_file"`
	StateFile   string `yaml:"state_file" json:"state_file"`
	// CaptureMethod and CapturePattern select the request whose headers are
	// harvested. An empty pattern targets the review's results endpoint.
	CaptureMethod  string        `yaml:"capture_method" json:"capture_method"`
	CapturePattern string        `yaml:"capture_pattern" json:"capture_pattern"`
	CaptureTimeout time.Duration `yaml:"capture_timeout" json:"capture_timeout"`
	Headless       bool          `yaml:"headless" json:"headless"`
}

// LLMConfig selects the reasoning service.
type LLMConfig struct {
	Provider string `yaml:"provider" json:"provider"`
	APIKey   string `yaml:"api_key" json:"-"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	// ScreeningModel and DuplicateModel fall back to the selected provider's
	// defaults when left empty.
	ScreeningModel string `yaml:"screening_model" json:"screening_model"`
	DuplicateModel string `yaml:"duplicate_model" json:"duplicate_model"`
	// MaxRetries is how often a failed call is retried by providers whose
	// SDK retries (openai).
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// MaxAbstractTokens truncates abstracts before prompting; 0 disables.
	MaxAbstractTokens int `yaml:"max_abstract_tokens" json:"max_abstract_tokens"`
}

// ScreeningConfig tunes the linear screening pipeline.
type ScreeningConfig struct {
	BatchSize  int           `yaml:"batch_size" json:"batch_size"`
	Delay      time.Duration `yaml:"delay" json:"delay"`
	RubricFile string        `yaml:"rubric_file" json:"rubric_file"`
}

// DedupeConfig tunes the duplicate-cluster resolution pipeline.
type DedupeConfig struct {
	FetchSize int           `yaml:"fetch_size" json:"fetch_size"`
	Delay     time.Duration `yaml:"delay" json:"delay"`
}

// ArtifactConfig controls run summary output.
type ArtifactConfig struct {
	// OutputDir receives summary.json and summary.md; empty disables.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// LoggingConfig controls file log level and console verbosity.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			APIBaseURL:     "https://rayyan.ai",
			LoginURL:       "https://new.rayyan.ai/",
			RequestTimeout: 60 * time.Second,
		},
		Session: SessionConfig{
			Dir:            ".",
			HeadersFile:    "headers.json",
			StateFile:      "auth.json",
			CaptureMethod:  "SEARCH",
			CaptureTimeout: 120 * time.Second,
		},
		LLM: LLMConfig{
			Provider:   ProviderGemini,
			MaxRetries: 2,
		},
		Screening: ScreeningConfig{
			BatchSize: 50,
			Delay:     6 * time.Second,
		},
		Dedupe: DedupeConfig{
			FetchSize: 5000,
			Delay:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Verbosity: "normal",
		},
	}
}

// ConfigError reports configuration that is missing or invalid.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "configuration error: " + strings.Join(parts, "; ")
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Requirement names a group of settings a command depends on.
type Requirement int

const (
	// RequireReview needs the review identifier.
	RequireReview Requirement = iota
	// RequireAccount needs the platform login for bootstrapping.
	RequireAccount
	// RequireLLM needs reasoning-service credentials.
	RequireLLM
)

// Validate checks the settings every command needs plus the given extras.
func (c *Config) Validate(reqs ...Requirement) error {
	ce := &ConfigError{}

	need := map[Requirement]bool{RequireReview: true}
	for _, r := range reqs {
		need[r] = true
	}

	if need[RequireReview] && c.ReviewID == "" {
		ce.Missing = append(ce.Missing, "REVIEW_ID")
	}
	if need[RequireAccount] {
		if c.Account.Email == "" {
			ce.Missing = append(ce.Missing, "RAYYAN_EMAIL")
		}
		if c.Account.Password == "" {
			ce.Missing = append(ce.Missing, "RAYYAN_PASSWORD")
		}
	}
	if need[RequireLLM] {
		switch c.LLM.Provider {
		case ProviderGemini:
			if c.LLM.APIKey == "" {
				ce.Missing = append(ce.Missing, "GEMINI_API_KEY")
			}
		case ProviderOpenAI:
			if c.LLM.APIKey == "" {
				ce.Missing = append(ce.Missing, "OPENAI_API_KEY")
			}
		default:
			ce.Invalid = append(ce.Invalid, fmt.Sprintf("llm.provider=%q", c.LLM.Provider))
		}
	}

	if c.Screening.BatchSize <= 0 {
		ce.Invalid = append(ce.Invalid, "screening.batch_size")
	}
	if c.Dedupe.FetchSize <= 0 {
		ce.Invalid = append(ce.Invalid, "dedupe.fetch_size")
	}
	if c.Screening.Delay < 0 || c.Dedupe.Delay < 0 {
		ce.Invalid = append(ce.Invalid, "delay")
	}
	if c.LLM.MaxRetries < 0 {
		ce.Invalid = append(ce.Invalid, "llm.max_retries")
	}
	if c.LLM.MaxAbstractTokens < 0 {
		ce.Invalid = append(ce.Invalid, "llm.max_abstract_tokens")
	}
	if c.Session.CaptureTimeout <= 0 {
		ce.Invalid = append(ce.Invalid, "session.capture_timeout")
	}

	if len(ce.Missing) > 0 || len(ce.Invalid) > 0 {
		return ce
	}
	return nil
}

// HeadersPath returns the header-map file location.
func (c *Config) HeadersPath() string {
	return filepath.Join(c.Session.Dir, c.Session.HeadersFile)
}

// StatePath returns the browser storage-state file location.
func (c *Config) StatePath() string {
	return filepath.Join(c.Session.Dir, c.Session.StateFile)
}

// CaptureTarget returns the URL pattern the bootstrapper waits for.
func (c *Config) CaptureTarget() string {
	if c.Session.CapturePattern != "" {
		return c.Session.CapturePattern
	}
	return fmt.Sprintf("/api/v1/reviews/%s/results", c.ReviewID)
}

// LoadFile reads a YAML config file over DefaultConfig.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ConfigFilePath = path
	return cfg, nil
}
