// Package config provides configuration loading for debrief.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Validator providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultBranchCodes are the protocol flags that select a time/life-critical
// branch when reported first.
var DefaultBranchCodes = []string{"AC", "AED", "BTA", "CB", "CPR", "OA"}

// Config is the complete debrief configuration.
type Config struct {
	Catalog    CatalogConfig    `koanf:"catalog"`
	Validator  ValidatorConfig  `koanf:"validator"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Logging    LoggingConfig    `koanf:"logging"`
	Server     ServerConfig     `koanf:"server"`
	Events     EventsConfig     `koanf:"events"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// CatalogConfig locates the guidecard and protocol catalogs.
type CatalogConfig struct {
	// Root contains guidecards/<incident_type>/ and protocols/<code>/.
	Root        string   `koanf:"root"`
	BranchCodes []string `koanf:"branch_codes"`
	// Watch invalidates cached catalogs when files under Root change.
	Watch bool `koanf:"watch"`
}

// ValidatorConfig configures the LLM-backed semantic validator.
type ValidatorConfig struct {
	Provider    string   `koanf:"provider"`
	Model       string   `koanf:"model"`
	BaseURL     string   `koanf:"base_url"`
	APIKey      Secret   `koanf:"api_key"`
	CallTimeout Duration `koanf:"call_timeout"`
	MaxRetries  int      `koanf:"max_retries"`
	// RateLimit is requests per second shared by all calls of a process.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
	// PromptsFile is an optional TOML file overriding per-category prompts.
	PromptsFile string `koanf:"prompts_file"`
}

// EvaluationConfig tunes orchestration and aggregation.
type EvaluationConfig struct {
	// Concurrency bounds in-flight fine-grained item checks.
	Concurrency int `koanf:"concurrency"`
	// Tolerance is the relaxation ratio t in [0, 1).
	Tolerance float64 `koanf:"tolerance"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// EventsConfig configures lifecycle event publishing. Empty NATSURL disables it.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultConcurrency mirrors a typical I/O-bound pool size: NumCPU+4, capped at 32.
func DefaultConcurrency() int {
	n := runtime.NumCPU() + 4
	if n > 32 {
		n = 32
	}
	return n
}

func applyDefaults(cfg *Config) {
	if cfg.Catalog.Root == "" {
		cfg.Catalog.Root = "."
	}
	if len(cfg.Catalog.BranchCodes) == 0 {
		cfg.Catalog.BranchCodes = append([]string(nil), DefaultBranchCodes...)
	}

	if cfg.Validator.Provider == "" {
		cfg.Validator.Provider = ProviderOpenAI
	}
	if cfg.Validator.Model == "" {
		switch cfg.Validator.Provider {
		case ProviderAnthropic:
			cfg.Validator.Model = "claude-sonnet-4-5"
		default:
			cfg.Validator.Model = "gpt-4o"
		}
	}
	if cfg.Validator.CallTimeout == 0 {
		cfg.Validator.CallTimeout = Duration(60 * time.Second)
	}
	if cfg.Validator.MaxRetries == 0 {
		cfg.Validator.MaxRetries = 3
	}
	if cfg.Validator.RateLimit == 0 {
		cfg.Validator.RateLimit = 5
	}
	if cfg.Validator.Burst == 0 {
		cfg.Validator.Burst = 5
	}

	if cfg.Evaluation.Concurrency == 0 {
		cfg.Evaluation.Concurrency = DefaultConcurrency()
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9190
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "debrief"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "debrief"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Catalog.Root) == "" {
		errs = append(errs, errors.New("catalog.root is required"))
	}
	for _, code := range c.Catalog.BranchCodes {
		if strings.TrimSpace(code) == "" || strings.ContainsAny(code, `/\.`) {
			errs = append(errs, fmt.Errorf("catalog.branch_codes: invalid code %q", code))
		}
	}

	switch c.Validator.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if !c.Validator.APIKey.IsSet() {
			errs = append(errs, fmt.Errorf("validator.api_key is required for provider %q", c.Validator.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("validator.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderAnthropic, c.Validator.Provider))
	}
	if c.Validator.CallTimeout.Duration() <= 0 {
		errs = append(errs, errors.New("validator.call_timeout must be > 0"))
	}
	if c.Validator.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("validator.max_retries must be >= 0, got %d", c.Validator.MaxRetries))
	}
	if c.Validator.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("validator.rate_limit must be > 0, got %v", c.Validator.RateLimit))
	}
	if c.Validator.Burst < 1 {
		errs = append(errs, fmt.Errorf("validator.burst must be >= 1, got %d", c.Validator.Burst))
	}

	if c.Evaluation.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("evaluation.concurrency must be >= 1, got %d", c.Evaluation.Concurrency))
	}
	if c.Evaluation.Tolerance < 0 || c.Evaluation.Tolerance >= 1 {
		errs = append(errs, fmt.Errorf("evaluation.tolerance must be in [0, 1), got %v", c.Evaluation.Tolerance))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
			errs = append(errs, fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol))
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			errs = append(errs, fmt.Errorf("telemetry.sample_rate must be in [0, 1], got %v", c.Telemetry.SampleRate))
		}
	}

	return errors.Join(errs...)
}
