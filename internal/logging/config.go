package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level     zapcore.Level     `koanf:"level"`
	Format    string            `koanf:"format"`
	Output    OutputConfig      `koanf:"output"`
	Caller    CallerConfig      `koanf:"caller"`
	Fields    map[string]string `koanf:"fields"`
	Redaction RedactionConfig   `koanf:"redaction"`
}

// OutputConfig controls where logs are written.
type OutputConfig struct {
	// Stream is "stdout", "stderr" or "" (no local output).
	Stream string `koanf:"stream"`
	OTEL   bool   `koanf:"otel"`
}

// CallerConfig controls caller information in logs.
type CallerConfig struct {
	Enabled bool `koanf:"enabled"`
	Skip    int  `koanf:"skip"`
}

// RedactionConfig controls sensitive data redaction.
type RedactionConfig struct {
	Enabled bool `koanf:"enabled"`
	// Fields are keys whose values are always replaced.
	Fields []string `koanf:"fields"`
	// Patterns are replaced wherever they occur in messages and string values.
	Patterns []string `koanf:"patterns"`
}

// PhonePattern matches North American phone numbers as callers read them out.
const PhonePattern = `\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}\b`

// NewDefaultConfig returns config with production defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{Stream: "stderr"},
		Caller: CallerConfig{Enabled: true, Skip: 1},
		Fields: map[string]string{
			"service": "debrief",
		},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"api_key", "authorization", "token", "secret", "password", "transcript",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)api[_-]?key[=:]\s*\S+`,
				`\bsk-[A-Za-z0-9_-]{8,}`,
				PhonePattern,
			},
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	switch c.Output.Stream {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("output stream must be 'stdout' or 'stderr', got %q", c.Output.Stream)
	}
	if c.Output.Stream == "" && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (stream or otel)")
	}
	if c.Caller.Enabled && c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}
	if c.Redaction.Enabled {
		for _, p := range c.Redaction.Patterns {
			if len(p) > 200 {
				return fmt.Errorf("redaction pattern too long (max 200 chars): %q", p)
			}
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", p, err)
			}
		}
	}
	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}
