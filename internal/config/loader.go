package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "DEBRIEF_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load reads configuration from an optional YAML file, then overrides it with
// environment variables, applies defaults and validates.
//
// Precedence (highest to lowest):
//  1. DEBRIEF_* environment variables
//  2. the YAML file at configPath (skipped when configPath is empty)
//  3. defaults
//
// Environment variables map to keys by splitting on the first underscore
// after the prefix:
//
//	DEBRIEF_VALIDATOR_API_KEY    -> validator.api_key
//	DEBRIEF_EVALUATION_TOLERANCE -> evaluation.tolerance
//	DEBRIEF_CATALOG_BRANCH_CODES -> catalog.branch_codes (comma separated)
//
// OPENAI_API_KEY and ANTHROPIC_API_KEY are used when validator.api_key is
// unset and the matching provider is selected.
func Load(configPath string) (*Config, error) {
	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final Validate call. The check-config
// command uses it to report every problem at once.
func LoadUnvalidated(configPath string) (*Config, error) {
	return load(configPath)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Catalog.BranchCodes = splitList(cfg.Catalog.BranchCodes)
	applyAPIKeyFallback(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// envKey maps DEBRIEF_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// splitList expands comma separated entries, which is how list values
// arrive from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func applyAPIKeyFallback(cfg *Config) {
	if cfg.Validator.APIKey.IsSet() {
		return
	}
	provider := cfg.Validator.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}
	switch provider {
	case ProviderOpenAI:
		cfg.Validator.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	case ProviderAnthropic:
		cfg.Validator.APIKey = Secret(os.Getenv("ANTHROPIC_API_KEY"))
	}
}
