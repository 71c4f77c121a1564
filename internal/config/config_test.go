package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "debrief.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Catalog.Root)
	assert.Equal(t, DefaultBranchCodes, cfg.Catalog.BranchCodes)
	assert.Equal(t, ProviderOpenAI, cfg.Validator.Provider)
	assert.Equal(t, 60*time.Second, cfg.Validator.CallTimeout.Duration())
	assert.Equal(t, 3, cfg.Validator.MaxRetries)
	assert.Equal(t, DefaultConcurrency(), cfg.Evaluation.Concurrency)
	assert.Zero(t, cfg.Evaluation.Tolerance)
	assert.Equal(t, 9190, cfg.Server.Port)
	assert.Equal(t, "debrief", cfg.Events.SubjectPrefix)
}

func TestDefaultConcurrency(t *testing.T) {
	n := DefaultConcurrency()
	assert.GreaterOrEqual(t, n, 5)
	assert.LessOrEqual(t, n, 32)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Validator.APIKey = "sk-test"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with key", mutate: func(*Config) {}},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Validator.APIKey = "" },
			wantErr: "validator.api_key is required",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Validator.Provider = "cohere" },
			wantErr: "validator.provider",
		},
		{
			name:    "tolerance of one",
			mutate:  func(c *Config) { c.Evaluation.Tolerance = 1 },
			wantErr: "evaluation.tolerance",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Evaluation.Tolerance = -0.1 },
			wantErr: "evaluation.tolerance",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Evaluation.Concurrency = 0 },
			wantErr: "evaluation.concurrency",
		},
		{
			name:    "branch code with path separator",
			mutate:  func(c *Config) { c.Catalog.BranchCodes = []string{"../CPR"} },
			wantErr: "catalog.branch_codes",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "bad telemetry protocol",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Protocol = "udp" },
			wantErr: "telemetry.protocol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearKeys(t)
	path := writeConfig(t, `
catalog:
  root: /srv/catalogs
  branch_codes: [CPR, AED]
validator:
  provider: anthropic
  api_key: from-file
  call_timeout: 30s
evaluation:
  tolerance: 0.2
`)
	t.Setenv("DEBRIEF_EVALUATION_CONCURRENCY", "7")
	t.Setenv("DEBRIEF_VALIDATOR_CALL_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/catalogs", cfg.Catalog.Root)
	assert.Equal(t, []string{"CPR", "AED"}, cfg.Catalog.BranchCodes)
	assert.Equal(t, ProviderAnthropic, cfg.Validator.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Validator.Model)
	assert.Equal(t, "from-file", cfg.Validator.APIKey.Value())
	assert.Equal(t, 45*time.Second, cfg.Validator.CallTimeout.Duration())
	assert.Equal(t, 7, cfg.Evaluation.Concurrency)
	assert.InDelta(t, 0.2, cfg.Evaluation.Tolerance, 1e-9)
}

func TestLoad_EnvBranchCodesCommaSeparated(t *testing.T) {
	clearKeys(t)
	t.Setenv("DEBRIEF_VALIDATOR_API_KEY", "sk-env")
	t.Setenv("DEBRIEF_CATALOG_BRANCH_CODES", "CPR, AED ,CB")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"CPR", "AED", "CB"}, cfg.Catalog.BranchCodes)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.Validator.APIKey.Value())
}

func TestLoad_MissingKeyFailsValidation(t *testing.T) {
	clearKeys(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validator.api_key")

	cfg, err := LoadUnvalidated("")
	require.NoError(t, err)
	assert.False(t, cfg.Validator.APIKey.IsSet())
}

func TestLoad_FileErrors(t *testing.T) {
	clearKeys(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open config file")

	_, err = Load(t.TempDir())
	assert.ErrorContains(t, err, "not a regular file")

	_, err = Load(writeConfig(t, "catalog: [unterminated"))
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "validator.api_key", envKey("DEBRIEF_VALIDATOR_API_KEY"))
	assert.Equal(t, "server.port", envKey("DEBRIEF_SERVER_PORT"))
	assert.Equal(t, "catalog", envKey("DEBRIEF_CATALOG"))
}

func TestSecret(t *testing.T) {
	s := Secret("sk-live-123")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "sk-live-123", s.Value())

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"[REDACTED]"`, string(b))

	assert.Empty(t, Secret("").String())
	assert.False(t, Secret("").IsSet())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
