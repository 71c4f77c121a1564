package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/debrief/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "disabled skips checks", modify: func(c *Config) { c.Endpoint = "" }},
		{name: "enabled local", modify: func(c *Config) { c.Enabled = true }},
		{
			name:    "missing endpoint",
			modify:  func(c *Config) { c.Enabled = true; c.Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "unknown protocol",
			modify:  func(c *Config) { c.Enabled = true; c.Protocol = "thrift" },
			wantErr: "protocol must be",
		},
		{
			name:    "insecure remote",
			modify:  func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" },
			wantErr: "insecure connections to remote endpoints",
		},
		{
			name:   "tls remote",
			modify: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317"; c.Insecure = false },
		},
		{
			name:   "insecure ipv6 loopback",
			modify: func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" },
		},
		{
			name:    "sample rate",
			modify:  func(c *Config) { c.Enabled = true; c.SampleRate = 1.5 },
			wantErr: "sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.TelemetryConfig{
		Enabled:    true,
		Endpoint:   "https://collector.internal:4318",
		Protocol:   ProtocolHTTP,
		SampleRate: 0.25,
	}, "1.2.0")

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, "https://collector.internal:4318", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, "debrief", cfg.ServiceName)
	assert.Equal(t, "1.2.0", cfg.ServiceVersion)
	assert.Equal(t, 0.25, cfg.SampleRate)
	assert.NoError(t, cfg.Validate())
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.True(t, tel.Health().Healthy)
	assert.NotNil(t, tel.Tracer("test"))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_WithExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	tel, err := New(context.Background(), cfg, WithTraceExporter(exporter))
	require.NoError(t, err)
	assert.True(t, tel.IsEnabled())

	_, span := tel.Tracer("debrief-test").Start(context.Background(), "debrief.evaluate")
	span.End()

	require.NoError(t, tel.ForceFlush(context.Background()))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "debrief.evaluate", spans[0].Name)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tel.Shutdown(ctx))
	assert.False(t, tel.Health().Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Protocol = "udp"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid telemetry config")
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.True(t, tel.Health().Degraded)
	assert.False(t, tel.IsEnabled())
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("http://collector:4318"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	_, span := tt.Tracer("x").Start(context.Background(), "debrief.check_item")
	span.End()

	tt.AssertSpanExists(t, "debrief.check_item")
	assert.Len(t, tt.SpansByName("debrief.check_item"), 1)
}
