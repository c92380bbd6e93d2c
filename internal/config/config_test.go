package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHATBOT_API_KEY", "sk-test")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Idempotency.TTL)
	assert.True(t, cfg.UsesRedis())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHATBOT_API_KEY", "sk-test")
	t.Setenv("STORE_BACKEND", "MONGO")
	t.Setenv("IDEMPOTENCY_ENABLED", "false")
	t.Setenv("ASSISTANT_TIMEOUT", "5s")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Basic abc, X-Scope=dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.Store.Backend)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, 5*time.Second, cfg.Assistant.Timeout)
	assert.Equal(t, map[string]string{"Authorization": "Basic abc", "X-Scope": "dev"}, cfg.OTEL.Headers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "sqlite" },
			wantErr: "STORE_BACKEND",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Assistant.APIKey = "" },
			wantErr: "CHATBOT_API_KEY",
		},
		{
			name: "assistant disabled needs no key",
			mutate: func(c *Config) {
				c.Assistant.Enabled = false
				c.Assistant.APIKey = ""
			},
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Store.Backend = BackendS3
				c.S3.Bucket = ""
			},
			wantErr: "S3_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store:     StoreConfig{Backend: BackendRedis},
				Assistant: AssistantConfig{Enabled: true, APIKey: "k", Model: "m"},
				S3:        S3Config{Bucket: "b"},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
