package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.API.BaseURL)
				assert.Empty(t, cfg.API.ProdBaseURL)
				assert.Equal(t, "localhost", cfg.API.Hostname)
				assert.Equal(t, 10, cfg.API.Timeout)
				assert.Equal(t, "info", cfg.Logger.Level)
				assert.Equal(t, "console", cfg.Logger.Format)
				assert.NotEmpty(t, cfg.State.File)
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"SHOP_API_URL":      "http://localhost:9000/api/v1",
				"SHOP_PROD_API_URL": "https://shop.example.com/api/v1",
				"SHOP_HOSTNAME":     "shop.example.com",
				"SHOP_API_TIMEOUT":  "30",
				"LOG_LEVEL":         "debug",
				"LOG_FORMAT":        "json",
				"SHOP_STATE_FILE":   "/tmp/shopfront-state.json",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:9000/api/v1", cfg.API.BaseURL)
				assert.Equal(t, "https://shop.example.com/api/v1", cfg.API.ProdBaseURL)
				assert.Equal(t, "shop.example.com", cfg.API.Hostname)
				assert.Equal(t, 30, cfg.API.Timeout)
				assert.Equal(t, "debug", cfg.Logger.Level)
				assert.Equal(t, "json", cfg.Logger.Format)
				assert.Equal(t, "/tmp/shopfront-state.json", cfg.State.File)
			},
		},
		{
			name: "non-numeric timeout falls back to default",
			envVars: map[string]string{
				"SHOP_API_TIMEOUT": "soon",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10, cfg.API.Timeout)
			},
		},
		{
			name: "zero timeout is rejected",
			envVars: map[string]string{
				"SHOP_API_TIMEOUT": "0",
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			envVars: map[string]string{
				"LOG_LEVEL": "verbose",
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			envVars: map[string]string{
				"LOG_FORMAT": "xml",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"SHOP_API_URL", "SHOP_PROD_API_URL", "SHOP_HOSTNAME",
				"SHOP_API_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "SHOP_STATE_FILE",
			} {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:    APIConfig{Hostname: "localhost", Timeout: 10},
			Logger: LoggerConfig{Level: "info", Format: "console"},
			State:  StateConfig{File: "/tmp/state.json"},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing hostname", func(t *testing.T) {
		cfg := valid()
		cfg.API.Hostname = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing state file", func(t *testing.T) {
		cfg := valid()
		cfg.State.File = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := valid()
		cfg.API.Timeout = -1
		assert.Error(t, cfg.Validate())
	})
}
