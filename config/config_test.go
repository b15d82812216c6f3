package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Equal(t, 9090, cfg.Server.Port)
			assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
			assert.Equal(t, "debug", cfg.Logging.Level)
			assert.Equal(t, "json", cfg.Logging.Format)
			assert.Equal(t, "rmbg-test", cfg.App.Name)
			assert.Equal(t, "https://example-bg-remover.hf.space", cfg.RemBG.BaseURL)
			assert.Equal(t, 12, cfg.RemBG.TriggerID)
			assert.Equal(t, 90*time.Second, cfg.RemBG.PollTimeout)
			assert.Equal(t, "/tmp/rmbg-test", cfg.Scratch.Dir)

			// 文件中缺省的字段保留默认值
			assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
			assert.Equal(t, "stdout", cfg.Logging.Output)
			assert.Equal(t, time.Hour, cfg.Scratch.MaxAge)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.RemBG.TriggerID)
	assert.Equal(t, "https://ecshreve-bg-remover.hf.space", cfg.RemBG.BaseURL)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{
			name:      "port too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			errString: "invalid server port: 0",
		},
		{
			name:      "port too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			errString: "invalid server port: 70000",
		},
		{
			name:      "base url without scheme",
			mutate:    func(c *Config) { c.RemBG.BaseURL = "bg-remover.hf.space" },
			errString: "invalid rembg base_url",
		},
		{
			name:      "negative poll timeout",
			mutate:    func(c *Config) { c.RemBG.PollTimeout = -time.Second },
			errString: "poll_timeout must not be negative",
		},
		{
			name:      "empty scratch dir",
			mutate:    func(c *Config) { c.Scratch.Dir = "" },
			errString: "scratch dir is required",
		},
		{
			name:      "zero max age",
			mutate:    func(c *Config) { c.Scratch.MaxAge = 0 },
			errString: "max_age must be greater than 0",
		},
		{
			name:      "bad sweep spec",
			mutate:    func(c *Config) { c.Scratch.SweepSpec = "every now and then" },
			errString: "invalid scratch sweep_spec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestConfig_Validate_ZeroPollTimeoutAllowed(t *testing.T) {
	cfg := Default()
	cfg.RemBG.PollTimeout = 0
	assert.NoError(t, cfg.Validate())
}
