package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantErr   bool
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "full file",
			file: "full.yaml",
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "eu-west-1", cfg.Region)
				assert.Equal(t, "quotas-admin", cfg.Profile)
				assert.Equal(t, "9090", cfg.Server.Port)
				assert.Equal(t, 15*time.Minute, cfg.GetCacheTTL())
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, 4, cfg.MaxConcurrency)
			},
		},
		{
			name: "partial file keeps defaults",
			file: "partial.yaml",
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "ap-southeast-2", cfg.Region)
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, 5*time.Minute, cfg.GetCacheTTL())
				assert.Equal(t, 10, cfg.MaxConcurrency)
			},
		},
		{
			name: "missing file returns defaults",
			file: "does-not-exist.yaml",
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name:    "invalid yaml",
			file:    "broken.yaml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("testdata", tt.file))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("PORT", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("QUOTA_PROVIDER_LOG", "")
	assert.Equal(t, "8080", cfg.GetPort())
	assert.Equal(t, "us-east-1", cfg.GetRegion())
	assert.Equal(t, "info", cfg.GetLogLevel())

	t.Setenv("PORT", "3000")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("QUOTA_PROVIDER_LOG", "warn")
	assert.Equal(t, "3000", cfg.GetPort())
	assert.Equal(t, "us-west-2", cfg.GetRegion())
	assert.Equal(t, "warn", cfg.GetLogLevel())
}
