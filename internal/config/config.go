package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Region         string       `yaml:"region"`
	Profile        string       `yaml:"profile"`
	Server         ServerConfig `yaml:"server"`
	Cache          CacheConfig  `yaml:"cache"`
	Log            LogConfig    `yaml:"log"`
	MaxConcurrency int          `yaml:"max_concurrency"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default configuration
func Default() *Config {
	return &Config{
		Region: "us-east-1",
		Server: ServerConfig{
			Port: "8080",
		},
		Cache: CacheConfig{
			TTLMinutes: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
		MaxConcurrency: 10,
	}
}

// Load configuration from file
func Load(filename string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// If file doesn't exist, return defaults
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetCacheTTL returns the cache TTL as a duration
func (c *Config) GetCacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// GetPort returns the server port, checking environment variable first
func (c *Config) GetPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return c.Server.Port
}

// GetRegion prefers AWS_REGION over the configured region.
func (c *Config) GetRegion() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return c.Region
}

// GetLogLevel prefers QUOTA_PROVIDER_LOG over the configured level.
func (c *Config) GetLogLevel() string {
	if level := os.Getenv("QUOTA_PROVIDER_LOG"); level != "" {
		return level
	}
	return c.Log.Level
}
