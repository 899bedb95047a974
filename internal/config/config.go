package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type HTTPConfig struct {
	RetryCount        int     `yaml:"retry_count"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type Config struct {
	LogLevel             string     `yaml:"log_level"`
	SourcesFile          string     `yaml:"sources"`
	CatalogDir           string     `yaml:"catalog_dir"`
	RedisURL             string     `yaml:"redis_url"`
	SubscriptionEndpoint string     `yaml:"subscription_endpoint"`
	HTTP                 HTTPConfig `yaml:"http"`
}

func MustLoad(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("cannot read config %s: %s", path, err))
	}

	cfg := &Config{
		LogLevel: LogLevelInfo,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		panic(fmt.Sprintf("cannot parse config %s: %s", path, err))
	}

	if cfg.SourcesFile == "" && cfg.CatalogDir == "" {
		panic("config must define sources or catalog_dir")
	}

	return cfg
}
