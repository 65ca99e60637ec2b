package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "SDSFINDER_CONFIG"
	addrEnv        = "SDSFINDER_ADDR"
	downloadDirEnv = "SDSFINDER_DOWNLOAD_DIR"
	poolSizeEnv    = "SDSFINDER_POOL_SIZE"
	logLevelEnv    = "SDSFINDER_LOG_LEVEL"
	userAgentEnv   = "SDSFINDER_USER_AGENT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Batch    BatchConfig   `yaml:"batch"`
	Catalogs CatalogConfig `yaml:"catalogs"`
	Logging  LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the REST front end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// TempRoot is where per-request download directories are created.
	TempRoot string `yaml:"tempRoot"`
}

// BatchConfig describes bulk download behavior.
type BatchConfig struct {
	DownloadDir string `yaml:"downloadDir"`
	PoolSize    int    `yaml:"poolSize"`
}

// CatalogConfig groups settings shared by all catalog adapters.
type CatalogConfig struct {
	// UserAgent overrides the default browser-like client identity.
	UserAgent string `yaml:"userAgent"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(downloadDirEnv); v != "" {
		c.Batch.DownloadDir = v
	}
	if v := os.Getenv(poolSizeEnv); v != "" {
		if size, err := strconv.Atoi(v); err != nil || size <= 0 {
			log.Printf("config: invalid %s=%q, keeping %d", poolSizeEnv, v, c.Batch.PoolSize)
		} else {
			c.Batch.PoolSize = size
		}
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(userAgentEnv); v != "" {
		c.Catalogs.UserAgent = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.TempRoot != "" {
		base.Server.TempRoot = override.Server.TempRoot
	}

	if override.Batch.DownloadDir != "" {
		base.Batch.DownloadDir = override.Batch.DownloadDir
	}
	if override.Batch.PoolSize > 0 {
		base.Batch.PoolSize = override.Batch.PoolSize
	}

	if override.Catalogs.UserAgent != "" {
		base.Catalogs.UserAgent = override.Catalogs.UserAgent
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":8080",
			TempRoot: filepath.Join(os.TempDir(), "sds_downloads"),
		},
		Batch: BatchConfig{
			DownloadDir: "SDS",
			PoolSize:    10,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
