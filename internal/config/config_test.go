package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Batch.DownloadDir != "SDS" {
		t.Errorf("unexpected download dir: %s", cfg.Batch.DownloadDir)
	}
	if cfg.Batch.PoolSize != 10 {
		t.Errorf("unexpected pool size: %d", cfg.Batch.PoolSize)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9090"
batch:
  downloadDir: /srv/sheets
  poolSize: 4
catalogs:
  userAgent: "sdsfinder-test/1.0"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(poolSizeEnv, "7")

	cfg := Load()

	if cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Batch.DownloadDir != "/srv/sheets" {
		t.Errorf("unexpected download dir: %s", cfg.Batch.DownloadDir)
	}
	if cfg.Batch.PoolSize != 7 {
		t.Errorf("env override lost: pool size %d", cfg.Batch.PoolSize)
	}
	if cfg.Catalogs.UserAgent != "sdsfinder-test/1.0" {
		t.Errorf("unexpected user agent: %s", cfg.Catalogs.UserAgent)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestInvalidPoolSizeEnvIsIgnored(t *testing.T) {
	t.Setenv(poolSizeEnv, "zero")

	cfg := Load()
	if cfg.Batch.PoolSize != 10 {
		t.Errorf("invalid env value must keep the default, got %d", cfg.Batch.PoolSize)
	}
}
