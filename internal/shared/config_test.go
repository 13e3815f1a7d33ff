package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Repository.Backend != BackendMemory {
			t.Errorf("expected backend memory, got %s", config.Repository.Backend)
		}

		if config.Database.Path != "./lipl.db" {
			t.Errorf("expected database path ./lipl.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("expected addr 127.0.0.1:3000, got %s", config.Server.Addr())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Repository.Snapshot != DefaultConfig().Repository.Snapshot {
			t.Errorf("created config snapshot path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[repository]
backend = "sqlite"

[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Repository.Backend != BackendSQLite {
			t.Errorf("expected backend sqlite, got %s", config.Repository.Backend)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected unset values to keep defaults, got log level %q", config.Log.Level)
		}
	})

	t.Run("LoadConfig rejects unknown backend", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[repository]\nbackend = \"postgres\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("LIPL_LOG_LEVEL=debug\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("LIPL_BACKEND", "fs")
		t.Setenv("LIPL_DIRECTORY", "/tmp/lipl")
		t.Setenv("LIPL_SERVER_PORT", "9090")
		t.Cleanup(func() { os.Unsetenv("LIPL_LOG_LEVEL") })

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Repository.Backend != BackendFS {
			t.Errorf("expected backend fs, got %s", config.Repository.Backend)
		}
		if config.Repository.Directory != "/tmp/lipl" {
			t.Errorf("expected directory /tmp/lipl, got %s", config.Repository.Directory)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", config.Server.Port)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level from env file, got %s", config.Log.Level)
		}
	})

	t.Run("ApplyEnv rejects bad port", func(t *testing.T) {
		t.Setenv("LIPL_SERVER_PORT", "eighty")

		err := DefaultConfig().ApplyEnv("")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
