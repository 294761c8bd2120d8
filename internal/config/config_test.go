package config

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/medicinia/medicinia/internal/platform/apperr"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "STORE_PATH", "GEMINI_MODEL", "GEMINI_TEMPERATURE", "DB_MAX_CONNS"} {
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != DriverLevelDB {
		t.Errorf("expected default driver leveldb, got %s", cfg.StoreDriver)
	}
	if cfg.StorePath != "./data/medicinia" {
		t.Errorf("expected default store path, got %s", cfg.StorePath)
	}
	if cfg.GeminiModel != "gemini-3-flash-preview" {
		t.Errorf("expected default model, got %s", cfg.GeminiModel)
	}
	if cfg.GeminiTemperature < 0.19 || cfg.GeminiTemperature > 0.21 {
		t.Errorf("expected default temperature 0.2, got %v", cfg.GeminiTemperature)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("expected default max conns 10, got %d", cfg.DBMaxConns)
	}
}

func TestLoad_APIKeyFallback(t *testing.T) {
	os.Unsetenv("GEMINI_API_KEY")
	os.Setenv("API_KEY", "fallback-key")
	defer os.Unsetenv("API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeminiAPIKey != "fallback-key" {
		t.Errorf("expected API_KEY fallback, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoad_DriverNormalized(t *testing.T) {
	os.Setenv("STORE_DRIVER", " Postgres ")
	defer os.Unsetenv("STORE_DRIVER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("expected postgres, got %q", cfg.StoreDriver)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
	if !c.IsProduction() {
		t.Error("expected IsProduction() to return true for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	validKey := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		cfg     Config
		setting string
	}{
		{"leveldb ok", Config{StoreDriver: DriverLevelDB, StorePath: "./data"}, ""},
		{"leveldb without path", Config{StoreDriver: DriverLevelDB}, "STORE_PATH"},
		{"postgres ok", Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://localhost/db", DBMaxConns: 5, DBMinConns: 1}, ""},
		{"postgres without url", Config{StoreDriver: DriverPostgres}, "DATABASE_URL"},
		{"postgres min above max", Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://localhost/db", DBMaxConns: 1, DBMinConns: 5}, "DB_MIN_CONNS"},
		{"unknown driver", Config{StoreDriver: "redis"}, "STORE_DRIVER"},
		{"temperature out of range", Config{StoreDriver: DriverLevelDB, StorePath: "./data", GeminiTemperature: 3}, "GEMINI_TEMPERATURE"},
		{"valid key", Config{StoreDriver: DriverLevelDB, StorePath: "./data", PHIEncryptionKey: validKey}, ""},
		{"key not hex", Config{StoreDriver: DriverLevelDB, StorePath: "./data", PHIEncryptionKey: strings.Repeat("zz", 32)}, "PHI_ENCRYPTION_KEY"},
		{"key too short", Config{StoreDriver: DriverLevelDB, StorePath: "./data", PHIEncryptionKey: "abcd"}, "PHI_ENCRYPTION_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.setting == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *apperr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Setting != tt.setting {
				t.Errorf("expected setting %s, got %s", tt.setting, ce.Setting)
			}
		})
	}
}

func TestConfig_RequireCredential(t *testing.T) {
	c := &Config{}
	var ce *apperr.ConfigError
	if err := c.RequireCredential(); !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	c.GeminiAPIKey = "key"
	if err := c.RequireCredential(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
