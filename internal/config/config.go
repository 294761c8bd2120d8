package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/medicinia/medicinia/internal/platform/apperr"
)

const (
	DriverLevelDB  = "leveldb"
	DriverPostgres = "postgres"
)

type Config struct {
	Env               string  `mapstructure:"ENV"`
	LogLevel          string  `mapstructure:"LOG_LEVEL"`
	GeminiAPIKey      string  `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string  `mapstructure:"GEMINI_MODEL"`
	GeminiTemperature float32 `mapstructure:"GEMINI_TEMPERATURE"`
	StoreDriver       string  `mapstructure:"STORE_DRIVER"`
	StorePath         string  `mapstructure:"STORE_PATH"`
	StoreTable        string  `mapstructure:"STORE_TABLE"`
	DatabaseURL       string  `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32   `mapstructure:"DB_MIN_CONNS"`
	PHIEncryptionKey  string  `mapstructure:"PHI_ENCRYPTION_KEY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GEMINI_MODEL", "gemini-3-flash-preview")
	v.SetDefault("GEMINI_TEMPERATURE", 0.2)
	v.SetDefault("STORE_DRIVER", DriverLevelDB)
	v.SetDefault("STORE_PATH", "./data/medicinia")
	v.SetDefault("STORE_TABLE", "medicinia_kv")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY")
	v.BindEnv("GEMINI_MODEL")
	v.BindEnv("GEMINI_TEMPERATURE")
	v.BindEnv("STORE_DRIVER")
	v.BindEnv("STORE_PATH")
	v.BindEnv("STORE_TABLE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("PHI_ENCRYPTION_KEY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when running with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the storage settings are usable. PHI_ENCRYPTION_KEY,
// when set, must be a 64-character hex string (32 bytes when decoded).
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverLevelDB:
		if c.StorePath == "" {
			return apperr.Config("STORE_PATH", "is required when STORE_DRIVER is \"leveldb\"")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return apperr.Config("DATABASE_URL", "is required when STORE_DRIVER is \"postgres\"")
		}
		if c.DBMinConns > c.DBMaxConns {
			return apperr.Config("DB_MIN_CONNS", fmt.Sprintf("must not exceed DB_MAX_CONNS (%d > %d)", c.DBMinConns, c.DBMaxConns))
		}
	default:
		return apperr.Config("STORE_DRIVER", fmt.Sprintf("must be %q or %q, got %q", DriverLevelDB, DriverPostgres, c.StoreDriver))
	}

	if c.GeminiTemperature < 0 || c.GeminiTemperature > 2 {
		return apperr.Config("GEMINI_TEMPERATURE", fmt.Sprintf("must be between 0 and 2, got %v", c.GeminiTemperature))
	}

	if c.PHIEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(c.PHIEncryptionKey)
		if err != nil {
			return apperr.Config("PHI_ENCRYPTION_KEY", fmt.Sprintf("is not valid hex: %v", err))
		}
		if len(keyBytes) != 32 {
			return apperr.Config("PHI_ENCRYPTION_KEY", fmt.Sprintf("must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes)))
		}
	}

	return nil
}

// RequireCredential reports a fatal error when no provider API key is set.
// Only commands that call the provider need it.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return apperr.Config("GEMINI_API_KEY", "is required (API_KEY is accepted as a fallback)")
	}
	return nil
}
