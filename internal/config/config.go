package config

import (
	"errors"
	"fmt"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

type Config struct {
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	StoreKey     string `env:"STORE_KEY" envDefault:"chama-ledger"`
	SaveTimeoutS int    `env:"SAVE_TIMEOUT_S" envDefault:"5"`

	DatabaseURL        string `env:"DATABASE_URL"`
	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetimeS int    `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int    `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"chama-ledger.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// ShareValue is the price of one share in minor units.
	ShareValue int64 `env:"SHARE_VALUE" envDefault:"100000"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings the selected backend needs but lacks.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.StoreKey == "" {
		errs = append(errs, errors.New("STORE_KEY must not be empty"))
	}
	if c.ShareValue <= 0 || c.ShareValue > domain.MaxMoney {
		errs = append(errs, fmt.Errorf("SHARE_VALUE must be between 1 and %d", domain.MaxMoney))
	}
	if c.SaveTimeoutS <= 0 {
		errs = append(errs, errors.New("SAVE_TIMEOUT_S must be positive"))
	}
	return errors.Join(errs...)
}
