package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted by SCHEDULER_STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort    int    `env:"SCHEDULER_HTTP_PORT" envDefault:"8080"`
	Environment string `env:"SCHEDULER_ENV" envDefault:"development"`
	LogLevel    string `env:"SCHEDULER_LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"SCHEDULER_STORE_DRIVER" envDefault:"sqlite"`
	SQLiteDSN   string `env:"SCHEDULER_SQLITE_DSN" envDefault:"file:scheduler.db"`
	PostgresDSN string `env:"SCHEDULER_POSTGRES_DSN"`

	IdentitySecret string `env:"SCHEDULER_IDENTITY_SECRET"`
	IdentityIssuer string `env:"SCHEDULER_IDENTITY_ISSUER"`

	StrictAvailability      bool          `env:"SCHEDULER_STRICT_AVAILABILITY" envDefault:"true"`
	TransactionalAggregates bool          `env:"SCHEDULER_TRANSACTIONAL_AGGREGATES" envDefault:"true"`
	DeleteConcurrency       int           `env:"SCHEDULER_DELETE_CONCURRENCY" envDefault:"8"`
	ShutdownTimeout         time.Duration `env:"SCHEDULER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	OTelEnabled  bool   `env:"SCHEDULER_OTEL_ENABLED" envDefault:"true"`
	OTelEndpoint string `env:"SCHEDULER_OTEL_ENDPOINT"`
}

// Load reads an optional env file, then parses configuration values from the
// process environment. Variables already set in the environment win over the
// file. Missing or invalid entries are reported together with localized messages.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("SCHEDULER_ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("環境変数の値が不正です: SCHEDULER_ENV_FILE")
	}

	var cfg Config
	invalid := make([]string, 0, 2)
	if err := env.Parse(&cfg); err != nil {
		keys := invalidKeys(err)
		if len(keys) == 0 {
			return Config{}, fmt.Errorf("parse env: %w", err)
		}
		invalid = append(invalid, keys...)
	}

	missing := make([]string, 0, 2)

	cfg.IdentitySecret = strings.TrimSpace(cfg.IdentitySecret)
	if cfg.IdentitySecret == "" {
		missing = append(missing, "SCHEDULER_IDENTITY_SECRET")
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLiteDSN) == "" {
			missing = append(missing, "SCHEDULER_SQLITE_DSN")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			missing = append(missing, "SCHEDULER_POSTGRES_DSN")
		}
	case DriverMemory:
	default:
		invalid = append(invalid, "SCHEDULER_STORE_DRIVER")
	}

	if cfg.HTTPPort <= 0 && !contains(invalid, "SCHEDULER_HTTP_PORT") {
		invalid = append(invalid, "SCHEDULER_HTTP_PORT")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
	}

	if cfg.DeleteConcurrency <= 0 && !contains(invalid, "SCHEDULER_DELETE_CONCURRENCY") {
		invalid = append(invalid, "SCHEDULER_DELETE_CONCURRENCY")
	}
	if cfg.ShutdownTimeout <= 0 && !contains(invalid, "SCHEDULER_SHUTDOWN_TIMEOUT") {
		invalid = append(invalid, "SCHEDULER_SHUTDOWN_TIMEOUT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// invalidKeys returns the variable names behind the conversion failures in err.
func invalidKeys(err error) []string {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil
	}

	keys := make([]string, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var parseErr env.ParseError
		if errors.As(e, &parseErr) {
			if key := envKey(parseErr.Name); key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func envKey(field string) string {
	sf, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return ""
	}
	key, _, _ := strings.Cut(sf.Tag.Get("env"), ",")
	return key
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
