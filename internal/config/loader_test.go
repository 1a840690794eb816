package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var schedulerKeys = []string{
	"SCHEDULER_HTTP_PORT",
	"SCHEDULER_ENV",
	"SCHEDULER_LOG_LEVEL",
	"SCHEDULER_STORE_DRIVER",
	"SCHEDULER_SQLITE_DSN",
	"SCHEDULER_POSTGRES_DSN",
	"SCHEDULER_IDENTITY_SECRET",
	"SCHEDULER_IDENTITY_ISSUER",
	"SCHEDULER_STRICT_AVAILABILITY",
	"SCHEDULER_TRANSACTIONAL_AGGREGATES",
	"SCHEDULER_DELETE_CONCURRENCY",
	"SCHEDULER_SHUTDOWN_TIMEOUT",
	"SCHEDULER_OTEL_ENABLED",
	"SCHEDULER_OTEL_ENDPOINT",
}

// resetEnvironment unsets every scheduler variable for the duration of the
// test and points the env file at a path that does not exist.
func resetEnvironment(t *testing.T) {
	t.Helper()
	for _, key := range schedulerKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
	t.Setenv("SCHEDULER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		resetEnvironment(t)
		const secret = "super-secret"
		t.Setenv("SCHEDULER_IDENTITY_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreDriver != DriverSQLite || cfg.SQLiteDSN != "file:scheduler.db" {
			t.Fatalf("unexpected default store: %q %q", cfg.StoreDriver, cfg.SQLiteDSN)
		}
		if !cfg.StrictAvailability || !cfg.TransactionalAggregates {
			t.Fatalf("expected strict and transactional defaults")
		}
		if cfg.DeleteConcurrency != 8 || cfg.ShutdownTimeout != 10*time.Second {
			t.Fatalf("unexpected defaults: %d %v", cfg.DeleteConcurrency, cfg.ShutdownTimeout)
		}
		if cfg.IdentitySecret != secret {
			t.Fatalf("expected identity secret to be %q, got %q", secret, cfg.IdentitySecret)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		resetEnvironment(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "必須の環境変数が設定されていません: SCHEDULER_IDENTITY_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("requires a postgres DSN for the postgres driver", func(t *testing.T) {
		resetEnvironment(t)
		t.Setenv("SCHEDULER_IDENTITY_SECRET", "secret")
		t.Setenv("SCHEDULER_STORE_DRIVER", "postgres")

		_, err := Load()
		expected := "必須の環境変数が設定されていません: SCHEDULER_POSTGRES_DSN"
		if err == nil || err.Error() != expected {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("reports invalid values", func(t *testing.T) {
		resetEnvironment(t)
		t.Setenv("SCHEDULER_IDENTITY_SECRET", "secret")
		t.Setenv("SCHEDULER_HTTP_PORT", "abc")
		t.Setenv("SCHEDULER_STORE_DRIVER", "oracle")

		_, err := Load()
		expected := "環境変数の値が不正です: SCHEDULER_HTTP_PORT, SCHEDULER_STORE_DRIVER"
		if err == nil || err.Error() != expected {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("parses overrides", func(t *testing.T) {
		resetEnvironment(t)
		t.Setenv("SCHEDULER_IDENTITY_SECRET", "secret")
		t.Setenv("SCHEDULER_STORE_DRIVER", "Memory")
		t.Setenv("SCHEDULER_STRICT_AVAILABILITY", "false")
		t.Setenv("SCHEDULER_SHUTDOWN_TIMEOUT", "3s")
		t.Setenv("SCHEDULER_DELETE_CONCURRENCY", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.StoreDriver != DriverMemory || cfg.StrictAvailability || cfg.ShutdownTimeout != 3*time.Second || cfg.DeleteConcurrency != 2 {
			t.Fatalf("unexpected config: %#v", cfg)
		}
	})

	t.Run("reads the env file without overriding the environment", func(t *testing.T) {
		resetEnvironment(t)
		path := filepath.Join(t.TempDir(), "scheduler.env")
		content := "SCHEDULER_IDENTITY_SECRET=from-file\nSCHEDULER_HTTP_PORT=9090\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("SCHEDULER_ENV_FILE", path)
		t.Setenv("SCHEDULER_HTTP_PORT", "7070")
		t.Cleanup(func() { _ = os.Unsetenv("SCHEDULER_IDENTITY_SECRET") })

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.IdentitySecret != "from-file" || cfg.HTTPPort != 7070 {
			t.Fatalf("unexpected config: %#v", cfg)
		}
	})
}
