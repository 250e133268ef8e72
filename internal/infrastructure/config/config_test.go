package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no config.toml or .env leaks in
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		inTempDir(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "qm-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "qm", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
		assert.Equal(t, DefaultJWTSecret, cfg.JWT.Secret)
		assert.Equal(t, 30*time.Second, cfg.Odoo.Timeout)
		assert.False(t, cfg.Odoo.Enabled())
		assert.Equal(t, 500, cfg.Sync.PageSize)
		assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)
		assert.Equal(t, "qm-backend", cfg.Telemetry.ServiceName)
		assert.False(t, cfg.Print.Enabled)
		assert.Equal(t, "A4", cfg.Print.PaperSize)
		assert.Equal(t, 15*time.Minute, cfg.Storage.PresignExpiration)
	})

	t.Run("loads values from environment variables with QM prefix", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("QM_APP_PORT", "9000")
		t.Setenv("QM_DATABASE_HOST", "db.internal")
		t.Setenv("QM_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("QM_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("QM_ODOO_URL", "https://odoo.example.com")
		t.Setenv("QM_ODOO_DATABASE", "qm13")
		t.Setenv("QM_SYNC_ENABLED", "true")
		t.Setenv("QM_SYNC_INTERVAL", "15m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Odoo.Enabled())
		assert.True(t, cfg.Sync.Enabled)
		assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	})

	t.Run("reads a .env file before the environment", func(t *testing.T) {
		dir := inTempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QM_ODOO_USERNAME=importer\n"), 0o600))
		t.Setenv("QM_ODOO_USERNAME", "")
		require.NoError(t, os.Unsetenv("QM_ODOO_USERNAME"))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "importer", cfg.Odoo.Username)
	})

	t.Run("reads config.toml", func(t *testing.T) {
		dir := inTempDir(t)
		toml := "[app]\nname = \"qm-test\"\n[sync]\npage_size = 50\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "qm-test", cfg.App.Name)
		assert.Equal(t, 50, cfg.Sync.PageSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("QM_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("QM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("storage without credentials is rejected", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("QM_STORAGE_ENABLED", "true")
		t.Setenv("QM_STORAGE_BUCKET", "invoices")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")
	})

	t.Run("sync without an odoo instance is rejected", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("QM_SYNC_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "odoo.url")
	})
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		cfg := &Config{App: AppConfig{Env: "production"}}
		applyDefaults(cfg)
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		return cfg
	}

	t.Run("accepts a hardened config", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("refuses the development jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = DefaultJWTSecret
		assert.ErrorContains(t, cfg.validate(), "jwt.secret")
	})

	t.Run("requires ssl", func(t *testing.T) {
		cfg := base()
		cfg.Database.SSLMode = "disable"
		assert.ErrorContains(t, cfg.validate(), "sslmode")
	})

	t.Run("rejects wildcard cors", func(t *testing.T) {
		cfg := base()
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.ErrorContains(t, cfg.validate(), "cors_allow_origins")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "qm", Password: "p@ss/word", DBName: "qm", SSLMode: "disable"}
	assert.Equal(t, "postgres://qm:p%40ss%2Fword@db:5432/qm?sslmode=disable", d.DSN())
}
