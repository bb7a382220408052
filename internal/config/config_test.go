package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EQAR/eqar-db/internal/config"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://registry@localhost/registry?sslmode=disable")
	t.Setenv("APP_PORT", "9090")

	conf, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", conf.Addr())
	require.Equal(t, "postgres", conf.Database.Driver)
	require.True(t, conf.MigrateOnStart())
	require.Equal(t, "info", conf.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
database:
  driver: sqlite
  dsn: /tmp/registry.db
  migrateonstart: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	conf, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", conf.Database.Driver)
	require.Equal(t, "/tmp/registry.db", conf.Database.DSN)
	require.False(t, conf.MigrateOnStart())
	require.Equal(t, "debug", conf.Log.Level)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "whatever")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := config.Load()
	require.Error(t, err)
}
