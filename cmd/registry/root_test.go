package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	root := newRootCmd()

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"serve", "migrate"}, names)
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMigrateSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POSTGRES_CONN", filepath.Join(dir, "registry.db"))
	t.Setenv("LOG_LEVEL", "warning")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", filepath.Join(dir, "missing.yml")})
	require.NoError(t, root.Execute())

	// a second run finds nothing to do
	root = newRootCmd()
	root.SetArgs([]string{"migrate", "--config", filepath.Join(dir, "missing.yml")})
	require.NoError(t, root.Execute())
}

func TestBootstrapRejectsMissingDSN(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", filepath.Join(t.TempDir(), "missing.yml")})
	require.Error(t, root.Execute())
}
