package migrations

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// dialects maps a database/sql driver name to the goose dialect and the
// embedded directory holding its migrations.
var dialects = map[string][2]string{
	"postgres": {"postgres", "postgres"},
	"sqlite":   {"sqlite3", "sqlite"},
}

func prepare(driver string) (string, error) {
	d, ok := dialects[driver]
	if !ok {
		return "", errors.Errorf("no migrations for driver %q", driver)
	}
	goose.SetBaseFS(embedded)
	goose.SetLogger(log.StandardLogger())
	if err := goose.SetDialect(d[0]); err != nil {
		return "", errors.Wrap(err, "failed to set dialect")
	}
	return d[1], nil
}

// Run applies all pending migrations for driver.
func Run(db *sql.DB, driver string) error {
	dir, err := prepare(driver)
	if err != nil {
		return err
	}
	log.WithField("dir", dir).Info("running migrations")
	return errors.Wrap(goose.Up(db, dir), "failed to run migrations")
}

// Status logs the applied state of every migration.
func Status(db *sql.DB, driver string) error {
	dir, err := prepare(driver)
	if err != nil {
		return err
	}
	return errors.Wrap(goose.Status(db, dir), "failed to read migration status")
}
