package config

import (
	"fmt"

	"github.com/gotify/configor"
	"github.com/pkg/errors"
)

type Configuration struct {
	App struct {
		ListenAddr string `default:"0.0.0.0" env:"APP_HOST"`
		Port       int    `default:"8080" env:"APP_PORT"`
	}
	Database struct {
		Driver         string `default:"postgres" env:"DB_DRIVER"`
		DSN            string `default:"" env:"POSTGRES_CONN"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
	}
	Log struct {
		Level  string `default:"info" env:"LOG_LEVEL"`
		Format string `default:"json" env:"LOG_FORMAT"`
	}
}

// Addr is the host:port the HTTP server listens on.
func (c *Configuration) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.ListenAddr, c.App.Port)
}

func (c *Configuration) MigrateOnStart() bool {
	return c.Database.MigrateOnStart == nil || *c.Database.MigrateOnStart
}

// Load reads files in order, then the environment. Missing files are
// skipped.
func Load(files ...string) (*Configuration, error) {
	conf := new(Configuration)
	if err := configor.New(&configor.Config{}).Load(conf, files...); err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	switch conf.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, errors.Errorf("unsupported database driver %q", conf.Database.Driver)
	}
	if conf.Database.DSN == "" {
		return nil, errors.New("database DSN is not set (POSTGRES_CONN)")
	}
	return conf, nil
}
