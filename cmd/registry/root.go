package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/EQAR/eqar-db/db"
	"github.com/EQAR/eqar-db/db/migrations"
	"github.com/EQAR/eqar-db/internal/config"
	"github.com/EQAR/eqar-db/internal/logger"
)

type app struct {
	configFile string
	conf       *config.Configuration
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "registry",
		Short: "EQAR registry application workflow service",
		Long: `registry keeps track of quality assurance agencies and their
applications for registration, validating each application against the
stage it has reached and the active ESG catalogue.`,
		PersistentPreRunE: a.bootstrap,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "config.yml", "configuration file")

	rootCmd.AddCommand(a.serveCmd(), a.migrateCmd())
	return rootCmd
}

func (a *app) bootstrap(cmd *cobra.Command, _ []string) error {
	conf, err := config.Load(a.configFile)
	if err != nil {
		cmd.PrintErrln(err)
		return err
	}
	if err := logger.Init(conf.Log.Level, conf.Log.Format); err != nil {
		cmd.PrintErrln(err)
		return err
	}
	a.conf = conf
	return nil
}

// connect opens the configured database and applies migrations when
// migrate is set.
func (a *app) connect(ctx context.Context, migrate bool) (*sqlx.DB, error) {
	conn, err := db.Open(ctx, a.conf.Database.Driver, a.conf.Database.DSN)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", a.conf.Database.Driver).Info("connected to database")
	if !migrate {
		return conn, nil
	}
	if err := migrations.Run(conn.DB, a.conf.Database.Driver); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrations failed")
	}
	return conn, nil
}
