package main

import (
	"github.com/spf13/cobra"

	"github.com/EQAR/eqar-db/db/migrations"
)

func (a *app) migrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			return conn.Close()
		},
	}
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.connect(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer conn.Close()
			return migrations.Status(conn.DB, a.conf.Database.Driver)
		},
	})
	return migrateCmd
}
