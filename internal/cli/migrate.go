package cli

import (
	"github.com/spf13/cobra"

	"github.com/Spok95/shopfloor/internal/infra/db"
)

func newMigrateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			return db.Migrate(cfg.Postgres.DSN)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			return db.MigrationStatus(cfg.Postgres.DSN)
		},
	})
	return cmd
}
