package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"noteally/internal/database"
	"noteally/internal/database/migration"
)

var force bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the notes schema",
	Long: `Migrate creates the notes table, its indexes and the change
notification trigger. Without --force it does nothing when the table exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg := loadConfig()

		db, err := database.NewPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if force {
			return migration.Run(cmd.Context(), db, lg, cfg.Database.Host)
		}
		return migration.EnsureMigrated(cmd.Context(), db, lg, cfg.Database.Host)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&force, "force", false, "Re-apply every step even if the schema exists")
	rootCmd.AddCommand(migrateCmd)
}
