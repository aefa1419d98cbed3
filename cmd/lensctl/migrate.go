package main

import (
	"database/sql"

	"github.com/spf13/cobra"

	"lens-backend/internal/shared/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd, func(sqlDB *sql.DB) error {
			if err := db.RunMigrations(cmd.Context(), sqlDB); err != nil {
				return err
			}
			return printVersion(cmd, sqlDB)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd, func(sqlDB *sql.DB) error {
			if err := db.RollbackMigration(cmd.Context(), sqlDB); err != nil {
				return err
			}
			return printVersion(cmd, sqlDB)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd, func(sqlDB *sql.DB) error {
			return printVersion(cmd, sqlDB)
		})
	},
}

func withMigrationDB(cmd *cobra.Command, fn func(*sql.DB) error) error {
	cfg := loadConfig()
	sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(sqlDB)
}

func printVersion(cmd *cobra.Command, sqlDB *sql.DB) error {
	version, err := db.SchemaVersion(cmd.Context(), sqlDB)
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d\n", version)
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
