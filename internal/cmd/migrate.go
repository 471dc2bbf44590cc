package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
)

var (
	migrateSeed bool
	migrateDrop bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Run GORM auto-migrations for every model and create the additional
indexes. With --seed a demo store with a few products is inserted.
With --drop every table is dropped first.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "Insert the demo store and products")
	migrateCmd.Flags().BoolVar(&migrateDrop, "drop", false, "Drop all tables before migrating (destroys data)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	if migrateDrop && cfg.IsProduction() {
		return fmt.Errorf("refusing to drop tables in production")
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	migration := postgres.NewMigration(db.GetDB(), log)

	if migrateDrop {
		if err := migration.DropAllTables(); err != nil {
			return err
		}
	}

	if err := migration.RunAutoMigrations(); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	if migrateSeed {
		if err := migration.SeedInitialData(); err != nil {
			return fmt.Errorf("data seeding failed: %w", err)
		}
	}

	tables, err := migration.GetTableInfo()
	if err != nil {
		log.WithError(err).Warn("Failed to read table info")
		return nil
	}
	for _, t := range tables {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", t.Name, t.Records)
	}
	return nil
}
