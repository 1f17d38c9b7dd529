package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/tokenauth/credential"
	"github.com/MrEthical07/tokenauth/internal/config"
)

type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return credential.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand and its up, down and version children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL credential schema",
	}
	cmd.PersistentFlags().String("database-url", "", "postgres connection string")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Drop the credential schema and all its data",
		RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if dirty {
				cmd.Printf("version %d (dirty)\n", version)
				return nil
			}
			cmd.Printf("version %d\n", version)
			return nil
		}),
	})
	return cmd
}

func withMigrator(fn func(*cobra.Command, migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		settings, err := config.Load(configPath(cmd), cmd.Flags())
		if err != nil {
			return err
		}
		if settings.Store.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("store.database_url is required")
		}

		m, err := newMigrator(settings.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		return fn(cmd, m)
	}
}
