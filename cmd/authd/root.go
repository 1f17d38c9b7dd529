package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the authd command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Username/password token authentication service",
		Long: `authd registers users, issues access and refresh JWTs on login,
mints new access tokens from stored refresh tokens and guards /profile.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
