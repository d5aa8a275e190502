package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sumails/sumails/services/dashboard-api/internal/db"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database tables",
	Long:  "Creates the connected_accounts and user_settings tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := db.Init(ctx, viper.GetString("database.url")); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		fmt.Println("Running migrations...")
		if err := db.Migrate(ctx, db.Pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("✓ Database setup complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
