package cli

import (
	"fmt"
	"os"

	"loyalty-engine/internal/adapter/storage/postgres"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the engine's database schema",
	Long:  `Apply the engine's schema (accounts, transactions, rewards, vouchers, redemptions). Safe to run repeatedly.`,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	if err := postgres.Migrate(cmd.Context(), eng.pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Fprintln(os.Stdout, "Schema applied.")
	return nil
}
