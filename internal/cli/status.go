package cli

import (
	"fmt"
	"os"

	"loyalty-engine/internal/adapter/storage/postgres"
	"loyalty-engine/internal/adapter/storage/redis"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity to the engine's dependencies",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	failed := 0

	pg := postgres.NewHealthCheck(eng.pool)
	if err := pg.Ping(cmd.Context()); err != nil {
		failed++
		fmt.Fprintf(os.Stdout, "%-12s DOWN (%v)\n", pg.Name(), err)
	} else {
		fmt.Fprintf(os.Stdout, "%-12s OK\n", pg.Name())
	}

	if eng.rdb == nil {
		fmt.Fprintf(os.Stdout, "%-12s DISABLED\n", "redis")
	} else {
		rd := redis.NewHealthCheck(eng.rdb)
		if err := rd.Ping(cmd.Context()); err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "%-12s DOWN (%v)\n", rd.Name(), err)
		} else {
			fmt.Fprintf(os.Stdout, "%-12s OK\n", rd.Name())
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d dependencies unavailable", failed)
	}
	return nil
}
