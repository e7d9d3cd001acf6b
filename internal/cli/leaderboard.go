package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().Int("limit", 10, "number of accounts to show")
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top accounts by points",
	RunE:  runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	// Read from postgres, the authoritative ranking; the Redis sorted set is
	// only a cache for hot reads.
	accounts, err := eng.accounts.TopByPoints(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("top accounts: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Fprintln(os.Stdout, "No accounts yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tPOINTS")
	for i, a := range accounts {
		name := a.DisplayName
		if name == "" {
			name = a.ExternalID
		}
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, name, a.Points)
	}
	return w.Flush()
}
