package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"loyalty-engine/internal/core/domain"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rewardCmd)
	rewardCmd.AddCommand(rewardAddCmd)
	rewardCmd.AddCommand(rewardListCmd)

	rewardAddCmd.Flags().String("name", "", "reward name (required)")
	rewardAddCmd.Flags().String("description", "", "reward description")
	rewardAddCmd.Flags().String("category", "STANDARD", "STANDARD or VOUCHER")
	rewardAddCmd.Flags().Int64("points", 0, "points required (required)")
	rewardAddCmd.Flags().Int64("stock", 0, "initial stock")
	rewardAddCmd.Flags().String("denomination", "", "voucher pool denomination (VOUCHER rewards only)")
	rewardAddCmd.MarkFlagRequired("name")   //nolint:errcheck
	rewardAddCmd.MarkFlagRequired("points") //nolint:errcheck
}

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Manage the reward catalog",
}

var rewardAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a reward to the catalog",
	RunE:  runRewardAdd,
}

func runRewardAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	points, _ := cmd.Flags().GetInt64("points")
	stock, _ := cmd.Flags().GetInt64("stock")
	denomination, _ := cmd.Flags().GetString("denomination")

	cat := domain.RewardCategory(category)
	switch cat {
	case domain.RewardCategoryStandard, domain.RewardCategoryVoucher:
	default:
		return fmt.Errorf("invalid category %q: must be STANDARD or VOUCHER", category)
	}
	if points <= 0 {
		return fmt.Errorf("points must be positive")
	}
	if stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	if cat == domain.RewardCategoryVoucher && denomination == "" {
		return fmt.Errorf("VOUCHER rewards need --denomination to select a code pool")
	}

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	reward := &domain.Reward{
		Name:           name,
		Description:    description,
		Category:       cat,
		PointsRequired: points,
		Stock:          stock,
		Denomination:   denomination,
	}
	if err := eng.rewards.Create(cmd.Context(), reward); err != nil {
		return fmt.Errorf("create reward: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Reward #%d %q added (%d points, stock %d).\n", reward.ID, reward.Name, reward.PointsRequired, reward.Stock)
	return nil
}

var rewardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reward catalog",
	RunE:  runRewardList,
}

func runRewardList(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	rewards, err := eng.redemption.ListRewards(cmd.Context())
	if err != nil {
		return err
	}
	if len(rewards) == 0 {
		fmt.Fprintln(os.Stdout, "Catalog is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPOINTS\tSTOCK\tDENOMINATION")
	for _, r := range rewards {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n", r.ID, r.Name, r.Category, r.PointsRequired, r.Stock, r.Denomination)
	}
	return w.Flush()
}
