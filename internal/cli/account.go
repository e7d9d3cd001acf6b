package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountCreditCmd)
	accountCmd.AddCommand(accountBalanceCmd)
	accountCmd.AddCommand(accountHistoryCmd)
	accountCmd.AddCommand(accountRedeemCmd)

	accountCreateCmd.Flags().String("name", "", "display name")
	accountCreateCmd.Flags().String("contact", "", "phone or other contact reference")
	accountCreditCmd.Flags().String("description", "Manual credit", "ledger entry description")
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage loyalty accounts",
}

// resolveAccount looks an account up by external id first, then by uuid.
func resolveAccount(cmd *cobra.Command, eng *engine, ref string) (*domain.Account, error) {
	account, err := eng.accounts.GetByExternalID(cmd.Context(), ref)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if account == nil {
		if id, parseErr := uuid.Parse(ref); parseErr == nil {
			account, err = eng.accounts.GetByID(cmd.Context(), id)
			if err != nil {
				return nil, fmt.Errorf("lookup account: %w", err)
			}
		}
	}
	if account == nil {
		return nil, fmt.Errorf("account %q not found", ref)
	}
	return account, nil
}

var accountCreateCmd = &cobra.Command{
	Use:   "create EXTERNAL_ID",
	Short: "Create an account for a platform identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountCreate,
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	contact, _ := cmd.Flags().GetString("contact")

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:          uuid.New(),
		ExternalID:  args[0],
		DisplayName: name,
		Contact:     contact,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := eng.accounts.Create(cmd.Context(), account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Account %s created for %s.\n", account.ID, account.ExternalID)
	return nil
}

var accountCreditCmd = &cobra.Command{
	Use:   "credit ACCOUNT AMOUNT",
	Short: "Award points to an account",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountCredit,
}

func runAccountCredit(cmd *cobra.Command, args []string) error {
	var amount int64
	if _, err := fmt.Sscanf(args[1], "%d", &amount); err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	description, _ := cmd.Flags().GetString("description")

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	account, err := resolveAccount(cmd, eng, args[0])
	if err != nil {
		return err
	}

	newBalance, err := eng.ledger.Credit(cmd.Context(), account.ID, amount, description)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Credited %d points. New balance: %d.\n", amount, newBalance)
	return nil
}

var accountBalanceCmd = &cobra.Command{
	Use:   "balance ACCOUNT",
	Short: "Show an account's points balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountBalance,
}

func runAccountBalance(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	account, err := resolveAccount(cmd, eng, args[0])
	if err != nil {
		return err
	}

	balance, err := eng.ledger.Balance(cmd.Context(), account.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s: %d points.\n", account.DisplayName, balance)
	return nil
}

var accountHistoryCmd = &cobra.Command{
	Use:   "history ACCOUNT",
	Short: "Show an account's ledger, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountHistory,
}

func runAccountHistory(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	account, err := resolveAccount(cmd, eng, args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTYPE\tDELTA\tDESCRIPTION")
	count := 0
	for txn, err := range eng.ledger.History(cmd.Context(), account.ID) {
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		fmt.Fprintf(w, "%s\t%s\t%+d\t%s\n", txn.CreatedAt.Format(time.RFC3339), txn.Type, txn.Delta, txn.Description)
		count++
	}
	if count == 0 {
		fmt.Fprintln(os.Stdout, "No ledger entries.")
		return nil
	}
	return w.Flush()
}

var accountRedeemCmd = &cobra.Command{
	Use:   "redeem ACCOUNT REWARD_ID",
	Short: "Exchange points for one unit of a reward",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountRedeem,
}

func runAccountRedeem(cmd *cobra.Command, args []string) error {
	var rewardID int64
	if _, err := fmt.Sscanf(args[1], "%d", &rewardID); err != nil {
		return fmt.Errorf("invalid reward id %q", args[1])
	}

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	account, err := resolveAccount(cmd, eng, args[0])
	if err != nil {
		return err
	}

	result, err := eng.redemption.Redeem(cmd.Context(), account.ID, rewardID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Redeemed %q. New balance: %d.\n", result.RewardName, result.NewBalance)
	if result.VoucherCode != nil {
		fmt.Fprintf(os.Stdout, "Voucher code: %s\n", *result.VoucherCode)
	}
	return nil
}
