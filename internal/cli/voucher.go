package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(voucherCmd)
	voucherCmd.AddCommand(voucherImportCmd)
	voucherCmd.AddCommand(voucherStatusCmd)

	voucherImportCmd.Flags().StringP("file", "f", "", "file with one voucher code per line (required)")
	voucherImportCmd.MarkFlagRequired("file") //nolint:errcheck
}

var voucherCmd = &cobra.Command{
	Use:   "voucher",
	Short: "Manage denomination code pools",
}

var voucherImportCmd = &cobra.Command{
	Use:   "import DENOMINATION",
	Short: "Load voucher codes into a denomination pool",
	Long:  `Load single-use voucher codes from a file, one code per line. Blank lines and lines starting with # are skipped; codes already in the pool are ignored.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runVoucherImport,
}

func runVoucherImport(cmd *cobra.Command, args []string) error {
	denomination := args[0]
	path, _ := cmd.Flags().GetString("file")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open codes file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var codes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read codes file: %w", err)
	}
	if len(codes) == 0 {
		return fmt.Errorf("no codes found in %s", path)
	}

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	inserted, err := eng.vouchers.BulkInsert(cmd.Context(), denomination, codes)
	if err != nil {
		return fmt.Errorf("import vouchers: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Imported %d of %d codes into pool %q (%d duplicates skipped).\n",
		inserted, len(codes), denomination, len(codes)-inserted)
	return nil
}

var voucherStatusCmd = &cobra.Command{
	Use:   "status DENOMINATION",
	Short: "Show how many codes remain in a pool",
	Args:  cobra.ExactArgs(1),
	RunE:  runVoucherStatus,
}

func runVoucherStatus(cmd *cobra.Command, args []string) error {
	denomination := args[0]

	eng, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close()

	count, err := eng.vouchers.CountAvailable(cmd.Context(), denomination)
	if err != nil {
		return fmt.Errorf("count vouchers: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Pool %q: %d codes available.\n", denomination, count)
	return nil
}
