package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/intake/internal/validate"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <record.json>",
	Short: "Check a record JSON file against the record schema",
	Long: `Check reports every schema violation of a finalized record: missing
fields, wrong JSON types, values outside the closed enums, an empty address,
negative people count, confidence out of range or a record that was never
validated. Use "-" to read from stdin.

Example:
  intake classify "Пожар" --json incident.json && intake check incident.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}

	problems := validate.CheckJSON(raw)
	if len(problems) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: valid record\n", args[0])
		return nil
	}

	for _, p := range problems {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %v\n", p)
	}
	return fmt.Errorf("%s: %d schema violation(s)", args[0], len(problems))
}
