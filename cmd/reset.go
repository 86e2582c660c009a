package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <username>",
	Short: "Grant a user a fresh exam attempt",
	Long: `Grant a user a fresh exam attempt by appending to the
eligibility ledger. Past results stay in the result log untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.controller.Reset(args[0]); err != nil {
		return err
	}
	fmt.Printf("Granted exam reset for %s\n", args[0])
	return nil
}
