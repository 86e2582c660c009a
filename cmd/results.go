package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recent exam results",
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().Int("limit", 20, "Maximum number of results to show")
}

func runResults(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.resultLog.ReadRecent(mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No results recorded")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s  %-20s %d/%d\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Username, r.Score, r.Total)
	}
	return nil
}
