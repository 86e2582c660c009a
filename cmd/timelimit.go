package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var timelimitCmd = &cobra.Command{
	Use:   "timelimit",
	Short: "Per-user exam time limit commands",
}

var timelimitGetCmd = &cobra.Command{
	Use:   "get <username>",
	Short: "Show a user's effective exam time limit",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimelimitGet,
}

var timelimitSetCmd = &cobra.Command{
	Use:   "set <username> <seconds>",
	Short: "Set a user's exam time limit in seconds",
	Args:  cobra.ExactArgs(2),
	RunE:  runTimelimitSet,
}

func init() {
	rootCmd.AddCommand(timelimitCmd)
	timelimitCmd.AddCommand(timelimitGetCmd)
	timelimitCmd.AddCommand(timelimitSetCmd)
}

func runTimelimitGet(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	seconds, err := a.timeLimits.Get(args[0], a.cfg.Exam.DefaultTimeLimitSeconds)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d seconds\n", args[0], seconds)
	return nil
}

func runTimelimitSet(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	seconds, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid seconds value %q", args[1])
	}
	if err := a.timeLimits.Set(args[0], seconds); err != nil {
		return err
	}
	fmt.Printf("Set time limit for %s to %d seconds\n", args[0], seconds)
	return nil
}
