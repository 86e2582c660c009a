package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var authenticateCmd = &cobra.Command{
	Use:   "authenticate",
	Short: "Verify a photo against a user's reference (1:1)",
	Long: `Verify a probe photo against the claimed user's reference
embedding. Every attempt lands in the authentication log, pass or fail.

Example:
  faceproctor authenticate --username alice --image capture.jpg`,
	RunE: runAuthenticate,
}

func init() {
	rootCmd.AddCommand(authenticateCmd)

	authenticateCmd.Flags().String("username", "", "Claimed username (required)")
	authenticateCmd.Flags().String("image", "", "Path to the probe photo (required)")
	_ = authenticateCmd.MarkFlagRequired("username")
	_ = authenticateCmd.MarkFlagRequired("image")
}

func runAuthenticate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	image, err := os.ReadFile(mustGetString(cmd, "image"))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	result, err := a.controller.Authenticate(ctx, mustGetString(cmd, "username"), image)
	if err != nil {
		return err
	}

	fmt.Printf("Verified %s (similarity %.4f)\n", result.Username, result.Similarity)
	return nil
}
