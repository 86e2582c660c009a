package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Find the best matching user for a photo (1:N)",
	Long: `Match a probe photo against every registered user and report the
most similar one above the similarity threshold.

Example:
  faceproctor identify --image capture.jpg`,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().String("image", "", "Path to the probe photo (required)")
	_ = identifyCmd.MarkFlagRequired("image")
}

func runIdentify(cmd *cobra.Command, args []string) error {
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

	if err := a.rebuildIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to build identification index: %v\n", err)
	}

	best, err := a.controller.Identify(ctx, image)
	if err != nil {
		return err
	}

	fmt.Printf("Best match: %s (similarity %.4f)\n", best.Username, best.Similarity)
	return nil
}
