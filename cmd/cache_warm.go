package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Precompute embeddings for all reference photos",
	Long: `Walk the user registry and compute the reference embedding for
every user whose cache entry is missing or stale. Run this after copying
reference photos into the users folder by hand, so the first
authentication does not pay for the embedding call.`,
	RunE: runCacheWarm,
}

func init() {
	cacheCmd.AddCommand(cacheWarmCmd)
}

func runCacheWarm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.registry.List()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users registered")
		return nil
	}

	fmt.Printf("Warming embedding cache for %d users\n\n", len(users))

	bar := progressbar.NewOptions(len(users),
		progressbar.OptionSetDescription("Computing embeddings"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("users"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var failed int
	for _, user := range users {
		if _, err := a.registry.ReferenceEmbedding(ctx, user); err != nil {
			failed++
			fmt.Printf("\nWarning: %s: %v\n", user, err)
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d of %d users failed", failed, len(users))
	}
	fmt.Printf("Cache warm complete (%d users)\n", len(users))
	return nil
}
