package cmd

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Embedding cache management commands",
	Long:  `Commands for managing the reference embedding cache.`,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
