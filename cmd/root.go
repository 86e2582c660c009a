package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceproctor",
	Short: "Face-verified exam proctoring",
	Long: `FaceProctor runs computer-based tests gated by face verification.
Candidates are registered with a reference photo, verified against it by
cosine similarity of face embeddings, and given a timed multiple-choice
exam whose results land in append-only logs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
