package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a user with a reference photo",
	Long: `Register a user for exams. The photo is sent to the embedding
service; registration fails when no face is detected, so a bad reference
photo never creates a user.

Examples:
  faceproctor register --username alice --image alice.jpg
  faceproctor register --username alice --image new.jpg --overwrite`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("username", "", "Username to register (required)")
	registerCmd.Flags().String("image", "", "Path to the reference photo (required)")
	registerCmd.Flags().Bool("overwrite", false, "Replace an existing reference photo")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("image")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	username := mustGetString(cmd, "username")
	imagePath := mustGetString(cmd, "image")
	overwrite := mustGetBool(cmd, "overwrite")

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	if err := a.registry.Register(ctx, username, image, overwrite); err != nil {
		return err
	}

	fmt.Printf("Registered %s\n", username)
	return nil
}
