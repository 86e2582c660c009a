package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE:  runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
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
	for _, user := range users {
		fmt.Println(user)
	}
	return nil
}
