package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	superusersCmd := &cobra.Command{Use: "superusers", Short: "Superuser roster operations"}

	grantCmd := &cobra.Command{
		Use:   "grant USER_ID",
		Short: "Add a user to the superuser roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := openRepositories()
			if err != nil {
				return err
			}
			return repos.Superusers.AddSuperuser(context.Background(), args[0])
		},
	}
	superusersCmd.AddCommand(grantCmd)

	revokeCmd := &cobra.Command{
		Use:   "revoke USER_ID",
		Short: "Remove a user from the superuser roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := openRepositories()
			if err != nil {
				return err
			}
			return repos.Superusers.RemoveSuperuser(context.Background(), args[0])
		},
	}
	superusersCmd.AddCommand(revokeCmd)

	checkCmd := &cobra.Command{
		Use:   "check USER_ID",
		Short: "Report whether a user is a superuser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := openRepositories()
			if err != nil {
				return err
			}
			ok, err := repos.Superusers.IsSuperuser(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, ok)
			return nil
		},
	}
	superusersCmd.AddCommand(checkCmd)

	rootCmd.AddCommand(superusersCmd)
}
