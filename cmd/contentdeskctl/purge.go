package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var yes bool
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every key under the configured namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, scheme, err := openStore()
			if err != nil {
				return err
			}
			if scheme.Namespace() == "" && !yes {
				return fmt.Errorf("refusing to purge without a namespace; set CONTENTDESK_KEY_NAMESPACE or pass --yes")
			}
			if !yes {
				return fmt.Errorf("pass --yes to confirm purging namespace %q", scheme.Namespace())
			}

			ctx := context.Background()
			matched, err := st.Scan(ctx, scheme.AllPattern())
			if err != nil {
				return err
			}
			if len(matched) == 0 {
				fmt.Fprintln(os.Stdout, "nothing to purge")
				return nil
			}
			if err := st.Del(ctx, matched...); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "purged %d keys under namespace %q\n", len(matched), scheme.Namespace())
			return nil
		},
	}
	purgeCmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	rootCmd.AddCommand(purgeCmd)
}
