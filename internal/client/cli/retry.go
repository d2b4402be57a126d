package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func retryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <local-id>",
		Short: "Re-queue a failed entry",
		Long:  "Clear an entry's error state and retry budget so the next sync attempts it again. Use this after fixing whatever made the entry fail permanently.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.entries.Retry(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Entry %s queued for retry\n", args[0])

			a.engine.RequestDrain(ctx)
			a.engine.Wait()
			return nil
		},
	}

	return cmd
}
