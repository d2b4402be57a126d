package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Drain the queue once",
		Long:  "Run a single drain cycle: submit every pending or retryable entry to the server and report the outcome.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.engine.DrainOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Synced %d, failed %d, skipped %d\n", report.Synced, report.Failed, report.Skipped)
			if report.Aborted {
				fmt.Println("Cycle aborted early; run again after resolving the failure above.")
			}
			return nil
		},
	}

	return cmd
}
