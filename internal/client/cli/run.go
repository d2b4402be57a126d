package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/moodlog-app/moodlog/internal/client/connectivity"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the background sync agent",
		Long:  "Keep the client resident: watch connectivity, and drain the local queue whenever the server is reachable. Stops on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			monitor := connectivity.NewMonitor(
				a.remote, a.engine, a.logger,
				a.cfg.OnlineCheckInterval.Duration, a.cfg.DebounceWindow.Duration)
			monitor.Start(ctx)

			fmt.Println("moodlog agent running; press Ctrl-C to stop")
			<-ctx.Done()

			monitor.Stop()
			a.engine.Wait()
			fmt.Println("moodlog agent stopped")
			return nil
		},
	}

	return cmd
}
