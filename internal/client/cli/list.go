package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent entries",
		Long:  "Show the most recent entries from the local journal, newest first. Works offline; each line carries the entry's sync state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.entries.Recent(ctx, a.cfg.OwnerID, limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No entries yet.")
				return nil
			}

			for _, e := range rows {
				fmt.Println(formatEntry(e))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")

	return cmd
}

func formatEntry(e *models.Entry) string {
	when := time.UnixMilli(e.CreatedAtClient).Local().Format("2006-01-02 15:04")

	var p models.MoodPayload
	summary := "(unreadable payload)"
	if err := json.Unmarshal(e.Payload, &p); err == nil {
		summary = fmt.Sprintf("%s (%d)", p.Mood, p.Intensity)
		if p.Note != "" {
			summary += ": " + p.Note
		}
	}

	return fmt.Sprintf("%s  %s  %-40s %s", e.LocalID[:8], when, summary, statusLabel(e))
}

func statusLabel(e *models.Entry) string {
	switch e.SyncStatus {
	case models.StatusSynced:
		return "[synced]"
	case models.StatusError:
		if e.Terminal {
			return fmt.Sprintf("[failed: %s]", e.SyncError)
		}
		return fmt.Sprintf("[retrying: %s]", e.SyncError)
	default:
		return "[saving...]"
	}
}
