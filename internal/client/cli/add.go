package cli

import (
	"fmt"
	"time"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	var (
		mood      string
		intensity int
		note      string
		tags      []string
		attach    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a mood entry",
		Long:  "Record a mood entry in the local journal. The entry is saved immediately and synced to the server in the background; no connectivity is required.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.OwnerID == "" {
				return fmt.Errorf("owner id is required (set --owner or owner_id in config)")
			}

			p := models.MoodPayload{
				Mood:       mood,
				Intensity:  intensity,
				Note:       note,
				Tags:       tags,
				RecordedAt: time.Now(),
			}
			payload, err := p.Marshal()
			if err != nil {
				return err
			}

			var entry *models.Entry
			if attach != "" {
				entry, err = a.entries.AddWithAttachment(ctx, a.cfg.OwnerID, payload, attach)
			} else {
				entry, err = a.entries.Add(ctx, a.cfg.OwnerID, payload)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Saved %s (%s, intensity %d)\n", entry.LocalID[:8], mood, intensity)

			// Opportunistic: try to sync right away, but a failure here
			// never matters — the entry is already durable.
			a.engine.RequestDrain(ctx)
			a.engine.Wait()
			return nil
		},
	}

	cmd.Flags().StringVar(&mood, "mood", "", "mood label, e.g. calm, anxious, great")
	cmd.Flags().IntVar(&intensity, "intensity", 5, "intensity from 1 to 10")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	cmd.Flags().StringVar(&attach, "attach", "", "path to a file to attach")
	_ = cmd.MarkFlagRequired("mood")

	return cmd
}
