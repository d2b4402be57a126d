// Package archive exports received entries to cold object storage. Each run
// serializes the entries received since the previous run as JSONL,
// compresses the batch with zstd, and uploads it under a date-stamped key.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moodlog-app/moodlog/internal/logging"
	"github.com/moodlog-app/moodlog/internal/server/models"
	"github.com/moodlog-app/moodlog/internal/server/repositories/entries"
	"github.com/klauspost/compress/zstd"
)

// Uploader stores a finished archive blob.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

type Archiver struct {
	repo     entries.Repository
	uploader Uploader
	logger   logging.Logger
	interval time.Duration

	lastRun time.Time
}

func NewArchiver(repo entries.Repository, uploader Uploader, logger logging.Logger, interval time.Duration) *Archiver {
	return &Archiver{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
		interval: interval,
	}
}

// Run executes archive cycles on the configured interval until ctx ends.
func (a *Archiver) Run(ctx context.Context) {
	if a.interval <= 0 {
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.lastRun = time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.ArchiveOnce(ctx); err != nil {
				a.logger.Error(ctx, "archive cycle failed", "error", err)
			}
		}
	}
}

// ArchiveOnce exports entries received since the previous run. An empty
// window uploads nothing.
func (a *Archiver) ArchiveOnce(ctx context.Context) error {
	since := a.lastRun
	now := time.Now()

	rows, err := a.repo.SelectCreatedSince(ctx, since)
	if err != nil {
		return fmt.Errorf("selecting entries: %w", err)
	}
	if len(rows) == 0 {
		a.lastRun = now
		return nil
	}

	blob, err := encodeArchive(rows)
	if err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}

	key := fmt.Sprintf("archive/%s/%d.jsonl.zst", now.UTC().Format("2006/01/02"), now.UnixNano())
	if err := a.uploader.Upload(ctx, key, blob); err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}

	a.lastRun = now
	a.logger.Info(ctx, "archived entries", "count", len(rows), "key", key)
	return nil
}

type archiveRecord struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	LocalID         string          `json:"local_id"`
	Payload         json.RawMessage `json:"payload"`
	CreatedAtClient int64           `json:"created_at_client"`
	CreatedAt       time.Time       `json:"created_at"`
}

// encodeArchive writes one JSON document per line and zstd-compresses the
// result.
func encodeArchive(rows []*models.Entry) ([]byte, error) {
	var buf bytes.Buffer

	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}

	jw := json.NewEncoder(enc)
	for _, e := range rows {
		rec := archiveRecord{
			ID:              e.ID,
			OwnerID:         e.OwnerID,
			LocalID:         e.LocalID,
			Payload:         e.Payload,
			CreatedAtClient: e.CreatedAtClient,
			CreatedAt:       e.CreatedAt,
		}
		if err := jw.Encode(rec); err != nil {
			_ = enc.Close()
			return nil, err
		}
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
