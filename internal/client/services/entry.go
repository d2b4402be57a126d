// Package services contains application services for the moodlog client.
// EntryService is the entry-creation collaborator surface: it assigns each
// new entry its client-generated identity and initial reconciliation state
// before handing it to the Local Store.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/moodlog-app/moodlog/internal/client/repositories/attachments"
	"github.com/moodlog-app/moodlog/internal/client/repositories/entries"
	"github.com/moodlog-app/moodlog/internal/cryptox"
	"github.com/google/uuid"
)

// TxRunner executes fn with repositories bound to one transaction.
type TxRunner func(ctx context.Context, fn func(e entries.Repository, a attachments.Repository) error) error

// EntryService creates entries and serves local history reads.
type EntryService struct {
	entryRepo      entries.Repository
	attachmentRepo attachments.Repository
	txRunner       TxRunner
	stagingDir     string
	clock          func() time.Time
}

// NewEntryService constructs an EntryService. stagingDir is where encrypted
// attachments wait for upload; it is created lazily.
func NewEntryService(entryRepo entries.Repository, attachmentRepo attachments.Repository, stagingDir string) *EntryService {
	return &EntryService{
		entryRepo:      entryRepo,
		attachmentRepo: attachmentRepo,
		stagingDir:     stagingDir,
		clock:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *EntryService) WithClock(clock func() time.Time) *EntryService {
	s.clock = clock
	return s
}

// WithTxRunner makes entry-plus-attachment captures transactional. Without
// it the two inserts run sequentially on the shared connection.
func (s *EntryService) WithTxRunner(r TxRunner) *EntryService {
	s.txRunner = r
	return s
}

// Add records a new entry with a fresh local identity and pending status.
// The payload is stored as given; this layer never inspects it. A storage
// fault propagates to the caller: the engine cannot queue what it cannot
// durably record.
func (s *EntryService) Add(ctx context.Context, ownerID string, payload json.RawMessage) (*models.Entry, error) {
	e := &models.Entry{
		LocalID:         uuid.NewString(),
		OwnerID:         ownerID,
		Payload:         payload,
		CreatedAtClient: s.clock().UnixMilli(),
		SyncStatus:      models.StatusPending,
	}

	if err := s.entryRepo.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}
	return e, nil
}

// AddWithAttachment records a new entry and stages an encrypted copy of the
// file at attachmentPath for upload once the entry syncs.
func (s *EntryService) AddWithAttachment(ctx context.Context, ownerID string, payload json.RawMessage, attachmentPath string) (*models.Entry, error) {
	blob, err := cryptox.EncryptFile(attachmentPath)
	if err != nil {
		return nil, fmt.Errorf("encrypting attachment: %w", err)
	}

	e := &models.Entry{
		LocalID:         uuid.NewString(),
		OwnerID:         ownerID,
		Payload:         payload,
		CreatedAtClient: s.clock().UnixMilli(),
		SyncStatus:      models.StatusPending,
	}

	staged, err := s.stage(e.LocalID, blob.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("staging attachment: %w", err)
	}

	a := &models.Attachment{
		EntryLocalID: e.LocalID,
		StagedPath:   staged,
		Key:          blob.Key,
		Nonce:        blob.Nonce,
		UploadStatus: models.UploadStatusPending,
	}

	if s.txRunner != nil {
		err = s.txRunner(ctx, func(er entries.Repository, ar attachments.Repository) error {
			if err := er.Insert(ctx, e); err != nil {
				return err
			}
			return ar.Insert(ctx, a)
		})
	} else {
		if err = s.entryRepo.Insert(ctx, e); err == nil {
			err = s.attachmentRepo.Insert(ctx, a)
		}
	}
	if err != nil {
		_ = os.Remove(staged)
		return nil, fmt.Errorf("saving entry with attachment: %w", err)
	}

	return e, nil
}

// Recent returns the owner's latest entries, newest first, straight from the
// Local Store so the read works with or without connectivity.
func (s *EntryService) Recent(ctx context.Context, ownerID string, limit int) ([]*models.Entry, error) {
	rows, err := s.entryRepo.GetRecentByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return rows, nil
}

// Retry re-queues an errored entry for the next drain cycle.
func (s *EntryService) Retry(ctx context.Context, localID string) error {
	if err := s.entryRepo.ResetForRetry(ctx, localID); err != nil {
		return fmt.Errorf("retrying entry %s: %w", localID, err)
	}
	return nil
}

func (s *EntryService) stage(localID string, ciphertext []byte) (string, error) {
	if err := os.MkdirAll(s.stagingDir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(s.stagingDir, localID)
	if err := os.WriteFile(path, ciphertext, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
