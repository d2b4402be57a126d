// Package sync implements the background reconciliation engine. Entries
// captured locally are drained to the server in durable-queue order: the
// engine claims one entry at a time, submits it, and records the outcome so
// that a crash at any point leaves the queue resumable.
package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/moodlog-app/moodlog/internal/client/remote"
	"github.com/moodlog-app/moodlog/internal/client/repositories/attachments"
	"github.com/moodlog-app/moodlog/internal/client/repositories/entries"
	"github.com/moodlog-app/moodlog/internal/common"
	"github.com/moodlog-app/moodlog/internal/logging"
	"github.com/moodlog-app/moodlog/internal/netx"
)

const (
	defaultMaxAttempts = 8
	defaultStaleGrace  = 5 * time.Minute
)

// Config carries the engine's collaborators. Entries, Remote and Logger are
// required; the rest have defaults.
type Config struct {
	Entries     entries.Repository
	Attachments attachments.Repository
	Remote      remote.Client
	Logger      logging.Logger

	// Clock is the time source, overridable in tests.
	Clock func() time.Time
	// Backoff computes the delay before an entry's next attempt.
	Backoff Policy
	// MaxAttempts is the number of failed submissions after which an entry
	// stops being retried automatically.
	MaxAttempts int
	// StaleGrace is how long a claimed entry may sit in the syncing state
	// before a new cycle treats the claim as abandoned.
	StaleGrace time.Duration
}

// Report summarizes one drain cycle.
type Report struct {
	Synced  int
	Failed  int
	Skipped int
	// Aborted is true when the cycle stopped before exhausting the queue,
	// either on cancellation or on an authorization failure.
	Aborted bool
}

// Engine drains the local queue to the server. Triggers are coalesced:
// however many arrive while a cycle runs, at most one follow-up cycle is
// scheduled, so there is never more than one cycle in flight.
type Engine struct {
	entries     entries.Repository
	attachments attachments.Repository
	remote      remote.Client
	logger      logging.Logger
	clock       func() time.Time
	backoff     Policy
	maxAttempts int
	staleGrace  time.Duration

	mu      gosync.Mutex
	running bool
	rerun   bool
	wg      gosync.WaitGroup

	// cycleMu serializes cycles across RequestDrain and direct DrainOnce
	// callers.
	cycleMu gosync.Mutex
}

// NewEngine builds an Engine, filling defaults for unset optional fields.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		entries:     cfg.Entries,
		attachments: cfg.Attachments,
		remote:      cfg.Remote,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		backoff:     cfg.Backoff,
		maxAttempts: cfg.MaxAttempts,
		staleGrace:  cfg.StaleGrace,
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.backoff == nil {
		e.backoff = CappedExponential(5*time.Second, 15*time.Minute)
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = defaultMaxAttempts
	}
	if e.staleGrace <= 0 {
		e.staleGrace = defaultStaleGrace
	}
	return e
}

// RequestDrain asks the engine to run a drain cycle. It returns immediately;
// the cycle runs on its own goroutine. Requests arriving mid-cycle collapse
// into a single follow-up cycle.
func (e *Engine) RequestDrain(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.rerun = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			if _, err := e.DrainOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error(ctx, "drain cycle failed", "error", err)
			}

			e.mu.Lock()
			if !e.rerun || ctx.Err() != nil {
				e.running = false
				e.rerun = false
				e.mu.Unlock()
				return
			}
			e.rerun = false
			e.mu.Unlock()
		}
	}()
}

// Wait blocks until any in-flight background cycle finishes.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// DrainOnce runs a single drain cycle: reclaim abandoned syncing entries,
// snapshot the eligible queue oldest-first, and submit each entry in turn.
// An entry that cannot be claimed is skipped; an authorization failure marks
// the current entry and aborts the rest of the cycle.
func (e *Engine) DrainOnce(ctx context.Context) (Report, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	var report Report
	now := e.clock().UnixMilli()

	reclaimed, err := e.entries.ResetStale(ctx, now-e.staleGrace.Milliseconds())
	if err != nil {
		return report, fmt.Errorf("reclaiming stale entries: %w", err)
	}
	if reclaimed > 0 {
		e.logger.Info(ctx, "reclaimed abandoned entries", "count", reclaimed)
	}

	queue, err := e.entries.GetPendingOrRetryable(ctx, now)
	if err != nil {
		return report, fmt.Errorf("loading sync queue: %w", err)
	}

	for _, entry := range queue {
		if ctx.Err() != nil {
			report.Aborted = true
			return report, ctx.Err()
		}

		abort, err := e.submit(ctx, entry, &report)
		if err != nil {
			return report, err
		}
		if abort {
			report.Aborted = true
			return report, nil
		}
	}

	return report, nil
}

// submit pushes one entry through claim, remote upsert and outcome
// bookkeeping. The returned bool asks the caller to abort the cycle.
func (e *Engine) submit(ctx context.Context, entry *models.Entry, report *Report) (bool, error) {
	attemptAt := e.clock().UnixMilli()

	err := e.entries.MarkSyncing(ctx, entry.LocalID, attemptAt)
	if errors.Is(err, common.ErrNotPending) {
		// Someone else moved the entry since the snapshot. Not ours.
		report.Skipped++
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claiming entry %s: %w", entry.LocalID, err)
	}

	// Neither the submission nor its bookkeeping may be torn apart by
	// cancellation: the server may have applied the upsert, and a claimed
	// entry with no recorded outcome would sit in syncing until the stale
	// grace expires.
	outcomeCtx := context.WithoutCancel(ctx)

	resp, upsertErr := e.remote.UpsertEntry(outcomeCtx, remote.UpsertRequest{
		LocalID:         entry.LocalID,
		OwnerID:         entry.OwnerID,
		Payload:         entry.Payload,
		CreatedAtClient: entry.CreatedAtClient,
	})

	if upsertErr == nil {
		if err := e.entries.MarkSynced(outcomeCtx, entry.LocalID, resp.ServerID, resp.CreatedAtServer); err != nil {
			return false, fmt.Errorf("recording synced entry %s: %w", entry.LocalID, err)
		}
		report.Synced++
		e.logger.Debug(ctx, "entry synced", "localID", entry.LocalID, "serverID", resp.ServerID)
		e.uploadAttachment(ctx, entry.LocalID)
		return false, nil
	}

	report.Failed++
	retryCount := entry.RetryCount + 1
	terminal := errors.Is(upsertErr, common.ErrInvalidEntry)
	if !terminal && !errors.Is(upsertErr, common.ErrUnauthorized) && retryCount >= e.maxAttempts {
		terminal = true
	}
	nextAttemptAt := attemptAt + e.backoff(retryCount).Milliseconds()

	if err := e.entries.MarkError(outcomeCtx, entry.LocalID, upsertErr.Error(), terminal, nextAttemptAt); err != nil {
		return false, fmt.Errorf("recording failed entry %s: %w", entry.LocalID, err)
	}
	e.logger.Warn(ctx, "entry submission failed",
		"localID", entry.LocalID, "terminal", terminal, "error", upsertErr)

	if errors.Is(upsertErr, common.ErrUnauthorized) {
		// Credentials are bad for everyone, not just this entry. Burning
		// through the rest of the queue would only churn error state.
		return true, nil
	}
	return false, nil
}

// uploadAttachment pushes any staged attachment for a freshly synced entry.
// Best effort: a failure here never touches the entry's sync state, and the
// attachment stays pending for a later cycle.
func (e *Engine) uploadAttachment(ctx context.Context, entryLocalID string) {
	if e.attachments == nil {
		return
	}

	a, err := e.attachments.GetPendingForEntry(ctx, entryLocalID)
	if errors.Is(err, common.ErrNotFound) {
		return
	}
	if err != nil {
		e.logger.Warn(ctx, "looking up attachment failed", "localID", entryLocalID, "error", err)
		return
	}

	url, err := e.remote.PresignAttachment(ctx, entryLocalID)
	if err != nil {
		e.logger.Warn(ctx, "presigning attachment failed", "localID", entryLocalID, "error", err)
		return
	}

	body, err := os.ReadFile(a.StagedPath)
	if err != nil {
		e.logger.Warn(ctx, "reading staged attachment failed", "path", a.StagedPath, "error", err)
		return
	}

	if err := netx.UploadPresigned(ctx, url, body); err != nil {
		e.logger.Warn(ctx, "uploading attachment failed", "localID", entryLocalID, "error", err)
		return
	}

	if err := e.attachments.MarkUploaded(ctx, a.EntryLocalID); err != nil {
		e.logger.Warn(ctx, "recording uploaded attachment failed", "localID", entryLocalID, "error", err)
		return
	}
	_ = os.Remove(a.StagedPath)
}
