// Package worker runs the analysis archiver: it consumes analysis events
// from the broker and writes them to the sqlite analysis log, with a
// periodic sweep of idle persisted sessions.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finsight/internal/amqp"
)

// ArchiveWorker consumes analysis events and archives them.
type ArchiveWorker struct {
	archiver   Archiver
	sessionTTL time.Duration
}

// Archiver is the storage surface the worker needs.
type Archiver interface {
	Archive(ctx context.Context, event *amqp.AnalysisEvent) error
	DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewArchiveWorker creates a worker. sessionTTL bounds how long idle
// persisted sessions are kept; non-positive disables the sweep.
func NewArchiveWorker(archiver Archiver, sessionTTL time.Duration) *ArchiveWorker {
	return &ArchiveWorker{archiver: archiver, sessionTTL: sessionTTL}
}

// HandleEvent archives one analysis event. Returning an error requeues the
// event at the broker.
func (w *ArchiveWorker) HandleEvent(ctx context.Context, event *amqp.AnalysisEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("event without session id")
	}

	if err := w.archiver.Archive(ctx, event); err != nil {
		return fmt.Errorf("archive analysis event: %w", err)
	}

	slog.InfoContext(ctx, "Archived analysis event",
		"session_id", event.SessionID,
		"source_file", event.SourceFile,
		"available_income", event.AvailableIncome)

	return nil
}

// RunIdleSweep deletes idle persisted sessions every interval until the
// context is done.
func (w *ArchiveWorker) RunIdleSweep(ctx context.Context, interval time.Duration) {
	if w.sessionTTL <= 0 {
		slog.InfoContext(ctx, "Idle session sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-w.sessionTTL)
			n, err := w.archiver.DeleteIdleSessions(ctx, cutoff)
			if err != nil {
				slog.ErrorContext(ctx, "Idle session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "Swept idle sessions", "count", n, "cutoff", cutoff.Format(time.RFC3339))
			}
		}
	}
}
