package worker

import (
	"context"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/storage"
)

// StoreArchiver adapts the sqlite repository to the worker's Archiver.
type StoreArchiver struct {
	repo *storage.SQLiteRepository
}

func NewStoreArchiver(repo *storage.SQLiteRepository) *StoreArchiver {
	return &StoreArchiver{repo: repo}
}

func (a *StoreArchiver) Archive(ctx context.Context, event *amqp.AnalysisEvent) error {
	analyzedAt := event.Timestamp
	if analyzedAt.IsZero() {
		analyzedAt = time.Now().UTC()
	}
	_, err := a.repo.LogAnalysis(ctx, storage.AnalysisRecord{
		SessionID:       event.SessionID,
		SourceFile:      event.SourceFile,
		TotalIncome:     event.TotalIncome,
		TotalExpenses:   event.TotalExpenses,
		AvailableIncome: event.AvailableIncome,
		EnhancedMode:    event.EnhancedMode,
		AnalyzedAt:      analyzedAt,
	})
	return err
}

func (a *StoreArchiver) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	return a.repo.DeleteIdleSessions(ctx, cutoff)
}
