// Package storage is the sqlite persistence layer: an optional durable
// session store and the analysis log the archiver worker writes to.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"finsight/internal/session"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements session.Store on a local sqlite file and
// records analysis events for later reporting.
type SQLiteRepository struct {
	db *sql.DB

	// sqlite allows one writer; serializing updates here avoids busy
	// errors under concurrent requests for the same session.
	mu sync.Mutex
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements session.Store.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Put implements session.Store.
func (r *SQLiteRepository) Put(ctx context.Context, s *session.Session) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.ID, string(data), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Update implements session.Store. The read-modify-write runs under the
// repository lock so concurrent updates to a session cannot interleave.
func (r *SQLiteRepository) Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := r.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete implements session.Store.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteIdleSessions removes sessions untouched since the cutoff and
// returns how many were dropped.
func (r *SQLiteRepository) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// AnalysisRecord is one archived analysis event.
type AnalysisRecord struct {
	ID              int64
	SessionID       string
	SourceFile      string
	TotalIncome     float64
	TotalExpenses   float64
	AvailableIncome float64
	EnhancedMode    bool
	AnalyzedAt      time.Time
}

// LogAnalysis archives one analysis event.
func (r *SQLiteRepository) LogAnalysis(ctx context.Context, rec AnalysisRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO analysis_log
		   (session_id, source_file, total_income, total_expenses, available_income, enhanced_mode, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.SourceFile, rec.TotalIncome, rec.TotalExpenses,
		rec.AvailableIncome, rec.EnhancedMode, rec.AnalyzedAt)
	if err != nil {
		return 0, fmt.Errorf("insert analysis record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Analysis archived",
		"id", id,
		"session_id", rec.SessionID,
		"source_file", rec.SourceFile,
		"available_income", rec.AvailableIncome)

	return id, nil
}

// RecentAnalyses returns the newest archived events, most recent first.
func (r *SQLiteRepository) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, source_file, total_income, total_expenses,
		        available_income, enhanced_mode, analyzed_at
		 FROM analysis_log
		 ORDER BY analyzed_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.SourceFile,
			&rec.TotalIncome, &rec.TotalExpenses, &rec.AvailableIncome,
			&rec.EnhancedMode, &rec.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}
