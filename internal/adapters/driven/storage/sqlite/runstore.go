package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, source, model, chunks, remote_chunks, cached_chunks, fallback_chunks,
	remote_calls, degraded, reason, started_at, finished_at`

// Save stores or updates a run record.
func (s *runStore) Save(ctx context.Context, rec domain.RunRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO rewrite_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			model = excluded.model,
			chunks = excluded.chunks,
			remote_chunks = excluded.remote_chunks,
			cached_chunks = excluded.cached_chunks,
			fallback_chunks = excluded.fallback_chunks,
			remote_calls = excluded.remote_calls,
			degraded = excluded.degraded,
			reason = excluded.reason,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`,
		rec.ID, rec.Source, rec.Model, rec.Chunks, rec.RemoteChunks, rec.CachedChunks,
		rec.FallbackChunks, rec.RemoteCalls, rec.Degraded, string(rec.Reason),
		rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get retrieves a run record by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM rewrite_runs WHERE id = ?", id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns up to limit records, newest first. A non-positive limit returns all.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM rewrite_runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	var reason string
	var started, finished int64
	err := row.Scan(
		&rec.ID, &rec.Source, &rec.Model, &rec.Chunks, &rec.RemoteChunks, &rec.CachedChunks,
		&rec.FallbackChunks, &rec.RemoteCalls, &rec.Degraded, &reason, &started, &finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	rec.Reason = domain.ErrorKind(reason)
	rec.StartedAt = time.Unix(0, started).UTC()
	rec.FinishedAt = time.Unix(0, finished).UTC()
	return &rec, nil
}
