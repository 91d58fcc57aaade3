package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Iyke200/doculuna/internal/model"
)

// HistoryRepository manages the append-only operation log.
type HistoryRepository interface {
	// Create appends a pending entry and fills in its generated ID.
	Create(ctx context.Context, e *model.OperationHistoryEntry) error
	GetByID(ctx context.Context, id string) (*model.OperationHistoryEntry, error)
	// Claim atomically moves a pending entry to queued. Returns false when
	// the entry was already claimed, so a double-submit cannot enqueue twice.
	Claim(ctx context.Context, id string) (bool, error)
	// Finalize records the outcome of a pending or queued entry.
	Finalize(ctx context.Context, id, status string, duration time.Duration, outputFilename string) error
	// ListRecent returns the user's entries ordered by recency.
	ListRecent(ctx context.Context, userID string, limit int) ([]model.OperationHistoryEntry, error)
	// CountCompleted counts finished (success) operations for a user.
	CountCompleted(ctx context.Context, userID string) (int, error)
	// DeleteOlderThan removes entries past the retention horizon.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteForUser handles an explicit history-cleanup request.
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}

type historyRepo struct {
	pool PgxPool
}

// NewHistoryRepo creates a new HistoryRepository.
func NewHistoryRepo(pool PgxPool) HistoryRepository {
	return &historyRepo{pool: pool}
}

const historyColumns = `id, user_id, filename, file_type, operation, status, file_size_bytes, duration_ms, output_filename, storage_path, created_at`

func scanHistory(row pgx.Row) (*model.OperationHistoryEntry, error) {
	var e model.OperationHistoryEntry
	var durationMs int64
	err := row.Scan(
		&e.ID, &e.UserID, &e.Filename, &e.FileType, &e.Operation, &e.Status,
		&e.FileSizeBytes, &durationMs, &e.OutputFilename, &e.StoragePath, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Duration = time.Duration(durationMs) * time.Millisecond
	return &e, nil
}

// Create appends a new entry.
func (r *historyRepo) Create(ctx context.Context, e *model.OperationHistoryEntry) error {
	const q = `
        INSERT INTO operation_history
            (user_id, filename, file_type, operation, status, file_size_bytes, duration_ms, output_filename, storage_path, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING id, created_at
    `
	err := r.pool.QueryRow(ctx, q,
		e.UserID, e.Filename, e.FileType, e.Operation, e.Status,
		e.FileSizeBytes, e.Duration.Milliseconds(), e.OutputFilename, e.StoragePath,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append history entry for user %s: %w", e.UserID, err)
	}
	return nil
}

// GetByID returns one entry.
func (r *historyRepo) GetByID(ctx context.Context, id string) (*model.OperationHistoryEntry, error) {
	const q = `SELECT ` + historyColumns + ` FROM operation_history WHERE id = $1`
	e, err := scanHistory(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch history entry %s: %w", id, err)
	}
	return e, nil
}

// Claim moves a pending entry to queued; the guard makes concurrent claims
// race for a single row update.
func (r *historyRepo) Claim(ctx context.Context, id string) (bool, error) {
	const q = `
        UPDATE operation_history
        SET status = 'queued'
        WHERE id = $1 AND status = 'pending'
    `
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("claim history entry %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Finalize records the outcome of a pending or queued entry.
func (r *historyRepo) Finalize(ctx context.Context, id, status string, duration time.Duration, outputFilename string) error {
	const q = `
        UPDATE operation_history
        SET status = $2, duration_ms = $3, output_filename = $4
        WHERE id = $1 AND status IN ('pending', 'queued')
    `
	if _, err := r.pool.Exec(ctx, q, id, status, duration.Milliseconds(), outputFilename); err != nil {
		return fmt.Errorf("finalize history entry %s: %w", id, err)
	}
	return nil
}

// ListRecent returns entries ordered by recency.
func (r *historyRepo) ListRecent(ctx context.Context, userID string, limit int) ([]model.OperationHistoryEntry, error) {
	const q = `SELECT ` + historyColumns + ` FROM operation_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []model.OperationHistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}

// CountCompleted counts successful operations for a user.
func (r *historyRepo) CountCompleted(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM operation_history WHERE user_id = $1 AND status = 'success'`
	var n int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed operations for user %s: %w", userID, err)
	}
	return n, nil
}

// DeleteOlderThan removes entries past retention.
func (r *historyRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM operation_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old history entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteForUser removes the user's entries on explicit request.
func (r *historyRepo) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM operation_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete history for user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}
