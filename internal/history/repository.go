package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles extraction history database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new history repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, source_name, source_size, digest, split_point, outcome, strategy,
	photo_mime, cached, error, duration_us, created_at`

// Insert stores rec, assigning an ID and timestamp when they are unset.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extractions (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rec.ID, rec.SourceName, rec.SourceSize, rec.Digest, rec.SplitPoint, rec.Outcome, rec.Strategy,
		rec.PhotoMIME, rec.Cached, rec.Error, rec.Duration.Microseconds(), rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Get returns one record by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM extractions WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM extractions
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByOutcome returns the number of records per outcome.
func (r *Repository) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM extractions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			outcome string
			n       int64
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// DeleteBefore removes records older than t and returns how many went.
func (r *Repository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM extractions WHERE created_at < $1`, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec       Record
		durationU int64
		createdMS int64
	)
	err := s.Scan(
		&rec.ID, &rec.SourceName, &rec.SourceSize, &rec.Digest, &rec.SplitPoint, &rec.Outcome, &rec.Strategy,
		&rec.PhotoMIME, &rec.Cached, &rec.Error, &durationU, &createdMS,
	)
	if err != nil {
		return nil, err
	}
	rec.Duration = time.Duration(durationU) * time.Microsecond
	rec.CreatedAt = time.UnixMilli(createdMS).UTC()
	return &rec, nil
}
