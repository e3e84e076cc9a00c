package history

import (
	"context"
	"fmt"
	"log/slog"
)

// Copy moves every extraction record from src into dst in one transaction,
// typically from a local SQLite file into PostgreSQL. Rows already present
// in dst are kept, so the copy can be re-run. It returns the number of rows
// inserted.
func Copy(ctx context.Context, src, dst *DB) (int64, error) {
	rows, err := src.QueryContext(ctx, `SELECT `+recordColumns+` FROM extractions ORDER BY created_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to read source: %w", err)
	}
	defer rows.Close()

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO extractions (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var copied, seen int64
	for rows.Next() {
		// scanRecord normalizes SQLite's 0/1 booleans
		rec, err := scanRecord(rows)
		if err != nil {
			return 0, fmt.Errorf("failed to scan row: %w", err)
		}
		seen++

		res, err := stmt.ExecContext(ctx,
			rec.ID, rec.SourceName, rec.SourceSize, rec.Digest, rec.SplitPoint, rec.Outcome, rec.Strategy,
			rec.PhotoMIME, rec.Cached, rec.Error, rec.Duration.Microseconds(), rec.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", rec.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		copied += n
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var dstCount int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM extractions`).Scan(&dstCount); err != nil {
		return 0, fmt.Errorf("failed to count destination rows: %w", err)
	}
	if dstCount < seen {
		return 0, fmt.Errorf("row count mismatch: source=%d destination=%d", seen, dstCount)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	slog.Info("Copied extraction history", "component", "history", "rows", copied, "skipped", seen-copied)
	return copied, nil
}
