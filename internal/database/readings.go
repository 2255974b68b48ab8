package database

import (
	"context"
	"fmt"

	"github.com/smukkama/farm-report/internal/feed"
)

// ReadingSource serves archived readings as a feed provider
type ReadingSource struct {
	db *DB
}

// NewReadingSource creates a provider backed by the feed_readings table
func NewReadingSource(db *DB) *ReadingSource {
	return &ReadingSource{db: db}
}

// Fetch returns the most recent readings of a feed, newest first
func (s *ReadingSource) Fetch(ctx context.Context, feedKey string, limit int) ([]feed.Reading, error) {
	if err := feed.ValidateRequest(feedKey, limit); err != nil {
		return nil, err
	}

	query := `
		SELECT id, feed_key, created_at, value, stored_at
		FROM feed_readings
		WHERE feed_key = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, feedKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed %q: %w", feedKey, err)
	}
	defer rows.Close()

	var rowsRead []FeedReading
	for rows.Next() {
		var r FeedReading
		if err := rows.Scan(&r.ID, &r.FeedKey, &r.CreatedAt, &r.Value, &r.StoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading of feed %q: %w", feedKey, err)
		}
		rowsRead = append(rowsRead, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed %q: %w", feedKey, err)
	}

	return toReadings(rowsRead), nil
}

// InsertReadings archives readings of a feed in one transaction. Readings
// already stored for the same timestamp are skipped. It returns the number
// of new rows.
func (db *DB) InsertReadings(ctx context.Context, feedKey string, readings []feed.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_readings (feed_key, created_at, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (feed_key, created_at) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range readings {
		res, err := stmt.ExecContext(ctx, feedKey, r.Timestamp, r.Value)
		if err != nil {
			return 0, fmt.Errorf("failed to insert reading of feed %q: %w", feedKey, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit readings: %w", err)
	}
	return inserted, nil
}
