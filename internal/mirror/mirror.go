// Package mirror copies recent feed readings into the local archive.
package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/smukkama/farm-report/internal/feed"
)

// Archive stores readings, skipping ones it already holds
type Archive interface {
	InsertReadings(ctx context.Context, feedKey string, readings []feed.Reading) (int64, error)
}

// Mirror copies the latest window of each feed from a provider to an archive
type Mirror struct {
	source  feed.Provider
	archive Archive
	feeds   []string
	limit   int
	logger  *slog.Logger
}

// New creates a mirror for the named feeds. A nil logger discards output.
func New(source feed.Provider, archive Archive, feeds []string, limit int, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mirror{source: source, archive: archive, feeds: feeds, limit: limit, logger: logger}
}

// CopyOnce fetches every feed and archives it. The first failure stops
// the pass; feeds copied before it stay archived.
func (m *Mirror) CopyOnce(ctx context.Context) (map[string]int64, error) {
	inserted := make(map[string]int64, len(m.feeds))
	for _, key := range m.feeds {
		readings, err := m.source.Fetch(ctx, key, m.limit)
		if err != nil {
			return inserted, fmt.Errorf("failed to fetch feed %q: %w", key, err)
		}

		n, err := m.archive.InsertReadings(ctx, key, readings)
		if err != nil {
			return inserted, fmt.Errorf("failed to archive feed %q: %w", key, err)
		}
		inserted[key] = n
		m.logger.Info("Mirrored feed", "feed", key, "fetched", len(readings), "inserted", n)
	}
	return inserted, nil
}

// Run copies every interval until ctx is cancelled. Failed passes are
// logged and retried at the next tick.
func (m *Mirror) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.CopyOnce(ctx); err != nil {
			m.logger.Error("Mirror pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
