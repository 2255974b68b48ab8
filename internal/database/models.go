package database

import (
	"time"

	"github.com/smukkama/farm-report/internal/feed"
)

// FeedReading is one archived sample of a named feed
type FeedReading struct {
	ID        int64
	FeedKey   string
	CreatedAt time.Time
	Value     float64
	StoredAt  time.Time
}

// Reading converts the row to the provider representation
func (r FeedReading) Reading() feed.Reading {
	return feed.Reading{Timestamp: r.CreatedAt, Value: r.Value}
}

// toReadings keeps the row order
func toReadings(rows []FeedReading) []feed.Reading {
	readings := make([]feed.Reading, 0, len(rows))
	for _, r := range rows {
		readings = append(readings, r.Reading())
	}
	return readings
}
