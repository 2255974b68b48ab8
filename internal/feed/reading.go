// Package feed fetches timestamped scalar readings from a feed store.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Reading is a single timestamped sensor value
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// Provider yields up to limit of the most recent readings of a named feed
type Provider interface {
	Fetch(ctx context.Context, feed string, limit int) ([]Reading, error)
}

var ErrInvalidRequest = errors.New("invalid feed request")

// ProviderError is returned when the feed store answers with a non-success status
type ProviderError struct {
	Feed       string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("feed %q: provider returned status %d: %s", e.Feed, e.StatusCode, e.Body)
}

// ValidateRequest checks the arguments shared by every Provider.Fetch
func ValidateRequest(feed string, limit int) error {
	if feed == "" {
		return fmt.Errorf("%w: feed name is required", ErrInvalidRequest)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidRequest, limit)
	}
	return nil
}

// SortNewestFirst orders readings by descending timestamp, keeping the
// provider order for equal timestamps.
func SortNewestFirst(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
}
