package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Pair holds the two streams the analysis consumes
type Pair struct {
	Temperature  []Reading
	Illumination []Reading
}

// FetchPair fetches both feeds concurrently and returns once both have
// completed. The first failure cancels the other request.
func FetchPair(ctx context.Context, p Provider, temperatureFeed, illuminationFeed string, limit int) (*Pair, error) {
	g, gctx := errgroup.WithContext(ctx)

	var pair Pair
	g.Go(func() error {
		readings, err := p.Fetch(gctx, temperatureFeed, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch temperature feed: %w", err)
		}
		pair.Temperature = readings
		return nil
	})
	g.Go(func() error {
		readings, err := p.Fetch(gctx, illuminationFeed, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch illumination feed: %w", err)
		}
		pair.Illumination = readings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &pair, nil
}
