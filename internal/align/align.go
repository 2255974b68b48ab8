// Package align pairs the temperature and illumination streams into samples.
package align

import (
	"fmt"
	"strings"
	"time"

	"github.com/smukkama/farm-report/internal/feed"
)

// Sample is one aligned observation of both sensors
type Sample struct {
	Timestamp    time.Time
	Temperature  float64
	Illumination float64
}

// Strategy pairs readings of stream A with readings of stream B
type Strategy interface {
	Name() string
	Align(a, b []feed.Reading) []Sample
}

// Positional keeps the first min(len(a), len(b)) readings of each stream
// and pairs them by index. Timestamps come from stream A. Streams sampled
// at different cadences are paired regardless of their time offset.
type Positional struct{}

func (Positional) Name() string { return "positional" }

func (Positional) Align(a, b []feed.Reading) []Sample {
	n := min(len(a), len(b))
	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		samples[i] = Sample{
			Timestamp:    a[i].Timestamp,
			Temperature:  a[i].Value,
			Illumination: b[i].Value,
		}
	}
	return samples
}

// Nearest pairs every reading of A with the closest unused reading of B
// within Tolerance. Readings of A without a partner are dropped; the
// output keeps the order of A.
type Nearest struct {
	Tolerance time.Duration
}

func (Nearest) Name() string { return "nearest" }

func (s Nearest) Align(a, b []feed.Reading) []Sample {
	used := make([]bool, len(b))
	samples := make([]Sample, 0, min(len(a), len(b)))

	for _, ra := range a {
		best := -1
		var bestDiff time.Duration
		for j, rb := range b {
			if used[j] {
				continue
			}
			diff := rb.Timestamp.Sub(ra.Timestamp)
			if diff < 0 {
				diff = -diff
			}
			if diff > s.Tolerance {
				continue
			}
			if best == -1 || diff < bestDiff {
				best = j
				bestDiff = diff
			}
		}
		if best == -1 {
			continue
		}
		used[best] = true
		samples = append(samples, Sample{
			Timestamp:    ra.Timestamp,
			Temperature:  ra.Value,
			Illumination: b[best].Value,
		})
	}
	return samples
}

// Align pairs the temperature stream with the illumination stream. An
// empty result is valid.
func Align(temperature, illumination []feed.Reading, strategy Strategy) []Sample {
	if strategy == nil {
		strategy = Positional{}
	}
	return strategy.Align(temperature, illumination)
}

// ParseStrategy maps a configuration name to a strategy
func ParseStrategy(name string, tolerance time.Duration) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "positional":
		return Positional{}, nil
	case "nearest":
		if tolerance <= 0 {
			return nil, fmt.Errorf("nearest alignment requires a positive tolerance, got %s", tolerance)
		}
		return Nearest{Tolerance: tolerance}, nil
	default:
		return nil, fmt.Errorf("unknown alignment strategy %q", name)
	}
}
