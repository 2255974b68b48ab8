// Package cluster partitions standardized points with k-means.
package cluster

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/smukkama/farm-report/internal/scale"
)

const (
	DefaultSeed          = 42
	DefaultMaxIterations = 300
)

var ErrInvalidK = errors.New("cluster count must be positive")

// Options controls initialization and iteration
type Options struct {
	Seed          int64
	MaxIterations int
}

func DefaultOptions() Options {
	return Options{Seed: DefaultSeed, MaxIterations: DefaultMaxIterations}
}

// Result is the outcome of one clustering run.
// Assignment[i] is the cluster of point i. Counts[c] is the number of
// points in cluster c; a cluster with zero members keeps the centroid it
// was initialized or last updated with and must not be reported.
type Result struct {
	Assignment []int
	Centroids  []scale.Point
	Counts     []int
	Iterations int
}

// KMeans runs seeded k-means++ initialization followed by Lloyd
// iterations until the assignment is stable or MaxIterations is reached.
// Identical input, k and seed always produce identical output.
func KMeans(points []scale.Point, k int, opts Options) (*Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	res := &Result{
		Assignment: make([]int, len(points)),
		Centroids:  make([]scale.Point, k),
		Counts:     make([]int, k),
	}
	if len(points) == 0 {
		return res, nil
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	res.Centroids = initCentroids(points, k, rng)

	for i := range res.Assignment {
		res.Assignment[i] = -1
	}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		res.Iterations = iter
		changed := assign(points, res.Centroids, res.Assignment)
		update(points, res.Assignment, res.Centroids)
		if !changed {
			break
		}
	}

	for _, c := range res.Assignment {
		res.Counts[c]++
	}

	return res, nil
}

// initCentroids picks k starting centroids with k-means++ sampling. When
// every remaining point coincides with a chosen centroid, the remaining
// centroids duplicate the first one and end up empty.
func initCentroids(points []scale.Point, k int, rng *rand.Rand) []scale.Point {
	centroids := make([]scale.Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}
		if total == 0 {
			centroids = append(centroids, centroids[0])
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		var acc float64
		for i, d := range dist {
			acc += d
			if d > 0 && acc >= target {
				chosen = i
				break
			}
		}
		for dist[chosen] == 0 && chosen > 0 {
			chosen--
		}

		c := points[chosen]
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}

	return centroids
}

// assign moves every point to its nearest centroid. Ties go to the lower
// index. Reports whether any assignment changed.
func assign(points []scale.Point, centroids []scale.Point, assignment []int) bool {
	changed := false
	for i, p := range points {
		best := 0
		bestDist := sqDist(p, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := sqDist(p, centroids[c]); d < bestDist {
				best = c
				bestDist = d
			}
		}
		if assignment[i] != best {
			assignment[i] = best
			changed = true
		}
	}
	return changed
}

// update recomputes centroids as member means; empty clusters keep theirs
func update(points []scale.Point, assignment []int, centroids []scale.Point) {
	sums := make([]scale.Point, len(centroids))
	counts := make([]int, len(centroids))
	for i, p := range points {
		c := assignment[i]
		counts[c]++
		for f := range p {
			sums[c][f] += p[f]
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for f := range sums[c] {
			centroids[c][f] = sums[c][f] / float64(counts[c])
		}
	}
}

func sqDist(a, b scale.Point) float64 {
	var d float64
	for f := range a {
		diff := a[f] - b[f]
		d += diff * diff
	}
	return d
}
