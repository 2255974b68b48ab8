package cluster

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/smukkama/farm-report/internal/scale"
)

func twoBlobs() []scale.Point {
	return []scale.Point{
		{-1.02, -0.98}, {1.01, 0.99}, {-0.97, -1.01}, {0.98, 1.02}, {-1.0, -1.0},
		{1.0, 1.0}, {-1.01, -0.99}, {1.02, 0.97}, {-0.99, -1.02}, {0.99, 1.01},
	}
}

func TestKMeans_SeparatesBlobs(t *testing.T) {
	points := twoBlobs()

	res, err := KMeans(points, 2, DefaultOptions())
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}

	if res.Counts[0] != 5 || res.Counts[1] != 5 {
		t.Fatalf("Expected 5/5 split, got %v", res.Counts)
	}
	for i, p := range points {
		for j, q := range points {
			sameBlob := (p[0] < 0) == (q[0] < 0)
			sameCluster := res.Assignment[i] == res.Assignment[j]
			if sameBlob != sameCluster {
				t.Fatalf("points %d and %d: sameBlob=%v sameCluster=%v", i, j, sameBlob, sameCluster)
			}
		}
	}
}

func TestKMeans_Deterministic(t *testing.T) {
	points := []scale.Point{
		{0.1, 0.3}, {1.2, -0.4}, {-0.7, 0.9}, {2.1, 1.1}, {-1.5, -1.2},
		{0.4, 0.2}, {1.9, 0.8}, {-0.2, -0.6}, {0.8, 1.7}, {-1.1, 0.5},
	}

	first, err := KMeans(points, 3, DefaultOptions())
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}
	second, err := KMeans(points, 3, DefaultOptions())
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results, got %+v and %+v", first, second)
	}
}

func TestKMeans_SingleCluster(t *testing.T) {
	points := twoBlobs()

	res, err := KMeans(points, 1, DefaultOptions())
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}

	if res.Counts[0] != len(points) {
		t.Errorf("Expected all %d points in one cluster, got %d", len(points), res.Counts[0])
	}
	for i, c := range res.Assignment {
		if c != 0 {
			t.Errorf("point %d assigned to %d", i, c)
		}
	}
}

func TestKMeans_MoreClustersThanDistinctPoints(t *testing.T) {
	points := []scale.Point{{1, 1}, {1, 1}, {-1, -1}}

	res, err := KMeans(points, 4, DefaultOptions())
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}

	total, empty := 0, 0
	for _, n := range res.Counts {
		total += n
		if n == 0 {
			empty++
		}
	}
	if total != len(points) {
		t.Errorf("Expected counts to sum to %d, got %d", len(points), total)
	}
	if empty != 2 {
		t.Errorf("Expected 2 empty clusters, got %d (%v)", empty, res.Counts)
	}
	for c, p := range res.Centroids {
		for f := range p {
			if math.IsNaN(p[f]) {
				t.Errorf("centroid %d is NaN", c)
			}
		}
	}
}

func TestKMeans_Empty(t *testing.T) {
	res, err := KMeans(nil, 3, DefaultOptions())
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}
	if len(res.Assignment) != 0 {
		t.Errorf("Expected no assignments, got %d", len(res.Assignment))
	}
	if len(res.Counts) != 3 || res.Counts[0]+res.Counts[1]+res.Counts[2] != 0 {
		t.Errorf("Expected 3 empty clusters, got %v", res.Counts)
	}
}

func TestKMeans_InvalidK(t *testing.T) {
	if _, err := KMeans(twoBlobs(), 0, DefaultOptions()); !errors.Is(err, ErrInvalidK) {
		t.Errorf("Expected ErrInvalidK, got %v", err)
	}
}

func TestAssign_TieGoesToLowerIndex(t *testing.T) {
	points := []scale.Point{{0, 0}}
	centroids := []scale.Point{{1, 0}, {-1, 0}}
	assignment := []int{-1}

	assign(points, centroids, assignment)

	if assignment[0] != 0 {
		t.Errorf("Expected tie to resolve to cluster 0, got %d", assignment[0])
	}
}

func TestOrderByCentroid(t *testing.T) {
	res := &Result{
		Assignment: []int{0, 1, 2, 0, 1},
		Centroids:  []scale.Point{{1.5, 0}, {-1.0, 2}, {0.2, 0}, {-3, -3}},
		Counts:     []int{2, 2, 1, 0},
	}

	res.OrderByCentroid()

	wantCentroids := []scale.Point{{-1.0, 2}, {0.2, 0}, {1.5, 0}, {-3, -3}}
	if !reflect.DeepEqual(res.Centroids, wantCentroids) {
		t.Errorf("Unexpected centroid order %v", res.Centroids)
	}
	if !reflect.DeepEqual(res.Counts, []int{2, 1, 2, 0}) {
		t.Errorf("Unexpected counts %v", res.Counts)
	}
	if !reflect.DeepEqual(res.Assignment, []int{2, 0, 1, 2, 0}) {
		t.Errorf("Unexpected assignment %v", res.Assignment)
	}
}
