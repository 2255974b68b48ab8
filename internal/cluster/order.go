package cluster

import (
	"sort"

	"github.com/smukkama/farm-report/internal/scale"
)

// OrderByCentroid relabels clusters so that ids ascend by centroid
// temperature, then illumination. Empty clusters sort last. The result
// is rewritten in place; cluster 0 is always the coldest non-empty regime.
// Standardization is monotonic per feature, so ordering in standardized
// space equals ordering in physical units.
func (r *Result) OrderByCentroid() {
	k := len(r.Centroids)
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := order[a], order[b]
		emptyA, emptyB := r.Counts[ca] == 0, r.Counts[cb] == 0
		if emptyA != emptyB {
			return !emptyA
		}
		pa, pb := r.Centroids[ca], r.Centroids[cb]
		if pa[0] != pb[0] {
			return pa[0] < pb[0]
		}
		return pa[1] < pb[1]
	})

	newID := make([]int, k)
	centroids := make([]scale.Point, k)
	counts := make([]int, k)
	for next, old := range order {
		newID[old] = next
		centroids[next] = r.Centroids[old]
		counts[next] = r.Counts[old]
	}
	for i, c := range r.Assignment {
		r.Assignment[i] = newID[c]
	}
	r.Centroids = centroids
	r.Counts = counts
}
