// Package report composes and writes the regime report document.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/smukkama/farm-report/internal/chart"
	"github.com/smukkama/farm-report/internal/interpret"
)

var ErrCountMismatch = errors.New("cluster counts do not sum to the sample total")

// Palette assigns display colors by cluster id, wrapping when k exceeds it
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Color returns the palette color of a cluster id
func Color(id int) string {
	if id < 0 {
		id = -id
	}
	return Palette[id%len(Palette)]
}

// Cluster is the summary of one discovered cluster in physical units.
// Valid is false for clusters without members; their centroid is unset.
type Cluster struct {
	ID           int
	Temperature  float64
	Illumination float64
	MemberCount  int
	Valid        bool
}

// ClusterSummary is a cluster as shown in the report
type ClusterSummary struct {
	Cluster
	Pattern int
	Color   string
}

// Report is an immutable run summary
type Report struct {
	RunID           string
	GeneratedAt     time.Time
	TotalSamples    int
	Clusters        []ClusterSummary
	Interpretations []interpret.Interpretation
	ScatterChart    chart.Artifact
	TrendChart      chart.Artifact
}

// Input collects what Compose needs from the pipeline
type Input struct {
	RunID           string
	GeneratedAt     time.Time
	TotalSamples    int
	Clusters        []Cluster
	Interpretations []interpret.Interpretation
	ScatterChart    chart.Artifact
	TrendChart      chart.Artifact
}

// Compose builds the report, checking that member counts sum to the total
func Compose(in Input) (*Report, error) {
	sum := 0
	for _, c := range in.Clusters {
		sum += c.MemberCount
	}
	if sum != in.TotalSamples {
		return nil, fmt.Errorf("%w: counts sum to %d, total is %d", ErrCountMismatch, sum, in.TotalSamples)
	}

	clusters := make([]ClusterSummary, len(in.Clusters))
	for i, c := range in.Clusters {
		clusters[i] = ClusterSummary{
			Cluster: c,
			Pattern: c.ID + 1,
			Color:   Color(c.ID),
		}
	}

	interpretations := make([]interpret.Interpretation, len(in.Interpretations))
	copy(interpretations, in.Interpretations)

	return &Report{
		RunID:           in.RunID,
		GeneratedAt:     in.GeneratedAt,
		TotalSamples:    in.TotalSamples,
		Clusters:        clusters,
		Interpretations: interpretations,
		ScatterChart:    in.ScatterChart,
		TrendChart:      in.TrendChart,
	}, nil
}

// Label returns the regime label of a cluster, or "" when it was not interpreted
func (r *Report) Label(clusterID int) interpret.Label {
	for _, in := range r.Interpretations {
		if in.ClusterID == clusterID {
			return in.Label
		}
	}
	return ""
}
