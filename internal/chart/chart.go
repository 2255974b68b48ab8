// Package chart renders the report's scatter and trend charts.
package chart

import (
	"time"
)

// Artifact references a rendered chart by the name the report embeds
type Artifact struct {
	Name string
}

// Group is one colored point series of the scatter chart
type Group struct {
	Name  string
	Color string // hex, e.g. "#1f77b4"
	X     []float64
	Y     []float64
}

// ScatterData is the temperature/illumination scatter with centroids
type ScatterData struct {
	Title      string
	XLabel     string
	YLabel     string
	Groups     []Group
	CentroidsX []float64
	CentroidsY []float64
}

// TrendData is a dual-axis time series, ordered oldest first
type TrendData struct {
	Title        string
	Times        []time.Time
	Temperature  []float64
	Illumination []float64
	// Window is the moving-average period; values below 2 disable it.
	Window int
}

// Renderer turns chart data into named image artifacts
type Renderer interface {
	Scatter(name string, data ScatterData) (Artifact, error)
	Trend(name string, data TrendData) (Artifact, error)
}
