// Package pipeline runs one end-to-end analysis: fetch, align, scale,
// cluster, interpret, chart and write the report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/farm-report/internal/align"
	"github.com/smukkama/farm-report/internal/chart"
	"github.com/smukkama/farm-report/internal/cluster"
	"github.com/smukkama/farm-report/internal/feed"
	"github.com/smukkama/farm-report/internal/interpret"
	"github.com/smukkama/farm-report/internal/report"
	"github.com/smukkama/farm-report/internal/scale"
)

// Config holds the per-run analysis parameters
type Config struct {
	TemperatureFeed  string
	IlluminationFeed string
	Limit            int
	Clusters         int
	Seed             int64
	Strategy         align.Strategy
	ScatterFile      string
	TrendFile        string
	TrendWindow      int
}

// Outcome is what a successful run produced
type Outcome struct {
	Report   *report.Report
	Path     string
	Duration time.Duration
}

// Pipeline wires the stages together. It holds no state between runs.
type Pipeline struct {
	cfg      Config
	provider feed.Provider
	renderer chart.Renderer
	writer   report.Writer
	rules    interpret.RuleSet
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a pipeline. A nil logger discards output.
func New(cfg Config, provider feed.Provider, renderer chart.Renderer, writer report.Writer, rules interpret.RuleSet, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ScatterFile == "" {
		cfg.ScatterFile = "clusters.png"
	}
	if cfg.TrendFile == "" {
		cfg.TrendFile = "trend.png"
	}
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		renderer: renderer,
		writer:   writer,
		rules:    rules,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Run executes every stage in order. Nothing is written unless all
// earlier stages succeed.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	start := p.now()
	runID := p.newID()
	log := p.logger.With("run_id", runID)

	pair, err := feed.FetchPair(ctx, p.provider, p.cfg.TemperatureFeed, p.cfg.IlluminationFeed, p.cfg.Limit)
	if err != nil {
		return nil, err
	}
	log.Info("Fetched feeds",
		"temperature_readings", len(pair.Temperature),
		"illumination_readings", len(pair.Illumination))

	samples := align.Align(pair.Temperature, pair.Illumination, p.cfg.Strategy)
	log.Info("Aligned samples", "samples", len(samples))

	points, params := scale.FitTransform(samples)

	res, err := cluster.KMeans(points, p.cfg.Clusters, cluster.Options{Seed: p.cfg.Seed})
	if err != nil {
		return nil, fmt.Errorf("failed to cluster samples: %w", err)
	}
	res.OrderByCentroid()
	log.Info("Clustered samples", "k", p.cfg.Clusters, "iterations", res.Iterations, "counts", res.Counts)

	clusters := summarize(res, params)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scatter, err := p.renderer.Scatter(p.cfg.ScatterFile, scatterData(samples, res, clusters))
	if err != nil {
		return nil, fmt.Errorf("failed to render scatter chart: %w", err)
	}
	trend, err := p.renderer.Trend(p.cfg.TrendFile, trendData(samples, p.cfg.TrendWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}

	var interpretations []interpret.Interpretation
	for _, c := range clusters {
		if !c.Valid {
			continue
		}
		interpretations = append(interpretations, p.rules.Interpret(c.ID, c.Temperature, c.Illumination))
	}

	rep, err := report.Compose(report.Input{
		RunID:           runID,
		GeneratedAt:     start,
		TotalSamples:    len(samples),
		Clusters:        clusters,
		Interpretations: interpretations,
		ScatterChart:    scatter,
		TrendChart:      trend,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compose report: %w", err)
	}

	path, err := p.writer.Write(rep)
	if err != nil {
		return nil, err
	}

	elapsed := p.now().Sub(start)
	log.Info("Report written", "path", path, "duration", elapsed)

	return &Outcome{Report: rep, Path: path, Duration: elapsed}, nil
}

// summarize maps centroids back to physical units
func summarize(res *cluster.Result, params scale.Params) []report.Cluster {
	clusters := make([]report.Cluster, len(res.Centroids))
	for id, centroid := range res.Centroids {
		c := report.Cluster{ID: id, MemberCount: res.Counts[id]}
		if c.MemberCount > 0 {
			c.Temperature, c.Illumination = params.Inverse(centroid)
			c.Valid = true
		}
		clusters[id] = c
	}
	return clusters
}

func scatterData(samples []align.Sample, res *cluster.Result, clusters []report.Cluster) chart.ScatterData {
	groups := make([]chart.Group, len(clusters))
	for id := range clusters {
		groups[id] = chart.Group{
			Name:  fmt.Sprintf("Pattern %d", id+1),
			Color: report.Color(id),
		}
	}
	for i, s := range samples {
		g := &groups[res.Assignment[i]]
		g.X = append(g.X, s.Temperature)
		g.Y = append(g.Y, s.Illumination)
	}

	data := chart.ScatterData{
		Title:  "Behavior clusters",
		XLabel: "Temperature (°C)",
		YLabel: "Illumination (lux)",
		Groups: groups,
	}
	for _, c := range clusters {
		if !c.Valid {
			continue
		}
		data.CentroidsX = append(data.CentroidsX, c.Temperature)
		data.CentroidsY = append(data.CentroidsY, c.Illumination)
	}
	return data
}

// trendData plots oldest first; samples arrive newest first
func trendData(samples []align.Sample, window int) chart.TrendData {
	n := len(samples)
	data := chart.TrendData{
		Title:        "Recent trends",
		Window:       window,
		Times:        make([]time.Time, n),
		Temperature:  make([]float64, n),
		Illumination: make([]float64, n),
	}
	for i, s := range samples {
		j := n - 1 - i
		data.Times[j] = s.Timestamp
		data.Temperature[j] = s.Temperature
		data.Illumination[j] = s.Illumination
	}
	return data
}
