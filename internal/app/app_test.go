package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smukkama/farm-report/internal/chart"
	"github.com/smukkama/farm-report/internal/metrics"
	"github.com/smukkama/farm-report/internal/pipeline"
	"github.com/smukkama/farm-report/internal/protocol"
	"github.com/smukkama/farm-report/internal/report"
	"github.com/smukkama/farm-report/internal/runlock"
	"github.com/smukkama/farm-report/pkg/config"
)

type fakeRunner struct {
	calls int
	err   error
}

func (f *fakeRunner) Run(ctx context.Context) (*pipeline.Outcome, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rep, err := report.Compose(report.Input{
		RunID:        "run-1",
		GeneratedAt:  time.Now(),
		TotalSamples: 4,
		Clusters:     []report.Cluster{{ID: 0, Temperature: 20, Illumination: 90, MemberCount: 4, Valid: true}},
		ScatterChart: chart.Artifact{Name: "clusters.png"},
		TrendChart:   chart.Artifact{Name: "trend.png"},
	})
	if err != nil {
		return nil, err
	}
	return &pipeline.Outcome{Report: rep, Path: "report.html", Duration: time.Second}, nil
}

type fakeLease struct{ released *int }

func (l fakeLease) Release(ctx context.Context) error {
	*l.released++
	return nil
}

type fakeGuard struct {
	locked   bool
	names    []string
	released int
}

func (g *fakeGuard) Acquire(ctx context.Context, name string) (Releaser, error) {
	g.names = append(g.names, name)
	if g.locked {
		return nil, runlock.ErrLocked
	}
	return fakeLease{released: &g.released}, nil
}

type fakePublisher struct {
	events []*protocol.ReportEvent
	err    error
}

func (p *fakePublisher) PublishReport(ctx context.Context, ev *protocol.ReportEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestRunOnce(t *testing.T) {
	runner := &fakeRunner{}
	guard := &fakeGuard{}
	publisher := &fakePublisher{}

	a := New(runner, Options{Guard: guard, Publisher: publisher, LockName: "out/report.html"}, nil)
	out, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if out.Path != "report.html" {
		t.Errorf("Unexpected path %s", out.Path)
	}
	if len(guard.names) != 1 || guard.names[0] != "out/report.html" || guard.released != 1 {
		t.Errorf("Expected lock to be taken and released once, got %v / %d", guard.names, guard.released)
	}
	if len(publisher.events) != 1 || publisher.events[0].RunID != "run-1" || publisher.events[0].ReportPath != "report.html" {
		t.Errorf("Unexpected published events %+v", publisher.events)
	}
}

func TestRunOnce_Locked(t *testing.T) {
	runner := &fakeRunner{}
	a := New(runner, Options{Guard: &fakeGuard{locked: true}}, nil)

	if _, err := a.RunOnce(context.Background()); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("Expected ErrLocked, got %v", err)
	}
	if runner.calls != 0 {
		t.Error("Expected runner not to be called while locked")
	}
}

func TestRunOnce_PublishFailureIsNotFatal(t *testing.T) {
	a := New(&fakeRunner{}, Options{Publisher: &fakePublisher{err: errors.New("broker down")}}, nil)

	if _, err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("Expected publish failure to be logged only, got %v", err)
	}
}

func TestRunOnce_RunnerFailure(t *testing.T) {
	m := metrics.New("test")
	publisher := &fakePublisher{}
	guard := &fakeGuard{}
	a := New(&fakeRunner{err: errors.New("feed down")}, Options{Guard: guard, Publisher: publisher, Metrics: m}, nil)

	if _, err := a.RunOnce(context.Background()); err == nil {
		t.Fatal("Expected runner error")
	}
	if len(publisher.events) != 0 {
		t.Error("Expected no event for a failed run")
	}
	if guard.released != 1 {
		t.Error("Expected lock released after failure")
	}

	expected := `
# HELP farm_report_failures_total Report runs that failed before the report was written.
# TYPE farm_report_failures_total counter
farm_report_failures_total 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "farm_report_failures_total"); err != nil {
		t.Errorf("Unexpected failure metric: %v", err)
	}
}

func TestBuild_HTTPSource(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Feed.Source = config.SourceHTTP
	cfg.Feed.Username = "farmer"
	cfg.Feed.Key = "secret"
	cfg.Report.OutputDir = t.TempDir()
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil

	a, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer a.Close()

	if a.guard != nil || a.publisher != nil {
		t.Error("Expected lock and events disabled without Redis and Kafka")
	}
	if a.metrics == nil {
		t.Error("Expected metrics to be configured")
	}
}

func TestBuild_InvalidStrategy(t *testing.T) {
	cfg, _ := config.Load()
	cfg.Report.OutputDir = t.TempDir()
	cfg.Analysis.AlignStrategy = "sideways"

	if _, err := Build(cfg, nil); err == nil {
		t.Fatal("Expected error for unknown alignment strategy")
	}
}
