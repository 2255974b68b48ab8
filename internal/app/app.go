// Package app assembles a report run from configuration and adds the
// optional run lock, metrics push and report event around it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/farm-report/internal/align"
	"github.com/smukkama/farm-report/internal/chart"
	"github.com/smukkama/farm-report/internal/database"
	"github.com/smukkama/farm-report/internal/feed"
	"github.com/smukkama/farm-report/internal/interpret"
	"github.com/smukkama/farm-report/internal/metrics"
	"github.com/smukkama/farm-report/internal/pipeline"
	"github.com/smukkama/farm-report/internal/protocol"
	"github.com/smukkama/farm-report/internal/queue"
	"github.com/smukkama/farm-report/internal/report"
	"github.com/smukkama/farm-report/internal/runlock"
	"github.com/smukkama/farm-report/pkg/config"
)

// sideEffectTimeout bounds the metrics push and event publish after a run
const sideEffectTimeout = 10 * time.Second

// Runner executes one analysis
type Runner interface {
	Run(ctx context.Context) (*pipeline.Outcome, error)
}

// Releaser gives back a held lock
type Releaser interface {
	Release(ctx context.Context) error
}

// Guard serializes runs across hosts
type Guard interface {
	Acquire(ctx context.Context, name string) (Releaser, error)
}

// Publisher announces written reports
type Publisher interface {
	PublishReport(ctx context.Context, ev *protocol.ReportEvent) error
}

// App runs reports. Guard, Publisher and Metrics are optional.
type App struct {
	runner    Runner
	guard     Guard
	publisher Publisher
	metrics   *metrics.Metrics
	pushURL   string
	lockName  string
	logger    *slog.Logger
	closers   []io.Closer
}

// Options are the optional collaborators of an App
type Options struct {
	Guard     Guard
	Publisher Publisher
	Metrics   *metrics.Metrics
	PushURL   string
	LockName  string
}

// New creates an App around runner
func New(runner Runner, opts Options, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.LockName == "" {
		opts.LockName = "default"
	}
	return &App{
		runner:    runner,
		guard:     opts.Guard,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		pushURL:   opts.PushURL,
		lockName:  opts.LockName,
		logger:    logger,
	}
}

// Build wires every collaborator named by cfg. Postgres, Redis and Kafka
// are only contacted when their settings enable them.
func Build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var closers []io.Closer
	fail := func(err error) (*App, error) {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}

	provider, closer, err := buildProvider(cfg)
	if err != nil {
		return fail(err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	rules, err := interpret.LoadRules(cfg.Analysis.RulesFile)
	if err != nil {
		return fail(err)
	}

	strategy, err := align.ParseStrategy(cfg.Analysis.AlignStrategy, cfg.Analysis.AlignTolerance)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
		return fail(fmt.Errorf("failed to create report directory: %w", err))
	}

	p := pipeline.New(pipeline.Config{
		TemperatureFeed:  cfg.Feed.TemperatureFeed,
		IlluminationFeed: cfg.Feed.IlluminationFeed,
		Limit:            cfg.Feed.Limit,
		Clusters:         cfg.Analysis.Clusters,
		Seed:             cfg.Analysis.Seed,
		Strategy:         strategy,
		ScatterFile:      cfg.Report.ScatterFile,
		TrendFile:        cfg.Report.TrendFile,
		TrendWindow:      cfg.Report.TrendWindow,
	},
		provider,
		chart.NewPNGRenderer(cfg.Report.OutputDir),
		report.NewFileWriter(cfg.Report.OutputDir, cfg.Report.ReportFile),
		rules,
		logger,
	)

	opts := Options{
		Metrics:  metrics.New(cfg.Metrics.Job),
		PushURL:  cfg.Metrics.PushgatewayURL,
		LockName: filepath.Join(cfg.Report.OutputDir, cfg.Report.ReportFile),
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, client)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			return fail(fmt.Errorf("failed to connect to Redis: %w", err))
		}
		opts.Guard = redisGuard{runlock.NewLocker(client, cfg.Redis.LockTTL)}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReports)
		closers = append(closers, producer)
		opts.Publisher = producer
	}

	a := New(p, opts, logger)
	a.closers = closers
	return a, nil
}

func buildProvider(cfg *config.Config) (feed.Provider, io.Closer, error) {
	switch cfg.Feed.Source {
	case config.SourcePostgres:
		db, err := database.Connect(cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		return database.NewReadingSource(db), db, nil
	default:
		return feed.NewHTTPReader(feed.HTTPConfig{
			BaseURL:   cfg.Feed.BaseURL,
			Username:  cfg.Feed.Username,
			Key:       cfg.Feed.Key,
			UserAgent: cfg.Feed.UserAgent,
			Timeout:   cfg.Feed.Timeout,
		}), nil, nil
	}
}

// RunOnce produces one report. Lock release, metrics push and event
// publish failures are logged; only failures up to the report write are
// returned.
func (a *App) RunOnce(ctx context.Context) (*pipeline.Outcome, error) {
	if a.guard != nil {
		lease, err := a.guard.Acquire(ctx, a.lockName)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				a.logger.Warn("Failed to release run lock", "error", err)
			}
		}()
	}

	out, err := a.runner.Run(ctx)
	if err != nil {
		a.metrics.ObserveFailure()
		a.push(ctx)
		return nil, err
	}

	a.metrics.ObserveSuccess(out.Report, out.Duration)
	a.push(ctx)

	if a.publisher != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
		defer cancel()
		if err := a.publisher.PublishReport(pctx, protocol.NewReportEvent(out.Report, out.Path)); err != nil {
			a.logger.Warn("Failed to publish report event", "error", err)
		} else {
			a.logger.Info("Published report event", "run_id", out.Report.RunID)
		}
	}

	return out, nil
}

func (a *App) push(ctx context.Context) {
	if a.pushURL == "" {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := a.metrics.Push(pctx, a.pushURL); err != nil {
		a.logger.Warn("Failed to push metrics", "error", err)
	}
}

// Close releases connections opened by Build
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type redisGuard struct {
	locker *runlock.Locker
}

func (g redisGuard) Acquire(ctx context.Context, name string) (Releaser, error) {
	lease, err := g.locker.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	return lease, nil
}
