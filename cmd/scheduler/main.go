package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/smukkama/farm-report/internal/app"
	"github.com/smukkama/farm-report/internal/runlock"
	"github.com/smukkama/farm-report/internal/schedule"
	"github.com/smukkama/farm-report/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	times, err := schedule.ParseTimes(cfg.Schedule.DailyTime)
	if err != nil {
		log.Fatalf("Invalid REPORT_DAILY_TIME: %v", err)
	}

	logger, closeLog, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer closeLog()

	fmt.Println("Starting Report Scheduler...")

	a, err := app.Build(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	job := func(ctx context.Context) error {
		out, err := a.RunOnce(ctx)
		if errors.Is(err, runlock.ErrLocked) {
			logger.Info("Skipping run, another host holds the lock")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("✓ Report generated: %s\n", out.Path)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✓ Report Scheduler is running\n")
	fmt.Printf("✓ Daily run times: %s\n", cfg.Schedule.DailyTime)
	fmt.Println("✓ Press Ctrl+C to stop")

	if err := schedule.NewDaily(times, job, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Scheduler stopped: %v", err)
	}

	fmt.Println("\nShutting down gracefully...")
}
