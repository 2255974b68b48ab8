package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/smukkama/farm-report/internal/database"
	"github.com/smukkama/farm-report/internal/feed"
	"github.com/smukkama/farm-report/internal/mirror"
	"github.com/smukkama/farm-report/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Feed.Username == "" || cfg.Feed.Key == "" {
		log.Fatalf("AIO_USERNAME and AIO_KEY are required to mirror feeds")
	}

	logger, closeLog, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer closeLog()

	fmt.Println("Starting Feed Mirror...")
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	if err := db.RunMigrations(cfg.Mirror.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	source := feed.NewHTTPReader(feed.HTTPConfig{
		BaseURL:   cfg.Feed.BaseURL,
		Username:  cfg.Feed.Username,
		Key:       cfg.Feed.Key,
		UserAgent: cfg.Feed.UserAgent,
		Timeout:   cfg.Feed.Timeout,
	})
	m := mirror.New(source, db, []string{cfg.Feed.TemperatureFeed, cfg.Feed.IlluminationFeed}, cfg.Feed.Limit, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Mirror.Interval <= 0 {
		inserted, err := m.CopyOnce(ctx)
		if err != nil {
			log.Fatalf("Mirror failed: %v", err)
		}
		for key, n := range inserted {
			fmt.Printf("✓ %s: %d new readings\n", key, n)
		}
		return
	}

	fmt.Println("\n✓ Feed Mirror is running")
	fmt.Printf("✓ Copy interval: %s\n", cfg.Mirror.Interval)
	fmt.Println("✓ Press Ctrl+C to stop")

	if err := m.Run(ctx, cfg.Mirror.Interval); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Mirror stopped: %v", err)
	}

	fmt.Println("\nShutting down gracefully...")
}
