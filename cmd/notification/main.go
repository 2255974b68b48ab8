package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/smukkama/farm-report/internal/notification"
	"github.com/smukkama/farm-report/internal/protocol"
	"github.com/smukkama/farm-report/internal/queue"
	"github.com/smukkama/farm-report/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("KAFKA_BROKERS is required for the notification service")
	}

	fmt.Println("Starting Notification Service...")

	notifier := notification.NewEmailNotifier(&cfg.SMTP)

	// Test SMTP connection (optional, will skip if not configured)
	if err := notifier.TestConnection(); err != nil {
		fmt.Printf("Note: %v (notifications will be logged only)\n", err)
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReports, "notification-group")
	defer consumer.Close()
	fmt.Println("Kafka consumer initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("\n✓ Notification Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	for {
		msg, err := consumer.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("Failed to consume message: %v\n", err)
			continue
		}

		event, err := protocol.DecodeReportEvent(msg.Value)
		if err != nil {
			log.Printf("Failed to decode report event: %v\n", err)
			consumer.Commit(ctx, msg)
			continue
		}

		if err := notifier.SendReportSummary(event); err != nil {
			log.Printf("Failed to send notification: %v\n", err)
			// Left uncommitted; the reader has moved on, so the group redelivers it only after a restart or rebalance
			continue
		}

		if err := consumer.Commit(ctx, msg); err != nil {
			log.Printf("Failed to commit offset: %v\n", err)
		}
	}

	fmt.Println("\nShutting down gracefully...")
}
