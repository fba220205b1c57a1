package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"koel/cmd/consumers/jobs"
	"koel/internal/config"
	"koel/internal/consumers"
	"koel/internal/database"
	"koel/internal/logger"
	"koel/internal/messaging"
	"koel/internal/repository"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	log.Println("Starting consumers service...")

	cfg.NATS.ClientID = "koel-consumers"

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create consumer service: %v", err)
	}

	if err := consumerService.Start(); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	// The chart preparation job shares the NATS cluster but needs its
	// own connection and client id.
	jobCfg := cfg.NATS
	jobCfg.ClientID = "koel-chart-worker"

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(jobCfg)
	if err != nil {
		log.Printf("NATS unavailable for chart worker, events disabled: %v", err)
		natsClient = nil
	}

	repos := repository.NewRepositories(db)
	chartJob := jobs.NewChartPreparationJob(
		repos.Bookings, natsClient,
		time.Duration(cfg.ChartIntervalMin)*time.Minute,
	)

	ctx, cancel := context.WithCancel(context.Background())
	chartJob.Start(ctx)

	log.Println("Consumers service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down consumers service...")

	cancel()
	chartJob.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Consumers service stopped")
}
