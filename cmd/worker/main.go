package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yatube/yatube/internal/app"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/internal/workers"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Yatube worker...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup, logger.Logger)
	defer consumer.Close()

	svc := app.NewServices(cfg, app.Deps{DB: db.DB, Logger: logger})
	worker := workers.NewEventWorker(svc.Notification, consumer, cfg.Notifications.Retention, cfg.Notifications.CleanupSchedule, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Start(ctx); err != nil {
			logger.WithError(err).Error("Event worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	if err := worker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop event worker")
	}

	logger.Info("Worker exited")
}
