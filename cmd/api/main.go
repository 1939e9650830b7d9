package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
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
	logger.Info("Starting Yatube API server...")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, closeStore, err := app.NewPageStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open page cache")
	}
	defer closeStore()

	publisher := app.NewPublisher(cfg)
	defer publisher.Close()

	if err := os.MkdirAll(cfg.Media.Root, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create media directory")
	}

	deps := app.Deps{
		DB:        db.DB,
		Pages:     app.NewPageCache(store, cfg),
		Publisher: publisher,
		Media:     app.NewMediaStorage(cfg),
		Logger:    logger,
	}
	svc := app.NewServices(cfg, deps)
	router := app.NewRouter(cfg, svc, deps)

	var worker *workers.EventWorker
	if cfg.Kafka.Enabled && cfg.Kafka.EmbeddedWorker {
		consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup, logger.Logger)
		defer consumer.Close()

		worker = workers.NewEventWorker(svc.Notification, consumer, cfg.Notifications.Retention, cfg.Notifications.CleanupSchedule, logger)
		go func() {
			if err := worker.Start(ctx); err != nil {
				logger.WithError(err).Error("Event worker stopped with error")
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	stop()
	if worker != nil {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop event worker")
		}
	}

	logger.Info("Server exited")
}
