package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/adapters/media_storage"
	"github.com/khoahotran/talent-forge/adapters/persistence"
	assetUC "github.com/khoahotran/talent-forge/internal/application/usecase/asset"
	"github.com/khoahotran/talent-forge/internal/config"
	"github.com/khoahotran/talent-forge/pkg/logger"
	"github.com/khoahotran/talent-forge/pkg/tracing"
)

const (
	serviceName   = "talent-forge-worker"
	consumerGroup = "profile-asset-processor"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Talent Forge worker...")

	shutdownTracing, err := tracing.Setup(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Cloudinary
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init uploader", err)
	}

	processAssetUC := assetUC.NewProcessAssetUseCase(
		persistence.NewPostgresEmployerRepo(dbPool),
		persistence.NewPostgresJobSeekerRepo(dbPool),
		uploader,
		appLogger,
	)

	// Kafka consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  consumerGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents), zap.String("group", consumerGroup))

	worker := event.NewProfileEventConsumer(consumer, processAssetUC.Execute, event.DefaultRetryPolicy, appLogger)
	if err := worker.Run(ctx); err != nil {
		appLogger.Error("Worker stopped with error", err)
		return
	}
	appLogger.Info("Worker stopped")
}
