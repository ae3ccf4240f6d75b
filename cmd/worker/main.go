package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockwise/fulfillment-service/config"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/syncrun"
	"github.com/stockwise/fulfillment-service/pkg/broker"
	"github.com/stockwise/fulfillment-service/pkg/cache"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"github.com/stockwise/fulfillment-service/pkg/postgres"
	"github.com/stockwise/fulfillment-service/pkg/search"

	"github.com/stockwise/fulfillment-service/internal/barcode"
	chRepoPkg "github.com/stockwise/fulfillment-service/internal/channel/repository"
	"github.com/stockwise/fulfillment-service/internal/channel/rest"
	invRepoPkg "github.com/stockwise/fulfillment-service/internal/inventory/repository"
	invUCPkg "github.com/stockwise/fulfillment-service/internal/inventory/usecase"
	ordRepoPkg "github.com/stockwise/fulfillment-service/internal/order/repository"
	packUCPkg "github.com/stockwise/fulfillment-service/internal/packing/usecase"
	pickRepoPkg "github.com/stockwise/fulfillment-service/internal/picking/repository"
	pickUCPkg "github.com/stockwise/fulfillment-service/internal/picking/usecase"
	resRepoPkg "github.com/stockwise/fulfillment-service/internal/reservation/repository"
	resUCPkg "github.com/stockwise/fulfillment-service/internal/reservation/usecase"
	"github.com/stockwise/fulfillment-service/internal/scanrelay"
	syncRepoPkg "github.com/stockwise/fulfillment-service/internal/syncrun/repository"
	syncUCPkg "github.com/stockwise/fulfillment-service/internal/syncrun/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka consumer",
		zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (run history search disabled)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// Repositories
	invRepo := invRepoPkg.NewPGRepository(db)
	resRepo := resRepoPkg.NewPGRepository(db)
	chRepo := chRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)
	pickRepo := pickRepoPkg.NewPGRepository(db)
	syncRepo := syncRepoPkg.NewPGRepository(db)
	creds := chRepoPkg.NewPGCredentialProvider(db)
	resolver := barcode.NewPGResolver(db)

	// Channel client
	channelClient := rest.NewClient(cfg.Sync.ChannelAPIURL, cfg.Sync.CallTimeout)

	// UseCases
	invUC := invUCPkg.NewInventoryUseCase(invRepo, redisClient, appLogger)
	resUC := resUCPkg.NewReservationUseCase(resRepo, invRepo, chRepo, redisClient, appLogger,
		resUCPkg.Config{DefaultBuffer: cfg.Sync.DefaultBuffer})
	syncUC := syncUCPkg.NewSyncUseCase(syncRepo, chRepo, resUC, channelClient, creds, redisClient,
		esClient, appLogger, syncrun.Config{
			RunLockTTL: cfg.Sync.RunLockTTL,
			LivePush:   cfg.Sync.LivePush,
		})
	pickUC := pickUCPkg.NewPickingUseCase(pickRepo, resolver, resUC, invUC, appLogger)
	packUC := packUCPkg.NewPackingUseCase(ordRepo, resolver, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scan relay
	scanListener := scanrelay.NewScanListener(kafkaConsumer, pickUC, packUC, appLogger)
	go scanListener.Start(ctx)

	// Sync scheduler
	go runScheduler(ctx, cfg, chRepo, syncUC, appLogger)

	appLogger.Info("Fulfillment worker running",
		zap.Duration("poll_interval", cfg.Sync.PollInterval),
		zap.Bool("live_push", cfg.Sync.LivePush))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker...")
	cancel()
	appLogger.Info("Worker stopped")
}

func runScheduler(
	ctx context.Context,
	cfg *config.Config,
	chRepo *chRepoPkg.PGRepository,
	syncUC syncrun.UseCase,
	log logger.Logger,
) {
	ticker := time.NewTicker(cfg.Sync.PollInterval)
	defer ticker.Stop()

	syncAll(ctx, chRepo, syncUC, log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncAll(ctx, chRepo, syncUC, log)
		}
	}
}

func syncAll(ctx context.Context, chRepo *chRepoPkg.PGRepository, syncUC syncrun.UseCase, log logger.Logger) {
	accounts, err := chRepo.ListEnabledAccounts(ctx)
	if err != nil {
		log.Error("failed to list channel accounts", zap.Error(err))
		return
	}

	for _, acc := range accounts {
		if ctx.Err() != nil {
			return
		}
		if acc.UseOrders {
			if _, err := syncUC.RunOrderPull(ctx, acc.ID); err != nil {
				logRunError(log, "order pull", acc.ID, err)
			}
		}
		if acc.UseInventory {
			if _, err := syncUC.RunInventoryPull(ctx, acc.ID); err != nil {
				logRunError(log, "inventory pull", acc.ID, err)
			}
			if _, err := syncUC.RunInventoryPush(ctx, acc.ID); err != nil {
				logRunError(log, "inventory push", acc.ID, err)
			}
		}
	}
}

func logRunError(log logger.Logger, kind, accountID string, err error) {
	// A busy run lock just means the previous cycle is still working.
	if errors.Is(err, apperr.ErrConflict) {
		log.Debug("skipping "+kind+", previous run still active", zap.String("account_id", accountID))
		return
	}
	log.Error("scheduled "+kind+" failed", zap.String("account_id", accountID), zap.Error(err))
}
