package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/codetag-io/codetag/config"
	appmodel "github.com/codetag-io/codetag/internal/app/model"
	apprepository "github.com/codetag-io/codetag/internal/app/repository"
	appserver "github.com/codetag-io/codetag/internal/app/server"
	appservice "github.com/codetag-io/codetag/internal/app/service"
	"github.com/codetag-io/codetag/internal/infra/logger"
	infraNATS "github.com/codetag-io/codetag/internal/infra/nats"
	infraPostgres "github.com/codetag-io/codetag/internal/infra/postgres"
	infraPrometheus "github.com/codetag-io/codetag/internal/infra/prometheus"
	infraRedis "github.com/codetag-io/codetag/internal/infra/redis"
	"github.com/stripe/stripe-go/v78"
	"go.uber.org/zap"
)

const filterRefreshInterval = 10 * time.Minute

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
		Service:     "codetag",
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("public_url", cfg.Server.PublicURL),
		zap.String("postgres_user", cfg.Postgres.User),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	stripe.Key = cfg.Stripe.SecretKey

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Account{},
		&appmodel.QRCode{},
		&appmodel.ScanEvent{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	accountRepo := apprepository.NewAccountRepository(gormDB)
	qrCodeRepo := apprepository.NewQRCodeRepository(gormDB)
	scanEventRepo := apprepository.NewScanEventRepository(gormDB)

	filter := appservice.NewShortCodeFilter()
	codes, err := qrCodeRepo.AllShortCodes(ctx)
	if err != nil {
		log.Fatal("Failed to seed short code filter", zap.Error(err))
	}
	filter.Seed(codes)
	log.Info("Seeded short code filter", zap.Int("codes", len(codes)))

	refresher := appservice.NewFilterRefresher(log, qrCodeRepo, filter, filterRefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	scanPublisher := appservice.NewScanPublisher(js)
	scanConsumer := appservice.NewScanConsumer(js, log, scanEventRepo, qrCodeRepo)
	if err := scanConsumer.Start(); err != nil {
		log.Fatal("Failed to start scan event consumer", zap.Error(err))
	}

	qrCodeService := appservice.NewQRCodeService(qrCodeRepo, scanEventRepo, filter)
	billingService := appservice.NewBillingService(log, accountRepo, cfg.Stripe)

	server := appserver.New(appserver.Dependencies{
		Logger:        log,
		Config:        cfg,
		Postgres:      pool,
		Redis:         redisClient,
		NATS:          natsConn,
		JetStream:     js,
		Accounts:      accountRepo,
		QRCodes:       qrCodeService,
		Billing:       billingService,
		Filter:        filter,
		CodeRepo:      qrCodeRepo,
		ScanPublisher: scanPublisher,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := server.Listen(addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
