package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labmanhq/labman/internal/calendar"
	"github.com/labmanhq/labman/internal/config"
	"github.com/labmanhq/labman/internal/dispatch"
	"github.com/labmanhq/labman/internal/handler"
	"github.com/labmanhq/labman/internal/infra/postgresql"
	"github.com/labmanhq/labman/internal/infra/postgresql/migrations"
	infraredis "github.com/labmanhq/labman/internal/infra/redis"
	"github.com/labmanhq/labman/internal/mailer"
	"github.com/labmanhq/labman/internal/observability"
	"github.com/labmanhq/labman/internal/repository"
	"github.com/labmanhq/labman/internal/service"
	"github.com/labmanhq/labman/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	meetings := repository.NewGormMeetingRepo(db)
	responses := repository.NewGormResponseRepo(db)
	users := repository.NewGormUserRepo(db)
	groups := repository.NewGormGroupRepo(db)
	failures := repository.NewGormFailureRepo(db)
	audits := repository.NewGormAuditRepo(db)

	mail, err := mailer.NewRelayMailer(cfg.MailAPIURL, cfg.MailFrom)
	if err != nil {
		logger.Fatal("mail relay initialization failed", zap.Error(err))
	}

	limiter, err := infraredis.NewMailRateLimiter(rdb, cfg.MailRatePerSec)
	if err != nil {
		logger.Fatal("mail rate limiter initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	dispatcher, err := dispatch.NewDispatcher(
		mail, failures, limiter,
		cfg.DispatchQueueSize, cfg.LabName, cfg.BaseURL,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	exporter := calendar.NewExporter(cfg.LabTimezone, logger)

	meetingService, err := service.NewMeetingService(
		meetings, responses, users, groups, audits,
		exporter, dispatcher, cfg.LabTimezone, logger,
	)
	if err != nil {
		logger.Fatal("meeting service initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "labman",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(transport.RequestContext(logger))
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterMeetingRoutes(app, meetingService); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Start(gctx)
	})

	g.Go(func() error {
		logger.Info("labman api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("labman api terminated", zap.Error(err))
	}
	logger.Info("labman api stopped")
}
