package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seating/internal/config"
	"github.com/iliyamo/event-seating/internal/database"
	"github.com/iliyamo/event-seating/internal/handler"
	"github.com/iliyamo/event-seating/internal/lock"
	"github.com/iliyamo/event-seating/internal/logger"
	"github.com/iliyamo/event-seating/internal/metrics"
	"github.com/iliyamo/event-seating/internal/middleware"
	"github.com/iliyamo/event-seating/internal/queue"
	"github.com/iliyamo/event-seating/internal/repository"
	"github.com/iliyamo/event-seating/internal/router"
	"github.com/iliyamo/event-seating/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	seatCfg := config.LoadSeatingConfig()
	cacheCfg := config.LoadCacheConfig()

	log, err := logger.Init(config.LoadLogConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("schema migration failed", zap.Error(err))
		}
		log.Info("schema migrated")
	}

	rdb := config.NewRedisClient()
	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb)
	} else {
		log.Warn("redis unavailable: using in-process seating lock, rate limiting and caching disabled")
	}
	eventCache := middleware.NewEventCache(rdb, cacheCfg.Prefix, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher service.EventPublisher
	if seatCfg.PublishEnabled {
		p := queue.NewPublisher(cfg.RabbitMQURL, seatCfg.EventsQueue, log)
		defer p.Close()
		publisher = p
	}
	if seatCfg.ConsumeEnabled {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, seatCfg.EventsQueue, seatCfg.ConsumerLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("seating consumer stopped", zap.Error(err))
			}
		}()
	}

	eventRepo := repository.NewEventRepo(db)
	tableRepo := repository.NewTableRepo(db)
	guestRepo := repository.NewGuestRepo(db)
	householdRepo := repository.NewHouseholdRepo(db)
	seatingRepo := repository.NewSeatingRepo(db)

	seatingSvc := service.NewSeatingService(seatingRepo, locker, service.Options{
		LockTTL:    seatCfg.LockTTL,
		LockPrefix: seatCfg.LockPrefix,
		RunTimeout: seatCfg.RunTimeout,
		Publisher:  publisher,
		Cache:      eventCache,
		Metrics:    metrics.NewPrometheus(nil, ""),
		Logger:     log.Named("seating"),
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	deps := router.Deps{
		Events:   handler.NewEventHandler(eventRepo, householdRepo),
		Tables:   handler.NewTableHandler(tableRepo),
		Guests:   handler.NewGuestHandler(guestRepo),
		Seating:  handler.NewSeatingHandler(tableRepo, guestRepo, seatingSvc),
		Lookup:   eventRepo,
		DB:       db,
		Redis:    rdb,
		Cache:    eventCache,
		RateCfg:  config.LoadRateLimitConfig(),
		CacheCfg: cacheCfg,
		Logger:   log,
	}
	router.RegisterRoutes(e, deps)
	router.RegisterAPI(e, deps)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
