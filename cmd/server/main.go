package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/library-seat-reservation/internal/booking"
	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/middleware"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/router"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; cache and rate limit disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	store, closeStore, err := openStore(cfg, rdb, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("driver", cfg.StoreDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := booking.NewRegistry(store)
	seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
	err = seed(seedCtx, registry, cfg.SeatDataPath, logger)
	cancelSeed()
	if err != nil {
		logger.Error("failed to seed seats", slog.String("path", cfg.SeatDataPath), slog.String("error", err.Error()))
		os.Exit(1)
	}
	coordinator := booking.NewCoordinator(registry, cfg.BookingMaxAttempts, logger)

	users := repository.NewUserRepo(store)
	deliver, mailer := delivery(cfg, config.LoadMailConfig(), logger)
	if cfg.RabbitURL != "" {
		go func() {
			if err := queue.StartOTPMailConsumer(ctx, cfg.RabbitURL, mailer, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("otp-mail consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}
	otp := service.NewOTPService(repository.NewOTPRepo(store), users, deliver, cfg.OTP, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e, &handler.HealthHandler{Store: store, Driver: cfg.StoreDriver, Logger: logger})
	router.RegisterSeats(e,
		handler.NewSeatHandler(registry, coordinator, identity.ContextProvider{}, logger),
		cfg.JWTSecret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
	)
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, users, logger),
		handler.NewOTPHandler(cfg, otp, logger),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()
	logger.Info("server started", slog.String("addr", addr), slog.String("env", cfg.Env), slog.String("store", cfg.StoreDriver))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
