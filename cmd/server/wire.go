package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/library-seat-reservation/internal/booking"
	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/database"
	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/docstore/memory"
	mysqlstore "github.com/iliyamo/library-seat-reservation/internal/docstore/mysql"
	redisstore "github.com/iliyamo/library-seat-reservation/internal/docstore/redis"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// openStore builds the document store selected by STORE_DRIVER.  The
// returned close function releases the driver's connections.
func openStore(cfg config.Config, rdb *redis.Client, logger *slog.Logger) (docstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.Open(database.Options{
			User: cfg.DBUser,
			Pass: cfg.DBPass,
			Host: cfg.DBHost,
			Port: cfg.DBPort,
			Name: cfg.DBName,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		store := mysqlstore.New(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return store, func() { _ = db.Close() }, nil
	case config.StoreRedis:
		if rdb == nil {
			return nil, nil, errors.New("STORE_DRIVER=redis but redis is unreachable")
		}
		return redisstore.New(rdb, cfg.StoreRedisPrefix), func() {}, nil
	default:
		logger.Warn("using in-memory store; bookings are lost on restart")
		return memory.New(), func() {}, nil
	}
}

// seed fills an empty registry from the seat data file.  An already seeded
// store is left alone, so restarts never touch live bookings.
func seed(ctx context.Context, reg *booking.Registry, path string, logger *slog.Logger) error {
	seats, err := booking.LoadSeats(path)
	if err != nil {
		return err
	}
	seeded, err := reg.SeedIfEmpty(ctx, seats)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("seat registry seeded", slog.String("path", path), slog.Int("seats", len(seats)))
	} else {
		logger.Info("seat registry already seeded")
	}
	return nil
}

// delivery picks how one-time codes reach users.  With RABBITMQ_URL set the
// code goes through the otp.mail queue and the returned mailer must be run
// by a consumer; otherwise it is mailed inline.
func delivery(cfg config.Config, mail config.MailConfig, logger *slog.Logger) (service.Delivery, queue.Mailer) {
	var mailer queue.Mailer = service.LogMailer{Logger: logger}
	if mail.APIKey != "" {
		mailer = service.NewMailerSendMailer(mail, logger)
	}
	if cfg.RabbitURL != "" {
		return &service.QueueDelivery{URL: cfg.RabbitURL, Logger: logger}, mailer
	}
	return service.MailerDelivery{Mailer: mailer}, mailer
}
