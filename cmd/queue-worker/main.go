package main

import (
	"context"
	"errors"
	"time"

	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/config"
	"github.com/queuedesk/appointment-service/internal/db"
	"github.com/queuedesk/appointment-service/internal/ledger"
	redisclient "github.com/queuedesk/appointment-service/internal/redis"
)

// The queue worker walks the waiting queue periodically and tries an
// automatic assignment for each entry. NoEligibleStaff is the expected
// recoverable outcome: the appointment stays queued for the next pass.
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.Info("queue-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load error")
	}

	log.WithFields(logrus.Fields{
		"env":      cfg.Env,
		"interval": cfg.WorkerInterval.String(),
	}).Info("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.WithError(err).Fatal("postgres connection error")
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	rdb, err := redisclient.New(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("error closing redis")
		}
	}()
	log.Info("connected to Redis")

	ledgerRepo := ledger.NewPgRepository(pgPool)
	registry := catalog.NewRegistry(catalog.NewPgRepository(pgPool), ledgerRepo)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	svc := ledger.NewService(ledgerRepo, registry, locker, cfg, log)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping queue worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *ledger.Service, log *logrus.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()

	queue, err := svc.Queue(runCtx)
	if err != nil {
		log.WithError(err).Error("assign pass: list queue")
		return
	}

	assigned, skipped := 0, 0
	for _, appt := range queue {
		_, err := svc.AutoAssign(runCtx, appt.ID)
		switch {
		case err == nil:
			assigned++
		case errors.Is(err, ledger.ErrNoEligibleStaff),
			errors.Is(err, ledger.ErrAppointmentNotQueued),
			errors.Is(err, ledger.ErrStaffDayBusy):
			// Recoverable; the entry keeps its place for the next pass.
			skipped++
		default:
			log.WithError(err).WithField("appointment_id", appt.ID).Error("assign pass failed")
		}
	}

	log.WithFields(logrus.Fields{
		"queued":   len(queue),
		"assigned": assigned,
		"skipped":  skipped,
		"duration": time.Since(start).String(),
	}).Info("assign pass complete")
}
