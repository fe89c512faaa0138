package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/queuedesk/appointment-service/internal/api"
	"github.com/queuedesk/appointment-service/internal/auth"
	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/config"
	"github.com/queuedesk/appointment-service/internal/db"
	"github.com/queuedesk/appointment-service/internal/ledger"
	redisclient "github.com/queuedesk/appointment-service/internal/redis"
)

const version = "1.0.0"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.Info("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load error")
	}

	log.WithFields(logrus.Fields{
		"env":       cfg.Env,
		"http_port": cfg.HTTPPort,
		"store":     cfg.Store,
	}).Info("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	routerCfg := api.RouterConfig{
		Env:     cfg.Env,
		Version: version,
		Logger:  log,
	}

	var (
		catalogRepo catalog.Repository
		ledgerRepo  ledger.Repository
		locker      redisclient.Locker
	)

	if cfg.Store == config.StorePostgres {
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

		catalogRepo = catalog.NewPgRepository(pgPool)
		ledgerRepo = ledger.NewPgRepository(pgPool)
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)

		routerCfg.PgPool = pgPool
		routerCfg.Redis = rdb
	} else {
		log.Info("running on the in-memory store")
		catalogRepo = catalog.NewMemRepository()
		ledgerRepo = ledger.NewMemRepository()
		locker = redisclient.NewLocalLocker()
	}

	registry := catalog.NewRegistry(catalogRepo, ledgerRepo)
	svc := ledger.NewService(ledgerRepo, registry, locker, cfg, log)

	routerCfg.Ledger = svc
	routerCfg.Registry = registry
	if cfg.JWTSecret != "" {
		routerCfg.Tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
		log.Info("bearer auth enabled")
	} else {
		log.Warn("JWT_SECRET not set, auth disabled")
	}

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.NewRouter(routerCfg),
	}

	go func() {
		log.WithField("addr", server.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
