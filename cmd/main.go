package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"tasklist/internal/auth"
	"tasklist/internal/cache"
	"tasklist/internal/config"
	"tasklist/internal/controller"
	"tasklist/internal/database"
	"tasklist/internal/queue"
	"tasklist/internal/repository"
	"tasklist/internal/routes"
	"tasklist/internal/service"
	"tasklist/internal/worker"
	"tasklist/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error(ctx, "Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	logger.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	pingers := map[string]controller.Pinger{}

	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn(ctx, "Using in-memory store; data is lost on exit")
		store = repository.NewMemory()
	default:
		var db *sql.DB
		db, err = database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
			return err
		}
		store = repository.NewPostgres(db)
		pingers["database"] = controller.PingFunc(db.PingContext)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	hasher := auth.NewScryptHasher(auth.ScryptParams{
		N: cfg.HashScryptN,
		R: auth.DefaultScryptParams.R,
		P: auth.DefaultScryptParams.P,
	}, cfg.HashConcurrency)

	// Redis is optional; without it every list reads the store.
	var todoCache service.TodoCache
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.RedisURL, cfg.RedisPoolSize)
		if err != nil {
			return err
		}
		defer client.Close()
		rc := cache.NewRedis(client, time.Duration(cfg.CacheTTL)*time.Second)
		todoCache = rc
		pingers["redis"] = rc
	}

	var events service.EventPublisher
	var publisher *queue.Publisher
	if cfg.EventsEnabled() {
		queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaPartitions)
		publisher = queue.NewPublisher(queue.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		events = publisher
	} else {
		logger.Info(ctx, "Event publishing disabled (no Kafka brokers)")
	}

	accounts := service.NewAccounts(service.AccountsParams{
		Store:        store,
		Hasher:       hasher,
		Tokens:       tokens,
		Events:       events,
		StoreTimeout: cfg.StoreTimeout,
	})
	todos := service.NewTodos(service.TodosParams{
		Store:        store,
		Cache:        todoCache,
		Events:       events,
		StoreTimeout: cfg.StoreTimeout,
	})

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Accounts:    controller.NewAccounts(accounts),
			Todos:       controller.NewTodos(todos),
			Health:      controller.NewHealth(pingers),
			Tokens:      tokens,
			CORSOrigins: cfg.CORSAllowedOrigins,
			GinMode:     cfg.GinMode,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	// The worker only re-warms the cache, so it runs only when both Kafka and Redis are on.
	if publisher != nil && todoCache != nil {
		w := worker.New(
			worker.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID),
			todos,
			cfg.StoreTimeout,
		)
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Server shutdown error", "error", err)
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error(ctx, "Event publisher close error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info(ctx, "Server stopped")
	return nil
}
