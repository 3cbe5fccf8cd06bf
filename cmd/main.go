package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	redisUp := redisClient.Ping(ctx).Err() == nil
	if !redisUp {
		slog.Warn("redis unavailable, using in-process session store and catalog cache", "addr", cfg.RedisAddr)
	}

	persistent, closeStore, err := openDeviceStore(cfg, redisClient, redisUp)
	if err != nil {
		slog.Error("failed to open device store", "backend", cfg.DeviceStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var (
		ephemeral storage.Store           = storage.NewMemoryStore()
		cache     catalog.CollectionCache = catalog.NewMemoryCache(cfg.CatalogTTL)
	)
	if redisUp {
		ephemeral = storage.NewRedisStore(redisClient, "session", cfg.SessionTTL)
		cache = catalog.NewRedisCache(redisClient, cfg.CatalogTTL)
	}

	apiCfg := api.Config{
		BaseURL:          cfg.APIBaseURL,
		Timeout:          cfg.APITimeout,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
	}

	catalogService := catalog.NewService(api.NewClient(apiCfg, nil), cache)

	var sink *events.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		sink = events.NewKafkaSink(cfg.KafkaTopic, cfg.KafkaBrokers...)
		go sink.Run(ctx)
		defer func() {
			if err := sink.Close(); err != nil {
				slog.Error("failed to close kafka writer", "error", err)
			}
		}()
		slog.Info("forwarding events to kafka", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)

		invalidator := catalog.NewInvalidator(catalogService, cfg.KafkaCatalogTopic, cfg.KafkaConsumerGroup, cfg.KafkaBrokers...)
		go invalidator.Run(ctx)
		defer func() {
			if err := invalidator.Close(); err != nil {
				slog.Error("failed to close kafka reader", "error", err)
			}
		}()
	}

	manager := storefront.NewManager(storefront.Deps{
		Persistent: persistent,
		Ephemeral:  ephemeral,
		Catalog:    catalogService,
		API:        apiCfg,
		Sink:       sink,
		Checkout: checkout.Options{
			CryptoWindow:    cfg.CryptoWindow,
			CryptoAddresses: cryptoAddresses(cfg.CryptoAddresses),
		},
		Verify: payment.Options{
			MaxAttempts: cfg.VerifyMaxAttempts,
			Backoff:     cfg.VerifyBackoff,
		},
		SyncTimeout: cfg.RequestTimeout,
	})
	defer manager.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: h.NewRouter(h.NewHandler(manager), cfg.RequestTimeout),
		// Payment verification may back off between attempts, so writes get
		// the request timeout plus headroom.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("storefront starting", "port", cfg.HTTPPort, "device_store", cfg.DeviceStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	slog.Info("server exited")
}

// openDeviceStore opens the persistent per-device store selected by config.
func openDeviceStore(cfg *config.Config, redisClient *redis.Client, redisUp bool) (storage.Store, func(), error) {
	switch cfg.DeviceStore {
	case "sqlite":
		s, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := s.RunMigrations(); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("failed to close sqlite store", "error", err)
			}
		}, nil
	case "redis":
		if !redisUp {
			return nil, nil, errors.New("redis is not reachable")
		}
		return storage.NewRedisStore(redisClient, "device", 0), func() {}, nil
	default:
		slog.Warn("device state is kept in memory and lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	}
}

func cryptoAddresses(in map[string]string) map[domain.CryptoType]string {
	out := make(map[domain.CryptoType]string, len(in))
	for k, v := range in {
		t, ok := domain.ParseCryptoType(k)
		if !ok {
			slog.Warn("ignoring receiving address for unknown currency", "currency", k)
			continue
		}
		out[t] = v
	}
	return out
}
