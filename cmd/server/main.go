package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/cache"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/config"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/httpapi"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/service"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store/memory"
	mongostore "github.com/Chiragtaneja05/cafe-billing-system/internal/store/mongo"
	pgstore "github.com/Chiragtaneja05/cafe-billing-system/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closers, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("%v; refusing to start with in-memory fallback", err)
	}

	menuCache := cache.MenuCache(cache.NoopMenuCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisMenuCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			menuCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	svc := service.New(repo, menuCache, service.Options{
		Location:        loc,
		AlertThreshold:  cfg.LowStockAlertThreshold,
		NotifyThreshold: cfg.LowStockNotifyThreshold,
		FloorAtZero:     cfg.StockFloorAtZero,
		MenuCacheTTL:    cfg.MenuCacheTTL(),
	})
	err = config.Watch(cfg.ConfigFile, func(next config.Config) {
		svc.SetStockThresholds(next.LowStockAlertThreshold, next.LowStockNotifyThreshold)
		alert, notify := svc.StockThresholds()
		log.Printf("stock thresholds: alert=%d notify=%d", alert, notify)
	})
	if err != nil {
		log.Printf("config watch disabled: %v", err)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("cafe billing backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// openRepository picks postgres when DATABASE_URL is set, then mongo when
// MONGO_URI is set, and otherwise a seeded in-memory store. A configured
// backend that cannot be reached is an error.
func openRepository(ctx context.Context, cfg config.Config) (store.Repository, []func() error, error) {
	closers := make([]func() error, 0, 2)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres unavailable (%v) and DATABASE_URL is set", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("postgres migration failed: %w", err)
		}
		log.Println("repository: postgres")
		return pg, append(closers, pg.Close), nil
	case cfg.MongoURI != "":
		mg, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo unavailable (%v) and MONGO_URI is set", err)
		}
		if err := mg.EnsureIndexes(ctx); err != nil {
			_ = mg.Close()
			return nil, nil, fmt.Errorf("mongo index setup failed: %w", err)
		}
		log.Println("repository: mongo")
		return mg, append(closers, mg.Close), nil
	default:
		log.Println("repository: in-memory")
		return memory.NewSeeded(), closers, nil
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
