// Command ad-server starts the audio-dementia HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/audio-dementia/internal/cache"
	"github.com/and161185/audio-dementia/internal/config"
	"github.com/and161185/audio-dementia/internal/limiter"
	"github.com/and161185/audio-dementia/internal/logger"
	"github.com/and161185/audio-dementia/internal/migrate"
	"github.com/and161185/audio-dementia/internal/repository/postgres"
	httpserver "github.com/and161185/audio-dementia/internal/server/http"
	"github.com/and161185/audio-dementia/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations and serves the API until SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides config)")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if *addr != "" {
			c.Server.Addr = *addr
		}
		if *dsn != "" {
			c.Database.DSN = *dsn
		}
		if *jwtKey != "" {
			c.Auth.JWTKey = *jwtKey
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	if cfg.Auth.JWTKey == "" {
		log.Fatal("missing jwt signing key (--jwt-key or AD_JWT_KEY)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	tokenRepo := postgres.NewTokenRepo(db)
	catalogRepo := postgres.NewCatalogRepo(db)
	playlistRepo := postgres.NewPlaylistRepo(db)

	var lim limiter.Limiter = limiter.Nop{}
	if cfg.Auth.RateLimit {
		lim = limiter.NewPG(db.Pool, cfg.Auth.LimitWindow, cfg.Auth.LimitMaxFails, cfg.Auth.LimitBlockFor)
	}

	var rankings service.RankingCache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("ranking cache disabled", zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			rankings = cache.NewRankings(rdb, cfg.Redis.Prefix, cfg.Redis.TTL)
		}
	}

	// Services
	authSvc := service.NewAuthService(userRepo, tokenRepo, []byte(cfg.Auth.JWTKey), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, lim)
	catalogSvc := service.NewCatalogService(catalogRepo, rankings, log.Named("catalog"))
	playlistSvc := service.NewPlaylistService(playlistRepo, catalogRepo, userRepo)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpserver.New(authSvc, catalogSvc, playlistSvc, db, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Auth.PurgeInterval > 0 {
		g.Go(func() error {
			purgeExpiredTokens(gctx, authSvc, cfg.Auth.PurgeInterval, log)
			return nil
		})
	}

	return g.Wait()
}

// purgeExpiredTokens deletes expired refresh tokens every interval until ctx ends.
func purgeExpiredTokens(ctx context.Context, auth service.AuthService, every time.Duration, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := auth.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				log.Warn("refresh token purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired refresh tokens", zap.Int64("count", n))
			}
		}
	}
}
