// Package main provides the Telnet table server for Traveller campaigns.
// It handles client connections, authentication, and runs each player's
// session against the campaign service.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/frontend/handlers"
	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/session"
	"github.com/cory-johannsen/traveller/internal/game/world"
	"github.com/cory-johannsen/traveller/internal/observability"
	"github.com/cory-johannsen/traveller/internal/server"
	"github.com/cory-johannsen/traveller/internal/storage/postgres"
	"github.com/cory-johannsen/traveller/internal/storage/rollfeed"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting Traveller table server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	// Connect to PostgreSQL
	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	store := postgres.NewStore(pool.DB())

	metrics := observability.NewMetrics()
	metrics.RegisterPool(pool)

	// Roll feed: Redis when reachable, otherwise the persisted roll history.
	redisClient := rollfeed.NewClient(cfg.Redis)
	var feed campaign.RollFeed
	redisFeed := rollfeed.New(redisClient, cfg.Redis.KeyPrefix, cfg.Rules.RollFeedSize, cfg.Rules.RollFeedTTL)
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := redisFeed.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, serving roll feed from database", zap.Error(err))
		feed = postgres.NewDiceRollRepository(pool.DB())
	} else {
		feed = redisFeed
	}
	cancelPing()

	// Load sectors
	sectors, err := world.LoadSectors(cfg.Content.SectorDir)
	if err != nil {
		logger.Fatal("loading sectors", zap.Error(err))
	}
	atlas, err := world.NewAtlas(sectors)
	if err != nil {
		logger.Fatal("building atlas", zap.Error(err))
	}
	logger.Info("sectors loaded",
		zap.String("dir", cfg.Content.SectorDir),
		zap.Int("sectors", len(sectors)),
		zap.Int("systems", atlas.SystemCount()),
	)

	// Build services
	perms := permission.NewEvaluator(store, logger, metrics)
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger, metrics)
	svc := campaign.NewService(store, feed, perms, roller, campaign.Options{
		DefaultDifficulty: cfg.Rules.DefaultDifficulty,
		MaxDice:           cfg.Rules.MaxDice,
		FeedSize:          cfg.Rules.RollFeedSize,
	}, logger)

	sessions := session.NewManager()
	table := handlers.NewTableHandler(svc, atlas, sessions, cfg.Telnet, metrics, logger)
	authHandler := handlers.NewAuthHandler(postgres.NewUserRepository(pool.DB()), table, logger)
	telnetAcceptor := telnet.NewAcceptor(cfg.Telnet, authHandler, logger, telnet.WithObserver(metrics))

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger, server.WithShutdownTimeout(cfg.Server.ShutdownTimeout))

	healthDone := make(chan struct{})
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-healthDone:
					return nil
				case <-ticker.C:
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			}
		},
		StopFn: func() {
			close(healthDone)
			pool.Close()
		},
	})

	redisDone := make(chan struct{})
	lifecycle.Add("redis", &server.FuncService{
		StartFn: func() error {
			<-redisDone
			return nil
		},
		StopFn: func() {
			close(redisDone)
			if err := redisClient.Close(); err != nil {
				logger.Warn("closing redis client", zap.Error(err))
			}
		},
	})

	if cfg.Content.WatchSectors {
		watcher, err := world.NewWatcher(cfg.Content.SectorDir, atlas, cfg.Content.ReloadDebounce, logger)
		if err != nil {
			logger.Fatal("watching sectors", zap.Error(err))
		}
		watcher.OnReload = metrics.ObserveSectorReload
		lifecycle.Add("sector-watcher", watcher)
	}

	if cfg.Metrics.Enabled {
		lifecycle.Add("metrics", observability.NewMetricsServer(cfg.Metrics, metrics, logger))
	}

	lifecycle.Add("telnet", telnetAcceptor)

	logger.Info("table server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
