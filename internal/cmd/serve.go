package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quotaguard/quotaguard/internal/cache"
	"github.com/quotaguard/quotaguard/internal/core/engine"
	"github.com/quotaguard/quotaguard/internal/core/store"
	"github.com/quotaguard/quotaguard/internal/observability"
	"github.com/quotaguard/quotaguard/internal/server"
	"github.com/quotaguard/quotaguard/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

SIGINT or SIGTERM triggers a graceful shutdown: in-flight requests finish
within the configured shutdown timeout, then the store and redis connections
are closed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		defer logger.Sync() // nolint:errcheck // stderr sync failure is benign

		ctx := cmd.Context()

		db, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup
		if err := db.Migrate(ctx); err != nil {
			return err
		}

		health := handlers.NewHealthManager(versionInfo.Version)
		health.RegisterChecker("store", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			return db.DB.PingContext(ctx)
		}))

		// The quota engine caches rules and counts in process by default;
		// when redis is configured the cache is shared across replicas.
		var ruleCache cache.Cache = cache.NewMemory(cfg.Cache.MemoryMaxSize)
		if cfg.Redis.Addr != "" {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close() // nolint:errcheck // best-effort cleanup

			if err := redisClient.Ping(ctx).Err(); err != nil {
				return err
			}
			health.RegisterChecker("redis", handlers.HealthCheckerFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}))
			logger.Info("distributed cache enabled",
				zap.String("addr", cfg.Redis.Addr),
				zap.String("prefix", cfg.Redis.Prefix))
			ruleCache = cache.NewRedis(redisClient, cfg.Redis.Prefix)
		}

		eng := &engine.Engine{
			Store:     db,
			Cache:     ruleCache,
			Whitelist: cfg.RateLimiter.Whitelist,
			CacheTTL:  cfg.Cache.RuleTTL,
			Logger:    logger,
		}
		recorder := &engine.Recorder{Store: db, Logger: logger}

		deps := server.Deps{
			Engine:   eng,
			Recorder: recorder,
			Logger:   logger,
			Health:   health,
			Version: handlers.VersionInfo{
				Version:   versionInfo.Version,
				Commit:    versionInfo.Commit,
				BuildDate: versionInfo.BuildDate,
			},
		}
		if cfg.Metrics.Enabled {
			deps.Registry = observability.NewRegistry()
		}

		srv := server.New(cfg.Server, deps)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
