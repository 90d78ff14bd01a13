package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/issuekit/ragvault/internal/ai"
	"github.com/issuekit/ragvault/internal/cache"
	"github.com/issuekit/ragvault/internal/checkpoint"
	"github.com/issuekit/ragvault/internal/config"
	"github.com/issuekit/ragvault/internal/handler"
	"github.com/issuekit/ragvault/internal/job"
	"github.com/issuekit/ragvault/internal/middleware"
	"github.com/issuekit/ragvault/internal/repo"
	"github.com/issuekit/ragvault/internal/schedule"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragvault",
		Short: "embedding cache and batch checkpoint store",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the ragvault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one retention sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := checkpoint.NewStore(cfg.Checkpoint.Dir)
			if err != nil {
				return err
			}
			report, err := store.CleanupOldCache(context.Background(), cfg.Checkpoint.RetentionDays)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "print cache and session stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			if err := repo.InitSchema(db, cfg.Database.Type); err != nil {
				return err
			}
			cacheRepo, err := repo.NewCacheRepo(db, cfg.Database.Type)
			if err != nil {
				return err
			}
			cacheStore := cache.NewStore(cacheRepo, 0, 0)
			ckptStore, err := checkpoint.NewStore(cfg.Checkpoint.Dir)
			if err != nil {
				return err
			}
			cacheStats, err := cacheStore.Stats(context.Background())
			if err != nil {
				return err
			}
			sessionStats, err := ckptStore.SessionStats(context.Background())
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"cache":    cacheStats,
				"sessions": sessionStats,
			})
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_type", cfg.Database.Type),
		zap.String("checkpoint_dir", cfg.Checkpoint.Dir),
	)

	db, err := repo.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if err := repo.InitSchema(db, cfg.Database.Type); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	cacheRepo, err := repo.NewCacheRepo(db, cfg.Database.Type)
	if err != nil {
		return err
	}
	cacheStore := cache.NewStore(cacheRepo, cfg.Cache.LRUSize, time.Duration(cfg.Cache.LRUTTLSeconds)*time.Second)

	ckptStore, err := checkpoint.NewStore(cfg.Checkpoint.Dir)
	if err != nil {
		return fmt.Errorf("init checkpoint store: %w", err)
	}

	var embedder ai.IEmbedder
	if cfg.AI.Provider != "" {
		provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
		if err != nil {
			return fmt.Errorf("init ai provider: %w", err)
		}
		embedder = cache.WrapEmbedder(ai.NewEmbedder(provider, cfg.AI.EmbedModel), cacheStore)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSessionCleanupJob(ckptStore, cfg.Checkpoint.RetentionDays), cfg.Checkpoint.SweepCron); err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Cache:    handler.NewCacheHandler(cacheStore, embedder),
		Sessions: handler.NewSessionHandler(ckptStore),
		Chunks:   handler.NewChunkHandler(ckptStore),
		Stats:    handler.NewStatsHandler(cacheStore, ckptStore),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
