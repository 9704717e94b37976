package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/config"
	"github.com/xxxsen/merlin/internal/embedcache"
	"github.com/xxxsen/merlin/internal/enrich"
	"github.com/xxxsen/merlin/internal/fetch"
	"github.com/xxxsen/merlin/internal/handler"
	"github.com/xxxsen/merlin/internal/index"
	"github.com/xxxsen/merlin/internal/job"
	"github.com/xxxsen/merlin/internal/middleware"
	"github.com/xxxsen/merlin/internal/repo"
	"github.com/xxxsen/merlin/internal/schedule"
	"github.com/xxxsen/merlin/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "merlin",
		Short: "merlin knowledge base server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run merlin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
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

			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sqlx.DB) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info("starting server", zap.Int("port", cfg.Port))

	noteRepo := repo.NewNoteRepo(db)
	cacheRepo := repo.NewEmbeddingCacheRepo(db)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return fmt.Errorf("init ai embed provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	if len(cfg.AI.Fallbacks) > 0 {
		chain := []ai.FailoverCandidate{{Name: cfg.AI.Provider, Generator: generator, Embedder: embedder}}
		for _, fb := range cfg.AI.Fallbacks {
			fbProvider, err := ai.NewProvider(fb.Provider, fb.Data)
			if err != nil {
				return fmt.Errorf("init fallback ai provider: %w", err)
			}
			fbEmbedProvider, err := ai.NewEmbedProvider(fb.EmbedProvider, fb.EmbedData)
			if err != nil {
				return fmt.Errorf("init fallback ai embed provider: %w", err)
			}
			chain = append(chain, ai.FailoverCandidate{
				Name:      fb.Provider,
				Generator: ai.NewGenerator(fbProvider, fb.Model),
				Embedder:  ai.NewEmbedder(fbEmbedProvider, fb.EmbedModel),
			})
		}
		generator = ai.NewFailoverGenerator(chain)
		embedder = ai.NewFailoverEmbedder(chain)
	}
	embedder = ai.NewTimeoutEmbedder(embedder, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.Pipeline.CacheSize, time.Duration(cfg.Pipeline.CacheTTLHours)*time.Hour)

	manager := ai.NewManager(
		generator,
		generator,
		ai.ManagerConfig{
			Timeout:       cfg.AI.TimeoutSeconds,
			MaxInputChars: cfg.Pipeline.MaxEnrichChars,
		},
	)
	enricher := enrich.New(manager, enrich.Config{
		MaxTags:   cfg.Pipeline.MaxTags,
		CacheSize: cfg.Pipeline.CacheSize,
		CacheTTL:  time.Duration(cfg.Pipeline.CacheTTLHours) * time.Hour,
	})

	idx := index.New()
	embeddings, err := noteRepo.ListEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("load embeddings: %w", err)
	}
	idx.Load(embeddings)
	logutil.GetLogger(ctx).Info("similarity index loaded", zap.Int("entries", idx.Size()))

	fetcher := fetch.NewHTTPFetcher(time.Duration(cfg.AI.TimeoutSeconds) * time.Second)

	ingestService := service.NewIngestService(noteRepo, fetcher, enricher, embedder, idx, cfg.Pipeline)
	queryService := service.NewQueryService(noteRepo, enricher, embedder, idx, cfg.Pipeline)
	routerService := service.NewRouterService(enricher)
	processService := service.NewProcessService(routerService, ingestService, queryService, cfg.Pipeline.SearchTopK)

	deps := handler.RouterDeps{
		Process: handler.NewProcessHandler(processService),
		Notes:   handler.NewNoteHandler(ingestService, queryService),
		Search:  handler.NewSearchHandler(queryService),
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingBackfillJob(ingestService, cfg.Jobs.BackfillBatchLimit), cfg.Jobs.BackfillSpec); err != nil {
		return fmt.Errorf("schedule backfill job: %w", err)
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.CacheMaxAgeDays), cfg.Jobs.CacheCleanupSpec); err != nil {
		return fmt.Errorf("schedule cache cleanup job: %w", err)
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(runCtx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}
