// worker is the long-running job processor: it drains generation and image
// jobs continuously, sleeping between polls when both queues are empty.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/infra"
	"recipehub/internal/jobs"
	"recipehub/internal/providers/openai"
	"recipehub/internal/search"
	"recipehub/internal/storage"
)

const jobPollInterval = 2 * time.Second

type jobWorker struct {
	ctx        context.Context
	logger     infra.Logger
	generation *jobs.GenerationProcessor
	images     *jobs.ImageProcessor
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	client, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAIRequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure openai client")
	}

	recipeRepo := repo.NewRecipeRepository(runner)
	searchClient := search.New(search.Options{
		Enabled: cfg.UpstashSearchEnabled,
		URL:     cfg.UpstashSearchURL,
		Token:   cfg.UpstashSearchToken,
		Index:   cfg.UpstashSearchIndex,
	}, logger)

	worker := &jobWorker{
		ctx:    ctx,
		logger: logger,
		generation: &jobs.GenerationProcessor{
			Store:   repo.NewGenerationJobRepository(runner),
			Chat:    client,
			Recipes: recipeRepo,
			Search:  searchClient,
			Model:   cfg.OpenAIRecipeModel,
			Logger:  logger,
		},
		images: &jobs.ImageProcessor{
			Store:         repo.NewImageJobRepository(runner),
			Images:        client,
			Files:         fileStore,
			Model:         cfg.OpenAIImageModel,
			FallbackModel: cfg.OpenAIImageFallbackModel,
			Size:          cfg.OpenAIImageSize,
			Logger:        logger,
		},
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		worked := w.step(w.generation.ProcessOne, "generation")
		worked = w.step(w.images.ProcessOne, "image") || worked

		if !worked {
			time.Sleep(jobPollInterval)
		}
	}
}

func (w *jobWorker) step(processOne func(context.Context) (jobs.Outcome, error), kind string) bool {
	_, err := processOne(w.ctx)
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrNoJobAvailable) || errors.Is(err, context.Canceled) {
		return false
	}
	w.logger.Error().Err(err).Str("kind", kind).Msg("worker: processing failed")
	return false
}
