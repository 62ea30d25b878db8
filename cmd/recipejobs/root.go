package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/infra"
	"recipehub/internal/jobs"
	"recipehub/internal/providers/openai"
	"recipehub/internal/search"
	"recipehub/internal/storage"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "recipejobs",
		Short:         "Operate the AI recipe job pipelines",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(
		newEnqueueNutritionCommand(),
		newProcessNutritionCommand(),
		newSubmitNutritionBatchCommand(),
		newPollNutritionBatchCommand(),
		newNutritionNightlyCommand(),
		newEnqueueImagesCommand(),
		newProcessImagesCommand(),
		newImageNightlyCommand(),
		newProcessGenerationCommand(),
		newFillMetaCommand(),
		newMetaNightlyCommand(),
	)
	return cmd
}

// runtime bundles the dependencies every subcommand needs. Commands that never
// call the provider still construct the client lazily via openAI().
type runtime struct {
	cfg    *infra.Config
	logger infra.Logger
	pool   *pgxpool.Pool
	runner *infra.SQLRunner

	nutrition *repo.NutritionJobRepositoryPG
	images    *repo.ImageJobRepositoryPG
	gen       *repo.GenerationJobRepositoryPG
	recipes   *repo.RecipeRepositoryPG
	search    *search.Client
}

func setupRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv)

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, logger)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		runner:    runner,
		nutrition: repo.NewNutritionJobRepository(runner),
		images:    repo.NewImageJobRepository(runner),
		gen:       repo.NewGenerationJobRepository(runner),
		recipes:   repo.NewRecipeRepository(runner),
		search: search.New(search.Options{
			Enabled: cfg.UpstashSearchEnabled,
			URL:     cfg.UpstashSearchURL,
			Token:   cfg.UpstashSearchToken,
			Index:   cfg.UpstashSearchIndex,
		}, logger),
	}, nil
}

func (rt *runtime) Close() {
	rt.pool.Close()
}

func (rt *runtime) openAI() (*openai.Client, error) {
	return openai.NewClient(openai.Options{
		APIKey:  rt.cfg.OpenAIAPIKey,
		BaseURL: rt.cfg.OpenAIBaseURL,
		Timeout: rt.cfg.OpenAIRequestTimeout,
	})
}

func (rt *runtime) fileStore() (*storage.FileStore, error) {
	path := rt.cfg.StoragePath
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return storage.NewFileStore(path)
}

type loopSummary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
}

// runLoop drives a single-job processor until the queue drains or limit is
// reached.
func runLoop(ctx context.Context, limit int, processOne func(context.Context) (jobs.Outcome, error)) (loopSummary, error) {
	var summary loopSummary
	for i := 0; i < limit; i++ {
		outcome, err := processOne(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoJobAvailable) {
				return summary, nil
			}
			return summary, err
		}
		summary.Processed++
		switch outcome {
		case jobs.OutcomeSucceeded:
			summary.Succeeded++
		case jobs.OutcomeFailed:
			summary.Failed++
		case jobs.OutcomeSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}
