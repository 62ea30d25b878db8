package main

import (
	"github.com/spf13/cobra"

	"recipehub/internal/jobs"
)

func newEnqueueImagesCommand() *cobra.Command {
	var (
		limit               int
		includeNonGenerated bool
		dryRun              bool
	)
	cmd := &cobra.Command{
		Use:   "enqueue-images",
		Short: "Enqueue hero-image jobs for recipes without an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			enqueuer := &jobs.ImageEnqueuer{Store: rt.images, Logger: rt.logger}
			summary, err := enqueuer.Enqueue(cmd.Context(), limit, includeNonGenerated, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d created=%d dry_run=%t\n", summary.Candidates, summary.Created, summary.DryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum recipes to enqueue")
	cmd.Flags().BoolVar(&includeNonGenerated, "include-non-generated", false, "also enqueue hand-written recipes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without creating jobs")
	return cmd
}

func newProcessImagesCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "process-images",
		Short: "Process queued image jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			processor, err := newImageProcessor(rt)
			if err != nil {
				return err
			}
			summary, err := runLoop(cmd.Context(), limit, processor.ProcessOne)
			if err != nil {
				return err
			}
			cmd.Printf("processed=%d succeeded=%d failed=%d skipped=%d\n",
				summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum jobs to process")
	return cmd
}

func newImageNightlyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "image-nightly",
		Short: "Nightly run: enqueue image candidates, then process them",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			enqueuer := &jobs.ImageEnqueuer{Store: rt.images, Logger: rt.logger}
			enqueued, err := enqueuer.Enqueue(cmd.Context(), limit, false, false)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d created=%d\n", enqueued.Candidates, enqueued.Created)

			processor, err := newImageProcessor(rt)
			if err != nil {
				return err
			}
			summary, err := runLoop(cmd.Context(), limit, processor.ProcessOne)
			if err != nil {
				return err
			}
			cmd.Printf("processed=%d succeeded=%d failed=%d skipped=%d\n",
				summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "maximum recipes to enqueue and jobs to process")
	return cmd
}

func newImageProcessor(rt *runtime) (*jobs.ImageProcessor, error) {
	client, err := rt.openAI()
	if err != nil {
		return nil, err
	}
	fileStore, err := rt.fileStore()
	if err != nil {
		return nil, err
	}
	return &jobs.ImageProcessor{
		Store:         rt.images,
		Images:        client,
		Files:         fileStore,
		Model:         rt.cfg.OpenAIImageModel,
		FallbackModel: rt.cfg.OpenAIImageFallbackModel,
		Size:          rt.cfg.OpenAIImageSize,
		Logger:        rt.logger,
	}, nil
}
