package main

import (
	"github.com/spf13/cobra"

	"recipehub/internal/jobs"
)

func newEnqueueNutritionCommand() *cobra.Command {
	var (
		limit         int
		includeDrafts bool
		force         bool
		dryRun        bool
	)
	cmd := &cobra.Command{
		Use:   "enqueue-nutrition",
		Short: "Enqueue nutrition jobs for recipes with missing or dirty nutrition",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			enqueuer := &jobs.NutritionEnqueuer{Store: rt.nutrition, Logger: rt.logger}
			summary, err := enqueuer.Enqueue(cmd.Context(), limit, includeDrafts, force, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d created=%d skipped=%d dry_run=%t\n",
				summary.Candidates, summary.Created, summary.Skipped, summary.DryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum recipes to enqueue")
	cmd.Flags().BoolVar(&includeDrafts, "include-drafts", false, "also enqueue unpublished recipes")
	cmd.Flags().BoolVar(&force, "force", false, "enqueue even when nutrition is present and clean")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without creating jobs")
	return cmd
}

func newProcessNutritionCommand() *cobra.Command {
	var (
		limit  int
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "process-nutrition",
		Short: "Process queued nutrition jobs synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			client, err := rt.openAI()
			if err != nil {
				return err
			}
			processor := &jobs.NutritionProcessor{
				Store:  rt.nutrition,
				Chat:   client,
				Model:  rt.cfg.OpenAINutritionModel,
				Logger: rt.logger,
			}
			summary, err := processor.Run(cmd.Context(), limit, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("processed=%d succeeded=%d failed=%d stale=%d skipped=%d dry_run=%t\n",
				summary.Processed, summary.Succeeded, summary.Failed, summary.Stale, summary.Skipped, summary.DryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum jobs to process")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report queued jobs without claiming them")
	return cmd
}

func newSubmitNutritionBatchCommand() *cobra.Command {
	var (
		limit            int
		completionWindow string
		dryRun           bool
	)
	cmd := &cobra.Command{
		Use:   "submit-nutrition-batch",
		Short: "Bundle queued nutrition jobs into one provider batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			client, err := rt.openAI()
			if err != nil {
				return err
			}
			submitter := &jobs.BatchSubmitter{
				Store:  rt.nutrition,
				API:    client,
				Model:  rt.cfg.OpenAINutritionModel,
				Logger: rt.logger,
			}
			summary, err := submitter.Submit(cmd.Context(), limit, completionWindow, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d submitted=%d batch_id=%s dry_run=%t\n",
				summary.Candidates, summary.Submitted, summary.BatchID, summary.DryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum jobs per batch")
	cmd.Flags().StringVar(&completionWindow, "completion-window", "24h", "provider completion window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the request file without submitting")
	return cmd
}

func newPollNutritionBatchCommand() *cobra.Command {
	var (
		batchID    string
		maxBatches int
	)
	cmd := &cobra.Command{
		Use:   "poll-nutrition-batch",
		Short: "Poll submitted batches and demultiplex finished results",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			client, err := rt.openAI()
			if err != nil {
				return err
			}
			poller := &jobs.BatchPoller{Store: rt.nutrition, API: client, Logger: rt.logger}
			summary, err := poller.Poll(cmd.Context(), batchID, maxBatches)
			if err != nil {
				return err
			}
			cmd.Printf("batches=%d in_progress=%d succeeded=%d failed=%d skipped=%d\n",
				summary.Batches, summary.InProgress, summary.Succeeded, summary.Failed, summary.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&batchID, "batch-id", "", "poll a single batch instead of all submitted ones")
	cmd.Flags().IntVar(&maxBatches, "max-batches", 20, "maximum batches to poll in one run")
	return cmd
}

func newNutritionNightlyCommand() *cobra.Command {
	var (
		limit            int
		includeDrafts    bool
		force            bool
		dryRun           bool
		sync             bool
		completionWindow string
	)
	cmd := &cobra.Command{
		Use:   "nutrition-nightly",
		Short: "Nightly run: enqueue candidates, then submit a batch (or process synchronously)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			enqueuer := &jobs.NutritionEnqueuer{Store: rt.nutrition, Logger: rt.logger}
			enqueued, err := enqueuer.Enqueue(cmd.Context(), limit, includeDrafts, force, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d created=%d skipped=%d dry_run=%t\n",
				enqueued.Candidates, enqueued.Created, enqueued.Skipped, enqueued.DryRun)

			client, err := rt.openAI()
			if err != nil {
				return err
			}

			if sync {
				processor := &jobs.NutritionProcessor{
					Store:  rt.nutrition,
					Chat:   client,
					Model:  rt.cfg.OpenAINutritionModel,
					Logger: rt.logger,
				}
				summary, err := processor.Run(cmd.Context(), limit, dryRun)
				if err != nil {
					return err
				}
				cmd.Printf("processed=%d succeeded=%d failed=%d stale=%d skipped=%d dry_run=%t\n",
					summary.Processed, summary.Succeeded, summary.Failed, summary.Stale, summary.Skipped, summary.DryRun)
				return nil
			}

			submitter := &jobs.BatchSubmitter{
				Store:  rt.nutrition,
				API:    client,
				Model:  rt.cfg.OpenAINutritionModel,
				Logger: rt.logger,
			}
			submitted, err := submitter.Submit(cmd.Context(), limit, completionWindow, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("submitted=%d batch_id=%s dry_run=%t\n", submitted.Submitted, submitted.BatchID, submitted.DryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum recipes to enqueue and jobs to submit")
	cmd.Flags().BoolVar(&includeDrafts, "include-drafts", false, "also enqueue unpublished recipes")
	cmd.Flags().BoolVar(&force, "force", false, "enqueue even when nutrition is present and clean")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what the run would do without enqueuing, claiming or submitting")
	cmd.Flags().BoolVar(&sync, "sync", false, "process synchronously instead of submitting a batch")
	cmd.Flags().StringVar(&completionWindow, "completion-window", "24h", "provider completion window")
	return cmd
}
