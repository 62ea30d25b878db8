package main

import (
	"github.com/spf13/cobra"

	"recipehub/internal/jobs"
)

func newProcessGenerationCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "process-generation",
		Short: "Process queued recipe generation jobs",
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
			processor := &jobs.GenerationProcessor{
				Store:   rt.gen,
				Chat:    client,
				Recipes: rt.recipes,
				Search:  rt.search,
				Model:   rt.cfg.OpenAIRecipeModel,
				Logger:  rt.logger,
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
