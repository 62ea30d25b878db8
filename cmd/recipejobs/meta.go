package main

import (
	"github.com/spf13/cobra"

	"recipehub/internal/jobs"
)

func newFillMetaCommand() *cobra.Command {
	var (
		limit         int
		includeDrafts bool
		dryRun        bool
	)
	cmd := &cobra.Command{
		Use:   "fill-meta",
		Short: "Generate missing SEO meta fields for recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			filler, err := newMetaFiller(rt)
			if err != nil {
				return err
			}
			summary, err := filler.Fill(cmd.Context(), limit, includeDrafts, dryRun)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d updated=%d failed=%d dry_run=%t\n",
				summary.Candidates, summary.Updated, summary.Failed, summary.DryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum recipes to fill")
	cmd.Flags().BoolVar(&includeDrafts, "include-drafts", false, "also fill unpublished recipes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without calling the provider")
	return cmd
}

func newMetaNightlyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "meta-nightly",
		Short: "Nightly run: fill missing SEO meta fields for published recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setupRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			filler, err := newMetaFiller(rt)
			if err != nil {
				return err
			}
			summary, err := filler.Fill(cmd.Context(), limit, false, false)
			if err != nil {
				return err
			}
			cmd.Printf("candidates=%d updated=%d failed=%d\n", summary.Candidates, summary.Updated, summary.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum recipes to fill")
	return cmd
}

func newMetaFiller(rt *runtime) (*jobs.MetaFiller, error) {
	client, err := rt.openAI()
	if err != nil {
		return nil, err
	}
	return &jobs.MetaFiller{
		Store:  rt.recipes,
		Chat:   client,
		Search: rt.search,
		Model:  rt.cfg.OpenAIMetaModel,
		Logger: rt.logger,
	}, nil
}
