package cli

import (
	"github.com/spf13/cobra"

	"github.com/skywise-ai/skywise/engine/policy/uc"
	"github.com/skywise-ai/skywise/pkg/config"
	"github.com/skywise-ai/skywise/pkg/logger"
)

func IngestCmd() *cobra.Command {
	var airlines []string
	var docsRoot string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index airline policy documents into the vector store",
		Long: "Loads, splits, embeds, and indexes policy documents from " +
			"<docs-root>/<Airline>/. Re-running with an unchanged document set " +
			"overwrites existing points instead of duplicating them.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if docsRoot != "" {
				cfg.Pipeline.DocsRoot = docsRoot
			}
			emb, err := buildEmbedder(cfg)
			if err != nil {
				return err
			}
			store, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(cmd.Context()) }()
			pipeline, err := buildIngestPipeline(cfg, emb, store)
			if err != nil {
				return err
			}
			run, err := uc.NewIngest(pipeline, cfg.Pipeline.DocsRoot)
			if err != nil {
				return err
			}
			results, runErr := run.Execute(cmd.Context(), airlines)
			for _, result := range results {
				logger.Info("airline ingested",
					"airline", result.Airline,
					"documents", result.Documents,
					"skipped", result.Skipped,
					"chunks", result.Chunks,
					"persisted", result.Persisted,
				)
			}
			return runErr
		},
	}
	cmd.Flags().StringSliceVar(&airlines, "airline", nil, "airlines to ingest (default: all supported)")
	cmd.Flags().StringVar(&docsRoot, "docs-root", "", "root directory containing per-airline policy folders")
	return cmd
}
