package cli

import (
	"github.com/spf13/cobra"

	"github.com/skywise-ai/skywise/engine/policy/uc"
	"github.com/skywise-ai/skywise/pkg/config"
	"github.com/skywise-ai/skywise/server"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the policy question-answering HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
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
			ret, builder, gen, err := buildQueryPipeline(cfg, emb, store)
			if err != nil {
				return err
			}
			ask, err := uc.NewAsk(ret, builder, gen)
			if err != nil {
				return err
			}
			return server.New(cfg.Server.Addr(), ask).Run(cmd.Context())
		},
	}
}
