package main

import (
	"errors"

	"github.com/spf13/cobra"

	"go-audit-insights/internal/providers"
	"go-audit-insights/internal/selftest"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check the embedding model, vector store, LLM and answering pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		backends, err := providers.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer backends.Close()

		res := selftest.Run(ctx, selftest.Deps{
			Embedder: backends.Embedder,
			Vectors:  backends.Vectors,
			LLM:      backends.LLM,
			Pipeline: backends.Pipeline(cfg, logger.Named("rag")),
		})
		selftest.Print(cmd.OutOrStdout(), res)
		if !res.OK() {
			return errors.New("self-test failed")
		}
		return nil
	},
}
