package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mysqlstore "go-audit-insights/internal/connectors/mysql"
	"go-audit-insights/internal/ingest"
	"go-audit-insights/internal/providers"
)

var (
	ingestTables      []string
	ingestBatchSize   int
	ingestConcurrency int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index audit tables into the assistant's vector store",
	Long: `Read rows from the audit database, embed their text and upsert them into the
configured vector store. A failing table is reported and the run continues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		store, err := mysqlstore.NewStore(cfg)
		if err != nil {
			return fmt.Errorf("connect to audit database: %w", err)
		}
		defer store.Close()

		backends, err := providers.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer backends.Close()

		batch := ingestBatchSize
		if batch <= 0 {
			batch = cfg.IngestBatchSize
		}
		logger.Info("starting ingestion",
			zap.String("vector_backend", backends.Backend),
			zap.String("embed_model", backends.Embedder.EmbedModel()),
			zap.Int("batch_size", batch),
		)
		ing := ingest.New(store, backends.Embedder, backends.Vectors,
			ingest.WithLogger(logger.Named("ingest")),
			ingest.WithBatchSize(batch),
			ingest.WithConcurrency(ingestConcurrency),
		)
		summary := ing.Run(ctx, ingestTables)
		printSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestTables, "tables", nil, "Tables to ingest (default: all audit tables)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "Documents per upsert (default: APP_INGEST_BATCH_SIZE)")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "Parallel embedding requests per batch")
}

func printSummary(out io.Writer, s ingest.Summary) {
	fmt.Fprintf(out, "%-20s %8s %8s %8s  %s\n", "TABLE", "READ", "INDEXED", "SKIPPED", "ERROR")
	for _, t := range s.Tables {
		errText := ""
		if t.Err != nil {
			errText = t.Err.Error()
		}
		fmt.Fprintf(out, "%-20s %8d %8d %8d  %s\n", t.Table, t.Read, t.Indexed, t.Skipped, errText)
	}
	fmt.Fprintf(out, "Total documents ingested: %d\n", s.Total)
}
