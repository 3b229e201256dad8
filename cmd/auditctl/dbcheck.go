package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	mysqlstore "go-audit-insights/internal/connectors/mysql"
)

// checkTables are counted by dbcheck. The first row of the first one is printed.
var checkTables = []string{"journal_entries", "payments", "trades"}

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Check connectivity to the audit database",
	Long: `Connect to the audit database, count the rows of journal_entries, payments and
trades, and print the first journal entry.

Failures are printed; the command does not retry and always exits normally.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connecting to %s@%s:%d/%s...\n", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
		store, err := mysqlstore.NewStore(cfg)
		if err != nil {
			fmt.Fprintf(out, "Connection failed: %v\n", err)
			return
		}
		defer store.Close()
		fmt.Fprintln(out, "Connected.")
		runDBCheck(cmd.Context(), out, store)
	},
}

type tableProber interface {
	CountRows(ctx context.Context, table string) (int64, error)
	FirstRow(ctx context.Context, table string) (map[string]any, error)
}

// runDBCheck prints one line per count and the sample row. Each query runs
// regardless of earlier failures.
func runDBCheck(ctx context.Context, out io.Writer, db tableProber) {
	for _, table := range checkTables {
		n, err := db.CountRows(ctx, table)
		if err != nil {
			fmt.Fprintf(out, "%-16s error: %v\n", table, err)
			continue
		}
		fmt.Fprintf(out, "%-16s %d rows\n", table, n)
	}

	sample := checkTables[0]
	row, err := db.FirstRow(ctx, sample)
	switch {
	case err != nil:
		fmt.Fprintf(out, "Sample %s: error: %v\n", sample, err)
	case row == nil:
		fmt.Fprintf(out, "Sample %s: table is empty\n", sample)
	default:
		blob, _ := json.MarshalIndent(row, "", "  ")
		fmt.Fprintf(out, "Sample %s:\n%s\n", sample, blob)
	}
}
