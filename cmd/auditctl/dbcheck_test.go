package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-audit-insights/internal/ingest"
)

type fakeProber struct {
	counts map[string]int64
	failOn string
	row    map[string]any
	rowErr error
}

func (f fakeProber) CountRows(_ context.Context, table string) (int64, error) {
	if table == f.failOn {
		return 0, errors.New("table doesn't exist")
	}
	return f.counts[table], nil
}

func (f fakeProber) FirstRow(context.Context, string) (map[string]any, error) {
	return f.row, f.rowErr
}

func TestRunDBCheck_PrintsCountsAndSample(t *testing.T) {
	var out bytes.Buffer
	runDBCheck(context.Background(), &out, fakeProber{
		counts: map[string]int64{"journal_entries": 1200, "payments": 310, "trades": 42},
		row:    map[string]any{"id": 1, "narration": "Opening balance"},
	})

	s := out.String()
	assert.Contains(t, s, "journal_entries  1200 rows")
	assert.Contains(t, s, "payments         310 rows")
	assert.Contains(t, s, "trades           42 rows")
	assert.Contains(t, s, `"narration": "Opening balance"`)
}

func TestRunDBCheck_ContinuesAfterFailures(t *testing.T) {
	var out bytes.Buffer
	runDBCheck(context.Background(), &out, fakeProber{
		counts: map[string]int64{"journal_entries": 5, "trades": 7},
		failOn: "payments",
		rowErr: errors.New("connection reset"),
	})

	s := out.String()
	assert.Contains(t, s, "payments         error: table doesn't exist")
	assert.Contains(t, s, "trades           7 rows")
	assert.Contains(t, s, "Sample journal_entries: error: connection reset")
}

func TestRunDBCheck_EmptyTable(t *testing.T) {
	var out bytes.Buffer
	runDBCheck(context.Background(), &out, fakeProber{counts: map[string]int64{}})
	assert.Contains(t, out.String(), "Sample journal_entries: table is empty")
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, ingest.Summary{
		Tables: []ingest.TableResult{
			{Table: "payments", Read: 3, Indexed: 3},
			{Table: "trades", Err: errors.New("missing")},
		},
		Total: 3,
	})
	assert.Contains(t, out.String(), "missing")
	assert.Contains(t, out.String(), "Total documents ingested: 3")
}
