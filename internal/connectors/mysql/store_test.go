package mysql

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdent(t *testing.T) {
	q, err := quoteIdent("journal_entries")
	require.NoError(t, err)
	assert.Equal(t, "`journal_entries`", q)

	for _, bad := range []string{"", "payments; DROP TABLE x", "1abc", "a`b", "audit.payments"} {
		_, err := quoteIdent(bad)
		assert.True(t, errors.Is(err, ErrInvalidTable), bad)
	}
}

func TestRowMap(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	row := rowMap(
		[]string{"id", "narration", "amount", "posted_at", "memo"},
		[]any{int64(7), []byte("Accrual reversal"), 1500.5, ts, nil},
	)
	assert.Equal(t, map[string]any{
		"id":        int64(7),
		"narration": "Accrual reversal",
		"amount":    1500.5,
		"posted_at": "2024-03-01T08:30:00Z",
		"memo":      nil,
	}, row)
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 0.0, percentOf(3, 0))
	assert.Equal(t, 33.33, percentOf(1, 3))
	assert.Equal(t, 100.0, percentOf(4, 4))
}

func TestMonthsBack(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), monthsBack(now, 6))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), monthsBack(now, 0))
	assert.Equal(t, "Oct", monthLabel(now))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Empty(t, relativeTime(sql.NullTime{}, now))
	assert.Equal(t, "2 minutes ago", relativeTime(sql.NullTime{Time: now.Add(-2 * time.Minute), Valid: true}, now))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Critical", titleCase("critical"))
	assert.Equal(t, "", titleCase(""))
}
