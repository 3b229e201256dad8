package mysql

import (
	"context"
	"database/sql"
	"time"
)

// ServiceStats contains lightweight DB health and volume counters.
type ServiceStats struct {
	PingMS          int64 `json:"ping_ms"`
	UptimeSeconds   int64 `json:"uptime_seconds"`
	JournalEntries  int64 `json:"journal_entries"`
	Payments        int64 `json:"payments"`
	Trades          int64 `json:"trades"`
	OpenAlerts      int64 `json:"open_alerts"`
	OpenFindings    int64 `json:"open_findings"`
	AlertsRaised24h int64 `json:"alerts_raised_24h"`
}

// ServiceStats returns MySQL health and high-level audit counters.
func (s *Store) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}

	out := &ServiceStats{
		PingMS: time.Since(start).Milliseconds(),
	}

	var statusName string
	var statusValue sql.NullString
	if err := s.db.QueryRowContext(ctx, `SHOW GLOBAL STATUS LIKE 'Uptime';`).Scan(&statusName, &statusValue); err == nil && statusValue.Valid {
		if v, err := time.ParseDuration(statusValue.String + "s"); err == nil {
			out.UptimeSeconds = int64(v.Seconds())
		}
	}

	counters := []struct {
		dst   *int64
		query string
	}{
		{&out.JournalEntries, `SELECT COUNT(*) FROM journal_entries;`},
		{&out.Payments, `SELECT COUNT(*) FROM payments;`},
		{&out.Trades, `SELECT COUNT(*) FROM trades;`},
		{&out.OpenAlerts, `SELECT COUNT(*) FROM risk_alerts WHERE status <> 'resolved';`},
		{&out.OpenFindings, `SELECT COUNT(*) FROM audit_findings WHERE status NOT IN ('resolved', 'closed');`},
		{&out.AlertsRaised24h, `SELECT COUNT(*) FROM risk_alerts WHERE raised_at >= UTC_TIMESTAMP() - INTERVAL 24 HOUR;`},
	}
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, err
		}
	}

	return out, nil
}
