package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"

	"go-audit-insights/internal/dashboard"
)

var alertPalette = []string{"#ef4444", "#f59e0b", "#3b82f6", "#10b981", "#8b5cf6", "#ec4899"}

// RiskKPIs aggregates the headline risk figures.
func (s *Store) RiskKPIs(ctx context.Context, environment string) (*dashboard.RiskKPIs, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := &dashboard.RiskKPIs{}

	var overall sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `
SELECT AVG(score)
FROM risk_categories
WHERE `+envFilter+`;
`, environment, environment).Scan(&overall); err != nil {
		return nil, err
	}
	out.OverallRiskScore = round2(nullFloat64Value(overall))

	var (
		highOpen              sql.NullInt64
		fraudCaught, fraudAll sql.NullInt64
		atRisk                sql.NullFloat64
	)
	if err := s.db.QueryRowContext(ctx, `
SELECT
  SUM(severity = 'high' AND status <> 'resolved'),
  SUM(alert_type LIKE '%fraud%' AND status IN ('escalated', 'resolved')),
  SUM(alert_type LIKE '%fraud%'),
  SUM(CASE WHEN status <> 'resolved' THEN amount ELSE 0 END)
FROM risk_alerts
WHERE `+envFilter+`;
`, environment, environment).Scan(&highOpen, &fraudCaught, &fraudAll, &atRisk); err != nil {
		return nil, err
	}
	out.HighRiskAlerts = int(nullInt64Value(highOpen))
	out.FraudDetectionRate = percentOf(nullInt64Value(fraudCaught), nullInt64Value(fraudAll))
	out.AmountAtRisk = round2(nullFloat64Value(atRisk))

	return out, nil
}

// ListRiskCategories returns category scores with their direction against the previous period.
func (s *Store) ListRiskCategories(ctx context.Context, environment string) ([]dashboard.RiskRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT category, score, previous_score, color
FROM risk_categories
WHERE `+envFilter+`
ORDER BY category ASC;
`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.RiskRecord, 0)
	for rows.Next() {
		var (
			item     dashboard.RiskRecord
			previous sql.NullFloat64
			color    sql.NullString
		)
		if err := rows.Scan(&item.Category, &item.Score, &previous, &color); err != nil {
			return nil, err
		}
		item.Trend = dashboard.TrendStable
		if previous.Valid {
			item.Trend = dashboard.TrendBetween(previous.Float64, item.Score)
		}
		item.Color = color.String
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAlerts returns the newest alerts.
func (s *Store) ListAlerts(ctx context.Context, environment string, limit int) ([]dashboard.AlertRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT alert_id, alert_type, severity, COALESCE(amount, 0), raised_at, status
FROM risk_alerts
WHERE `+envFilter+`
ORDER BY raised_at DESC
LIMIT ?;
`, environment, environment, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	out := make([]dashboard.AlertRecord, 0, limit)
	for rows.Next() {
		var (
			item     dashboard.AlertRecord
			raisedAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Type, &item.Severity, &item.Amount, &raisedAt, &item.Status); err != nil {
			return nil, err
		}
		item.Time = relativeTime(raisedAt, now)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RiskTrend returns monthly scores per risk family, oldest first.
func (s *Store) RiskTrend(ctx context.Context, environment string, months int) ([]dashboard.RiskTrendPoint, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT month, credit, market, operational, compliance
FROM risk_monthly
WHERE `+envFilter+`
  AND month >= ?
ORDER BY month ASC;
`, environment, environment, monthsBack(time.Now().UTC(), months))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.RiskTrendPoint, 0, months)
	for rows.Next() {
		var (
			item  dashboard.RiskTrendPoint
			month time.Time
		)
		if err := rows.Scan(&month, &item.Credit, &item.Market, &item.Operational, &item.Compliance); err != nil {
			return nil, err
		}
		item.Month = monthLabel(month)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRiskEvents returns events placed by likelihood, impact and velocity.
func (s *Store) ListRiskEvents(ctx context.Context, environment string) ([]dashboard.ScatterPoint3D, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT label, likelihood, impact, velocity
FROM risk_events
WHERE `+envFilter+`
ORDER BY impact DESC, label ASC;
`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.ScatterPoint3D, 0)
	for rows.Next() {
		var item dashboard.ScatterPoint3D
		if err := rows.Scan(&item.Label, &item.Likelihood, &item.Impact, &item.Velocity); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RiskExposure returns monthly exposure per category, oldest first.
func (s *Store) RiskExposure(ctx context.Context, environment string, months int) ([]dashboard.ExposurePoint, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT month, category, exposure
FROM risk_exposure
WHERE `+envFilter+`
  AND month >= ?
ORDER BY category ASC, month ASC;
`, environment, environment, monthsBack(time.Now().UTC(), months))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.ExposurePoint, 0)
	for rows.Next() {
		var (
			item  dashboard.ExposurePoint
			month time.Time
		)
		if err := rows.Scan(&month, &item.Category, &item.Exposure); err != nil {
			return nil, err
		}
		item.Month = monthLabel(month)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AlertDistribution returns each alert type's share of all alerts in percent.
func (s *Store) AlertDistribution(ctx context.Context, environment string) ([]dashboard.SlicePoint, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT alert_type, COUNT(*)
FROM risk_alerts
WHERE `+envFilter+`
GROUP BY alert_type
ORDER BY COUNT(*) DESC, alert_type ASC;
`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type bucket struct {
		label string
		count int64
	}
	buckets := make([]bucket, 0)
	var total int64
	for rows.Next() {
		var b bucket
		if err := rows.Scan(&b.label, &b.count); err != nil {
			return nil, err
		}
		total += b.count
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]dashboard.SlicePoint, 0, len(buckets))
	for i, b := range buckets {
		out = append(out, dashboard.SlicePoint{
			Label: b.label,
			Value: percentOf(b.count, total),
			Color: alertPalette[i%len(alertPalette)],
		})
	}
	return out, nil
}

func relativeTime(t sql.NullTime, now time.Time) string {
	if !t.Valid {
		return ""
	}
	return humanize.RelTime(t.Time, now, "ago", "from now")
}
