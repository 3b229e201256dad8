package mysql

import (
	"context"
	"database/sql"
	"time"

	"go-audit-insights/internal/dashboard"
)

var findingColors = map[string]string{
	"critical": "#dc2626",
	"high":     "#f97316",
	"medium":   "#eab308",
	"low":      "#22c55e",
}

// ComplianceKPIs aggregates the four headline percentages.
func (s *Store) ComplianceKPIs(ctx context.Context, environment string) (*dashboard.ComplianceKPIs, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := &dashboard.ComplianceKPIs{}

	var overall sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `
SELECT AVG(compliance_pct)
FROM regulations
WHERE `+envFilter+`;
`, environment, environment).Scan(&overall); err != nil {
		return nil, err
	}
	out.OverallCompliance = round2(nullFloat64Value(overall))

	var auditsDone, auditsTotal sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
SELECT SUM(status = 'completed'), COUNT(*)
FROM audit_plan
WHERE `+envFilter+`;
`, environment, environment).Scan(&auditsDone, &auditsTotal); err != nil {
		return nil, err
	}
	out.AuditCompletion = percentOf(nullInt64Value(auditsDone), nullInt64Value(auditsTotal))

	var resolved, findings sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
SELECT SUM(status IN ('resolved', 'closed')), COUNT(*)
FROM audit_findings
WHERE `+envFilter+`;
`, environment, environment).Scan(&resolved, &findings); err != nil {
		return nil, err
	}
	out.FindingResolution = percentOf(nullInt64Value(resolved), nullInt64Value(findings))

	var trained, staff sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
SELECT SUM(completed = 1), COUNT(*)
FROM training_records
WHERE `+envFilter+`;
`, environment, environment).Scan(&trained, &staff); err != nil {
		return nil, err
	}
	out.TrainingCompletion = percentOf(nullInt64Value(trained), nullInt64Value(staff))

	return out, nil
}

// ListRegulations returns the regulation table, lowest compliance first.
func (s *Store) ListRegulations(ctx context.Context, environment string) ([]dashboard.ComplianceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT name, compliance_pct, risk_pct, last_audit
FROM regulations
WHERE `+envFilter+`
ORDER BY compliance_pct ASC, name ASC;
`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.ComplianceRecord, 0)
	for rows.Next() {
		var (
			item      dashboard.ComplianceRecord
			lastAudit sql.NullTime
		)
		if err := rows.Scan(&item.Regulation, &item.Compliance, &item.Risk, &lastAudit); err != nil {
			return nil, err
		}
		if lastAudit.Valid {
			item.LastAudit = lastAudit.Time.UTC().Format("2006-01-02")
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ComplianceTrend returns the last months of compliance against target, oldest first.
func (s *Store) ComplianceTrend(ctx context.Context, environment string, months int) ([]dashboard.TrendPoint, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT month, compliance_pct, target_pct
FROM compliance_monthly
WHERE `+envFilter+`
  AND month >= ?
ORDER BY month ASC;
`, environment, environment, monthsBack(time.Now().UTC(), months))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.TrendPoint, 0, months)
	for rows.Next() {
		var (
			item  dashboard.TrendPoint
			month time.Time
		)
		if err := rows.Scan(&month, &item.Compliance, &item.Target); err != nil {
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

// FindingsBySeverity counts open findings per severity.
func (s *Store) FindingsBySeverity(ctx context.Context, environment string) ([]dashboard.SlicePoint, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT LOWER(severity), COUNT(*)
FROM audit_findings
WHERE `+envFilter+`
  AND status NOT IN ('resolved', 'closed')
GROUP BY LOWER(severity)
ORDER BY FIELD(LOWER(severity), 'critical', 'high', 'medium', 'low'), LOWER(severity);
`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.SlicePoint, 0, 4)
	for rows.Next() {
		var (
			severity string
			count    int64
		)
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		out = append(out, dashboard.SlicePoint{
			Label: titleCase(severity),
			Value: float64(count),
			Color: findingColors[severity],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AuditProgress returns plan status per quarter for the most recent quarters.
func (s *Store) AuditProgress(ctx context.Context, environment string, limit int) ([]dashboard.AuditProgress, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT quarter, completed, in_progress, planned
FROM (
  SELECT
    quarter,
    SUM(status = 'completed') AS completed,
    SUM(status = 'in_progress') AS in_progress,
    SUM(status = 'planned') AS planned
  FROM audit_plan
  WHERE `+envFilter+`
  GROUP BY quarter
  ORDER BY quarter DESC
  LIMIT ?
) q
ORDER BY quarter ASC;
`, environment, environment, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.AuditProgress, 0, limit)
	for rows.Next() {
		var item dashboard.AuditProgress
		if err := rows.Scan(&item.Quarter, &item.Completed, &item.InProgress, &item.Planned); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TrainingByDepartment returns completion percentage per department.
func (s *Store) TrainingByDepartment(ctx context.Context, environment string) ([]dashboard.TrainingScore, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT department, SUM(completed = 1), COUNT(*)
FROM training_records
WHERE `+envFilter+`
GROUP BY department
ORDER BY department ASC;
`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.TrainingScore, 0)
	for rows.Next() {
		var (
			department    string
			done, members sql.NullInt64
		)
		if err := rows.Scan(&department, &done, &members); err != nil {
			return nil, err
		}
		out = append(out, dashboard.TrainingScore{
			Department: department,
			Score:      percentOf(nullInt64Value(done), nullInt64Value(members)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// monthsBack is the first day of the month months-1 before now.
func monthsBack(now time.Time, months int) time.Time {
	if months <= 0 {
		months = 1
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, -(months - 1), 0)
}

func monthLabel(t time.Time) string {
	return t.UTC().Format("Jan")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
