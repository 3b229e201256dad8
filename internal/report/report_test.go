package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/dashboard"
)

var generatedAt = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func TestCompliance_ContainsCurrentKPIValues(t *testing.T) {
	doc, err := Compliance(dashboard.SampleComplianceView(), generatedAt)
	require.NoError(t, err)

	body := string(doc.Body)
	for _, want := range []string{"89%", "95%", "78%", "85%", "SOX", "2024-01-15"} {
		assert.Contains(t, body, want)
	}
	assert.Equal(t, "compliance-report-2026-10-19.html", doc.Filename)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
}

func TestRisk_InterpolatesDisplayedValues(t *testing.T) {
	view := dashboard.SampleRiskView()
	view.KPIs.OverallRiskScore = 71
	view.KPIs.AmountAtRisk = 1234567.5
	view.Alerts = append(view.Alerts, dashboard.AlertRecord{
		ID: "ALT-9", Type: "<script>alert(1)</script>", Severity: "high", Amount: 10, Time: "now", Status: "open",
	})

	doc, err := Risk(view, generatedAt)
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Equal(t, "risk-assessment-report-2026-10-19.html", doc.Filename)
	assert.Contains(t, body, ">71<")
	assert.Contains(t, body, "$1,234,567.5")
	assert.Contains(t, body, "94.5%")
	assert.Contains(t, body, "Fraud Risk")
	assert.Contains(t, body, "Escalate")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), "<!doctype html>"))
	assert.NotContains(t, body, "<link", "document must be self-contained")
}

func TestRisk_EmptyAlertsRenders(t *testing.T) {
	view := dashboard.SampleRiskView()
	view.Alerts = nil

	doc, err := Risk(view, generatedAt)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "No alerts.")
}

func TestRecommendations(t *testing.T) {
	recs := recommendations([]dashboard.RiskRecord{
		{Category: "Low stable", Score: 20, Trend: dashboard.TrendStable},
		{Category: "Medium rising", Score: 55, Trend: dashboard.TrendUp},
		{Category: "High rising", Score: 81, Trend: dashboard.TrendUp},
		{Category: "High falling", Score: 75, Trend: dashboard.TrendDown},
	})

	require.Len(t, recs, 3)
	assert.Equal(t, "High rising", recs[0].Category)
	assert.Equal(t, "High falling", recs[1].Category)
	assert.Equal(t, "Medium", recs[2].Level)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "89%", formatPercent(89))
	assert.Equal(t, "94.5%", formatPercent(94.5))
	assert.Equal(t, "$2,450,000", formatMoney(2450000))
	assert.Equal(t, "-$3,200", formatMoney(-3200))
	assert.Equal(t, "Low", riskLevel(39.9))
}
