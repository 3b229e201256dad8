package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/series"
)

func TestCompliance_NoReachableEndpointShowsSampleKPIs(t *testing.T) {
	loader := NewLoader(series.NewFetcher("http://127.0.0.1:1", 200*time.Millisecond))

	view, report := loader.Compliance(context.Background(), series.Params{Environment: "production"})

	assert.Equal(t, ComplianceKPIs{
		OverallCompliance:  89,
		AuditCompletion:    95,
		FindingResolution:  78,
		TrainingCompletion: 85,
	}, view.KPIs)
	assert.Equal(t, SampleComplianceView(), view)
	assert.Len(t, report.Outcomes, 6)
	assert.True(t, report.Degraded)
}

func TestRisk_NoReachableEndpointShowsSampleView(t *testing.T) {
	loader := NewLoader(series.NewFetcher("http://127.0.0.1:1", 200*time.Millisecond))

	view, report := loader.Risk(context.Background(), series.Params{})

	assert.Equal(t, SampleRiskView(), view)
	assert.Len(t, report.Outcomes, 7)
}

func TestRisk_PartialRemoteData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/risk/kpis":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    RiskKPIs{OverallRiskScore: 41, HighRiskAlerts: 3, FraudDetectionRate: 99, AmountAtRisk: 1000},
			})
		case "/api/v1/risk/alerts":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []AlertRecord{}})
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "database integration disabled"})
		}
	}))
	defer srv.Close()

	view, report := NewLoader(series.NewFetcher(srv.URL, time.Second)).Risk(context.Background(), series.Params{Limit: 3})

	assert.Equal(t, 41.0, view.KPIs.OverallRiskScore)
	assert.Equal(t, SampleRiskView().Alerts, view.Alerts, "empty alert list keeps the fallback")
	assert.Equal(t, SampleRiskView().Categories, view.Categories)

	o, ok := report.Outcome("kpis")
	require.True(t, ok)
	assert.Equal(t, series.SourceRemote, o.Source)
	o, _ = report.Outcome("alerts")
	assert.ErrorIs(t, o.Err, series.ErrEmptyPayload)
}

func TestSampleViewsAreCopies(t *testing.T) {
	v := SampleComplianceView()
	v.Regulations[0].Regulation = "changed"
	assert.Equal(t, "SOX", SampleComplianceView().Regulations[0].Regulation)
}

func TestTrendBetween(t *testing.T) {
	assert.Equal(t, TrendUp, TrendBetween(50, 60))
	assert.Equal(t, TrendDown, TrendBetween(60, 50))
	assert.Equal(t, TrendStable, TrendBetween(60, 60))
}
