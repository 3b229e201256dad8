package dashboard

import (
	"context"

	"go-audit-insights/internal/series"
)

// Page names double as the URL segment of each dashboard.
const (
	PageCompliance = "compliance"
	PageRisk       = "risk"
)

// Compliance series. Paths are relative to the data origin.
var (
	ComplianceKPISeries = series.Series[ComplianceKPIs]{
		Name: "kpis", Path: "/api/v1/compliance/kpis", Query: []string{"environment"}, Fallback: sampleComplianceKPIs,
	}
	RegulationSeries = series.Series[[]ComplianceRecord]{
		Name: "regulations", Path: "/api/v1/compliance/regulations", Query: []string{"environment"}, Fallback: sampleRegulations,
	}
	ComplianceTrendSeries = series.Series[[]TrendPoint]{
		Name: "trend", Path: "/api/v1/compliance/trend", Query: []string{"environment", "months"}, Fallback: sampleComplianceTrend,
	}
	FindingSeries = series.Series[[]SlicePoint]{
		Name: "findings", Path: "/api/v1/compliance/findings", Query: []string{"environment"}, Fallback: sampleFindings,
	}
	AuditSeries = series.Series[[]AuditProgress]{
		Name: "audits", Path: "/api/v1/compliance/audits", Query: []string{"environment", "limit"}, Fallback: sampleAudits,
	}
	TrainingSeries = series.Series[[]TrainingScore]{
		Name: "training", Path: "/api/v1/compliance/training", Query: []string{"environment"}, Fallback: sampleTraining,
	}
)

// Risk series.
var (
	RiskKPISeries = series.Series[RiskKPIs]{
		Name: "kpis", Path: "/api/v1/risk/kpis", Query: []string{"environment"}, Fallback: sampleRiskKPIs,
	}
	RiskCategorySeries = series.Series[[]RiskRecord]{
		Name: "categories", Path: "/api/v1/risk/categories", Query: []string{"environment"}, Fallback: sampleRiskCategories,
	}
	AlertSeries = series.Series[[]AlertRecord]{
		Name: "alerts", Path: "/api/v1/risk/alerts", Query: []string{"environment", "limit"}, Fallback: sampleAlerts,
	}
	RiskTrendSeries = series.Series[[]RiskTrendPoint]{
		Name: "trend", Path: "/api/v1/risk/trend", Query: []string{"environment", "months"}, Fallback: sampleRiskTrend,
	}
	ScatterSeries = series.Series[[]ScatterPoint3D]{
		Name: "scatter", Path: "/api/v1/risk/scatter", Query: []string{"environment"}, Fallback: sampleScatter,
	}
	ExposureSeries = series.Series[[]ExposurePoint]{
		Name: "exposure", Path: "/api/v1/risk/exposure", Query: []string{"environment", "months"}, Fallback: sampleExposure,
	}
	DistributionSeries = series.Series[[]SlicePoint]{
		Name: "distribution", Path: "/api/v1/risk/distribution", Query: []string{"environment"}, Fallback: sampleDistribution,
	}
)

// Loader assembles dashboard views through a series fetcher.
type Loader struct {
	fetcher *series.Fetcher
}

func NewLoader(fetcher *series.Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Compliance loads the six compliance series concurrently.
func (l *Loader) Compliance(ctx context.Context, params series.Params) (ComplianceView, series.Report) {
	var v ComplianceView
	report := l.fetcher.Merge(ctx, PageCompliance, params, l.complianceBindings(&v)...)
	return v, report
}

// Risk loads the seven risk series concurrently.
func (l *Loader) Risk(ctx context.Context, params series.Params) (RiskView, series.Report) {
	var v RiskView
	report := l.fetcher.Merge(ctx, PageRisk, params, l.riskBindings(&v)...)
	return v, report
}

func (l *Loader) complianceBindings(v *ComplianceView) []series.Binding {
	return []series.Binding{
		series.Bind(ComplianceKPISeries, &v.KPIs),
		series.Bind(RegulationSeries, &v.Regulations),
		series.Bind(ComplianceTrendSeries, &v.Trend),
		series.Bind(FindingSeries, &v.Findings),
		series.Bind(AuditSeries, &v.Audits),
		series.Bind(TrainingSeries, &v.Training),
	}
}

func (l *Loader) riskBindings(v *RiskView) []series.Binding {
	return []series.Binding{
		series.Bind(RiskKPISeries, &v.KPIs),
		series.Bind(RiskCategorySeries, &v.Categories),
		series.Bind(AlertSeries, &v.Alerts),
		series.Bind(RiskTrendSeries, &v.Trend),
		series.Bind(ScatterSeries, &v.Scatter),
		series.Bind(ExposureSeries, &v.Exposure),
		series.Bind(DistributionSeries, &v.Distribution),
	}
}

// SampleComplianceView is the page as rendered with no reachable endpoint.
func SampleComplianceView() ComplianceView {
	return ComplianceView{
		KPIs:        sampleComplianceKPIs,
		Regulations: append([]ComplianceRecord(nil), sampleRegulations...),
		Trend:       append([]TrendPoint(nil), sampleComplianceTrend...),
		Findings:    append([]SlicePoint(nil), sampleFindings...),
		Audits:      append([]AuditProgress(nil), sampleAudits...),
		Training:    append([]TrainingScore(nil), sampleTraining...),
	}
}

// SampleRiskView is the risk page as rendered with no reachable endpoint.
func SampleRiskView() RiskView {
	return RiskView{
		KPIs:         sampleRiskKPIs,
		Categories:   append([]RiskRecord(nil), sampleRiskCategories...),
		Alerts:       append([]AlertRecord(nil), sampleAlerts...),
		Trend:        append([]RiskTrendPoint(nil), sampleRiskTrend...),
		Scatter:      append([]ScatterPoint3D(nil), sampleScatter...),
		Exposure:     append([]ExposurePoint(nil), sampleExposure...),
		Distribution: append([]SlicePoint(nil), sampleDistribution...),
	}
}
