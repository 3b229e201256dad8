// Package dashboard defines the display records, series and embedded sample data
// of the compliance and risk-assessment dashboards.
package dashboard

import "time"

// Author identifies who wrote a chat message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// ChatMessage is one bubble of the assistant conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    Author    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Loading   bool      `json:"loading,omitempty"`
	Error     bool      `json:"error,omitempty"`
}

// ComplianceKPIs are the four headline percentages of the compliance page.
type ComplianceKPIs struct {
	OverallCompliance  float64 `json:"overallCompliance"`
	AuditCompletion    float64 `json:"auditCompletion"`
	FindingResolution  float64 `json:"findingResolution"`
	TrainingCompletion float64 `json:"trainingCompletion"`
}

// ComplianceRecord is one regulation row of the compliance table.
type ComplianceRecord struct {
	Regulation string  `json:"regulation"`
	Compliance float64 `json:"compliance"`
	Risk       float64 `json:"risk"`
	LastAudit  string  `json:"lastAudit"`
}

// TrendPoint is a monthly compliance value against its target.
type TrendPoint struct {
	Month      string  `json:"month"`
	Compliance float64 `json:"compliance"`
	Target     float64 `json:"target"`
}

// SlicePoint is one slice of a pie or donut chart.
type SlicePoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// AuditProgress is one stacked bar of audit plan status per quarter.
type AuditProgress struct {
	Quarter    string `json:"quarter"`
	Completed  int    `json:"completed"`
	InProgress int    `json:"inProgress"`
	Planned    int    `json:"planned"`
}

// TrainingScore is one radar axis of training completion by department.
type TrainingScore struct {
	Department string  `json:"department"`
	Score      float64 `json:"score"`
}

// RiskKPIs are the headline figures of the risk page.
type RiskKPIs struct {
	OverallRiskScore   float64 `json:"overallRiskScore"`
	HighRiskAlerts     int     `json:"highRiskAlerts"`
	FraudDetectionRate float64 `json:"fraudDetectionRate"`
	AmountAtRisk       float64 `json:"amountAtRisk"`
}

// Trend is the direction of a risk score compared with the previous period.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendBetween classifies the change from previous to current.
func TrendBetween(previous, current float64) Trend {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	default:
		return TrendStable
	}
}

// RiskRecord is one risk category score.
type RiskRecord struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Trend    Trend   `json:"trend"`
	Color    string  `json:"color"`
}

// AlertRecord is one row of the alert table.
type AlertRecord struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Amount   float64 `json:"amount"`
	Time     string  `json:"time"`
	Status   string  `json:"status"`
}

// RiskTrendPoint holds the monthly score of each risk family.
type RiskTrendPoint struct {
	Month       string  `json:"month"`
	Credit      float64 `json:"credit"`
	Market      float64 `json:"market"`
	Operational float64 `json:"operational"`
	Compliance  float64 `json:"compliance"`
}

// ScatterPoint3D places one risk event by likelihood, impact and velocity.
type ScatterPoint3D struct {
	Label      string  `json:"label"`
	Likelihood float64 `json:"likelihood"`
	Impact     float64 `json:"impact"`
	Velocity   float64 `json:"velocity"`
}

// ExposurePoint is one vertex of the 3-D exposure line plot.
type ExposurePoint struct {
	Month    string  `json:"month"`
	Category string  `json:"category"`
	Exposure float64 `json:"exposure"`
}

// ComplianceView is everything the compliance page renders.
type ComplianceView struct {
	KPIs        ComplianceKPIs     `json:"kpis"`
	Regulations []ComplianceRecord `json:"regulations"`
	Trend       []TrendPoint       `json:"trend"`
	Findings    []SlicePoint       `json:"findings"`
	Audits      []AuditProgress    `json:"audits"`
	Training    []TrainingScore    `json:"training"`
}

// RiskView is everything the risk-assessment page renders.
type RiskView struct {
	KPIs         RiskKPIs         `json:"kpis"`
	Categories   []RiskRecord     `json:"categories"`
	Alerts       []AlertRecord    `json:"alerts"`
	Trend        []RiskTrendPoint `json:"trend"`
	Scatter      []ScatterPoint3D `json:"scatter"`
	Exposure     []ExposurePoint  `json:"exposure"`
	Distribution []SlicePoint     `json:"distribution"`
}
