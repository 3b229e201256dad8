package dashboard

// Embedded sample data shown whenever a series cannot be fetched.

var sampleComplianceKPIs = ComplianceKPIs{
	OverallCompliance:  89,
	AuditCompletion:    95,
	FindingResolution:  78,
	TrainingCompletion: 85,
}

var sampleRegulations = []ComplianceRecord{
	{Regulation: "SOX", Compliance: 94, Risk: 12, LastAudit: "2024-01-15"},
	{Regulation: "GDPR", Compliance: 87, Risk: 18, LastAudit: "2024-02-03"},
	{Regulation: "PCI-DSS", Compliance: 91, Risk: 15, LastAudit: "2024-01-28"},
	{Regulation: "Basel III", Compliance: 83, Risk: 22, LastAudit: "2023-12-11"},
	{Regulation: "AML/KYC", Compliance: 89, Risk: 19, LastAudit: "2024-02-10"},
	{Regulation: "MiFID II", Compliance: 85, Risk: 21, LastAudit: "2024-01-05"},
}

var sampleComplianceTrend = []TrendPoint{
	{Month: "Sep", Compliance: 82, Target: 90},
	{Month: "Oct", Compliance: 84, Target: 90},
	{Month: "Nov", Compliance: 85, Target: 90},
	{Month: "Dec", Compliance: 87, Target: 90},
	{Month: "Jan", Compliance: 88, Target: 90},
	{Month: "Feb", Compliance: 89, Target: 90},
}

var sampleFindings = []SlicePoint{
	{Label: "Critical", Value: 4, Color: "#dc2626"},
	{Label: "High", Value: 11, Color: "#f97316"},
	{Label: "Medium", Value: 23, Color: "#eab308"},
	{Label: "Low", Value: 37, Color: "#22c55e"},
}

var sampleAudits = []AuditProgress{
	{Quarter: "Q1", Completed: 12, InProgress: 2, Planned: 1},
	{Quarter: "Q2", Completed: 10, InProgress: 4, Planned: 2},
	{Quarter: "Q3", Completed: 8, InProgress: 5, Planned: 3},
	{Quarter: "Q4", Completed: 3, InProgress: 4, Planned: 9},
}

var sampleTraining = []TrainingScore{
	{Department: "Finance", Score: 92},
	{Department: "Operations", Score: 81},
	{Department: "IT", Score: 88},
	{Department: "Legal", Score: 95},
	{Department: "Sales", Score: 72},
	{Department: "HR", Score: 86},
}

var sampleRiskKPIs = RiskKPIs{
	OverallRiskScore:   68,
	HighRiskAlerts:     23,
	FraudDetectionRate: 94.5,
	AmountAtRisk:       2450000,
}

var sampleRiskCategories = []RiskRecord{
	{Category: "Credit Risk", Score: 72, Trend: TrendUp, Color: "#ef4444"},
	{Category: "Market Risk", Score: 58, Trend: TrendDown, Color: "#f59e0b"},
	{Category: "Operational Risk", Score: 65, Trend: TrendStable, Color: "#3b82f6"},
	{Category: "Compliance Risk", Score: 45, Trend: TrendDown, Color: "#10b981"},
	{Category: "Liquidity Risk", Score: 52, Trend: TrendUp, Color: "#8b5cf6"},
	{Category: "Fraud Risk", Score: 81, Trend: TrendUp, Color: "#ec4899"},
}

var sampleAlerts = []AlertRecord{
	{ID: "ALT-1042", Type: "Suspicious Transaction", Severity: "high", Amount: 125000, Time: "2 min ago", Status: "open"},
	{ID: "ALT-1041", Type: "Unusual Login Pattern", Severity: "medium", Amount: 0, Time: "15 min ago", Status: "investigating"},
	{ID: "ALT-1040", Type: "Large Wire Transfer", Severity: "high", Amount: 480000, Time: "32 min ago", Status: "open"},
	{ID: "ALT-1039", Type: "Duplicate Payment", Severity: "low", Amount: 3200, Time: "1 hour ago", Status: "resolved"},
	{ID: "ALT-1038", Type: "Vendor Master Change", Severity: "medium", Amount: 0, Time: "2 hours ago", Status: "investigating"},
	{ID: "ALT-1037", Type: "Split Transaction", Severity: "high", Amount: 49500, Time: "3 hours ago", Status: "escalated"},
}

var sampleRiskTrend = []RiskTrendPoint{
	{Month: "Sep", Credit: 65, Market: 62, Operational: 60, Compliance: 52},
	{Month: "Oct", Credit: 67, Market: 60, Operational: 63, Compliance: 50},
	{Month: "Nov", Credit: 68, Market: 61, Operational: 64, Compliance: 49},
	{Month: "Dec", Credit: 70, Market: 59, Operational: 66, Compliance: 47},
	{Month: "Jan", Credit: 71, Market: 58, Operational: 65, Compliance: 46},
	{Month: "Feb", Credit: 72, Market: 58, Operational: 65, Compliance: 45},
}

var sampleScatter = []ScatterPoint3D{
	{Label: "Counterparty default", Likelihood: 0.35, Impact: 0.9, Velocity: 0.4},
	{Label: "Rate shock", Likelihood: 0.5, Impact: 0.6, Velocity: 0.8},
	{Label: "System outage", Likelihood: 0.25, Impact: 0.7, Velocity: 0.95},
	{Label: "Regulatory fine", Likelihood: 0.2, Impact: 0.75, Velocity: 0.3},
	{Label: "Payment fraud", Likelihood: 0.65, Impact: 0.55, Velocity: 0.9},
	{Label: "Liquidity squeeze", Likelihood: 0.3, Impact: 0.85, Velocity: 0.6},
}

var sampleExposure = []ExposurePoint{
	{Month: "Dec", Category: "Credit", Exposure: 1.8},
	{Month: "Jan", Category: "Credit", Exposure: 2.1},
	{Month: "Feb", Category: "Credit", Exposure: 2.4},
	{Month: "Dec", Category: "Market", Exposure: 1.2},
	{Month: "Jan", Category: "Market", Exposure: 1.1},
	{Month: "Feb", Category: "Market", Exposure: 0.9},
	{Month: "Dec", Category: "Operational", Exposure: 0.7},
	{Month: "Jan", Category: "Operational", Exposure: 0.8},
	{Month: "Feb", Category: "Operational", Exposure: 0.8},
}

var sampleDistribution = []SlicePoint{
	{Label: "Suspicious Transaction", Value: 38, Color: "#ef4444"},
	{Label: "Large Wire Transfer", Value: 21, Color: "#f59e0b"},
	{Label: "Unusual Login Pattern", Value: 17, Color: "#3b82f6"},
	{Label: "Duplicate Payment", Value: 14, Color: "#10b981"},
	{Label: "Vendor Master Change", Value: 10, Color: "#8b5cf6"},
}
