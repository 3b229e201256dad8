// Package report renders self-contained HTML report documents from the values a
// dashboard currently displays.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"go-audit-insights/internal/dashboard"
)

// Document is a downloadable report file.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Recommendation is one action item derived from the displayed risk categories.
type Recommendation struct {
	Category string
	Score    float64
	Level    string
	Text     string
}

var funcs = template.FuncMap{
	"pct":   formatPercent,
	"money": formatMoney,
	"num":   formatNumber,
	"level": riskLevel,
	"trendArrow": func(t dashboard.Trend) string {
		switch t {
		case dashboard.TrendUp:
			return "▲"
		case dashboard.TrendDown:
			return "▼"
		default:
			return "■"
		}
	},
}

var (
	riskTemplate       = template.Must(template.New("risk").Funcs(funcs).Parse(baseCSS + riskHTML))
	complianceTemplate = template.Must(template.New("compliance").Funcs(funcs).Parse(baseCSS + complianceHTML))
)

// Risk renders the risk-assessment report for view.
func Risk(view dashboard.RiskView, generatedAt time.Time) (Document, error) {
	data := struct {
		Title           string
		GeneratedAt     string
		View            dashboard.RiskView
		Recommendations []Recommendation
		OpenAlerts      int
	}{
		Title:           "Risk Assessment Report",
		GeneratedAt:     generatedAt.UTC().Format("January 2, 2006 15:04 MST"),
		View:            view,
		Recommendations: recommendations(view.Categories),
		OpenAlerts:      countOpen(view.Alerts),
	}
	return render(riskTemplate, data, "risk-assessment-report", generatedAt)
}

// Compliance renders the compliance report for view.
func Compliance(view dashboard.ComplianceView, generatedAt time.Time) (Document, error) {
	data := struct {
		Title       string
		GeneratedAt string
		View        dashboard.ComplianceView
	}{
		Title:       "Compliance Report",
		GeneratedAt: generatedAt.UTC().Format("January 2, 2006 15:04 MST"),
		View:        view,
	}
	return render(complianceTemplate, data, "compliance-report", generatedAt)
}

// Filename stamps prefix with the UTC date of at.
func Filename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.html", prefix, at.UTC().Format("2006-01-02"))
}

func render(tpl *template.Template, data any, prefix string, at time.Time) (Document, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return Document{}, fmt.Errorf("render %s: %w", prefix, err)
	}
	return Document{
		Filename:    Filename(prefix, at),
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func recommendations(categories []dashboard.RiskRecord) []Recommendation {
	out := make([]Recommendation, 0, len(categories))
	for _, c := range categories {
		level := riskLevel(c.Score)
		var text string
		switch {
		case level == "High" && c.Trend == dashboard.TrendUp:
			text = "Escalate: score is high and rising. Review controls and assign an owner this week."
		case level == "High":
			text = "Maintain enhanced monitoring until the score drops below 70."
		case c.Trend == dashboard.TrendUp:
			text = "Watch: score is rising. Re-assess at the next monthly review."
		default:
			continue
		}
		out = append(out, Recommendation{Category: c.Category, Score: c.Score, Level: level, Text: text})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func countOpen(alerts []dashboard.AlertRecord) int {
	n := 0
	for _, a := range alerts {
		if a.Status != "resolved" && a.Status != "closed" {
			n++
		}
	}
	return n
}

func riskLevel(score float64) string {
	switch {
	case score >= 70:
		return "High"
	case score >= 40:
		return "Medium"
	default:
		return "Low"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPercent(v float64) string {
	return formatNumber(v) + "%"
}

func formatMoney(v float64) string {
	if v < 0 {
		return "-$" + humanize.Commaf(-v)
	}
	return "$" + humanize.Commaf(v)
}
