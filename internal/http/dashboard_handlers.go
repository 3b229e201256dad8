package http

import (
	"context"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"go-audit-insights/internal/dashboard"
	"go-audit-insights/internal/report"
	"go-audit-insights/internal/series"
)

// viewLoader produces the merged view of one dashboard page.
type viewLoader interface {
	Compliance(ctx context.Context, params series.Params) (dashboard.ComplianceView, series.Report)
	Risk(ctx context.Context, params series.Params) (dashboard.RiskView, series.Report)
}

type viewDefaults struct {
	Environment string
	Limit       int
	Months      int
}

func parseViewParams(r *nethttp.Request, defaults viewDefaults) series.Params {
	env := strings.TrimSpace(r.URL.Query().Get("environment"))
	if env == "" {
		env = defaults.Environment
	}
	return series.Params{
		Environment: env,
		Limit:       parseLimit(r, defaults.Limit),
		Months:      parseMonths(r, defaults.Months),
	}
}

// loadView merges the named page. ok is false for unknown pages.
func loadView(ctx context.Context, loader viewLoader, page string, params series.Params) (view any, rep series.Report, ok bool) {
	switch page {
	case dashboard.PageCompliance:
		v, r := loader.Compliance(ctx, params)
		return v, r, true
	case dashboard.PageRisk:
		v, r := loader.Risk(ctx, params)
		return v, r, true
	default:
		return nil, series.Report{}, false
	}
}

func dashboardViewHandler(loader viewLoader, defaults viewDefaults) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		page := chi.URLParam(r, "page")
		view, rep, ok := loadView(r.Context(), loader, page, parseViewParams(r, defaults))
		if !ok {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "unknown dashboard " + strconv.Quote(page)})
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": rep,
			"data": view,
		})
	}
}

// reportDownloadHandler renders the report of what the page would display right now.
func reportDownloadHandler(loader viewLoader, defaults viewDefaults, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		page := chi.URLParam(r, "page")
		start := time.Now()
		view, _, ok := loadView(r.Context(), loader, page, parseViewParams(r, defaults))
		if !ok {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "unknown dashboard " + strconv.Quote(page)})
			return
		}

		var (
			doc report.Document
			err error
		)
		switch v := view.(type) {
		case dashboard.ComplianceView:
			doc, err = report.Compliance(v, start)
		case dashboard.RiskView:
			doc, err = report.Risk(v, start)
		}
		if err != nil {
			recordReportRun(page, "error", time.Since(start).Seconds())
			logger.Error("report generation failed", zap.String("page", page), zap.Error(err))
			writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to generate report"})
			return
		}
		recordReportRun(page, "ok", time.Since(start).Seconds())

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write(doc.Body)
	}
}
