package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	mysqlstore "go-audit-insights/internal/connectors/mysql"
)

const dbDisabledError = "database integration disabled (set APP_DB_ENABLED=true)"

// dataResponse is the envelope the dashboards unwrap.
type dataResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type dataQuery struct {
	Environment string
	Limit       int
	Months      int
}

type dataDefaults struct {
	Limit  int
	Months int
}

// dataRoute is one data API series served from the audit database.
type dataRoute struct {
	path string
	op   string
	load loadFunc
}

type loadFunc func(ctx context.Context, store *mysqlstore.Store, q dataQuery) (any, error)

var complianceRoutes = []dataRoute{
	{"/kpis", "ComplianceKPIs", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.ComplianceKPIs(ctx, q.Environment)
	}},
	{"/regulations", "ListRegulations", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.ListRegulations(ctx, q.Environment)
	}},
	{"/trend", "ComplianceTrend", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.ComplianceTrend(ctx, q.Environment, q.Months)
	}},
	{"/findings", "FindingsBySeverity", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.FindingsBySeverity(ctx, q.Environment)
	}},
	{"/audits", "AuditProgress", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.AuditProgress(ctx, q.Environment, q.Limit)
	}},
	{"/training", "TrainingByDepartment", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.TrainingByDepartment(ctx, q.Environment)
	}},
}

var riskRoutes = []dataRoute{
	{"/kpis", "RiskKPIs", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.RiskKPIs(ctx, q.Environment)
	}},
	{"/categories", "ListRiskCategories", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.ListRiskCategories(ctx, q.Environment)
	}},
	{"/alerts", "ListAlerts", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.ListAlerts(ctx, q.Environment, q.Limit)
	}},
	{"/trend", "RiskTrend", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.RiskTrend(ctx, q.Environment, q.Months)
	}},
	{"/scatter", "ListRiskEvents", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.ListRiskEvents(ctx, q.Environment)
	}},
	{"/exposure", "RiskExposure", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.RiskExposure(ctx, q.Environment, q.Months)
	}},
	{"/distribution", "AlertDistribution", func(ctx context.Context, s *mysqlstore.Store, q dataQuery) (any, error) {
		return s.AlertDistribution(ctx, q.Environment)
	}},
}

func mountDataRoutes(r chi.Router, store *mysqlstore.Store, defaults dataDefaults) {
	r.Route("/compliance", func(r chi.Router) {
		for _, route := range complianceRoutes {
			r.Get(route.path, dataHandler(route.op, route.load, store, defaults))
		}
	})
	r.Route("/risk", func(r chi.Router) {
		for _, route := range riskRoutes {
			r.Get(route.path, dataHandler(route.op, route.load, store, defaults))
		}
	})
}

// dataHandler wraps a store read in the data API envelope.
func dataHandler(op string, load loadFunc, store *mysqlstore.Store, defaults dataDefaults) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, dataResponse{Error: dbDisabledError})
			return
		}

		start := time.Now()
		data, err := load(r.Context(), store, parseDataQuery(r, defaults))
		recordDBQuery("audit", op, time.Since(start).Seconds(), err)
		if err != nil {
			status := nethttp.StatusInternalServerError
			if errors.Is(err, context.DeadlineExceeded) {
				status = nethttp.StatusGatewayTimeout
			}
			writeJSON(w, status, dataResponse{Error: "failed to load " + op})
			return
		}
		writeJSON(w, nethttp.StatusOK, dataResponse{Success: true, Data: data})
	}
}

func parseDataQuery(r *nethttp.Request, defaults dataDefaults) dataQuery {
	return dataQuery{
		Environment: strings.TrimSpace(r.URL.Query().Get("environment")),
		Limit:       parseLimit(r, defaults.Limit),
		Months:      parseMonths(r, defaults.Months),
	}
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	return limit
}

func parseMonths(r *nethttp.Request, defaultMonths int) int {
	months := defaultMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 36 {
			months = parsed
		}
	}
	return months
}
