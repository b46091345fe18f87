package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/pkg/httputil"
	"github.com/ignite/offer-monitor/internal/service/analysis"
	"github.com/ignite/offer-monitor/internal/storage"
)

const healthVersion = "1.0.0"

// Analyzer runs analyses.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	HasSource() bool
}

// ReportArchive lists and loads archived reports.
type ReportArchive interface {
	RecentReports(limit int) []storage.ReportMeta
	GetReport(ctx context.Context, runID string) (*engine.Report, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	analyzer  Analyzer
	archive   ReportArchive
	maxUpload int64
	startTime time.Time
}

// NewHandlers creates a new Handlers instance. archive may be nil.
func NewHandlers(analyzer Analyzer, archive ReportArchive, maxUploadMB int) *Handlers {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &Handlers{
		analyzer:  analyzer,
		archive:   archive,
		maxUpload: int64(maxUploadMB) << 20,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"`
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "not_configured"
	Message string `json:"message,omitempty"`
}

// HealthCheck reports liveness and which optional components are wired.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"source":  configured(h.analyzer != nil && h.analyzer.HasSource()),
		"archive": configured(h.archive != nil),
	}
	httputil.OK(w, HealthStatus{
		Status:  "healthy",
		Version: healthVersion,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  checks,
	})
}

func configured(ok bool) ComponentCheck {
	if ok {
		return ComponentCheck{Status: "up"}
	}
	return ComponentCheck{Status: "not_configured"}
}

// RuleSetInfo describes a registered rule set.
type RuleSetInfo struct {
	Version       string            `json:"version"`
	Compatibility string            `json:"compatibility"`
	Texts         map[string]string `json:"texts"`
}

// ListRuleSets returns every registered rule set.
//
//	GET /api/v1/rulesets
func (h *Handlers) ListRuleSets(w http.ResponseWriter, r *http.Request) {
	var out []RuleSetInfo
	for _, v := range engine.RuleSetVersions() {
		rs, err := engine.RuleSetByVersion(v)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		texts := make(map[string]string, len(rs.Texts))
		for rule, text := range rs.Texts {
			texts[strconv.Itoa(rule)] = text
		}
		out = append(out, RuleSetInfo{Version: rs.Version, Compatibility: string(rs.Compatibility), Texts: texts})
	}
	httputil.OK(w, map[string]interface{}{"rule_sets": out})
}

// ListReports returns recently archived reports.
//
//	GET /api/v1/reports?limit=20
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.ServiceUnavailable(w, "report archive not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	httputil.OK(w, map[string]interface{}{"reports": h.archive.RecentReports(limit)})
}

// GetReport returns an archived report.
//
//	GET /api/v1/reports/{runID}
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.ServiceUnavailable(w, "report archive not configured")
		return
	}
	rep, err := h.archive.GetReport(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, storage.ErrReportNotFound) {
		httputil.NotFound(w, "report not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, rep)
}
