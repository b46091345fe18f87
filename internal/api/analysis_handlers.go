package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/pkg/httputil"
	"github.com/ignite/offer-monitor/internal/service/analysis"
	"github.com/ignite/offer-monitor/internal/storage"
	"github.com/ignite/offer-monitor/internal/workbook"
)

// RecordInput is one performance row in a JSON analysis request. Date takes
// any layout the spreadsheet importer accepts. Rows with an unparseable date
// or without an offer id are dropped.
type RecordInput struct {
	Date        string  `json:"date"`
	OfferID     *int64  `json:"offer_id"`
	Advertiser  string  `json:"advertiser"`
	Affiliate   string  `json:"affiliate"`
	AppID       string  `json:"app_id"`
	GEO         string  `json:"geo"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Profit      float64 `json:"profit"`
	Cap         *int64  `json:"cap"`
	Status      string  `json:"status"`
}

// AnalysisRequest is the body of POST /api/v1/analysis. Without records
// the configured source is analysed.
type AnalysisRequest struct {
	Records   []RecordInput    `json:"records"`
	Blacklist []blacklist.Rule `json:"blacklist"`
	RuleSet   string           `json:"rule_set"`
	Store     bool             `json:"store"`
	Notify    bool             `json:"notify"`
}

// AnalysisResponse wraps a finished report.
type AnalysisResponse struct {
	Report        *engine.Report      `json:"report"`
	ReferenceDate string              `json:"reference_date"`
	Dropped       int                 `json:"dropped_rows"`
	Archive       *storage.ReportMeta `json:"archive,omitempty"`
	DeliveryError string              `json:"delivery_error,omitempty"`
}

// RunAnalysis analyses JSON records, or the configured source when the
// request carries none. ?format=xlsx returns the report workbook.
//
//	POST /api/v1/analysis
func (h *Handlers) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var body AnalysisRequest
	if !httputil.Decode(w, r, &body) {
		return
	}

	req := analysis.Request{
		RuleSet:  body.RuleSet,
		Store:    body.Store,
		Notify:   body.Notify,
		Workbook: wantsWorkbook(r),
	}
	if len(body.Blacklist) > 0 {
		req.Blacklist = blacklist.New(body.Blacklist...)
	}
	if len(body.Records) > 0 {
		perf := recordsFromInput(body.Records)
		req.Snapshot = &datanorm.Snapshot{Performance: perf, Origin: "api"}
	}

	h.respond(w, r, req)
}

// UploadAnalysis analyses an uploaded workbook or CSV. The multipart form
// carries the performance table as "file", an optional blacklist CSV as
// "blacklist", and the optional fields rule_set, store and notify.
//
//	POST /api/v1/analysis/upload
func (h *Handlers) UploadAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, `missing "file" upload`)
		return
	}
	defer file.Close()

	snap, err := workbook.Decode(header.Filename, file)
	if err != nil {
		h.writeError(w, err)
		return
	}

	req := analysis.Request{
		Snapshot: snap,
		RuleSet:  r.FormValue("rule_set"),
		Store:    formBool(r, "store"),
		Notify:   formBool(r, "notify"),
		Workbook: wantsWorkbook(r),
	}

	if bl, _, err := r.FormFile("blacklist"); err == nil {
		defer bl.Close()
		req.Blacklist, err = datanorm.ReadBlacklistCSV(bl)
		if err != nil {
			h.writeError(w, fmt.Errorf("blacklist: %w", err))
			return
		}
	}

	h.respond(w, r, req)
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, req analysis.Request) {
	res, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil && (res == nil || !errors.Is(err, analysis.ErrDelivery)) {
		h.writeError(w, err)
		return
	}

	rep := res.Report
	w.Header().Set("X-Run-ID", rep.RunID)

	if req.Workbook {
		if err != nil {
			w.Header().Set("X-Delivery-Error", err.Error())
		}
		w.Header().Set("Content-Type", storage.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName()))
		w.WriteHeader(http.StatusOK)
		if _, werr := w.Write(res.Workbook); werr != nil {
			log.Printf("[api] write workbook: %v", werr)
		}
		return
	}

	resp := AnalysisResponse{
		Report:        rep,
		ReferenceDate: rep.LatestLabel(),
		Dropped:       res.Dropped,
		Archive:       res.Archive,
	}
	if err != nil {
		resp.DeliveryError = err.Error()
	}
	httputil.OK(w, resp)
}

// writeError maps service errors onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownRuleSet):
		httputil.ErrorWithCode(w, http.StatusBadRequest, "unknown_rule_set", err.Error())
	case errors.Is(err, datanorm.ErrMissingColumns),
		errors.Is(err, blacklist.ErrMissingColumns):
		httputil.ErrorWithCode(w, http.StatusBadRequest, "missing_columns", err.Error())
	case errors.Is(err, workbook.ErrUnsupportedFormat),
		errors.Is(err, workbook.ErrNoSheets):
		httputil.ErrorWithCode(w, http.StatusBadRequest, "unsupported_input", err.Error())
	case errors.Is(err, analysis.ErrNoSource):
		httputil.ErrorWithCode(w, http.StatusBadRequest, "no_input", err.Error())
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, analysis.ErrEmptySnapshot):
		httputil.ErrorWithCode(w, http.StatusUnprocessableEntity, "validation", err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

func recordsFromInput(in []RecordInput) *datanorm.Result {
	res := &datanorm.Result{Rows: len(in), Dropped: map[datanorm.DropReason]int{}}
	for _, rec := range in {
		date, ok := datanorm.ParseDate(rec.Date)
		if !ok {
			res.Dropped[datanorm.DropInvalidDate]++
			continue
		}
		if rec.OfferID == nil {
			res.Dropped[datanorm.DropInvalidOfferID]++
			continue
		}
		res.Records = append(res.Records, engine.PerformanceRecord{
			Date:        date,
			OfferID:     *rec.OfferID,
			Advertiser:  rec.Advertiser,
			Affiliate:   rec.Affiliate,
			AppID:       rec.AppID,
			GEO:         rec.GEO,
			Clicks:      rec.Clicks,
			Conversions: rec.Conversions,
			Revenue:     rec.Revenue,
			Profit:      rec.Profit,
			Cap:         rec.Cap,
			Status:      datanorm.NormalizeStatus(rec.Status),
		})
	}
	return res
}

func wantsWorkbook(r *http.Request) bool {
	return r.URL.Query().Get("format") == "xlsx"
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.FormValue(key))
	return v
}
