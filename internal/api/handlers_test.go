package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/directory"
	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/pkg/httputil"
	"github.com/ignite/offer-monitor/internal/service/analysis"
	"github.com/ignite/offer-monitor/internal/storage"
	"github.com/ignite/offer-monitor/internal/workbook"
)

const stoppedOfferJSON = `{
	"records": [
		{"date": "2024-01-24", "offer_id": 100, "advertiser": "[1]Adv", "affiliate": "[7]X", "revenue": 20, "status": "active"},
		{"date": "2024/01/25", "offer_id": 100, "advertiser": "[1]Adv", "affiliate": "[7]X", "revenue": 0, "status": "active"}
	]
}`

const stoppedOfferCSV = "Time,Offer ID,Advertiser,Affiliate,Total Revenue,Status\n" +
	"2024-01-24,100,[1]Adv,[7]X,20,ACTIVE\n" +
	"2024-01-25,100,[1]Adv,[7]X,0,ACTIVE\n"

func testEngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Directory = directory.New(nil, nil)
	return opts
}

func setupTestServer(t *testing.T, deps analysis.Deps, archive ReportArchive) http.Handler {
	t.Helper()
	svc := analysis.NewService(testEngineOptions(), deps)
	return NewServer(config.ServerConfig{}, NewHandlers(svc, archive, 1)).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func multipartBody(t *testing.T, files map[string][2]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	decode(t, rec, &status)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "not_configured", status.Checks["source"].Status)
	assert.Equal(t, "not_configured", status.Checks["archive"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{Observer: Metrics{}}, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(stoppedOfferJSON)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `offer_monitor_analysis_runs_total{outcome="success"}`)
	assert.Contains(t, rec.Body.String(), `offer_monitor_action_items_total{rule="1"}`)
}

func TestListRuleSets(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/rulesets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RuleSets []RuleSetInfo `json:"rule_sets"`
	}
	decode(t, rec, &body)
	require.Len(t, body.RuleSets, 2)
	assert.Equal(t, engine.RuleSetLegacy, body.RuleSets[0].Version)
	assert.Equal(t, "strict", body.RuleSets[0].Compatibility)
	assert.Len(t, body.RuleSets[1].Texts, 6)
}

func TestRunAnalysis_JSON(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(stoppedOfferJSON)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

	var resp AnalysisResponse
	decode(t, rec, &resp)
	assert.Equal(t, "2024/01/25", resp.ReferenceDate)
	require.Len(t, resp.Report.Actions, 1)
	assert.Equal(t, engine.RuleBudgetStopped, resp.Report.Actions[0].Rule)
	assert.Equal(t, "ACTIVE", resp.Report.Offers[0].Status)
}

func TestRunAnalysis_BlacklistInBody(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	body := strings.Replace(stoppedOfferJSON, `"records"`, `"blacklist": [{"advertiser": "[1]Adv", "affiliate": ""}], "records"`, 1)
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	decode(t, rec, &resp)
	assert.Empty(t, resp.Report.Actions)
}

func TestRunAnalysis_DropsInvalidRows(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	body := `{
		"records": [
			{"date": "2024-01-24", "offer_id": 100, "advertiser": "[1]Adv", "affiliate": "[7]X", "revenue": 20},
			{"date": "not-a-date", "offer_id": 100, "advertiser": "[1]Adv", "affiliate": "[7]X", "revenue": 50},
			{"date": "2024-01-25", "advertiser": "[1]Adv", "affiliate": "[7]X", "revenue": 20},
			{"date": "2024-01-25", "offer_id": 0, "advertiser": "[1]Adv", "affiliate": "[8]Y", "revenue": 12}
		]
	}`
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Dropped)
	require.Len(t, resp.Report.Offers, 2)
	assert.Equal(t, int64(0), resp.Report.Offers[0].OfferID)
	assert.InDelta(t, 12.0, resp.Report.Offers[0].Revenue, 1e-9)
	assert.Equal(t, int64(100), resp.Report.Offers[1].OfferID)
	assert.InDelta(t, 20.0, resp.Report.Offers[1].Revenue, 1e-9)
}

func TestRecordsFromInput(t *testing.T) {
	id := int64(7)
	res := recordsFromInput([]RecordInput{
		{Date: "2024-01-25", OfferID: &id, Revenue: 3},
		{Date: "bad", OfferID: &id},
		{Date: "2024-01-25"},
	})
	assert.Equal(t, 3, res.Rows)
	require.Len(t, res.Records, 1)
	assert.Equal(t, int64(7), res.Records[0].OfferID)
	assert.Equal(t, 1, res.Dropped[datanorm.DropInvalidDate])
	assert.Equal(t, 1, res.Dropped[datanorm.DropInvalidOfferID])
}

func TestRunAnalysis_Errors(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"records": [`, http.StatusBadRequest, ""},
		{"unknown field", `{"rows": []}`, http.StatusBadRequest, ""},
		{"every row dropped", `{"records": [{"date": "yesterday", "offer_id": 1}]}`, http.StatusUnprocessableEntity, "validation"},
		{"no input", `{}`, http.StatusBadRequest, "no_input"},
		{"unknown rule set", strings.Replace(stoppedOfferJSON, `"records"`, `"rule_set": "v0", "records"`, 1), http.StatusBadRequest, "unknown_rule_set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				var e httputil.ErrorResponse
				decode(t, rec, &e)
				assert.Equal(t, tt.code, e.Code)
			}
		})
	}
}

func TestRunAnalysis_Workbook(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis?format=xlsx", strings.NewReader(stoppedOfferJSON)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "processed_offer_20240125.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{workbook.SheetOffers, workbook.SheetActions}, f.GetSheetList())
}

func TestUploadAnalysis_CSV(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	body, ctype := multipartBody(t,
		map[string][2]string{"file": {"perf.csv", stoppedOfferCSV}},
		map[string]string{"rule_set": "legacy"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/upload", body)
	req.Header.Set("Content-Type", ctype)

	rec := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	decode(t, rec, &resp)
	assert.Equal(t, engine.RuleSetLegacy, resp.Report.RuleSet)
	assert.Len(t, resp.Report.Actions, 1)
}

func TestUploadAnalysis_BlacklistFile(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	body, ctype := multipartBody(t, map[string][2]string{
		"file":      {"perf.csv", stoppedOfferCSV},
		"blacklist": {"bl.csv", "Advertiser,Affiliate\n[1]Adv,\n"},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/upload", body)
	req.Header.Set("Content-Type", ctype)

	rec := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AnalysisResponse
	decode(t, rec, &resp)
	assert.Empty(t, resp.Report.Actions)
}

func TestUploadAnalysis_Errors(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	tests := []struct {
		name  string
		files map[string][2]string
		code  string
	}{
		{"missing file", map[string][2]string{"other": {"a.csv", stoppedOfferCSV}}, ""},
		{"unsupported format", map[string][2]string{"file": {"perf.json", "{}"}}, "unsupported_input"},
		{"missing columns", map[string][2]string{"file": {"perf.csv", "Offer ID,Revenue\n1,2\n"}}, "missing_columns"},
		{"malformed blacklist", map[string][2]string{
			"file":      {"perf.csv", stoppedOfferCSV},
			"blacklist": {"bl.csv", "Advertiser,Partner\n[1]Adv,x\n"},
		}, "missing_columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartBody(t, tt.files, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/upload", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(t, h, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			if tt.code != "" {
				var e httputil.ErrorResponse
				decode(t, rec, &e)
				assert.Equal(t, tt.code, e.Code)
			}
		})
	}
}

func TestUploadAnalysis_NoValidDates(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)

	body, ctype := multipartBody(t, map[string][2]string{"file": {"perf.csv", "Time,Offer ID\nnever,1\n"}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/upload", body)
	req.Header.Set("Content-Type", ctype)

	rec := do(t, h, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

type failingNotifier struct{}

func (failingNotifier) Name() string { return "ses" }
func (failingNotifier) Notify(context.Context, *engine.Report) error {
	return errors.New("throttled")
}

func TestRunAnalysis_DeliveryErrorStillReturnsReport(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{Notifiers: []analysis.Notifier{failingNotifier{}}}, nil)

	body := strings.Replace(stoppedOfferJSON, `"records"`, `"notify": true, "records"`, 1)
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalysisResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.Report.Actions, 1)
	assert.Contains(t, resp.DeliveryError, "ses: throttled")
}

func TestReports(t *testing.T) {
	store, err := storage.New(context.Background(), config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	h := setupTestServer(t, analysis.Deps{Store: store}, store)

	body := strings.Replace(stoppedOfferJSON, `"records"`, `"store": true, "records"`, 1)
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AnalysisResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.Archive)
	runID := resp.Report.RunID

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Reports []storage.ReportMeta `json:"reports"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Reports, 1)
	assert.Equal(t, runID, list.Reports[0].RunID)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rep engine.Report
	decode(t, rec, &rep)
	assert.Equal(t, runID, rep.RunID)
	assert.True(t, rep.LatestDate.Equal(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)))

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports_NotConfigured(t *testing.T) {
	h := setupTestServer(t, analysis.Deps{}, nil)
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
