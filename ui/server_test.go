package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"godna/app"
	"godna/domain/core"
	"godna/internal"
	"godna/internal/config"
	"godna/internal/metrics"
	"godna/internal/testkit"
	"godna/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	kit := testkit.NewTestKit()

	genConfig := testkit.DefaultDemandConfig()
	genConfig.Start = core.NewDay(2022, time.January, 1)
	genConfig.End = core.NewDay(2024, time.December, 31)
	if _, err := kit.SeedDemand(context.Background(), genConfig); err != nil {
		t.Fatalf("Failed to seed demand: %v", err)
	}

	logger := internal.NewLogger(internal.LogLevelError)
	m := metrics.NewWith(prometheus.NewRegistry())
	forecasts := app.NewForecastService(kit.ProfileRepository(), kit.SettingsRepository(), logger, m)
	lab := app.NewLabService(kit.TransactionRepository(), kit.SignatureRepository(), logger, m, 2)
	goals := app.NewGoalService(kit.TransactionRepository(), logger, m)

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		Auth:   config.AuthConfig{Username: "demo", Password: "demo2026"},
	}
	return NewServer(cfg, forecasts, lab, goals, logger, m)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.SetBasicAuth("demo", "demo2026")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func januaryProjection() models.ProjectionRequest {
	return models.ProjectionRequest{
		Entities: []string{"alpha"},
		Trial: models.TrialPayload{
			Start: "2025-01-01", End: "2025-01-31",
			Sessions: 3000, Conversions: 15, Revenue: 6300,
		},
	}
}

func TestServer_AuthGate(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/signatures", nil, false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Unauthenticated status = %d, want 401", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/signatures", nil, true)
	if w.Code != http.StatusOK {
		t.Errorf("Authenticated status = %d, want 200", w.Code)
	}
}

func TestServer_HealthzAndDocs(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/healthz", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/docs", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("docs status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("docs content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Forecast Methodology") {
		t.Error("docs page should carry the methodology title")
	}
}

func TestServer_Projection(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/projection", januaryProjection(), true)
	if w.Code != http.StatusOK {
		t.Fatalf("projection status = %d: %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if got := resp["year"].(float64); got != 2025 {
		t.Errorf("year = %v, want 2025", got)
	}
	rows := resp["rows"].([]interface{})
	if len(rows) != 365 {
		t.Errorf("rows = %d, want 365", len(rows))
	}
	weights := resp["weights"].([]interface{})
	if len(weights) != 3 {
		t.Errorf("weights = %d, want 3", len(weights))
	}
	aggregates := resp["aggregates"].([]interface{})
	if len(aggregates) != 12 {
		t.Errorf("aggregates = %d, want 12", len(aggregates))
	}
}

func TestServer_ProjectionRejectsBadTrial(t *testing.T) {
	s := newTestServer(t)

	req := januaryProjection()
	req.Trial.Start = "tomorrow"
	w := doJSON(t, s, http.MethodPost, "/api/projection", req, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestServer_Weights(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/weights", januaryProjection(), true)
	if w.Code != http.StatusOK {
		t.Fatalf("weights status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if got := len(resp["weights"].([]interface{})); got != 3 {
		t.Errorf("weights = %d, want 3", got)
	}
}

func TestServer_EventLifecycle(t *testing.T) {
	s := newTestServer(t)

	shock := models.EventPayload{
		Type: "shock", Name: "spring_sale",
		Start: "2025-02-01", End: "2025-02-14",
		Shape: "step", LiftPct: 25,
	}
	w := doJSON(t, s, http.MethodPost, "/api/events", shock, true)
	if w.Code != http.StatusOK {
		t.Fatalf("append status = %d: %s", w.Code, w.Body.String())
	}
	if got := len(decodeBody(t, w)["events"].([]interface{})); got != 1 {
		t.Fatalf("events after append = %d, want 1", got)
	}

	bad := models.EventPayload{Type: "holiday"}
	if w = doJSON(t, s, http.MethodPost, "/api/events", bad, true); w.Code != http.StatusBadRequest {
		t.Errorf("bad event status = %d, want 400", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/events/0/shift", models.ShiftRequest{Days: 7}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("shift status = %d: %s", w.Code, w.Body.String())
	}
	events := decodeBody(t, w)["events"].([]interface{})
	label := events[0].(map[string]interface{})["label"].(string)
	if !strings.Contains(label, "2025-02-08") {
		t.Errorf("shifted label = %q, want start 2025-02-08", label)
	}

	if w = doJSON(t, s, http.MethodDelete, "/api/events/5", nil, true); w.Code != http.StatusNotFound {
		t.Errorf("delete out of range status = %d, want 404", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/events/0", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if got := len(decodeBody(t, w)["events"].([]interface{})); got != 0 {
		t.Errorf("events after delete = %d, want 0", got)
	}
}

func TestServer_WorkingLogRidesProjection(t *testing.T) {
	s := newTestServer(t)

	shock := models.EventPayload{
		Type: "shock", Name: "feb_push",
		Start: "2025-02-01", End: "2025-02-28",
		Shape: "step", LiftPct: 50,
	}
	if w := doJSON(t, s, http.MethodPost, "/api/events", shock, true); w.Code != http.StatusOK {
		t.Fatalf("append status = %d", w.Code)
	}

	// No events in the payload, so the working log applies.
	w := doJSON(t, s, http.MethodPost, "/api/projection", januaryProjection(), true)
	if w.Code != http.StatusOK {
		t.Fatalf("projection status = %d: %s", w.Code, w.Body.String())
	}
	events := decodeBody(t, w)["events"].([]interface{})
	if len(events) != 1 {
		t.Errorf("projection events = %d, want the working log entry", len(events))
	}
}

func TestServer_SignatureEndpoints(t *testing.T) {
	s := newTestServer(t)

	extract := models.ExtractRequest{
		Name: "black_friday_2024", Entities: []string{"alpha"},
		Start: "2024-11-01", End: "2024-11-30",
	}
	w := doJSON(t, s, http.MethodPost, "/api/signatures/extract", extract, true)
	if w.Code != http.StatusOK {
		t.Fatalf("extract status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/signatures", nil, true)
	if got := len(decodeBody(t, w)["signatures"].([]interface{})); got != 1 {
		t.Fatalf("signatures = %d, want 1", got)
	}

	reapply := models.ReapplyRequest{Mode: "relative", Start: "2025-11-01"}
	w = doJSON(t, s, http.MethodPost, "/api/signatures/black_friday_2024/reapply", reapply, true)
	if w.Code != http.StatusOK {
		t.Fatalf("reapply status = %d: %s", w.Code, w.Body.String())
	}
	if got := len(decodeBody(t, w)["events"].([]interface{})); got != 1 {
		t.Errorf("working log after reapply = %d, want 1", got)
	}

	w = doJSON(t, s, http.MethodPost, "/api/signatures/missing/reapply", reapply, true)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing signature status = %d, want 404", w.Code)
	}
}

func TestServer_Audit(t *testing.T) {
	s := newTestServer(t)

	req := models.AuditRequest{
		ProjectionRequest: januaryProjection(),
		TargetStart:       "2025-04-01",
		TargetEnd:         "2025-06-30",
		Goal:              "revenue",
		GoalValue:         500000,
	}
	req.Events = []models.EventPayload{
		{Type: "shock", Name: "spring", Start: "2025-04-01", End: "2025-04-30", Shape: "linear_fade", LiftPct: 30},
		{Type: "shock", Name: "summer", Start: "2025-06-01", End: "2025-06-14", Shape: "front_loaded", LiftPct: 20},
	}

	w := doJSON(t, s, http.MethodPost, "/api/audit", req, true)
	if w.Code != http.StatusOK {
		t.Fatalf("audit status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if got := len(resp["rows"].([]interface{})); got != 2 {
		t.Errorf("attribution rows = %d, want 2", got)
	}
	if got := resp["needed"].(float64); got != 500000 {
		t.Errorf("needed = %v, want 500000", got)
	}
}

func TestServer_Goal(t *testing.T) {
	s := newTestServer(t)

	req := models.GoalRequest{
		ProjectionRequest: januaryProjection(),
		Metric:            "revenue",
		Value:             1000000,
		WindowStart:       "2025-03-01",
		WindowEnd:         "2025-03-31",
	}
	w := doJSON(t, s, http.MethodPost, "/api/goal", req, true)
	if w.Code != http.StatusOK {
		t.Fatalf("goal status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	needed := resp["needed"].(map[string]interface{})
	if got := needed["revenue"].(float64); got != 1000000 {
		t.Errorf("needed revenue = %v, want 1000000", got)
	}
	if got := len(resp["rows"].([]interface{})); got != 1 {
		t.Errorf("goal rows = %d, want 1", got)
	}
}

func TestServer_Export(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/export", nil, true)
	if w.Code != http.StatusNotFound {
		t.Errorf("export before projection status = %d, want 404", w.Code)
	}

	if w = doJSON(t, s, http.MethodPost, "/api/projection", januaryProjection(), true); w.Code != http.StatusOK {
		t.Fatalf("projection status = %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/export", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("export content type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("export body should carry the workbook")
	}
}

func TestServer_SettingsDefaults(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/settings/defaults", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("get defaults status = %d", w.Code)
	}
	defaults := decodeBody(t, w)["defaults"].(map[string]interface{})
	if got := defaults["step"].(float64); got != 25 {
		t.Errorf("step default = %v, want 25", got)
	}

	payload := models.CampaignDefaultPayload{Shape: "delayed_peak", LiftPct: 40}
	w = doJSON(t, s, http.MethodPut, "/api/settings/defaults", payload, true)
	if w.Code != http.StatusOK {
		t.Fatalf("put defaults status = %d: %s", w.Code, w.Body.String())
	}
	defaults = decodeBody(t, w)["defaults"].(map[string]interface{})
	if got := defaults["delayed_peak"].(float64); got != 40 {
		t.Errorf("delayed_peak default = %v, want 40", got)
	}
}