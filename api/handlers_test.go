package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas/backoffice-engine/api"
	"github.com/atlas/backoffice-engine/commission"
	"github.com/atlas/backoffice-engine/domain"
	"github.com/atlas/backoffice-engine/eligibility"
	"github.com/atlas/backoffice-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type stubSSB struct{ resp *eligibility.SSBResponse }

func (s *stubSSB) SubmitLoanApplication(ctx context.Context, app *domain.Application) (*eligibility.SSBResponse, error) {
	return s.resp, nil
}

type stubFCB struct{ resp *eligibility.FCBResponse }

func (s *stubFCB) CheckCreditStatus(ctx context.Context, nationalID string) (*eligibility.FCBResponse, error) {
	return s.resp, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, time.July, 1, 2, 0, 0, 0, time.UTC)
	engine := commission.NewEngine(store, store).WithNow(func() time.Time { return now })
	runner := commission.NewMonthlyRunner(engine, store, store)

	checks := eligibility.NewRouter(
		&stubSSB{resp: &eligibility.SSBResponse{Success: true, Status: "submitted"}},
		&stubFCB{resp: &eligibility.FCBResponse{Status: "GOOD"}},
		store,
		time.Second,
	)

	handler := api.NewHandler(store, engine, runner, checks)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// =============================================================================
// AGENT ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateAndGetAgent(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/agents", map[string]any{
		"id": "agent-1", "name": "Asha", "type": "field",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "agent-1", body["id"])
	assert.Equal(t, "field", body["type"])
	assert.Equal(t, true, body["is_active"])

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/agents/agent-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha", body["name"])
}

func TestAPI_CreateAgent_GeneratesID(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/agents", map[string]any{
		"name": "NoID", "type": "online",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"])
}

func TestAPI_CreateAgent_Validation(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/agents", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "required")
}

func TestAPI_GetAgent_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/agents/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// APPLICATION AND COMMISSION FLOW TESTS
// =============================================================================

func TestAPI_ApplicationCommissionFlow(t *testing.T) {
	server, _ := newTestServer(t)

	_, _ = doJSON(t, http.MethodPost, server.URL+"/api/agents", map[string]any{
		"id": "agent-1", "name": "Asha", "type": "field",
	})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/applications", map[string]any{
		"id":             "app-1",
		"reference_code": "APP-001",
		"form":           map[string]any{"loanAmount": 120000},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/applications/app-1/commission?agent=agent-1", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "300.00", body["amount"])
	assert.Equal(t, "application", body["type"])
	assert.Equal(t, "COM-20250701020000-agent-1", body["reference_number"])

	// Same frozen clock, same agent: the reference collides.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/applications/app-1/commission?agent=agent-1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	raw, err := http.Get(server.URL + "/api/agents/agent-1/commissions")
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	var commissions []map[string]any
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&commissions))
	require.Len(t, commissions, 1)
	assert.Equal(t, "300.00", commissions[0]["amount"])
}

func TestAPI_RecordCommission_MissingAgentParam(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/applications/app-1/commission", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RunCheck(t *testing.T) {
	server, store := newTestServer(t)

	_, _ = doJSON(t, http.MethodPost, server.URL+"/api/applications", map[string]any{
		"id":             "app-1",
		"reference_code": "APP-001",
		"form":           map[string]any{"employer": "Civil Service"},
	})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/applications/app-1/check", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SSB", body["category"])
	assert.Equal(t, "S", body["status"])

	stored, err := store.Application(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckSuccess, stored.CheckStatus)
}

// =============================================================================
// MONTHLY RUN ENDPOINT TESTS
// =============================================================================

func TestAPI_MonthlyRunAndReport(t *testing.T) {
	server, _ := newTestServer(t)

	_, _ = doJSON(t, http.MethodPost, server.URL+"/api/agents", map[string]any{
		"id": "f-1", "name": "Field", "type": "field",
	})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/runs/monthly?month=2025-06", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2025-06-01", body["period_start"])
	assert.Equal(t, "2025-06-30", body["period_end"])
	// 21 working days at 2.00/day for the lone field agent.
	assert.Equal(t, "42.00", body["hardship_allowances"])
	assert.Equal(t, "42.00", body["total"])
	assert.Equal(t, float64(1), body["agents_processed"])

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/reports/monthly?month=2025-06", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42.00", body["total"])
}

func TestAPI_MonthlyRun_BadMonth(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/runs/monthly?month=June", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
