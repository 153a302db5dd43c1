package eligibility_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas/backoffice-engine/domain"
	"github.com/atlas/backoffice-engine/eligibility"
	"github.com/atlas/backoffice-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type stubSSB struct {
	resp  *eligibility.SSBResponse
	err   error
	calls int
}

func (s *stubSSB) SubmitLoanApplication(ctx context.Context, app *domain.Application) (*eligibility.SSBResponse, error) {
	s.calls++
	return s.resp, s.err
}

type stubFCB struct {
	resp       *eligibility.FCBResponse
	err        error
	calls      int
	nationalID string
}

func (s *stubFCB) CheckCreditStatus(ctx context.Context, nationalID string) (*eligibility.FCBResponse, error) {
	s.calls++
	s.nationalID = nationalID
	return s.resp, s.err
}

func newTestRouter(t *testing.T, ssb *stubSSB, fcb *stubFCB) (*eligibility.Router, *sqlite.Store) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return eligibility.NewRouter(ssb, fcb, store, 0), store
}

func saveApp(t *testing.T, store *sqlite.Store, id string, form domain.Form) *domain.Application {
	t.Helper()
	app := &domain.Application{
		ID:            domain.ApplicationID(id),
		ReferenceCode: "APP-" + id,
		Form:          form,
	}
	require.NoError(t, store.Save(context.Background(), *app))
	return app
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		form domain.Form
		want eligibility.Category
	}{
		{
			"employer mentions civil service",
			domain.Form{"employer": "Civil Service Commission"},
			eligibility.CategorySSB,
		},
		{
			"employer mentions SSB, case-insensitive",
			domain.Form{"employer": "ssb payroll office"},
			eligibility.CategorySSB,
		},
		{
			"employer mentions government, nested form",
			domain.Form{"formResponses": map[string]any{"employer": "Government of Zanzibar"}},
			eligibility.CategorySSB,
		},
		{
			"structured employer type, string shape",
			domain.Form{"formResponses": map[string]any{"employerType": "government"}},
			eligibility.CategorySSB,
		},
		{
			"structured employer type, flag-map shape",
			domain.Form{"employerType": map[string]any{"government": true}},
			eligibility.CategorySSB,
		},
		{
			"account holder without government employer",
			domain.Form{"employer": "Acme Ltd", "hasAccount": true},
			eligibility.CategoryFCB,
		},
		{
			"government employment beats the account flag",
			domain.Form{"employer": "Government Printing", "hasAccount": true},
			eligibility.CategorySSB,
		},
		{
			"structured employer type beats the account flag",
			domain.Form{"employerType": "government", "hasAccount": true},
			eligibility.CategorySSB,
		},
		{
			"flag-map false does not classify",
			domain.Form{"employerType": map[string]any{"government": false}},
			eligibility.CategoryNone,
		},
		{
			"nothing matches",
			domain.Form{"employer": "Acme Ltd"},
			eligibility.CategoryNone,
		},
		{
			"empty form",
			domain.Form{},
			eligibility.CategoryNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &domain.Application{ID: "app-1", Form: tt.form}
			assert.Equal(t, tt.want, eligibility.Classify(app))
		})
	}
}

// =============================================================================
// SSB OUTCOME TESTS
// =============================================================================

func TestRunSSB_Success(t *testing.T) {
	ssb := &stubSSB{resp: &eligibility.SSBResponse{
		Success: true,
		Status:  "submitted",
		Raw:     map[string]any{"success": true, "status": "submitted"},
	}}
	router, store := newTestRouter(t, ssb, &stubFCB{})
	ctx := context.Background()

	app := saveApp(t, store, "app-1", domain.Form{"employer": "Civil Service"})

	outcome, err := router.Run(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, eligibility.CategorySSB, outcome.Category)
	assert.Equal(t, domain.CheckSuccess, outcome.Status)
	assert.Equal(t, 1, ssb.calls)

	stored, err := store.Application(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckSSB, stored.CheckType)
	assert.Equal(t, domain.CheckSuccess, stored.CheckStatus)
	assert.Equal(t, "submitted", stored.CheckResult["status"])
}

func TestRunSSB_RejectedDespiteSuccessFlag(t *testing.T) {
	// The bureau can report success=true with a rejected status; the
	// status wins.
	ssb := &stubSSB{resp: &eligibility.SSBResponse{
		Success: true,
		Status:  "rejected",
		Raw:     map[string]any{"success": true, "status": "rejected"},
	}}
	router, store := newTestRouter(t, ssb, &stubFCB{})

	app := saveApp(t, store, "app-1", domain.Form{"employer": "Civil Service"})

	outcome, err := router.Run(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckFailure, outcome.Status)

	stored, _ := store.Application(context.Background(), app.ID)
	assert.Equal(t, domain.CheckFailure, stored.CheckStatus)
}

func TestRunSSB_TransportErrorIsFailure(t *testing.T) {
	ssb := &stubSSB{err: errors.New("connection refused")}
	router, store := newTestRouter(t, ssb, &stubFCB{})

	app := saveApp(t, store, "app-1", domain.Form{"employer": "Civil Service"})

	outcome, err := router.Run(context.Background(), app)
	require.NoError(t, err, "transport failures map to an outcome, not an error")
	assert.Equal(t, domain.CheckFailure, outcome.Status)

	stored, _ := store.Application(context.Background(), app.ID)
	assert.Equal(t, domain.CheckFailure, stored.CheckStatus)
	assert.Equal(t, "connection refused", stored.CheckResult["error"])
}

// =============================================================================
// FCB OUTCOME TESTS
// =============================================================================

func TestRunFCB_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status string
		score  string
		want   domain.CheckStatus
	}{
		{"GOOD approves", "GOOD", "0", domain.CheckApproved},
		{"clean approves, case-insensitive", "clean", "0", domain.CheckApproved},
		{"LOW RISK approves", "LOW RISK", "0", domain.CheckApproved},
		{"ADVERSE blacklists", "ADVERSE", "700", domain.CheckBlacklisted},
		{"default blacklists", "default", "0", domain.CheckBlacklisted},
		{"HIGH RISK blacklists", "HIGH RISK", "0", domain.CheckBlacklisted},
		{"unknown status with positive score approves", "UNRATED", "650", domain.CheckApproved},
		{"unknown status without score stays pending", "UNRATED", "0", domain.CheckPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fcb := &stubFCB{resp: &eligibility.FCBResponse{
				Status: tt.status,
				Score:  domain.MustDecimal(tt.score),
				Raw:    map[string]any{"status": tt.status},
			}}
			router, store := newTestRouter(t, &stubSSB{}, fcb)

			app := saveApp(t, store, "app-1", domain.Form{
				"hasAccount": true,
				"formResponses": map[string]any{"nationalIdNumber": "ID-001"},
			})

			outcome, err := router.Run(context.Background(), app)
			require.NoError(t, err)
			assert.Equal(t, eligibility.CategoryFCB, outcome.Category)
			assert.Equal(t, tt.want, outcome.Status)

			stored, _ := store.Application(context.Background(), app.ID)
			assert.Equal(t, domain.CheckFCB, stored.CheckType)
			assert.Equal(t, tt.want, stored.CheckStatus)
		})
	}
}

func TestRunFCB_NationalIDKeyPrecedence(t *testing.T) {
	fcb := &stubFCB{resp: &eligibility.FCBResponse{Status: "GOOD", Score: decimal.Zero}}
	router, store := newTestRouter(t, &stubSSB{}, fcb)

	app := saveApp(t, store, "app-1", domain.Form{
		"hasAccount": true,
		"nationalId": "top-level",
		"formResponses": map[string]any{
			"nationalIdNumber": "nested-primary",
			"nationalId":       "nested-secondary",
		},
	})

	_, err := router.Run(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "nested-primary", fcb.nationalID)
}

func TestRunFCB_MissingNationalID_SkipsWithoutWriting(t *testing.T) {
	fcb := &stubFCB{}
	router, store := newTestRouter(t, &stubSSB{}, fcb)

	app := saveApp(t, store, "app-1", domain.Form{"hasAccount": true})

	outcome, err := router.Run(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, eligibility.CategoryFCB, outcome.Category)
	assert.Equal(t, "no national id", outcome.Skipped)
	assert.Equal(t, 0, fcb.calls, "collaborator is never called without an ID")

	stored, _ := store.Application(context.Background(), app.ID)
	assert.False(t, stored.Checked(), "nothing is written on a skip")
}

func TestRunFCB_TransportErrorLeavesPending(t *testing.T) {
	fcb := &stubFCB{err: errors.New("timeout awaiting headers")}
	router, store := newTestRouter(t, &stubSSB{}, fcb)

	app := saveApp(t, store, "app-1", domain.Form{
		"hasAccount": true,
		"nationalId": "ID-001",
	})

	outcome, err := router.Run(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckPending, outcome.Status)

	stored, _ := store.Application(context.Background(), app.ID)
	assert.Equal(t, domain.CheckPending, stored.CheckStatus)
	assert.Equal(t, "timeout awaiting headers", stored.CheckResult["error"])
}

func TestRun_NoCheckApplicable(t *testing.T) {
	router, store := newTestRouter(t, &stubSSB{}, &stubFCB{})

	app := saveApp(t, store, "app-1", domain.Form{"employer": "Acme Ltd"})

	outcome, err := router.Run(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, eligibility.CategoryNone, outcome.Category)
	assert.Equal(t, "no check applicable", outcome.Skipped)

	stored, _ := store.Application(context.Background(), app.ID)
	assert.False(t, stored.Checked())
}

func TestRun_RerunOverwritesPreviousOutcome(t *testing.T) {
	fcb := &stubFCB{resp: &eligibility.FCBResponse{Status: "GOOD"}}
	router, store := newTestRouter(t, &stubSSB{}, fcb)
	ctx := context.Background()

	app := saveApp(t, store, "app-1", domain.Form{
		"hasAccount": true,
		"nationalId": "ID-001",
	})

	_, err := router.Run(ctx, app)
	require.NoError(t, err)

	fcb.resp = &eligibility.FCBResponse{Status: "ADVERSE"}
	_, err = router.Run(ctx, app)
	require.NoError(t, err)

	stored, _ := store.Application(ctx, app.ID)
	assert.Equal(t, domain.CheckBlacklisted, stored.CheckStatus, "only the latest outcome is kept")
}

// =============================================================================
// BULK TESTS
// =============================================================================

func TestRunAll_ProcessesEveryApplication(t *testing.T) {
	fcb := &stubFCB{resp: &eligibility.FCBResponse{Status: "GOOD"}}
	router, store := newTestRouter(t, &stubSSB{resp: &eligibility.SSBResponse{Success: true}}, fcb)
	ctx := context.Background()

	saveApp(t, store, "app-1", domain.Form{"employer": "Civil Service"})
	saveApp(t, store, "app-2", domain.Form{"hasAccount": true, "nationalId": "ID-2"})
	saveApp(t, store, "app-3", domain.Form{"employer": "Acme Ltd"})

	ids := []domain.ApplicationID{"app-1", "app-2", "app-3", "app-missing"}
	results := router.RunAll(ctx, ids, 2)

	require.Len(t, results, 4)

	// Results keep the input order.
	assert.Equal(t, domain.ApplicationID("app-1"), results[0].ApplicationID)
	assert.Equal(t, eligibility.CategorySSB, results[0].Outcome.Category)
	assert.Equal(t, domain.CheckSuccess, results[0].Outcome.Status)

	assert.Equal(t, eligibility.CategoryFCB, results[1].Outcome.Category)
	assert.Equal(t, domain.CheckApproved, results[1].Outcome.Status)

	assert.Equal(t, eligibility.CategoryNone, results[2].Outcome.Category)

	// A missing application is an error in its slot, not a batch failure.
	assert.Error(t, results[3].Err)
	assert.True(t, domain.IsNotFound(results[3].Err))
}
