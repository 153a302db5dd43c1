/*
Package eligibility classifies applications and dispatches automated checks.

PURPOSE:
  A single-transition state machine over an application: classify it into
  a check category (SSB for government payroll, FCB for existing account
  holders, or none), call the matching external collaborator, and write
  the normalized outcome back onto the application.

CLASSIFICATION (first match wins):
  1. Employer text contains "Civil Service", "SSB", or "Government"
     (case-insensitive), or the structured employer-type flag marks
     government employment -> SSB.
  2. hasAccount flag set -> FCB.
  3. Otherwise no check; logged and returned, nothing written.

OUTCOME MAPPING:
  SSB: Success iff the collaborator reports success and its status is
       not "rejected"; Failure otherwise, including transport errors and
       timeouts. In practice the SSB path is two-valued even though the
       status domain carries a Pending member.
  FCB: GOOD/CLEAN/LOW RISK -> Approved; ADVERSE/DEFAULT/HIGH RISK ->
       Blacklisted; unrecognized status with a positive score -> Approved;
       otherwise Pending. Transport errors and timeouts -> Pending.

IDEMPOTENCE:
  Re-running the router overwrites the prior outcome. Only the latest
  result is authoritative; no history is kept.

SEE ALSO:
  - clients.go: HTTP collaborator clients
  - bulk.go: Concurrent checks across many applications
*/
package eligibility

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas/backoffice-engine/domain"
)

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// SSBResponse is the government salary-service bureau's reply to a loan
// application submission.
type SSBResponse struct {
	Success bool
	Status  string
	Raw     map[string]any
}

// FCBResponse is the credit bureau's reply to a status lookup.
type FCBResponse struct {
	Status string
	Score  decimal.Decimal
	Raw    map[string]any
}

type SSBClient interface {
	SubmitLoanApplication(ctx context.Context, app *domain.Application) (*SSBResponse, error)
}

type FCBClient interface {
	CheckCreditStatus(ctx context.Context, nationalID string) (*FCBResponse, error)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

type Category string

const (
	CategorySSB  Category = "SSB"
	CategoryFCB  Category = "FCB"
	CategoryNone Category = "none"
)

// Outcome reports what the router did with one application.
type Outcome struct {
	Category Category
	Status   domain.CheckStatus // empty when no check was performed
	Skipped  string             // reason when no check ran
}

var employerKeys = []string{"employer", "formResponses.employer"}

var governmentMarkers = []string{"civil service", "ssb", "government"}

var nationalIDKeys = []string{
	"formResponses.nationalIdNumber",
	"formResponses.nationalId",
	"nationalId",
}

// Classify decides which check, if any, applies to the application.
// Government employment takes precedence over the account-holder flag.
func Classify(app *domain.Application) Category {
	if employer, ok := app.Form.FirstString(employerKeys...); ok {
		lowered := strings.ToLower(employer)
		for _, marker := range governmentMarkers {
			if strings.Contains(lowered, marker) {
				return CategorySSB
			}
		}
	}

	if governmentEmployerType(app.Form) {
		return CategorySSB
	}

	if app.Form.Bool("hasAccount") {
		return CategoryFCB
	}

	return CategoryNone
}

// governmentEmployerType handles the two shapes the structured employer
// type arrives in: the plain string "government", or a flag map like
// {"government": true}.
func governmentEmployerType(form domain.Form) bool {
	for _, key := range []string{"formResponses.employerType", "employerType"} {
		v, ok := form.Lookup(key)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.EqualFold(t, "government") {
				return true
			}
		case map[string]any:
			if flag, ok := t["government"].(bool); ok && flag {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// ROUTER
// =============================================================================

// Router dispatches one application to its check and persists the outcome.
type Router struct {
	SSB          SSBClient
	FCB          FCBClient
	Applications domain.ApplicationStore

	// Timeout bounds each external call. Zero means no extra deadline.
	Timeout time.Duration
}

func NewRouter(ssb SSBClient, fcb FCBClient, apps domain.ApplicationStore, timeout time.Duration) *Router {
	return &Router{SSB: ssb, FCB: fcb, Applications: apps, Timeout: timeout}
}

// Run classifies and checks a single application. Collaborator failures
// are mapped to the channel's failure status, never propagated; only
// persistence failures surface as errors.
func (r *Router) Run(ctx context.Context, app *domain.Application) (Outcome, error) {
	log.Printf("[EligibilityRouter] Starting checks for application %s", app.ID)

	switch Classify(app) {
	case CategorySSB:
		return r.runSSB(ctx, app)
	case CategoryFCB:
		return r.runFCB(ctx, app)
	default:
		log.Printf("[EligibilityRouter] No automated check applicable for %s", app.ID)
		return Outcome{Category: CategoryNone, Skipped: "no check applicable"}, nil
	}
}

func (r *Router) runSSB(ctx context.Context, app *domain.Application) (Outcome, error) {
	log.Printf("[EligibilityRouter] Performing SSB check for %s", app.ID)

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	status := domain.CheckFailure
	var raw map[string]any

	resp, err := r.SSB.SubmitLoanApplication(callCtx, app)
	if err != nil {
		// Transport failure is an SSB failure, never a silent success.
		log.Printf("[EligibilityRouter] SSB call failed for %s: %v", app.ID, err)
		raw = map[string]any{"error": err.Error()}
	} else {
		raw = resp.Raw
		if resp.Success && resp.Status != "rejected" {
			status = domain.CheckSuccess
		}
	}

	if err := r.Applications.SetCheckOutcome(ctx, app.ID, domain.CheckSSB, status, raw); err != nil {
		return Outcome{}, fmt.Errorf("persist SSB outcome for %s: %w", app.ID, err)
	}
	return Outcome{Category: CategorySSB, Status: status}, nil
}

func (r *Router) runFCB(ctx context.Context, app *domain.Application) (Outcome, error) {
	log.Printf("[EligibilityRouter] Performing FCB check for %s", app.ID)

	nationalID, ok := app.Form.FirstString(nationalIDKeys...)
	if !ok {
		// Input absence: skip without writing anything.
		log.Printf("[EligibilityRouter] %v on %s", domain.ErrMissingNationalID, app.ID)
		return Outcome{Category: CategoryFCB, Skipped: "no national id"}, nil
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	status := domain.CheckPending
	var raw map[string]any

	resp, err := r.FCB.CheckCreditStatus(callCtx, nationalID)
	if err != nil {
		// Transport failure leaves the outcome pending for manual review.
		log.Printf("[EligibilityRouter] FCB call failed for %s: %v", app.ID, err)
		raw = map[string]any{"error": err.Error()}
	} else {
		raw = resp.Raw
		status = mapFCBStatus(resp)
	}

	if err := r.Applications.SetCheckOutcome(ctx, app.ID, domain.CheckFCB, status, raw); err != nil {
		return Outcome{}, fmt.Errorf("persist FCB outcome for %s: %w", app.ID, err)
	}
	return Outcome{Category: CategoryFCB, Status: status}, nil
}

func mapFCBStatus(resp *FCBResponse) domain.CheckStatus {
	switch strings.ToUpper(resp.Status) {
	case "GOOD", "CLEAN", "LOW RISK":
		return domain.CheckApproved
	case "ADVERSE", "DEFAULT", "HIGH RISK":
		return domain.CheckBlacklisted
	}
	// Unrecognized status: a positive score is treated as approved.
	if resp.Score.IsPositive() {
		return domain.CheckApproved
	}
	return domain.CheckPending
}

func (r *Router) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.Timeout)
}
