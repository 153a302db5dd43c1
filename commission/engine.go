/*
Package commission turns application and agent facts into money.

PURPOSE:
  Implements the commission calculation engine: per-application
  commission, supervisor override incentive, and field-agent hardship
  allowance, plus the persisting variants that write ledger entries with
  category-prefixed reference numbers.

CALCULATION RULES:
  Application commission:
    principal / 12 * rate% regardless of the actual loan term. The
    12-month standardization is deliberate: commission does not grow
    with longer terms.

  Supervisor incentive:
    10% of every other active team member's non-cancelled commission
    total across all teams the agent actively supervises. An agent who
    appears under the same supervisor through two overlapping teams is
    counted twice. That is the documented behavior, not an accident;
    see the engine tests.

  Hardship allowance:
    Field agents only. 2.00 per working day, 3.00 when the agent also
    actively supervises a team.

ROUNDING:
  All money results round half up to 2 decimal places.

SEE ALSO:
  - monthly.go: Batch run across all active agents
  - domain/rates.go: Rate table
*/
package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas/backoffice-engine/domain"
)

// Loan principal candidates, probed in order; first non-empty wins.
var loanAmountKeys = []string{
	"loanAmount",
	"loan_amount",
	"amount",
	"creditAmount",
	"credit_amount",
}

var (
	twelve          = decimal.NewFromInt(12)
	hundred         = decimal.NewFromInt(100)
	supervisorShare = domain.MustDecimal("0.10")
	supervisorRate  = domain.MustDecimal("10")

	hardshipDailyRate           = domain.MustDecimal("2")
	hardshipSupervisorDailyRate = domain.MustDecimal("3")
)

// Engine computes and records commissions.
type Engine struct {
	agents domain.AgentDirectory
	ledger domain.CommissionLedger

	// now is swappable for deterministic reference numbers in tests.
	now func() time.Time
}

func NewEngine(agents domain.AgentDirectory, ledger domain.CommissionLedger) *Engine {
	return &Engine{agents: agents, ledger: ledger, now: time.Now}
}

// WithNow returns a copy of the engine using the given clock.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// withLedger rebinds the engine to a transactional ledger.
func (e *Engine) withLedger(ledger domain.CommissionLedger) *Engine {
	clone := *e
	clone.ledger = ledger
	return &clone
}

// =============================================================================
// PURE CALCULATIONS
// =============================================================================

// LoanAmount extracts the loan principal from the application form.
// Zero when no candidate field is present.
func LoanAmount(app *domain.Application) decimal.Decimal {
	amount, ok := app.Form.FirstDecimal(loanAmountKeys...)
	if !ok {
		return decimal.Zero
	}
	return amount
}

// Calculate computes the commission an agent earns on an application:
// the 12-month standardized monthly installment times the agent's rate.
// Zero when the principal is missing or not positive - a guard, not an
// error.
func (e *Engine) Calculate(app *domain.Application, agent *domain.Agent) decimal.Decimal {
	principal := LoanAmount(app)
	if !principal.IsPositive() {
		return decimal.Zero
	}

	installment := principal.Div(twelve)
	rate := domain.AgentRate(agent)
	return domain.Round2(installment.Mul(rate).Div(hundred))
}

// SupervisorCommission computes the 10% override on subordinates'
// commissions for the period: for every team the supervisor actively
// supervises, every other active member's non-cancelled commission total.
func (e *Engine) SupervisorCommission(ctx context.Context, supervisor *domain.Agent, period domain.Period) (decimal.Decimal, error) {
	total, err := e.subordinateTotal(ctx, supervisor, period)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Round2(total.Mul(supervisorShare)), nil
}

// subordinateTotal sums subordinates' non-cancelled commissions across
// every actively supervised team. Members reached through two teams are
// summed twice.
func (e *Engine) subordinateTotal(ctx context.Context, supervisor *domain.Agent, period domain.Period) (decimal.Decimal, error) {
	if !period.Valid() {
		return decimal.Zero, domain.ErrInvalidPeriod
	}

	teams, err := e.agents.SupervisorTeams(ctx, supervisor.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("supervisor teams for %s: %w", supervisor.ID, err)
	}

	subordinateTotal := decimal.Zero
	for _, team := range teams {
		members, err := e.agents.ActiveMembers(ctx, team)
		if err != nil {
			return decimal.Zero, fmt.Errorf("members of team %s: %w", team, err)
		}
		for _, member := range members {
			if member == supervisor.ID {
				continue
			}
			total, err := e.ledger.AgentPeriodTotal(ctx, member, period)
			if err != nil {
				return decimal.Zero, fmt.Errorf("period total for %s: %w", member, err)
			}
			subordinateTotal = subordinateTotal.Add(total)
		}
	}

	return subordinateTotal, nil
}

// HardshipAllowance computes the per-working-day stipend for field
// agents. Non-field agents get zero regardless of team role.
func (e *Engine) HardshipAllowance(ctx context.Context, agent *domain.Agent, period domain.Period) (decimal.Decimal, error) {
	if agent.Type != domain.AgentField {
		return decimal.Zero, nil
	}

	rate, _, err := e.hardshipRate(ctx, agent)
	if err != nil {
		return decimal.Zero, err
	}

	days := decimal.NewFromInt(int64(domain.PeriodWorkingDays(period)))
	return domain.Round2(days.Mul(rate)), nil
}

func (e *Engine) hardshipRate(ctx context.Context, agent *domain.Agent) (decimal.Decimal, bool, error) {
	isSupervisor, err := e.agents.HasActiveSupervisorRole(ctx, agent.ID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("supervisor role for %s: %w", agent.ID, err)
	}
	if isSupervisor {
		return hardshipSupervisorDailyRate, true, nil
	}
	return hardshipDailyRate, false, nil
}

// =============================================================================
// PERSISTING VARIANTS
// =============================================================================

// RecordCommission calculates and writes the application commission.
// A zero amount still produces a record: the ledger entry documents that
// the application was processed at a zero-yield rate.
func (e *Engine) RecordCommission(ctx context.Context, app *domain.Application, agent *domain.Agent) (*domain.Commission, error) {
	c := domain.Commission{
		AgentID:         agent.ID,
		ApplicationID:   app.ID,
		ReferenceNumber: e.reference("COM", agent.ID),
		Type:            domain.CommissionApplication,
		Amount:          e.Calculate(app, agent),
		Rate:            domain.AgentRate(agent),
		BaseAmount:      LoanAmount(app),
		Status:          domain.StatusPending,
		EarnedDate:      e.now().UTC(),
		Notes:           "Commission for application: " + app.ReferenceCode,
	}

	if err := e.ledger.Record(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordSupervisorIncentive writes the supervisor override for the
// period. Returns (nil, nil) when the computed amount is not positive -
// no subordinates earned anything, so there is nothing to record.
func (e *Engine) RecordSupervisorIncentive(ctx context.Context, supervisor *domain.Agent, period domain.Period) (*domain.Commission, error) {
	base, err := e.subordinateTotal(ctx, supervisor, period)
	if err != nil {
		return nil, err
	}
	amount := domain.Round2(base.Mul(supervisorShare))
	if !amount.IsPositive() {
		return nil, nil
	}

	c := domain.Commission{
		AgentID:         supervisor.ID,
		ReferenceNumber: e.reference("SUP", supervisor.ID),
		Type:            domain.CommissionBonus,
		Amount:          amount,
		Rate:            supervisorRate,
		BaseAmount:      domain.Round2(base),
		Status:          domain.StatusPending,
		EarnedDate:      period.End,
		Notes: fmt.Sprintf("Supervisor incentive for period: %s to %s",
			period.Start.Format("2006-01-02"), period.End.Format("2006-01-02")),
		Metadata: map[string]string{
			"incentive_type": "supervisor",
			"period_start":   period.Start.Format("2006-01-02"),
			"period_end":     period.End.Format("2006-01-02"),
		},
	}

	if err := e.ledger.Record(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordHardshipAllowance writes the field-agent allowance for the
// period. Returns (nil, nil) when the amount is not positive (non-field
// agent, or a period with no working days).
func (e *Engine) RecordHardshipAllowance(ctx context.Context, agent *domain.Agent, period domain.Period) (*domain.Commission, error) {
	amount, err := e.HardshipAllowance(ctx, agent, period)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, nil
	}

	rate, isSupervisor, err := e.hardshipRate(ctx, agent)
	if err != nil {
		return nil, err
	}
	days := domain.PeriodWorkingDays(period)

	c := domain.Commission{
		AgentID:         agent.ID,
		ReferenceNumber: e.reference("HARD", agent.ID),
		Type:            domain.CommissionBonus,
		Amount:          amount,
		Rate:            rate,
		BaseAmount:      decimal.NewFromInt(int64(days)),
		Status:          domain.StatusPending,
		EarnedDate:      period.End,
		Notes: fmt.Sprintf("Hardship allowance for %d working days at $%s/day",
			days, rate.StringFixed(2)),
		Metadata: map[string]string{
			"allowance_type": "hardship",
			"working_days":   fmt.Sprintf("%d", days),
			"daily_rate":     rate.StringFixed(2),
			"is_supervisor":  fmt.Sprintf("%t", isSupervisor),
			"period_start":   period.Start.Format("2006-01-02"),
			"period_end":     period.End.Format("2006-01-02"),
		},
	}

	if err := e.ledger.Record(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// reference builds the human-readable ledger key: {PREFIX}-{timestamp}-{agentID}.
func (e *Engine) reference(prefix string, agent domain.AgentID) string {
	return fmt.Sprintf("%s-%s-%s", prefix, e.now().UTC().Format("20060102150405"), agent)
}
