/*
monthly.go - Monthly commission batch across all active agents

PURPOSE:
  For a calendar month, creates the supervisor incentive for every agent
  with an active supervisor role and the hardship allowance for every
  field agent, then reports the period's totals.

FAILURE ISOLATION:
  Each agent is processed independently. A persistence failure for one
  agent (say, a duplicate reference) lands in Summary.Errors; the rest of
  the batch keeps going. The aggregate step runs only after every worker
  has finished - Wait() is the barrier - so the report never observes a
  half-written batch.

CONCURRENCY:
  Agents share no mutable state, so they are processed with a bounded
  errgroup. Each agent's writes happen inside one ledger transaction.
*/
package commission

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/atlas/backoffice-engine/domain"
)

// =============================================================================
// RUN SUMMARY
// =============================================================================

// Summary is the result of a monthly run. Total always equals the sum of
// the three category subtotals.
type Summary struct {
	Period                 domain.Period   `json:"period"`
	ApplicationCommissions decimal.Decimal `json:"application_commissions"`
	SupervisorIncentives   decimal.Decimal `json:"supervisor_incentives"`
	HardshipAllowances     decimal.Decimal `json:"hardship_allowances"`
	Total                  decimal.Decimal `json:"total"`
	AgentsProcessed        int             `json:"agents_processed"`
	Errors                 []AgentError    `json:"errors,omitempty"`
}

// AgentError records a single agent's failure without failing the run.
type AgentError struct {
	AgentID domain.AgentID `json:"agent_id"`
	Message string         `json:"message"`
}

// =============================================================================
// MONTHLY RUNNER
// =============================================================================

// MonthlyRunner drives the per-agent incentive and allowance creation.
type MonthlyRunner struct {
	Engine *Engine
	Agents domain.AgentDirectory
	Ledger domain.TxLedger

	// Concurrency bounds the number of agents processed at once.
	// Values below 1 mean sequential.
	Concurrency int
}

func NewMonthlyRunner(engine *Engine, agents domain.AgentDirectory, ledger domain.TxLedger) *MonthlyRunner {
	return &MonthlyRunner{Engine: engine, Agents: agents, Ledger: ledger, Concurrency: 4}
}

// Run processes the calendar month containing the given date and returns
// the reconciling summary. The returned error covers only run-level
// failures (listing agents, aggregate reads); per-agent failures are in
// Summary.Errors.
func (r *MonthlyRunner) Run(ctx context.Context, month time.Time) (*Summary, error) {
	period := domain.MonthOf(month)
	log.Printf("[MonthlyRun] Starting for %s", period)

	agents, err := r.Agents.ActiveAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}

	summary := &Summary{
		Period:                 period,
		ApplicationCommissions: decimal.Zero,
		SupervisorIncentives:   decimal.Zero,
		HardshipAllowances:     decimal.Zero,
		Total:                  decimal.Zero,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, agent := range agents {
		agent := agent
		g.Go(func() error {
			incentive, allowance, err := r.processAgent(gctx, &agent, period)

			mu.Lock()
			defer mu.Unlock()
			summary.AgentsProcessed++
			if err != nil {
				log.Printf("[MonthlyRun] Agent %s failed: %v", agent.ID, err)
				summary.Errors = append(summary.Errors, AgentError{AgentID: agent.ID, Message: err.Error()})
				return nil // isolate: never abort the batch
			}
			summary.SupervisorIncentives = summary.SupervisorIncentives.Add(incentive)
			summary.HardshipAllowances = summary.HardshipAllowances.Add(allowance)
			return nil
		})
	}

	// Barrier: aggregation must not start before every write landed.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applications, err := r.Ledger.TypePeriodTotal(ctx, domain.CommissionApplication, period)
	if err != nil {
		return nil, fmt.Errorf("sum application commissions: %w", err)
	}
	summary.ApplicationCommissions = applications
	summary.Total = summary.ApplicationCommissions.
		Add(summary.SupervisorIncentives).
		Add(summary.HardshipAllowances)

	log.Printf("[MonthlyRun] Completed: %d agents, total %s, %d errors",
		summary.AgentsProcessed, summary.Total.StringFixed(2), len(summary.Errors))
	return summary, nil
}

// processAgent creates the agent's records inside one transaction and
// returns the amounts written (zero when nothing applied).
func (r *MonthlyRunner) processAgent(ctx context.Context, agent *domain.Agent, period domain.Period) (incentive, allowance decimal.Decimal, err error) {
	incentive, allowance = decimal.Zero, decimal.Zero

	err = r.Ledger.WithTx(ctx, func(ledger domain.CommissionLedger) error {
		engine := r.Engine.withLedger(ledger)

		supervises, err := r.Agents.HasActiveSupervisorRole(ctx, agent.ID)
		if err != nil {
			return err
		}
		if supervises {
			c, err := engine.RecordSupervisorIncentive(ctx, agent, period)
			if err != nil {
				return err
			}
			if c != nil {
				incentive = c.Amount
			}
		}

		if agent.Type == domain.AgentField {
			c, err := engine.RecordHardshipAllowance(ctx, agent, period)
			if err != nil {
				return err
			}
			if c != nil {
				allowance = c.Amount
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return incentive, allowance, nil
}

// Report aggregates an already-written month without creating records.
// Categories are recovered from the reference-number prefixes the engine
// stamps at write time.
func (r *MonthlyRunner) Report(ctx context.Context, month time.Time) (*Summary, error) {
	period := domain.MonthOf(month)

	applications, err := r.Ledger.TypePeriodTotal(ctx, domain.CommissionApplication, period)
	if err != nil {
		return nil, fmt.Errorf("sum application commissions: %w", err)
	}
	incentives, err := r.Ledger.PrefixPeriodTotal(ctx, "SUP", period)
	if err != nil {
		return nil, fmt.Errorf("sum supervisor incentives: %w", err)
	}
	allowances, err := r.Ledger.PrefixPeriodTotal(ctx, "HARD", period)
	if err != nil {
		return nil, fmt.Errorf("sum hardship allowances: %w", err)
	}

	agents, err := r.Agents.ActiveAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}

	return &Summary{
		Period:                 period,
		ApplicationCommissions: applications,
		SupervisorIncentives:   incentives,
		HardshipAllowances:     allowances,
		Total:                  applications.Add(incentives).Add(allowances),
		AgentsProcessed:        len(agents),
	}, nil
}
