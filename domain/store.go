/*
store.go - Persistence interfaces for agents, commissions, and applications

PURPOSE:
  Defines the interface between the engine and the database. Commission
  writes are append-only from this engine's point of view: status
  transitions belong to payroll, which lives outside this module.

KEY INTERFACES:
  AgentDirectory:   Agent and team-membership reads
  CommissionLedger: Commission writes and period sums
  ApplicationStore: Application reads and check-outcome writes
  TxLedger:         CommissionLedger with transaction support

AGGREGATE CONTRACT:
  Every sum excludes cancelled commissions. Period filters compare the
  earned date inclusively on both ends.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
*/
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGENT DIRECTORY - Agents, teams, memberships
// =============================================================================

type AgentDirectory interface {
	// Agent returns an agent by ID, or ErrAgentNotFound.
	Agent(ctx context.Context, id AgentID) (*Agent, error)

	// ActiveAgents returns every agent with IsActive set.
	ActiveAgents(ctx context.Context) ([]Agent, error)

	// SupervisorTeams returns the teams where the agent holds an active
	// supervisor membership.
	SupervisorTeams(ctx context.Context, id AgentID) ([]TeamID, error)

	// ActiveMembers returns the agents with an active membership on the
	// team, regardless of role.
	ActiveMembers(ctx context.Context, team TeamID) ([]AgentID, error)

	// HasActiveSupervisorRole reports whether the agent supervises any
	// team through an active membership.
	HasActiveSupervisorRole(ctx context.Context, id AgentID) (bool, error)
}

// =============================================================================
// COMMISSION LEDGER - Writes and period sums
// =============================================================================

type CommissionLedger interface {
	// Record persists a commission. Returns DuplicateReferenceError when
	// the reference number is taken.
	Record(ctx context.Context, c Commission) error

	// ByReference returns a commission by reference number, or nil.
	ByReference(ctx context.Context, reference string) (*Commission, error)

	// ByAgent returns all commissions for an agent, newest first.
	ByAgent(ctx context.Context, id AgentID) ([]Commission, error)

	// AgentPeriodTotal sums the agent's non-cancelled commission amounts
	// with earned dates in the period.
	AgentPeriodTotal(ctx context.Context, id AgentID, p Period) (decimal.Decimal, error)

	// TypePeriodTotal sums non-cancelled amounts of one commission type
	// across all agents for the period.
	TypePeriodTotal(ctx context.Context, t CommissionType, p Period) (decimal.Decimal, error)

	// PrefixPeriodTotal sums non-cancelled amounts whose reference number
	// carries the given category prefix ("COM", "SUP", "HARD").
	PrefixPeriodTotal(ctx context.Context, prefix string, p Period) (decimal.Decimal, error)
}

// TxLedger wraps CommissionLedger with transaction support. The monthly
// run writes each agent's records inside one transaction so aggregation
// reads never observe a half-written agent.
type TxLedger interface {
	CommissionLedger

	// WithTx executes fn within a transaction. If fn returns an error,
	// the transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(CommissionLedger) error) error
}

// =============================================================================
// APPLICATION STORE - Reads and check-outcome writes
// =============================================================================

type ApplicationStore interface {
	// Application returns an application by ID, or ErrApplicationNotFound.
	Application(ctx context.Context, id ApplicationID) (*Application, error)

	// Save inserts or updates an application record.
	Save(ctx context.Context, a Application) error

	// SetCheckOutcome overwrites the application's check columns with the
	// latest outcome. No history is retained.
	SetCheckOutcome(ctx context.Context, id ApplicationID, t CheckType, s CheckStatus, result map[string]any) error
}
