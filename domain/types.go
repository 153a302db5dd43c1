/*
Package domain provides the core types for the agent back-office engine.

PURPOSE:
  This package contains the records and value types shared by the
  commission engine, the eligibility check router, and the storage layer:
  agents, team memberships, commission ledger entries, and loan/account
  applications.

KEY CONCEPTS IN THIS FILE (types.go):
  - Agent: A sales/referral actor earning commission
  - TeamMembership: Agent-to-team link carrying role and active flag
  - Commission: An immutable ledger entry recording earned money
  - Application: An intake record with its latest check outcome

DESIGN PRINCIPLES:
  1. Immutability: Commissions are written once; only status transitions
     (handled by payroll, outside this engine) ever touch them again
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing agent/team IDs
  4. Auditability: Every commission has a reference number, notes, metadata

SEE ALSO:
  - rates.go: Commission rate table by agent type
  - form.go: Typed access into the unstructured application form
  - store.go: Persistence interfaces
*/
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AgentID string
type TeamID string
type ApplicationID string
type CommissionID string

// =============================================================================
// AGENT - Commission-earning actor
// =============================================================================

type AgentType string

const (
	AgentOnline AgentType = "online"
	AgentField  AgentType = "field"
	AgentDirect AgentType = "direct"
)

// Agent is a sales/referral actor. Type drives the commission rate;
// agents with a non-standard type may carry their own CommissionRate.
type Agent struct {
	ID       AgentID
	Name     string
	Type     AgentType
	IsActive bool

	// CommissionRate overrides the rate table for unrecognized agent types.
	// Nil means "use the table default".
	CommissionRate *decimal.Decimal
}

// =============================================================================
// TEAM MEMBERSHIP - Agent-to-team link with role
// =============================================================================

type TeamRole string

const (
	RoleMember     TeamRole = "member"
	RoleSupervisor TeamRole = "supervisor"
)

// TeamMembership links an agent to a team. An agent may supervise several
// teams at once; only active memberships count toward incentives.
type TeamMembership struct {
	TeamID   TeamID
	AgentID  AgentID
	Role     TeamRole
	IsActive bool
}

type Team struct {
	ID   TeamID
	Name string
}

// =============================================================================
// COMMISSION - Immutable ledger entry
// =============================================================================

type CommissionType string

const (
	CommissionApplication CommissionType = "application"
	CommissionBonus       CommissionType = "bonus"
)

type CommissionStatus string

const (
	StatusPending   CommissionStatus = "pending"
	StatusApproved  CommissionStatus = "approved"
	StatusPaid      CommissionStatus = "paid"
	StatusCancelled CommissionStatus = "cancelled"
)

// Commission is a ledger entry created by the commission engine.
// Cancelled commissions are excluded from every aggregate sum.
type Commission struct {
	ID              CommissionID
	AgentID         AgentID
	ApplicationID   ApplicationID // empty for period incentives
	ReferenceNumber string        // unique, category-prefixed (COM/SUP/HARD)
	Type            CommissionType
	Amount          decimal.Decimal
	Rate            decimal.Decimal
	BaseAmount      decimal.Decimal
	Status          CommissionStatus
	EarnedDate      time.Time
	Notes           string
	Metadata        map[string]string
	CreatedAt       time.Time
}

// =============================================================================
// APPLICATION - Intake record with latest check outcome
// =============================================================================

type CheckType string

const (
	CheckSSB CheckType = "SSB"
	CheckFCB CheckType = "FCB"
)

// CheckStatus is the normalized outcome of an automated check.
// SSB checks resolve to Success/Failure; FCB checks resolve to
// Approved/Blacklisted/Pending.
type CheckStatus string

const (
	CheckSuccess     CheckStatus = "S"
	CheckFailure     CheckStatus = "F"
	CheckApproved    CheckStatus = "A"
	CheckBlacklisted CheckStatus = "B"
	CheckPending     CheckStatus = "P"
)

// Application holds the subset of an intake record this engine cares
// about: the raw form document and the latest check outcome. Re-running
// a check overwrites the previous outcome; only the latest is kept.
type Application struct {
	ID            ApplicationID
	ReferenceCode string
	Form          Form

	CheckType   CheckType      // empty until a check has run
	CheckStatus CheckStatus    // empty until a check has run
	CheckResult map[string]any // raw collaborator response

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Checked reports whether any automated check has been recorded.
func (a *Application) Checked() bool { return a.CheckType != "" }

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Round2 rounds a money amount to 2 decimal places, half up.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustDecimal parses a decimal literal; zero on failure. For constants
// and store scanning only.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
