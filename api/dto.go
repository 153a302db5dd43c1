/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  All amounts are serialized as fixed two-decimal strings ("1250.00"),
  never floats. Clients that need arithmetic should parse them with a
  decimal library on their side too.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/atlas/backoffice-engine/commission"
	"github.com/atlas/backoffice-engine/domain"
)

// =============================================================================
// AGENT TYPES
// =============================================================================

// AgentDTO represents an agent in API responses.
type AgentDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	IsActive       bool   `json:"is_active"`
	CommissionRate string `json:"commission_rate,omitempty"`
}

// CreateAgentRequest is the request to create an agent. An omitted ID is
// generated server-side.
type CreateAgentRequest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	IsActive       *bool   `json:"is_active,omitempty"`
	CommissionRate *string `json:"commission_rate,omitempty"`
}

func toAgentDTO(a *domain.Agent) AgentDTO {
	dto := AgentDTO{
		ID:       string(a.ID),
		Name:     a.Name,
		Type:     string(a.Type),
		IsActive: a.IsActive,
	}
	if a.CommissionRate != nil {
		dto.CommissionRate = a.CommissionRate.String()
	}
	return dto
}

// =============================================================================
// TEAM TYPES
// =============================================================================

type TeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateTeamRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AddMemberRequest links an agent to a team. Role defaults to "member".
type AddMemberRequest struct {
	AgentID  string `json:"agent_id"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type MembershipDTO struct {
	TeamID   string `json:"team_id"`
	AgentID  string `json:"agent_id"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// =============================================================================
// APPLICATION TYPES
// =============================================================================

// ApplicationDTO represents an application with its latest check outcome.
type ApplicationDTO struct {
	ID            string         `json:"id"`
	ReferenceCode string         `json:"reference_code"`
	Form          map[string]any `json:"form"`
	CheckType     string         `json:"check_type,omitempty"`
	CheckStatus   string         `json:"check_status,omitempty"`
	CheckResult   map[string]any `json:"check_result,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
}

type CreateApplicationRequest struct {
	ID            string         `json:"id"`
	ReferenceCode string         `json:"reference_code"`
	Form          map[string]any `json:"form"`
}

// CheckOutcomeDTO reports what the eligibility router did.
type CheckOutcomeDTO struct {
	ApplicationID string `json:"application_id"`
	Category      string `json:"category"`
	Status        string `json:"status,omitempty"`
	Skipped       string `json:"skipped,omitempty"`
}

func toApplicationDTO(a *domain.Application) ApplicationDTO {
	dto := ApplicationDTO{
		ID:            string(a.ID),
		ReferenceCode: a.ReferenceCode,
		Form:          a.Form,
		CheckType:     string(a.CheckType),
		CheckStatus:   string(a.CheckStatus),
		CheckResult:   a.CheckResult,
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		dto.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// COMMISSION TYPES
// =============================================================================

// CommissionDTO represents a ledger entry in API responses.
type CommissionDTO struct {
	ID              string            `json:"id"`
	AgentID         string            `json:"agent_id"`
	ApplicationID   string            `json:"application_id,omitempty"`
	ReferenceNumber string            `json:"reference_number"`
	Type            string            `json:"type"`
	Amount          string            `json:"amount"`
	Rate            string            `json:"rate"`
	BaseAmount      string            `json:"base_amount"`
	Status          string            `json:"status"`
	EarnedDate      string            `json:"earned_date"`
	Notes           string            `json:"notes,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       string            `json:"created_at,omitempty"`
}

func toCommissionDTO(c *domain.Commission) CommissionDTO {
	dto := CommissionDTO{
		ID:              string(c.ID),
		AgentID:         string(c.AgentID),
		ApplicationID:   string(c.ApplicationID),
		ReferenceNumber: c.ReferenceNumber,
		Type:            string(c.Type),
		Amount:          c.Amount.StringFixed(2),
		Rate:            c.Rate.String(),
		BaseAmount:      c.BaseAmount.StringFixed(2),
		Status:          string(c.Status),
		EarnedDate:      c.EarnedDate.Format("2006-01-02"),
		Notes:           c.Notes,
		Metadata:        c.Metadata,
	}
	if !c.CreatedAt.IsZero() {
		dto.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// MONTHLY RUN TYPES
// =============================================================================

// RunSummaryDTO is the serialized monthly run result.
type RunSummaryDTO struct {
	PeriodStart            string          `json:"period_start"`
	PeriodEnd              string          `json:"period_end"`
	ApplicationCommissions string          `json:"application_commissions"`
	SupervisorIncentives   string          `json:"supervisor_incentives"`
	HardshipAllowances     string          `json:"hardship_allowances"`
	Total                  string          `json:"total"`
	AgentsProcessed        int             `json:"agents_processed"`
	Errors                 []AgentErrorDTO `json:"errors,omitempty"`
}

type AgentErrorDTO struct {
	AgentID string `json:"agent_id"`
	Message string `json:"message"`
}

func toRunSummaryDTO(s *commission.Summary) RunSummaryDTO {
	dto := RunSummaryDTO{
		PeriodStart:            s.Period.Start.Format("2006-01-02"),
		PeriodEnd:              s.Period.End.Format("2006-01-02"),
		ApplicationCommissions: s.ApplicationCommissions.StringFixed(2),
		SupervisorIncentives:   s.SupervisorIncentives.StringFixed(2),
		HardshipAllowances:     s.HardshipAllowances.StringFixed(2),
		Total:                  s.Total.StringFixed(2),
		AgentsProcessed:        s.AgentsProcessed,
	}
	for _, e := range s.Errors {
		dto.Errors = append(dto.Errors, AgentErrorDTO{
			AgentID: string(e.AgentID),
			Message: e.Message,
		})
	}
	return dto
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
