/*
handlers.go - HTTP API handlers for the back-office engine

PURPOSE:
  Exposes the commission engine and eligibility router via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Agents:
    GET    /api/agents                    List active agents
    POST   /api/agents                    Create agent
    GET    /api/agents/{id}               Get agent details
    GET    /api/agents/{id}/commissions   Agent's ledger entries

  Teams:
    POST   /api/teams                     Create team
    POST   /api/teams/{id}/members        Add/update a membership

  Applications:
    POST   /api/applications              Create application
    GET    /api/applications/{id}         Get application with check outcome
    POST   /api/applications/{id}/check   Run the eligibility check
    POST   /api/applications/{id}/commission?agent={agentID}
                                          Record the application commission

  Monthly:
    POST   /api/runs/monthly?month=YYYY-MM    Execute the monthly batch
    GET    /api/reports/monthly?month=YYYY-MM Aggregate without writing

  Admin:
    POST   /api/admin/reset               Clear all data (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate reference number)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas/backoffice-engine/commission"
	"github.com/atlas/backoffice-engine/domain"
	"github.com/atlas/backoffice-engine/eligibility"
	"github.com/atlas/backoffice-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *commission.Engine
	Runner *commission.MonthlyRunner
	Checks *eligibility.Router
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store *sqlite.Store, engine *commission.Engine, runner *commission.MonthlyRunner, checks *eligibility.Router) *Handler {
	return &Handler{Store: store, Engine: engine, Runner: runner, Checks: checks}
}

// =============================================================================
// AGENT HANDLERS
// =============================================================================

// ListAgents returns all active agents.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Store.ActiveAgents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agents", err)
		return
	}

	dtos := make([]AgentDTO, len(agents))
	for i := range agents {
		dtos[i] = toAgentDTO(&agents[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAgent returns a single agent.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(chi.URLParam(r, "id"))

	agent, err := h.Store.Agent(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Agent not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get agent", err)
		return
	}

	writeJSON(w, http.StatusOK, toAgentDTO(agent))
}

// CreateAgent creates a new agent.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "Name and type are required", nil)
		return
	}

	agent := domain.Agent{
		ID:       domain.AgentID(req.ID),
		Name:     req.Name,
		Type:     domain.AgentType(req.Type),
		IsActive: true,
	}
	if agent.ID == "" {
		agent.ID = domain.AgentID(uuid.NewString())
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}
	if req.CommissionRate != nil {
		rate, err := decimal.NewFromString(*req.CommissionRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid commission_rate", err)
			return
		}
		agent.CommissionRate = &rate
	}

	if err := h.Store.SaveAgent(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create agent", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAgentDTO(&agent))
}

// ListAgentCommissions returns an agent's ledger entries, newest first.
func (h *Handler) ListAgentCommissions(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(chi.URLParam(r, "id"))

	if _, err := h.Store.Agent(r.Context(), id); err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Agent not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get agent", err)
		return
	}

	commissions, err := h.Store.ByAgent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list commissions", err)
		return
	}

	dtos := make([]CommissionDTO, len(commissions))
	for i := range commissions {
		dtos[i] = toCommissionDTO(&commissions[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TEAM HANDLERS
// =============================================================================

// CreateTeam creates a new team.
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	team := domain.Team{ID: domain.TeamID(req.ID), Name: req.Name}
	if team.ID == "" {
		team.ID = domain.TeamID(uuid.NewString())
	}

	if err := h.Store.SaveTeam(r.Context(), team); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create team", err)
		return
	}

	writeJSON(w, http.StatusCreated, TeamDTO{ID: string(team.ID), Name: team.Name})
}

// AddMember adds or updates an agent's membership in a team.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID := domain.TeamID(chi.URLParam(r, "id"))

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required", nil)
		return
	}

	role := domain.TeamRole(req.Role)
	switch role {
	case "":
		role = domain.RoleMember
	case domain.RoleMember, domain.RoleSupervisor:
	default:
		writeError(w, http.StatusBadRequest, "Role must be 'member' or 'supervisor'", nil)
		return
	}

	if _, err := h.Store.Agent(r.Context(), domain.AgentID(req.AgentID)); err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Agent not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get agent", err)
		return
	}

	m := domain.TeamMembership{
		TeamID:   teamID,
		AgentID:  domain.AgentID(req.AgentID),
		Role:     role,
		IsActive: true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := h.Store.SaveMembership(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save membership", err)
		return
	}

	writeJSON(w, http.StatusCreated, MembershipDTO{
		TeamID:   string(m.TeamID),
		AgentID:  string(m.AgentID),
		Role:     string(m.Role),
		IsActive: m.IsActive,
	})
}

// =============================================================================
// APPLICATION HANDLERS
// =============================================================================

// CreateApplication creates a new application.
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ReferenceCode == "" {
		writeError(w, http.StatusBadRequest, "reference_code is required", nil)
		return
	}

	app := domain.Application{
		ID:            domain.ApplicationID(req.ID),
		ReferenceCode: req.ReferenceCode,
		Form:          domain.Form(req.Form),
	}
	if app.ID == "" {
		app.ID = domain.ApplicationID(uuid.NewString())
	}

	if err := h.Store.Save(r.Context(), app); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create application", err)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationDTO(&app))
}

// GetApplication returns an application with its latest check outcome.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "id"))

	app, err := h.Store.Application(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Application not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get application", err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationDTO(app))
}

// RunCheck classifies the application and performs its eligibility check.
func (h *Handler) RunCheck(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "id"))

	app, err := h.Store.Application(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Application not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get application", err)
		return
	}

	outcome, err := h.Checks.Run(r.Context(), app)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist check outcome", err)
		return
	}

	writeJSON(w, http.StatusOK, CheckOutcomeDTO{
		ApplicationID: string(app.ID),
		Category:      string(outcome.Category),
		Status:        string(outcome.Status),
		Skipped:       outcome.Skipped,
	})
}

// RecordCommission calculates and records the application commission for
// the agent named in the ?agent= query parameter.
func (h *Handler) RecordCommission(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "id"))
	agentID := domain.AgentID(r.URL.Query().Get("agent"))
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent query parameter is required", nil)
		return
	}

	app, err := h.Store.Application(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Application not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get application", err)
		return
	}

	agent, err := h.Store.Agent(r.Context(), agentID)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Agent not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get agent", err)
		return
	}

	c, err := h.Engine.RecordCommission(r.Context(), app, agent)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			writeError(w, http.StatusConflict, "Commission reference already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record commission", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommissionDTO(c))
}

// =============================================================================
// MONTHLY RUN HANDLERS
// =============================================================================

// RunMonthly executes the monthly batch for ?month=YYYY-MM (default: the
// current month).
func (h *Handler) RunMonthly(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	summary, err := h.Runner.Run(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Monthly run failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunSummaryDTO(summary))
}

// MonthlyReport aggregates an already-written month without creating
// records.
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	summary, err := h.Runner.Report(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunSummaryDTO(summary))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
