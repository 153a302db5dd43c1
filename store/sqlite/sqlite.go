/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (AgentDirectory, CommissionLedger,
  TxLedger, ApplicationStore) using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  agents:        Commission-earning actors
  teams:         Team records
  team_members:  Agent-to-team links carrying role and active flag
  commissions:   Write-once ledger of earned money
  applications:  Intake records with their latest check outcome

INVARIANTS ENFORCED HERE:
  - commissions.reference_number is UNIQUE; violations surface as
    domain.DuplicateReferenceError
  - every aggregate sum excludes cancelled commissions
  - check columns on applications are overwritten, never appended

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/backoffice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - domain/store.go: Interface definitions
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/atlas/backoffice-engine/domain"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == ":memory:" {
		// A plain :memory: DSN gives every pooled connection its own
		// private database; shared cache keeps them on one.
		dsn = "file::memory:?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Agents
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		commission_rate TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_active ON agents(is_active);

	-- Teams
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Team memberships (role and active flag live on the join)
	CREATE TABLE IF NOT EXISTS team_members (
		team_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (team_id, agent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_team_members_agent
		ON team_members(agent_id, role, is_active);

	-- Commissions (write-once ledger)
	CREATE TABLE IF NOT EXISTS commissions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		application_id TEXT,
		reference_number TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		rate TEXT NOT NULL,
		base_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		earned_date TEXT NOT NULL,
		notes TEXT,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: period sums by agent and by type
	CREATE INDEX IF NOT EXISTS idx_commissions_agent_date
		ON commissions(agent_id, earned_date);
	CREATE INDEX IF NOT EXISTS idx_commissions_type_date
		ON commissions(type, earned_date);
	CREATE INDEX IF NOT EXISTS idx_commissions_status
		ON commissions(status);

	-- Applications (latest check outcome only, no history)
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		reference_code TEXT NOT NULL,
		form_json TEXT NOT NULL,
		check_type TEXT,
		check_status TEXT,
		check_result_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_applications_check
		ON applications(check_type, check_status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// AGENT DIRECTORY (domain.AgentDirectory interface)
// =============================================================================

// SaveAgent inserts or updates an agent.
func (s *Store) SaveAgent(ctx context.Context, a domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = domain.AgentID(uuid.NewString())
	}

	var rate *string
	if a.CommissionRate != nil {
		r := a.CommissionRate.String()
		rate = &r
	}

	query := `
		INSERT INTO agents (id, name, type, commission_rate, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			commission_rate = excluded.commission_rate,
			is_active = excluded.is_active
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Type, rate, a.IsActive,
		time.Now().UTC().Format(timeFormat),
	)
	return err
}

// Agent returns an agent by ID.
func (s *Store) Agent(ctx context.Context, id domain.AgentID) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a domain.Agent
	var rate sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, type, commission_rate, is_active FROM agents WHERE id = ?",
		id,
	).Scan(&a.ID, &a.Name, &a.Type, &rate, &a.IsActive)

	if err == sql.ErrNoRows {
		return nil, domain.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}

	if rate.Valid {
		r := domain.MustDecimal(rate.String)
		a.CommissionRate = &r
	}
	return &a, nil
}

// ActiveAgents returns every agent with the active flag set.
func (s *Store) ActiveAgents(ctx context.Context) ([]domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type, commission_rate, is_active FROM agents WHERE is_active = TRUE ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var a domain.Agent
		var rate sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &rate, &a.IsActive); err != nil {
			return nil, err
		}
		if rate.Valid {
			r := domain.MustDecimal(rate.String)
			a.CommissionRate = &r
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// SaveTeam inserts or updates a team.
func (s *Store) SaveTeam(ctx context.Context, t domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = domain.TeamID(uuid.NewString())
	}

	query := `
		INSERT INTO teams (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, t.ID, t.Name, time.Now().UTC().Format(timeFormat))
	return err
}

// SaveMembership inserts or updates an agent's team membership.
func (s *Store) SaveMembership(ctx context.Context, m domain.TeamMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO team_members (team_id, agent_id, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(team_id, agent_id) DO UPDATE SET
			role = excluded.role,
			is_active = excluded.is_active
	`
	_, err := s.db.ExecContext(ctx, query,
		m.TeamID, m.AgentID, m.Role, m.IsActive,
		time.Now().UTC().Format(timeFormat),
	)
	return err
}

// SupervisorTeams returns the teams the agent actively supervises.
func (s *Store) SupervisorTeams(ctx context.Context, id domain.AgentID) ([]domain.TeamID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT team_id FROM team_members
		 WHERE agent_id = ? AND role = 'supervisor' AND is_active = TRUE
		 ORDER BY team_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisor teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.TeamID
	for rows.Next() {
		var t domain.TeamID
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ActiveMembers returns every agent with an active membership on the team.
func (s *Store) ActiveMembers(ctx context.Context, team domain.TeamID) ([]domain.AgentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id FROM team_members
		 WHERE team_id = ? AND is_active = TRUE
		 ORDER BY agent_id`,
		team,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var members []domain.AgentID
	for rows.Next() {
		var a domain.AgentID
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		members = append(members, a)
	}
	return members, rows.Err()
}

// HasActiveSupervisorRole reports whether the agent actively supervises
// any team.
func (s *Store) HasActiveSupervisorRole(ctx context.Context, id domain.AgentID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_members
		 WHERE agent_id = ? AND role = 'supervisor' AND is_active = TRUE`,
		id,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// COMMISSION LEDGER (domain.CommissionLedger interface)
// =============================================================================

// Record persists a commission ledger entry.
func (s *Store) Record(ctx context.Context, c domain.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record(ctx, s.db, c)
}

func (s *Store) record(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, c domain.Commission) error {
	if c.ID == "" {
		c.ID = domain.CommissionID(uuid.NewString())
	}

	var metadataJSON *string
	if len(c.Metadata) > 0 {
		b, _ := json.Marshal(c.Metadata)
		str := string(b)
		metadataJSON = &str
	}

	query := `
		INSERT INTO commissions
		(id, agent_id, application_id, reference_number, type, amount, rate,
		 base_amount, status, earned_date, notes, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		c.ID,
		c.AgentID,
		nullString(string(c.ApplicationID)),
		c.ReferenceNumber,
		c.Type,
		c.Amount.String(),
		c.Rate.String(),
		c.BaseAmount.String(),
		c.Status,
		c.EarnedDate.UTC().Format(dateFormat),
		c.Notes,
		metadataJSON,
		time.Now().UTC().Format(timeFormat),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return &domain.DuplicateReferenceError{Reference: c.ReferenceNumber}
		}
		return fmt.Errorf("failed to record commission: %w", err)
	}
	return nil
}

// ByReference returns a commission by reference number, or nil.
func (s *Store) ByReference(ctx context.Context, reference string) (*domain.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commissions, err := s.queryCommissions(ctx,
		commissionSelect+" WHERE reference_number = ?", reference)
	if err != nil {
		return nil, err
	}
	if len(commissions) == 0 {
		return nil, nil
	}
	return &commissions[0], nil
}

// ByAgent returns all commissions for an agent, newest first.
func (s *Store) ByAgent(ctx context.Context, id domain.AgentID) ([]domain.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCommissions(ctx,
		commissionSelect+" WHERE agent_id = ? ORDER BY earned_date DESC, created_at DESC", id)
}

// AgentPeriodTotal sums the agent's non-cancelled commissions in the period.
func (s *Store) AgentPeriodTotal(ctx context.Context, id domain.AgentID, p domain.Period) (decimal.Decimal, error) {
	return s.sumAmounts(ctx,
		`SELECT GROUP_CONCAT(amount)
		 FROM commissions
		 WHERE agent_id = ? AND status != 'cancelled'
		   AND earned_date >= ? AND earned_date <= ?`,
		id, p.Start.Format(dateFormat), p.End.Format(dateFormat))
}

// TypePeriodTotal sums non-cancelled commissions of one type in the period.
func (s *Store) TypePeriodTotal(ctx context.Context, t domain.CommissionType, p domain.Period) (decimal.Decimal, error) {
	return s.sumAmounts(ctx,
		`SELECT GROUP_CONCAT(amount)
		 FROM commissions
		 WHERE type = ? AND status != 'cancelled'
		   AND earned_date >= ? AND earned_date <= ?`,
		t, p.Start.Format(dateFormat), p.End.Format(dateFormat))
}

// PrefixPeriodTotal sums non-cancelled commissions by reference category.
func (s *Store) PrefixPeriodTotal(ctx context.Context, prefix string, p domain.Period) (decimal.Decimal, error) {
	return s.sumAmounts(ctx,
		`SELECT GROUP_CONCAT(amount)
		 FROM commissions
		 WHERE reference_number LIKE ? AND status != 'cancelled'
		   AND earned_date >= ? AND earned_date <= ?`,
		prefix+"-%", p.Start.Format(dateFormat), p.End.Format(dateFormat))
}

// sumAmounts sums the decimal amount column in Go: amounts are stored as
// text, and summing them as SQLite REALs would reintroduce float drift.
func (s *Store) sumAmounts(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var joined sql.NullString
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&joined); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum commissions: %w", err)
	}

	total := decimal.Zero
	if joined.Valid && joined.String != "" {
		for _, part := range strings.Split(joined.String, ",") {
			total = total.Add(domain.MustDecimal(part))
		}
	}
	return total, nil
}

const commissionSelect = `
	SELECT id, agent_id, application_id, reference_number, type, amount, rate,
	       base_amount, status, earned_date, notes, metadata_json, created_at
	FROM commissions`

func (s *Store) queryCommissions(ctx context.Context, query string, args ...any) ([]domain.Commission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	var commissions []domain.Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}

func scanCommission(rows *sql.Rows) (domain.Commission, error) {
	var (
		c             domain.Commission
		applicationID sql.NullString
		amount        string
		rate          string
		baseAmount    string
		earnedDate    string
		notes         sql.NullString
		metadataJSON  sql.NullString
		createdAt     string
	)

	err := rows.Scan(
		&c.ID, &c.AgentID, &applicationID, &c.ReferenceNumber, &c.Type,
		&amount, &rate, &baseAmount, &c.Status, &earnedDate,
		&notes, &metadataJSON, &createdAt,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan commission: %w", err)
	}

	c.ApplicationID = domain.ApplicationID(applicationID.String)
	c.Amount = domain.MustDecimal(amount)
	c.Rate = domain.MustDecimal(rate)
	c.BaseAmount = domain.MustDecimal(baseAmount)
	c.EarnedDate, _ = time.Parse(dateFormat, earnedDate)
	c.Notes = notes.String
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)

	if metadataJSON.Valid && metadataJSON.String != "" {
		json.Unmarshal([]byte(metadataJSON.String), &c.Metadata)
	}
	return c, nil
}

// =============================================================================
// TRANSACTIONAL LEDGER (domain.TxLedger interface)
// =============================================================================

// WithTx executes a function within a database transaction. The store
// mutex is deliberately not held here: the callback may read agents and
// teams through the parent store, and SQLite's own write lock (with the
// busy timeout set at open) already serializes concurrent transactions.
func (s *Store) WithTx(ctx context.Context, fn func(domain.CommissionLedger) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txLedger{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txLedger routes writes through the open transaction. Reads use the
// same transaction so they observe the writes made within it.
type txLedger struct {
	tx     *sql.Tx
	parent *Store
}

func (tl *txLedger) Record(ctx context.Context, c domain.Commission) error {
	return tl.parent.record(ctx, tl.tx, c)
}

func (tl *txLedger) ByReference(ctx context.Context, reference string) (*domain.Commission, error) {
	rows, err := tl.tx.QueryContext(ctx, commissionSelect+" WHERE reference_number = ?", reference)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	c, err := scanCommission(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (tl *txLedger) ByAgent(ctx context.Context, id domain.AgentID) ([]domain.Commission, error) {
	return tl.queryCommissions(ctx,
		commissionSelect+" WHERE agent_id = ? ORDER BY earned_date DESC, created_at DESC", id)
}

func (tl *txLedger) AgentPeriodTotal(ctx context.Context, id domain.AgentID, p domain.Period) (decimal.Decimal, error) {
	return tl.sumAmounts(ctx,
		`SELECT GROUP_CONCAT(amount)
		 FROM commissions
		 WHERE agent_id = ? AND status != 'cancelled'
		   AND earned_date >= ? AND earned_date <= ?`,
		id, p.Start.Format(dateFormat), p.End.Format(dateFormat))
}

func (tl *txLedger) TypePeriodTotal(ctx context.Context, t domain.CommissionType, p domain.Period) (decimal.Decimal, error) {
	return tl.sumAmounts(ctx,
		`SELECT GROUP_CONCAT(amount)
		 FROM commissions
		 WHERE type = ? AND status != 'cancelled'
		   AND earned_date >= ? AND earned_date <= ?`,
		t, p.Start.Format(dateFormat), p.End.Format(dateFormat))
}

func (tl *txLedger) PrefixPeriodTotal(ctx context.Context, prefix string, p domain.Period) (decimal.Decimal, error) {
	return tl.sumAmounts(ctx,
		`SELECT GROUP_CONCAT(amount)
		 FROM commissions
		 WHERE reference_number LIKE ? AND status != 'cancelled'
		   AND earned_date >= ? AND earned_date <= ?`,
		prefix+"-%", p.Start.Format(dateFormat), p.End.Format(dateFormat))
}

func (tl *txLedger) queryCommissions(ctx context.Context, query string, args ...any) ([]domain.Commission, error) {
	rows, err := tl.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	var commissions []domain.Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}

func (tl *txLedger) sumAmounts(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	var joined sql.NullString
	if err := tl.tx.QueryRowContext(ctx, query, args...).Scan(&joined); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum commissions: %w", err)
	}

	total := decimal.Zero
	if joined.Valid && joined.String != "" {
		for _, part := range strings.Split(joined.String, ",") {
			total = total.Add(domain.MustDecimal(part))
		}
	}
	return total, nil
}

// =============================================================================
// APPLICATION STORE (domain.ApplicationStore interface)
// =============================================================================

// Save inserts or updates an application record.
func (s *Store) Save(ctx context.Context, a domain.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = domain.ApplicationID(uuid.NewString())
	}

	formJSON, err := json.Marshal(a.Form)
	if err != nil {
		return fmt.Errorf("failed to marshal form: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	query := `
		INSERT INTO applications
		(id, reference_code, form_json, check_type, check_status, check_result_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reference_code = excluded.reference_code,
			form_json = excluded.form_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		a.ID, a.ReferenceCode, string(formJSON),
		nullString(string(a.CheckType)), nullString(string(a.CheckStatus)), nil,
		now, now,
	)
	return err
}

// Application returns an application by ID.
func (s *Store) Application(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a           domain.Application
		formJSON    string
		checkType   sql.NullString
		checkStatus sql.NullString
		resultJSON  sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, reference_code, form_json, check_type, check_status,
		        check_result_json, created_at, updated_at
		 FROM applications WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.ReferenceCode, &formJSON, &checkType, &checkStatus,
		&resultJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	json.Unmarshal([]byte(formJSON), &a.Form)
	a.CheckType = domain.CheckType(checkType.String)
	a.CheckStatus = domain.CheckStatus(checkStatus.String)
	if resultJSON.Valid && resultJSON.String != "" {
		json.Unmarshal([]byte(resultJSON.String), &a.CheckResult)
	}
	a.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	a.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return &a, nil
}

// SetCheckOutcome overwrites the application's check columns.
func (s *Store) SetCheckOutcome(ctx context.Context, id domain.ApplicationID, t domain.CheckType, status domain.CheckStatus, result map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resultJSON *string
	if result != nil {
		b, _ := json.Marshal(result)
		str := string(b)
		resultJSON = &str
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE applications
		 SET check_type = ?, check_status = ?, check_result_json = ?, updated_at = ?
		 WHERE id = ?`,
		t, status, resultJSON, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update check outcome: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"commissions", "team_members", "teams", "agents", "applications"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
