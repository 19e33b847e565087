/*
Package sqlite provides the SQLite-backed implementation of staffing.TxStore.

PURPOSE:
  Production persistence for users, resources, projects, assignments,
  requests, and the activity log. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:        dashboard accounts (admins and delivery managers)
  resources:    staff members
  projects:     client projects
  assignments:  dated resource<->project links
  requests:     the approval queue, payload stored as JSON
  activity_log: append-only record of applied mutations

PENDING UNIQUENESS:
  idx_requests_pending_assignment is a partial unique index over
  (assignment_id) WHERE status = 'pending'. Two concurrent submissions
  against the same assignment cannot both commit; the loser gets
  ErrDuplicatePendingRequest. This is the only enforcement point - there
  is no check-then-insert anywhere.

DATE HANDLING:
  Assignment dates are stored as YYYY-MM-DD strings so lexicographic
  comparison in SQL matches chronological order. Timestamps are RFC3339.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety plus WAL mode for better crash
  recovery. All engine mutations run inside WithTx; reads issued inside
  the transaction go through the same *sql.Tx so they observe
  uncommitted writes.

USAGE:
  store, err := sqlite.New("./data/staffing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := staffing.NewEngine(store)

SEE ALSO:
  - staffing/store.go: interface definitions
  - staffing/store/memory.go: in-memory implementation for testing
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

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/staffing-engine/staffing"
)

// Store implements staffing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
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
	-- Dashboard accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Staff members
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_email
		ON resources(email COLLATE NOCASE);

	-- Client projects
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client TEXT,
		manager_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_manager
		ON projects(manager_id);

	-- Assignments (dates as YYYY-MM-DD for lexicographic range queries)
	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		role TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_resource
		ON assignments(resource_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_project
		ON assignments(project_id);

	-- For the expiry sweep (active rows ordered by end date)
	CREATE INDEX IF NOT EXISTS idx_assignments_status_end
		ON assignments(status, end_date);

	-- Approval queue. assignment_id is set for extend/release requests,
	-- project_id for assign requests (cascade on project delete).
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		rejection_reason TEXT,
		assignment_id TEXT,
		project_id TEXT,
		payload_json TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		decided_at TEXT,
		decided_by TEXT
	);

	-- CRITICAL: at most one open request per assignment. Concurrent
	-- submissions race on this index, not on application-level checks.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_pending_assignment
		ON requests(assignment_id)
		WHERE status = 'pending' AND assignment_id IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_requester
		ON requests(requester_id);

	-- Append-only activity log
	CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		description TEXT,
		project_id TEXT,
		resource_id TEXT,
		role TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_activity_at
		ON activity_log(at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so the same statement helpers run
// standalone or inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u staffing.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func saveUser(ctx context.Context, q querier, u staffing.User) error {
	query := `
		INSERT INTO users (id, name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role
	`
	_, err := q.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Role, timestamp(u.CreatedAt))
	return err
}

func (s *Store) GetUser(ctx context.Context, id staffing.UserID) (*staffing.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, q querier, id staffing.UserID) (*staffing.User, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, name, email, role, created_at FROM users WHERE id = ?", id)

	var u staffing.User
	var email sql.NullString
	var createdAt string
	err := row.Scan(&u.ID, &u.Name, &email, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]staffing.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsers(ctx, s.db)
}

func listUsers(ctx context.Context, q querier) ([]staffing.User, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, email, role, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []staffing.User
	for rows.Next() {
		var u staffing.User
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &email, &u.Role, &createdAt); err != nil {
			return nil, err
		}
		u.Email = email.String
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// RESOURCES
// =============================================================================

func (s *Store) SaveResource(ctx context.Context, r staffing.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveResource(ctx, s.db, r)
}

func saveResource(ctx context.Context, q querier, r staffing.Resource) error {
	query := `
		INSERT INTO resources (id, employee_id, name, email, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`
	_, err := q.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.Name, r.Email, timestamp(r.CreatedAt))
	if err != nil && isUniqueConstraintError(err) {
		return &staffing.StateConflictError{
			Kind: "resource", ID: string(r.ID),
			Message: fmt.Sprintf("email %s is already registered", r.Email),
		}
	}
	return err
}

func (s *Store) GetResource(ctx context.Context, id staffing.ResourceID) (*staffing.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getResource(ctx, s.db, "id = ?", id)
}

func (s *Store) GetResourceByEmail(ctx context.Context, email string) (*staffing.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getResource(ctx, s.db, "email = ? COLLATE NOCASE", email)
}

func getResource(ctx context.Context, q querier, where string, arg any) (*staffing.Resource, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, employee_id, name, email, created_at FROM resources WHERE "+where, arg)

	var r staffing.Resource
	var createdAt string
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Name, &r.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

func (s *Store) ListResources(ctx context.Context) ([]staffing.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listResources(ctx, s.db)
}

func listResources(ctx context.Context, q querier) ([]staffing.Resource, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, employee_id, name, email, created_at FROM resources ORDER BY employee_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []staffing.Resource
	for rows.Next() {
		var r staffing.Resource
		var createdAt string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Name, &r.Email, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *Store) CountResources(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countResources(ctx, s.db)
}

func countResources(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources").Scan(&count)
	return count, err
}

func (s *Store) DeleteResource(ctx context.Context, id staffing.ResourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteResource(ctx, s.db, id)
}

func deleteResource(ctx context.Context, q querier, id staffing.ResourceID) error {
	_, err := q.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	return err
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) SaveProject(ctx context.Context, p staffing.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProject(ctx, s.db, p)
}

func saveProject(ctx context.Context, q querier, p staffing.Project) error {
	query := `
		INSERT INTO projects (id, name, client, manager_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			manager_id = excluded.manager_id,
			status = excluded.status
	`
	_, err := q.ExecContext(ctx, query,
		p.ID, p.Name, p.Client, p.ManagerID, p.Status, timestamp(p.CreatedAt))
	return err
}

func (s *Store) GetProject(ctx context.Context, id staffing.ProjectID) (*staffing.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProject(ctx, s.db, id)
}

func getProject(ctx context.Context, q querier, id staffing.ProjectID) (*staffing.Project, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, name, client, manager_id, status, created_at FROM projects WHERE id = ?", id)

	var p staffing.Project
	var client sql.NullString
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &client, &p.ManagerID, &p.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Client = client.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]staffing.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProjects(ctx, s.db)
}

func listProjects(ctx context.Context, q querier) ([]staffing.Project, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, client, manager_id, status, created_at FROM projects ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []staffing.Project
	for rows.Next() {
		var p staffing.Project
		var client sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &client, &p.ManagerID, &p.Status, &createdAt); err != nil {
			return nil, err
		}
		p.Client = client.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id staffing.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteProject(ctx, s.db, id)
}

func deleteProject(ctx context.Context, q querier, id staffing.ProjectID) error {
	// Requests first (they reference assignments), then assignments, then
	// the project row.
	if _, err := q.ExecContext(ctx, `
		DELETE FROM requests
		WHERE project_id = ?
		   OR assignment_id IN (SELECT id FROM assignments WHERE project_id = ?)`,
		id, id); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx,
		"DELETE FROM assignments WHERE project_id = ?", id); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (s *Store) SaveAssignment(ctx context.Context, a staffing.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAssignment(ctx, s.db, a)
}

func saveAssignment(ctx context.Context, q querier, a staffing.Assignment) error {
	query := `
		INSERT INTO assignments (id, resource_id, project_id, role, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role = excluded.role,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status
	`
	_, err := q.ExecContext(ctx, query,
		a.ID, a.ResourceID, a.ProjectID, a.Role,
		a.StartDate.String(), a.EndDate.String(), a.Status, timestamp(a.CreatedAt))
	return err
}

func (s *Store) GetAssignment(ctx context.Context, id staffing.AssignmentID) (*staffing.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAssignment(ctx, s.db, id)
}

func getAssignment(ctx context.Context, q querier, id staffing.AssignmentID) (*staffing.Assignment, error) {
	assignments, err := queryAssignments(ctx, q,
		selectAssignments+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return &assignments[0], nil
}

func (s *Store) ListAssignmentsByResource(ctx context.Context, id staffing.ResourceID) ([]staffing.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssignmentsByResource(ctx, s.db, id)
}

func listAssignmentsByResource(ctx context.Context, q querier, id staffing.ResourceID) ([]staffing.Assignment, error) {
	return queryAssignments(ctx, q,
		selectAssignments+" WHERE resource_id = ? ORDER BY start_date, id", id)
}

func (s *Store) ListAssignmentsByProject(ctx context.Context, id staffing.ProjectID) ([]staffing.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssignmentsByProject(ctx, s.db, id)
}

func listAssignmentsByProject(ctx context.Context, q querier, id staffing.ProjectID) ([]staffing.Assignment, error) {
	return queryAssignments(ctx, q,
		selectAssignments+" WHERE project_id = ? ORDER BY start_date, id", id)
}

func (s *Store) ListActiveEndingBefore(ctx context.Context, cutoff staffing.Date) ([]staffing.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActiveEndingBefore(ctx, s.db, cutoff)
}

func listActiveEndingBefore(ctx context.Context, q querier, cutoff staffing.Date) ([]staffing.Assignment, error) {
	return queryAssignments(ctx, q,
		selectAssignments+" WHERE status = ? AND end_date < ? ORDER BY end_date, id",
		staffing.AssignmentActive, cutoff.String())
}

const selectAssignments = `
	SELECT id, resource_id, project_id, role, start_date, end_date, status, created_at
	FROM assignments`

func queryAssignments(ctx context.Context, q querier, query string, args ...any) ([]staffing.Assignment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []staffing.Assignment
	for rows.Next() {
		var a staffing.Assignment
		var startDate, endDate, createdAt string
		if err := rows.Scan(&a.ID, &a.ResourceID, &a.ProjectID, &a.Role,
			&startDate, &endDate, &a.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.StartDate, _ = staffing.ParseDate(startDate)
		a.EndDate, _ = staffing.ParseDate(endDate)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) InsertRequest(ctx context.Context, r staffing.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertRequest(ctx, s.db, r)
}

func insertRequest(ctx context.Context, q querier, r staffing.Request) error {
	payload, err := marshalPayload(r)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO requests
		(id, type, requester_id, status, rejection_reason, assignment_id, project_id,
		 payload_json, submitted_at, decided_at, decided_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		r.ID, r.Type, r.RequesterID, r.Status,
		nullString(r.RejectionReason),
		nullString(string(r.TargetAssignment())),
		nullString(string(requestProjectID(r))),
		payload,
		timestamp(r.SubmittedAt),
		nullTime(r.DecidedAt),
		nullString(string(r.DecidedBy)),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return staffing.ErrDuplicatePendingRequest
		}
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, r staffing.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequest(ctx, s.db, r)
}

func updateRequest(ctx context.Context, q querier, r staffing.Request) error {
	query := `
		UPDATE requests
		SET status = ?, rejection_reason = ?, decided_at = ?, decided_by = ?
		WHERE id = ?
	`
	res, err := q.ExecContext(ctx, query,
		r.Status, nullString(r.RejectionReason),
		nullTime(r.DecidedAt), nullString(string(r.DecidedBy)), r.ID)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &staffing.NotFoundError{Kind: "request", ID: string(r.ID)}
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id staffing.RequestID) (*staffing.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id staffing.RequestID) (*staffing.Request, error) {
	requests, err := queryRequests(ctx, q, selectRequests+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

func (s *Store) ListRequests(ctx context.Context, f staffing.RequestFilter) ([]staffing.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, f)
}

func listRequests(ctx context.Context, q querier, f staffing.RequestFilter) ([]staffing.Request, error) {
	query := selectRequests
	var clauses []string
	var args []any

	if f.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Type != nil {
		clauses = append(clauses, "type = ?")
		args = append(args, *f.Type)
	}
	if f.RequesterID != nil {
		clauses = append(clauses, "requester_id = ?")
		args = append(args, *f.RequesterID)
	}
	if f.Terminal {
		clauses = append(clauses, "status != ?")
		args = append(args, staffing.RequestPending)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id"

	return queryRequests(ctx, q, query, args...)
}

func (s *Store) HasPendingExtend(ctx context.Context, id staffing.AssignmentID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasPendingExtend(ctx, s.db, id)
}

func hasPendingExtend(ctx context.Context, q querier, id staffing.AssignmentID) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE status = ? AND type = ? AND assignment_id = ?",
		staffing.RequestPending, staffing.RequestExtend, id,
	).Scan(&count)
	return count > 0, err
}

const selectRequests = `
	SELECT id, type, requester_id, status, rejection_reason, payload_json,
	       submitted_at, decided_at, decided_by
	FROM requests`

func queryRequests(ctx context.Context, q querier, query string, args ...any) ([]staffing.Request, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []staffing.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (staffing.Request, error) {
	var (
		r               staffing.Request
		rejectionReason sql.NullString
		payloadJSON     string
		submittedAt     string
		decidedAt       sql.NullString
		decidedBy       sql.NullString
	)

	err := rows.Scan(&r.ID, &r.Type, &r.RequesterID, &r.Status,
		&rejectionReason, &payloadJSON, &submittedAt, &decidedAt, &decidedBy)
	if err != nil {
		return r, fmt.Errorf("failed to scan request: %w", err)
	}

	r.RejectionReason = rejectionReason.String
	r.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt)
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		r.DecidedAt = &t
	}
	r.DecidedBy = staffing.UserID(decidedBy.String)

	if err := unmarshalPayload(&r, payloadJSON); err != nil {
		return r, err
	}
	return r, nil
}

func marshalPayload(r staffing.Request) (string, error) {
	var payload any
	switch r.Type {
	case staffing.RequestAssign:
		payload = r.Assign
	case staffing.RequestExtend:
		payload = r.Extend
	case staffing.RequestRelease:
		payload = r.Release
	case staffing.RequestProject:
		payload = r.Project
	default:
		return "", fmt.Errorf("unknown request type: %s", r.Type)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return string(b), nil
}

func unmarshalPayload(r *staffing.Request, payloadJSON string) error {
	var target any
	switch r.Type {
	case staffing.RequestAssign:
		r.Assign = &staffing.AssignPayload{}
		target = r.Assign
	case staffing.RequestExtend:
		r.Extend = &staffing.ExtendPayload{}
		target = r.Extend
	case staffing.RequestRelease:
		r.Release = &staffing.ReleasePayload{}
		target = r.Release
	case staffing.RequestProject:
		r.Project = &staffing.ProjectPayload{}
		target = r.Project
	default:
		return fmt.Errorf("unknown request type: %s", r.Type)
	}
	if err := json.Unmarshal([]byte(payloadJSON), target); err != nil {
		return fmt.Errorf("failed to unmarshal request payload: %w", err)
	}
	return nil
}

// requestProjectID returns the project an assign request targets, used for
// cascading deletes. Extend/release cascade via assignment_id instead.
func requestProjectID(r staffing.Request) staffing.ProjectID {
	if r.Assign != nil {
		return r.Assign.ProjectID
	}
	return ""
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

func (s *Store) AppendActivity(ctx context.Context, e staffing.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendActivity(ctx, s.db, e)
}

func appendActivity(ctx context.Context, q querier, e staffing.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (id, at, actor_id, action, description, project_id, resource_id, role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		e.ID, timestamp(e.At), e.ActorID, e.Action,
		nullString(e.Description),
		nullString(string(e.ProjectID)),
		nullString(string(e.ResourceID)),
		nullString(e.Role),
	)
	return err
}

func (s *Store) ListActivity(ctx context.Context, f staffing.ActivityFilter) ([]staffing.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActivity(ctx, s.db, f)
}

func listActivity(ctx context.Context, q querier, f staffing.ActivityFilter) ([]staffing.ActivityEntry, error) {
	query := `
		SELECT id, at, actor_id, action, description, project_id, resource_id, role
		FROM activity_log`
	var clauses []string
	var args []any

	if f.ProjectID != "" {
		clauses = append(clauses, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.ResourceID != "" {
		clauses = append(clauses, "resource_id = ?")
		args = append(args, f.ResourceID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []staffing.ActivityEntry
	for rows.Next() {
		var e staffing.ActivityEntry
		var at string
		var description, projectID, resourceID, role sql.NullString
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Action,
			&description, &projectID, &resourceID, &role); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		e.Description = description.String
		e.ProjectID = staffing.ProjectID(projectID.String)
		e.ResourceID = staffing.ResourceID(resourceID.String)
		e.Role = role.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (staffing.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store staffing.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every call through the open *sql.Tx so reads inside the
// transaction observe its uncommitted writes.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveUser(ctx context.Context, u staffing.User) error {
	return saveUser(ctx, ts.tx, u)
}
func (ts *txStore) GetUser(ctx context.Context, id staffing.UserID) (*staffing.User, error) {
	return getUser(ctx, ts.tx, id)
}
func (ts *txStore) ListUsers(ctx context.Context) ([]staffing.User, error) {
	return listUsers(ctx, ts.tx)
}

func (ts *txStore) SaveResource(ctx context.Context, r staffing.Resource) error {
	return saveResource(ctx, ts.tx, r)
}
func (ts *txStore) GetResource(ctx context.Context, id staffing.ResourceID) (*staffing.Resource, error) {
	return getResource(ctx, ts.tx, "id = ?", id)
}
func (ts *txStore) GetResourceByEmail(ctx context.Context, email string) (*staffing.Resource, error) {
	return getResource(ctx, ts.tx, "email = ? COLLATE NOCASE", email)
}
func (ts *txStore) ListResources(ctx context.Context) ([]staffing.Resource, error) {
	return listResources(ctx, ts.tx)
}
func (ts *txStore) CountResources(ctx context.Context) (int, error) {
	return countResources(ctx, ts.tx)
}
func (ts *txStore) DeleteResource(ctx context.Context, id staffing.ResourceID) error {
	return deleteResource(ctx, ts.tx, id)
}

func (ts *txStore) SaveProject(ctx context.Context, p staffing.Project) error {
	return saveProject(ctx, ts.tx, p)
}
func (ts *txStore) GetProject(ctx context.Context, id staffing.ProjectID) (*staffing.Project, error) {
	return getProject(ctx, ts.tx, id)
}
func (ts *txStore) ListProjects(ctx context.Context) ([]staffing.Project, error) {
	return listProjects(ctx, ts.tx)
}
func (ts *txStore) DeleteProject(ctx context.Context, id staffing.ProjectID) error {
	return deleteProject(ctx, ts.tx, id)
}

func (ts *txStore) SaveAssignment(ctx context.Context, a staffing.Assignment) error {
	return saveAssignment(ctx, ts.tx, a)
}
func (ts *txStore) GetAssignment(ctx context.Context, id staffing.AssignmentID) (*staffing.Assignment, error) {
	return getAssignment(ctx, ts.tx, id)
}
func (ts *txStore) ListAssignmentsByResource(ctx context.Context, id staffing.ResourceID) ([]staffing.Assignment, error) {
	return listAssignmentsByResource(ctx, ts.tx, id)
}
func (ts *txStore) ListAssignmentsByProject(ctx context.Context, id staffing.ProjectID) ([]staffing.Assignment, error) {
	return listAssignmentsByProject(ctx, ts.tx, id)
}
func (ts *txStore) ListActiveEndingBefore(ctx context.Context, cutoff staffing.Date) ([]staffing.Assignment, error) {
	return listActiveEndingBefore(ctx, ts.tx, cutoff)
}

func (ts *txStore) InsertRequest(ctx context.Context, r staffing.Request) error {
	return insertRequest(ctx, ts.tx, r)
}
func (ts *txStore) UpdateRequest(ctx context.Context, r staffing.Request) error {
	return updateRequest(ctx, ts.tx, r)
}
func (ts *txStore) GetRequest(ctx context.Context, id staffing.RequestID) (*staffing.Request, error) {
	return getRequest(ctx, ts.tx, id)
}
func (ts *txStore) ListRequests(ctx context.Context, f staffing.RequestFilter) ([]staffing.Request, error) {
	return listRequests(ctx, ts.tx, f)
}
func (ts *txStore) HasPendingExtend(ctx context.Context, id staffing.AssignmentID) (bool, error) {
	return hasPendingExtend(ctx, ts.tx, id)
}

func (ts *txStore) AppendActivity(ctx context.Context, e staffing.ActivityEntry) error {
	return appendActivity(ctx, ts.tx, e)
}
func (ts *txStore) ListActivity(ctx context.Context, f staffing.ActivityFilter) ([]staffing.ActivityEntry, error) {
	return listActivity(ctx, ts.tx, f)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"activity_log", "requests", "assignments", "projects", "resources", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
