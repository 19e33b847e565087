/*
store.go - Persistence interface for staffing records

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   record persistence for users, resources, projects, assignments,
           requests, and the activity log
  TxStore: wraps Store with atomic multi-write transactions

ATOMICITY CONTRACT:
  Every engine mutation (submit, approve, reject, direct assign/extend/
  release, sweep) runs inside WithTx: the ledger mutation and the request
  status transition commit together or not at all.

PENDING UNIQUENESS:
  InsertRequest must fail with ErrDuplicatePendingRequest when a pending
  request already targets the same assignment. Implementations enforce this
  with a uniqueness constraint (partial unique index), never a
  check-then-insert, so two concurrent submissions cannot both succeed.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - staffing/store/memory.go: in-memory for tests

SEE ALSO:
  - workflow.go: drives all writes through TxStore
*/
package staffing

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Record persistence
// =============================================================================

type Store interface {
	// Users
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id UserID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// Resources
	SaveResource(ctx context.Context, r Resource) error
	GetResource(ctx context.Context, id ResourceID) (*Resource, error)
	GetResourceByEmail(ctx context.Context, email string) (*Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	CountResources(ctx context.Context) (int, error)
	DeleteResource(ctx context.Context, id ResourceID) error

	// Projects
	SaveProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	// DeleteProject removes the project together with its assignment rows
	// and any requests that reference it. Callers enforce the active-
	// assignment guard first.
	DeleteProject(ctx context.Context, id ProjectID) error

	// Assignments
	SaveAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id AssignmentID) (*Assignment, error)
	ListAssignmentsByResource(ctx context.Context, id ResourceID) ([]Assignment, error)
	ListAssignmentsByProject(ctx context.Context, id ProjectID) ([]Assignment, error)
	// ListActiveEndingBefore returns ACTIVE assignments with endDate < cutoff.
	// Used by the expiry sweep.
	ListActiveEndingBefore(ctx context.Context, cutoff Date) ([]Assignment, error)

	// Requests
	// InsertRequest persists a new request. Fails with
	// ErrDuplicatePendingRequest if a pending request already targets the
	// same assignment.
	InsertRequest(ctx context.Context, r Request) error
	// UpdateRequest persists a status transition. The record must exist.
	UpdateRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id RequestID) (*Request, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]Request, error)
	// HasPendingExtend reports whether a pending extend request targets the
	// assignment. The sweep leaves such assignments alone.
	HasPendingExtend(ctx context.Context, id AssignmentID) (bool, error)

	// Activity log (append-only)
	AppendActivity(ctx context.Context, e ActivityEntry) error
	ListActivity(ctx context.Context, f ActivityFilter) ([]ActivityEntry, error)
}

// RequestFilter narrows ListRequests. Nil fields match everything.
type RequestFilter struct {
	Status      *RequestStatus
	Type        *RequestType
	RequesterID *UserID
	// Terminal selects only approved/rejected requests (the history view).
	Terminal bool
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// ACTIVITY LOG - Who did what, when
// =============================================================================

type ActivityAction string

const (
	ActivityAssign          ActivityAction = "assign"
	ActivityExtend          ActivityAction = "extend"
	ActivityRelease         ActivityAction = "release"
	ActivityExpire          ActivityAction = "expire"
	ActivityProjectCreated  ActivityAction = "project_created"
	ActivityProjectUpdated  ActivityAction = "project_updated"
	ActivityProjectDeleted  ActivityAction = "project_deleted"
	ActivityProjectClosed   ActivityAction = "project_closed"
	ActivityRequestApproved ActivityAction = "request_approved"
	ActivityRequestRejected ActivityAction = "request_rejected"
)

// ActivityEntry records one applied mutation. Direct admin actions appear
// here even though they never materialize a Request.
type ActivityEntry struct {
	ID          string
	At          time.Time
	ActorID     UserID
	Action      ActivityAction
	Description string
	ProjectID   ProjectID
	ResourceID  ResourceID
	Role        string
}

// ActivityFilter narrows ListActivity. Zero values match everything.
type ActivityFilter struct {
	ProjectID  ProjectID
	ResourceID ResourceID
	Limit      int
}
