/*
Package staffing provides the assignment lifecycle and approval workflow engine.

PURPOSE:
  This package owns the business core of the staffing dashboard: resources,
  projects, time-bounded assignments linking the two, and the change-request
  workflow that governs who may mutate them. Availability is never stored;
  it is derived from assignment date ranges on every query.

KEY CONCEPTS IN THIS FILE (types.go):
  - Resource:   a staff member who can be placed on projects
  - Project:    client work owned by a delivery manager
  - Assignment: a dated resource<->project link with a role label
  - Request:    a proposed mutation waiting in the approval queue
  - Actor:      the caller identity; admins bypass the queue

DESIGN PRINCIPLES:
  1. Derivation: AVAILABLE/ASSIGNED and member counts are computed views,
     never persisted fields that can go stale.
  2. Immutability: a Request never changes again once it leaves pending.
  3. One gate: every mutation path, direct or approved, runs through the
     same validation and application routines in workflow.go.

SEE ALSO:
  - validate.go: conflict rules applied before any assignment mutation
  - workflow.go: submit/approve/reject and the admin bypass
  - ledger.go:   derived status and filtered listings
  - timeline.go: month-grid projection of a resource's assignments
*/
package staffing

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ProjectID string
type AssignmentID string
type RequestID string
type UserID string

// =============================================================================
// ACTORS AND ROLES
// =============================================================================

type Role string

const (
	// RoleAdmin mutates directly; submissions by an admin never enter the queue.
	RoleAdmin Role = "admin"
	// RoleManager (DevMan) submits requests that wait for approval.
	RoleManager Role = "devman"
)

// User is a dashboard account that can own projects and submit requests.
type User struct {
	ID        UserID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Actor identifies the caller of an engine operation.
type Actor struct {
	ID   UserID
	Name string
	Role Role
}

// CanActDirectly reports whether the actor's mutations bypass the approval queue.
func (a Actor) CanActDirectly() bool { return a.Role == RoleAdmin }

func (u User) Actor() Actor { return Actor{ID: u.ID, Name: u.Name, Role: u.Role} }

// =============================================================================
// RESOURCE
// =============================================================================

// ResourceStatus is derived from assignments at query time, never stored.
type ResourceStatus string

const (
	ResourceAvailable ResourceStatus = "available"
	ResourceAssigned  ResourceStatus = "assigned"
)

type Resource struct {
	ID         ResourceID
	EmployeeID string // sequential label, e.g. EMP007
	Name       string
	Email      string
	CreatedAt  time.Time
}

// =============================================================================
// PROJECT
// =============================================================================

type ProjectStatus string

const (
	ProjectOngoing ProjectStatus = "ongoing"
	ProjectHold    ProjectStatus = "hold"
	// ProjectClosed is terminal. A closed project cannot reopen and accepts
	// no new assignments.
	ProjectClosed ProjectStatus = "closed"
)

type Project struct {
	ID        ProjectID
	Name      string
	Client    string
	ManagerID UserID
	Status    ProjectStatus
	CreatedAt time.Time
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "active"
	AssignmentReleased AssignmentStatus = "released"
	// AssignmentExpired is reached passively by the periodic sweep when the
	// end date elapses without a release.
	AssignmentExpired AssignmentStatus = "expired"
)

// Assignment links one resource to one project for an inclusive date range.
type Assignment struct {
	ID         AssignmentID
	ResourceID ResourceID
	ProjectID  ProjectID
	Role       string
	StartDate  Date
	EndDate    Date
	Status     AssignmentStatus
	CreatedAt  time.Time
}

// ActiveOn reports whether the assignment occupies the resource on the given date.
func (a Assignment) ActiveOn(asOf Date) bool {
	return a.Status == AssignmentActive &&
		a.StartDate.BeforeOrEqual(asOf) && asOf.BeforeOrEqual(a.EndDate)
}

// =============================================================================
// REQUEST
// =============================================================================

type RequestType string

const (
	RequestAssign  RequestType = "assign"
	RequestExtend  RequestType = "extend"
	RequestRelease RequestType = "release"
	RequestProject RequestType = "project"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsTerminal reports whether the request can no longer change.
func (s RequestStatus) IsTerminal() bool { return s != RequestPending }

// Request is a proposed mutation. Exactly one of the payload fields matching
// Type is set. Once status leaves pending the record is immutable.
type Request struct {
	ID              RequestID
	Type            RequestType
	RequesterID     UserID
	Status          RequestStatus
	RejectionReason string
	SubmittedAt     time.Time
	DecidedAt       *time.Time
	DecidedBy       UserID

	Assign  *AssignPayload
	Extend  *ExtendPayload
	Release *ReleasePayload
	Project *ProjectPayload
}

// TargetAssignment returns the assignment the request operates on, if any.
// Only extend and release requests target an existing assignment; the
// one-pending-request-per-assignment constraint applies to those.
func (r *Request) TargetAssignment() AssignmentID {
	switch {
	case r.Extend != nil:
		return r.Extend.AssignmentID
	case r.Release != nil:
		return r.Release.AssignmentID
	}
	return ""
}

// AssignPayload proposes a new assignment.
type AssignPayload struct {
	ResourceID ResourceID `json:"resource_id"`
	ProjectID  ProjectID  `json:"project_id"`
	Role       string     `json:"role"`
	StartDate  Date       `json:"start_date"`
	EndDate    Date       `json:"end_date"`
}

// ExtendPayload proposes moving an assignment's end date later.
type ExtendPayload struct {
	AssignmentID AssignmentID `json:"assignment_id"`
	NewEndDate   Date         `json:"new_end_date"`
	Reason       string       `json:"reason"`
}

// ReleasePayload proposes releasing an assignment early.
type ReleasePayload struct {
	AssignmentID AssignmentID `json:"assignment_id"`
	ReleaseDate  Date         `json:"release_date"`
	Reason       string       `json:"reason"`
}

// ProjectPayload proposes a new project together with its initial staffing plan.
type ProjectPayload struct {
	Name        string     `json:"name"`
	Client      string     `json:"client"`
	Description string     `json:"description"`
	Plan        []PlanItem `json:"plan"`
}

// PlanItem is one row of a project proposal's resource plan.
type PlanItem struct {
	ResourceID ResourceID `json:"resource_id"`
	Role       string     `json:"role"`
	StartDate  Date       `json:"start_date"`
	EndDate    Date       `json:"end_date"`
}
