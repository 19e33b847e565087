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

DATES:
  Assignment dates travel as YYYY-MM-DD strings; staffing.Date handles
  parsing and formatting on both directions.

VALIDATION:
  Structural validation (parseable body, known request type) is done in
  handlers; business rules live in the staffing package. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: uses these types
  - staffing/types.go: the domain model these project
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/staffing"
)

// =============================================================================
// RESOURCES
// =============================================================================

// ResourceDTO represents a staff member in API responses. Status is derived
// from assignments, never stored.
type ResourceDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Status     string `json:"status,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ResourceDetailDTO is a resource together with its assignment history.
type ResourceDetailDTO struct {
	ResourceDTO
	Assignments []AssignmentDTO `json:"assignments"`
}

// CreateResourceRequest is the request to register a staff member. The
// employee ID is generated server-side.
type CreateResourceRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// PROJECTS
// =============================================================================

// ProjectDTO represents a project in API responses. MemberCount is the
// number of ACTIVE assignments, computed at read time.
type ProjectDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Client      string `json:"client,omitempty"`
	ManagerID   string `json:"manager_id"`
	Status      string `json:"status"`
	MemberCount int    `json:"member_count"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateProjectRequest is the direct (admin) project creation body.
// Managers propose projects through POST /api/requests instead.
type CreateProjectRequest struct {
	Name      string `json:"name"`
	Client    string `json:"client"`
	ManagerID string `json:"manager_id"`
}

// UpdateProjectRequest edits a project's mutable fields. Status may only
// move between ongoing and hold.
type UpdateProjectRequest struct {
	Name   string `json:"name"`
	Client string `json:"client"`
	Status string `json:"status"`
}

// ProjectResourceDTO is one project member row: the assignment joined with
// the resource's display name.
type ProjectResourceDTO struct {
	AssignmentDTO
	ResourceName string `json:"resource_name"`
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// AssignmentDTO represents an assignment in API responses.
type AssignmentDTO struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	ProjectID  string `json:"project_id"`
	Role       string `json:"role"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"`
}

// CreateAssignmentRequest is the direct (admin) assignment body.
type CreateAssignmentRequest struct {
	ResourceID string        `json:"resource_id"`
	ProjectID  string        `json:"project_id"`
	Role       string        `json:"role"`
	StartDate  staffing.Date `json:"start_date"`
	EndDate    staffing.Date `json:"end_date"`
}

// ExtendAssignmentRequest is the direct (admin) extension body.
type ExtendAssignmentRequest struct {
	NewEndDate staffing.Date `json:"new_end_date"`
	Reason     string        `json:"reason"`
}

// ReleaseAssignmentRequest is the direct (admin) release body.
type ReleaseAssignmentRequest struct {
	ReleaseDate staffing.Date `json:"release_date"`
	Reason      string        `json:"reason"`
}

// =============================================================================
// REQUESTS (approval queue)
// =============================================================================

// SubmitRequestBody proposes a mutation. Exactly one payload matching Type
// must be set. The caller's role decides whether it lands in the queue or
// applies immediately.
type SubmitRequestBody struct {
	Type    string                   `json:"type"`
	Assign  *staffing.AssignPayload  `json:"assign,omitempty"`
	Extend  *staffing.ExtendPayload  `json:"extend,omitempty"`
	Release *staffing.ReleasePayload `json:"release,omitempty"`
	Project *staffing.ProjectPayload `json:"project,omitempty"`
}

// SubmitResponseDTO reports the outcome of a submission. Applied is true on
// the direct-authority path, where no request record exists.
type SubmitResponseDTO struct {
	Applied bool        `json:"applied"`
	Request *RequestDTO `json:"request,omitempty"`
}

// RequestDTO represents a workflow request in API responses.
type RequestDTO struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	RequesterID     string `json:"requester_id"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	SubmittedAt     string `json:"submitted_at"`
	DecidedAt       string `json:"decided_at,omitempty"`
	DecidedBy       string `json:"decided_by,omitempty"`

	Assign  *staffing.AssignPayload  `json:"assign,omitempty"`
	Extend  *staffing.ExtendPayload  `json:"extend,omitempty"`
	Release *staffing.ReleasePayload `json:"release,omitempty"`
	Project *staffing.ProjectPayload `json:"project,omitempty"`
}

// RejectRequestBody carries the mandatory rejection reason.
type RejectRequestBody struct {
	Reason string `json:"reason"`
}

// =============================================================================
// TIMELINE / DASHBOARD / ACTIVITY
// =============================================================================

// TimelineDTO is the month-grid projection of one resource's assignments.
type TimelineDTO struct {
	ResourceID  string   `json:"resource_id"`
	WindowStart string   `json:"window_start"`
	Months      int      `json:"months"`
	Bars        []BarDTO `json:"bars"`
}

// BarDTO is one positioned timeline bar. Left and width are fractions of
// the window in [0, 1].
type BarDTO struct {
	AssignmentID string          `json:"assignment_id"`
	ProjectID    string          `json:"project_id"`
	ProjectName  string          `json:"project_name,omitempty"`
	Role         string          `json:"role"`
	StartCol     int             `json:"start_col"`
	EndCol       int             `json:"end_col"`
	Left         decimal.Decimal `json:"left"`
	Width        decimal.Decimal `json:"width"`
	Category     string          `json:"category"`
}

// DashboardDTO is the landing-page stat block.
type DashboardDTO struct {
	TotalResources  int             `json:"total_resources"`
	Available       int             `json:"available"`
	Assigned        int             `json:"assigned"`
	ActiveProjects  int             `json:"active_projects"`
	PendingRequests int             `json:"pending_requests"`
	Utilization     decimal.Decimal `json:"utilization"`
	EndingSoon      []AssignmentDTO `json:"ending_soon"`
}

// ActivityDTO is one applied-mutation record.
type ActivityDTO struct {
	ID          string `json:"id"`
	At          string `json:"at"`
	ActorID     string `json:"actor_id"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	ResourceID  string `json:"resource_id,omitempty"`
	Role        string `json:"role,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error envelope. Code carries the
// machine-readable classification (VALIDATION_ERROR, STATE_CONFLICT,
// NOT_FOUND, CAPACITY_CONFLICT) or the specific validation code.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
