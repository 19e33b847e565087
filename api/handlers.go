/*
handlers.go - HTTP API handlers for the staffing engine

PURPOSE:
  Exposes the staffing engine via REST API. Handles HTTP request/response,
  JSON serialization, actor resolution, and delegates to domain logic.

ENDPOINTS:
  Resources:
    GET    /api/resources                  List (status/role/as_of/search filters)
    POST   /api/resources                  Register a staff member (admin)
    GET    /api/resources/{id}             Resource with derived status
    DELETE /api/resources/{id}             Remove (refused while actively assigned)
    GET    /api/resources/{id}/assignments Assignment history
    GET    /api/resources/{id}/timeline    Month-grid projection

  Projects:
    GET    /api/projects                   List (managers see their own)
    POST   /api/projects                   Create directly (admin)
    GET    /api/projects/{id}
    PUT    /api/projects/{id}              Edit name/client/status (admin)
    DELETE /api/projects/{id}              Remove (refused while staffed)
    GET    /api/projects/{id}/resources    Member roster

  Assignments (direct admin paths):
    POST   /api/assignments
    POST   /api/assignments/{id}/extend
    POST   /api/assignments/{id}/release

  Requests:
    POST   /api/requests                   Submit (role decides bypass)
    GET    /api/requests                   Queue (managers see their own)
    GET    /api/requests/history           Terminal requests only
    POST   /api/requests/{id}/approve      Admin only
    POST   /api/requests/{id}/reject       Admin only, reason mandatory

  Other:
    GET    /api/activity                   Applied-mutation log
    GET    /api/dashboard                  Stat block

ACTOR RESOLUTION:
  The dashboard session sends X-Actor-ID; the handler resolves it to a
  stored user and derives the role from there. Requests without a known
  actor get 401. Authentication itself is out of scope here.

ERROR HANDLING:
  Domain errors map onto HTTP status by category:
  - 400: validation errors (INVALID_RANGE, REASON_REQUIRED, ...)
  - 403: role does not permit the operation
  - 404: unknown identifiers
  - 409: state conflicts, capacity conflicts, duplicate pending request
  - 500: everything else

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
  - staffing/workflow.go: the engine behind every mutation
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/staffing-engine/staffing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     staffing.TxStore
	Engine    *staffing.Engine
	Resources *staffing.ResourceLedger
	Projects  *staffing.ProjectLedger
	Dashboard *staffing.Dashboard
	Projector staffing.Projector
}

// NewHandler creates a new handler with the given store.
func NewHandler(store staffing.TxStore) *Handler {
	return &Handler{
		Store:     store,
		Engine:    staffing.NewEngine(store),
		Resources: staffing.NewResourceLedger(store),
		Projects:  staffing.NewProjectLedger(store),
		Dashboard: staffing.NewDashboard(store),
		Projector: staffing.NewProjector(),
	}
}

// actor resolves the caller from X-Actor-ID. Returns false after writing
// a 401 when the header is missing or names an unknown user.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (staffing.Actor, bool) {
	id := strings.TrimSpace(r.Header.Get("X-Actor-ID"))
	if id == "" {
		writeError(w, http.StatusUnauthorized, "X-Actor-ID header is required", nil)
		return staffing.Actor{}, false
	}
	user, err := h.Store.GetUser(r.Context(), staffing.UserID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve actor", err)
		return staffing.Actor{}, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unknown actor: "+id, nil)
		return staffing.Actor{}, false
	}
	return user.Actor(), true
}

// =============================================================================
// RESOURCE HANDLERS
// =============================================================================

// ListResources returns resources with derived status.
// GET /api/resources?status=&role=&as_of=&search=
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	var f staffing.ResourceFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := staffing.ResourceStatus(s)
		f.Status = &status
	}
	f.Role = q.Get("role")
	f.Search = q.Get("search")
	if s := q.Get("as_of"); s != "" {
		asOf, err := staffing.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return
		}
		f.AsOf = &asOf
	}

	views, err := h.Resources.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list resources", err)
		return
	}

	dtos := make([]ResourceDTO, len(views))
	for i, v := range views {
		dtos[i] = toResourceDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateResource registers a staff member with a generated employee ID.
// POST /api/resources
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Engine.CreateResource(r.Context(), actor, req.Name, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ResourceDTO{
		ID:         string(created.ID),
		EmployeeID: created.EmployeeID,
		Name:       created.Name,
		Email:      created.Email,
		Status:     string(staffing.ResourceAvailable),
		CreatedAt:  created.CreatedAt.Format(timeLayout),
	})
}

// GetResource returns a resource with derived status and history.
// GET /api/resources/{id}
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	id := staffing.ResourceID(chi.URLParam(r, "id"))
	view, err := h.Resources.Get(r.Context(), id, staffing.Today())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := ResourceDetailDTO{ResourceDTO: toResourceDTO(*view)}
	dto.Assignments = toAssignmentDTOs(view.Assignments)
	writeJSON(w, http.StatusOK, dto)
}

// DeleteResource removes a resource unless it still holds active assignments.
// DELETE /api/resources/{id}
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id := staffing.ResourceID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteResource(r.Context(), actor, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// GetResourceAssignments returns the resource's assignment history,
// most recent start first.
// GET /api/resources/{id}/assignments
func (h *Handler) GetResourceAssignments(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	id := staffing.ResourceID(chi.URLParam(r, "id"))
	assignments, err := h.Resources.Assignments(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTOs(assignments))
}

// GetResourceTimeline projects the resource's assignments onto the month grid.
// GET /api/resources/{id}/timeline?as_of=
func (h *Handler) GetResourceTimeline(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	ctx := r.Context()

	id := staffing.ResourceID(chi.URLParam(r, "id"))
	asOf := staffing.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		parsed, err := staffing.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return
		}
		asOf = parsed
	}

	assignments, err := h.Resources.Assignments(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	projects := make(map[staffing.ProjectID]staffing.Project)
	for _, a := range assignments {
		if _, seen := projects[a.ProjectID]; seen {
			continue
		}
		p, err := h.Store.GetProject(ctx, a.ProjectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load projects", err)
			return
		}
		if p != nil {
			projects[a.ProjectID] = *p
		}
	}

	bars := h.Projector.Project(assignments, projects, asOf)
	dto := TimelineDTO{
		ResourceID:  string(id),
		WindowStart: h.Projector.WindowStart(asOf).String(),
		Months:      h.Projector.WindowMonths,
		Bars:        make([]BarDTO, len(bars)),
	}
	for i, b := range bars {
		dto.Bars[i] = BarDTO{
			AssignmentID: string(b.AssignmentID),
			ProjectID:    string(b.ProjectID),
			ProjectName:  b.ProjectName,
			Role:         b.Role,
			StartCol:     b.StartCol,
			EndCol:       b.EndCol,
			Left:         b.Left,
			Width:        b.Width,
			Category:     string(b.Category),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns projects with member counts. Managers see only
// projects they own.
// GET /api/projects?status=
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var status *staffing.ProjectStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := staffing.ProjectStatus(s)
		status = &st
	}

	views, err := h.Projects.List(r.Context(), actor, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(views))
	for i, v := range views {
		dtos[i] = toProjectDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject creates a project directly (admin path). Managers propose
// projects through the request queue instead.
// POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	managerID := staffing.UserID(req.ManagerID)
	if managerID == "" {
		managerID = actor.ID
	}
	created, err := h.Engine.CreateProject(r.Context(), actor, req.Name, req.Client, managerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectDTO(staffing.ProjectView{Project: *created}))
}

// GetProject returns a project with its member count.
// GET /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	id := staffing.ProjectID(chi.URLParam(r, "id"))
	view, err := h.Projects.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*view))
}

// UpdateProject edits name, client, and status (ongoing<->hold only).
// PUT /api/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := staffing.ProjectID(chi.URLParam(r, "id"))
	updated, err := h.Engine.UpdateProject(r.Context(), actor, id, staffing.ProjectUpdate{
		Name:   req.Name,
		Client: req.Client,
		Status: staffing.ProjectStatus(req.Status),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(staffing.ProjectView{Project: *updated}))
}

// DeleteProject removes a project unless it still has active assignments.
// DELETE /api/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id := staffing.ProjectID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteProject(r.Context(), actor, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// GetProjectResources returns the member roster with resource names.
// GET /api/projects/{id}/resources
func (h *Handler) GetProjectResources(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	id := staffing.ProjectID(chi.URLParam(r, "id"))
	views, err := h.Projects.Resources(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ProjectResourceDTO, len(views))
	for i, v := range views {
		dtos[i] = ProjectResourceDTO{
			AssignmentDTO: toAssignmentDTO(v.Assignment),
			ResourceName:  v.ResourceName,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DIRECT ASSIGNMENT HANDLERS (admin only)
// =============================================================================

// CreateAssignment assigns a resource to a project directly.
// POST /api/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Engine.DirectAssign(r.Context(), actor, staffing.AssignPayload{
		ResourceID: staffing.ResourceID(req.ResourceID),
		ProjectID:  staffing.ProjectID(req.ProjectID),
		Role:       req.Role,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*created))
}

// ExtendAssignment moves an assignment's end date later, directly.
// POST /api/assignments/{id}/extend
func (h *Handler) ExtendAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req ExtendAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Engine.DirectExtend(r.Context(), actor, staffing.ExtendPayload{
		AssignmentID: staffing.AssignmentID(chi.URLParam(r, "id")),
		NewEndDate:   req.NewEndDate,
		Reason:       req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*updated))
}

// ReleaseAssignment releases an assignment early, directly.
// POST /api/assignments/{id}/release
func (h *Handler) ReleaseAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req ReleaseAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Engine.DirectRelease(r.Context(), actor, staffing.ReleasePayload{
		AssignmentID: staffing.AssignmentID(chi.URLParam(r, "id")),
		ReleaseDate:  req.ReleaseDate,
		Reason:       req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*updated))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest proposes a mutation. Admin submissions apply immediately
// without materializing a request; manager submissions join the queue.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var body SubmitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	intent := staffing.Intent{
		Type:    staffing.RequestType(body.Type),
		Assign:  body.Assign,
		Extend:  body.Extend,
		Release: body.Release,
		Project: body.Project,
	}
	if !intentComplete(intent) {
		writeError(w, http.StatusBadRequest,
			"Request type must be one of assign/extend/release/project with a matching payload", nil)
		return
	}

	result, err := h.Engine.Submit(r.Context(), actor, intent)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := SubmitResponseDTO{Applied: result.Applied}
	if result.Request != nil {
		dto := toRequestDTO(*result.Request)
		resp.Request = &dto
	}
	writeJSON(w, http.StatusCreated, resp)
}

func intentComplete(i staffing.Intent) bool {
	switch i.Type {
	case staffing.RequestAssign:
		return i.Assign != nil
	case staffing.RequestExtend:
		return i.Extend != nil
	case staffing.RequestRelease:
		return i.Release != nil
	case staffing.RequestProject:
		return i.Project != nil
	}
	return false
}

// ListRequests returns the queue visible to the actor.
// GET /api/requests?status=&type=
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var f staffing.RequestFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := staffing.RequestStatus(s)
		f.Status = &status
	}
	if s := q.Get("type"); s != "" {
		t := staffing.RequestType(s)
		f.Type = &t
	}

	requests, err := h.Engine.ListRequests(r.Context(), actor, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ListRequestHistory returns approved/rejected requests only.
// GET /api/requests/history
func (h *Handler) ListRequestHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	requests, err := h.Engine.ListRequestHistory(r.Context(), actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list request history", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ApproveRequest applies a pending request's mutation and marks it approved.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id := staffing.RequestID(chi.URLParam(r, "id"))
	approved, err := h.Engine.Approve(r.Context(), actor, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*approved))
}

// RejectRequest marks a pending request rejected with a mandatory reason.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var body RejectRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := staffing.RequestID(chi.URLParam(r, "id"))
	rejected, err := h.Engine.Reject(r.Context(), actor, id, body.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*rejected))
}

// =============================================================================
// ACTIVITY AND DASHBOARD
// =============================================================================

// GetActivity returns applied mutations, newest first.
// GET /api/activity?project=&resource=&limit=
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	var f staffing.ActivityFilter
	q := r.URL.Query()
	f.ProjectID = staffing.ProjectID(q.Get("project"))
	f.ResourceID = staffing.ResourceID(q.Get("resource"))
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		f.Limit = limit
	}

	entries, err := h.Store.ListActivity(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activity", err)
		return
	}

	dtos := make([]ActivityDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ActivityDTO{
			ID:          e.ID,
			At:          e.At.Format(timeLayout),
			ActorID:     string(e.ActorID),
			Action:      string(e.Action),
			Description: e.Description,
			ProjectID:   string(e.ProjectID),
			ResourceID:  string(e.ResourceID),
			Role:        e.Role,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDashboard returns the landing-page stat block.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	stats, err := h.Dashboard.Stats(r.Context(), staffing.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute dashboard stats", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		TotalResources:  stats.TotalResources,
		Available:       stats.Available,
		Assigned:        stats.Assigned,
		ActiveProjects:  stats.ActiveProjects,
		PendingRequests: stats.PendingRequests,
		Utilization:     stats.Utilization,
		EndingSoon:      toAssignmentDTOs(stats.EndingSoon),
	})
}

// =============================================================================
// CONVERSIONS AND WRITERS
// =============================================================================

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toResourceDTO(v staffing.ResourceView) ResourceDTO {
	return ResourceDTO{
		ID:         string(v.ID),
		EmployeeID: v.EmployeeID,
		Name:       v.Name,
		Email:      v.Email,
		Status:     string(v.Status),
		CreatedAt:  v.CreatedAt.Format(timeLayout),
	}
}

func toProjectDTO(v staffing.ProjectView) ProjectDTO {
	return ProjectDTO{
		ID:          string(v.ID),
		Name:        v.Name,
		Client:      v.Client,
		ManagerID:   string(v.ManagerID),
		Status:      string(v.Project.Status),
		MemberCount: v.MemberCount,
		CreatedAt:   v.CreatedAt.Format(timeLayout),
	}
}

func toAssignmentDTO(a staffing.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:         string(a.ID),
		ResourceID: string(a.ResourceID),
		ProjectID:  string(a.ProjectID),
		Role:       a.Role,
		StartDate:  a.StartDate.String(),
		EndDate:    a.EndDate.String(),
		Status:     string(a.Status),
	}
}

func toAssignmentDTOs(assignments []staffing.Assignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	return dtos
}

func toRequestDTO(r staffing.Request) RequestDTO {
	dto := RequestDTO{
		ID:              string(r.ID),
		Type:            string(r.Type),
		RequesterID:     string(r.RequesterID),
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		SubmittedAt:     r.SubmittedAt.Format(timeLayout),
		DecidedBy:       string(r.DecidedBy),
		Assign:          r.Assign,
		Extend:          r.Extend,
		Release:         r.Release,
		Project:         r.Project,
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.Format(timeLayout)
	}
	return dto
}

func toRequestDTOs(requests []staffing.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(requests))
	for i, r := range requests {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
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

// writeDomainError maps the staffing error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *staffing.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: vErr.Message, Code: string(vErr.Code),
		})
	case staffing.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: "VALIDATION_ERROR",
		})
	case errors.Is(err, staffing.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{
			Error: err.Error(), Code: "FORBIDDEN",
		})
	case staffing.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: err.Error(), Code: "NOT_FOUND",
		})
	case staffing.IsCapacityConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(), Code: "CAPACITY_CONFLICT",
		})
	case staffing.IsStateConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(), Code: "STATE_CONFLICT",
		})
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
