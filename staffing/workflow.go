/*
workflow.go - Request workflow engine

PURPOSE:
  Drives the pending -> approved/rejected state machine and every mutation
  of resource, project, and assignment state. Whether the caller is an
  administrator acting directly or a manager submitting for approval, the
  same validation and application routines run - there is exactly one copy
  of each business rule.

REQUEST FLOW:
  Submit (manager)  -> PENDING request persisted, nothing else changes
  Submit (admin)    -> validated and applied immediately; no request record
  Approve           -> re-validate against CURRENT state, apply mutation,
                       mark APPROVED - one atomic transaction
  Reject            -> mark REJECTED with a mandatory reason; no mutation

STALENESS:
  Approval never trusts submission-time state. A project that closed after
  the request was submitted, or an assignment already released by a
  competing approval, fails validation at approve time and the request
  stays PENDING for the approver to reject with a reason.

ATOMICITY:
  Every mutation runs inside Store.WithTx. The ledger mutation and the
  request status transition commit together or not at all; two concurrent
  approvals on the same assignment cannot both succeed.

SEE ALSO:
  - validate.go: the conflict rules applied here
  - sweep.go:    the passive ACTIVE -> EXPIRED transition
*/
package staffing

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Store TxStore

	// Now is the clock used for "today" and timestamps. Overridable in tests.
	Now func() time.Time
}

func NewEngine(store TxStore) *Engine {
	return &Engine{Store: store, Now: time.Now}
}

func (e *Engine) now() time.Time { return e.Now().UTC() }

func (e *Engine) today() Date {
	t := e.now()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Intent is a proposed mutation before it becomes either a pending request
// or a directly applied change. Exactly one payload matching Type is set.
type Intent struct {
	Type    RequestType
	Assign  *AssignPayload
	Extend  *ExtendPayload
	Release *ReleasePayload
	Project *ProjectPayload
}

// SubmitResult reports what Submit did. Applied is true on the admin bypass
// path, where the mutation happened immediately and no request record
// exists; otherwise Request holds the persisted PENDING request.
type SubmitResult struct {
	Request *Request
	Applied bool
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit records a pending request, or - when the requester's role has
// direct authority - validates and applies the mutation immediately without
// materializing a request.
func (e *Engine) Submit(ctx context.Context, actor Actor, intent Intent) (*SubmitResult, error) {
	if actor.CanActDirectly() {
		if err := e.applyIntent(ctx, actor, intent); err != nil {
			return nil, err
		}
		return &SubmitResult{Applied: true}, nil
	}

	req := &Request{
		ID:          RequestID(fmt.Sprintf("req-%d", e.now().UnixNano())),
		Type:        intent.Type,
		RequesterID: actor.ID,
		Status:      RequestPending,
		SubmittedAt: e.now(),
		Assign:      intent.Assign,
		Extend:      intent.Extend,
		Release:     intent.Release,
		Project:     intent.Project,
	}

	err := e.Store.WithTx(ctx, func(s Store) error {
		// Early validation so obviously broken submissions never enter the
		// queue. Approval re-validates against whatever state holds then.
		if err := e.validateIntent(ctx, s, intent); err != nil {
			return err
		}
		return s.InsertRequest(ctx, *req)
	})
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Request: req}, nil
}

// validateIntent checks an intent against current state without mutating.
func (e *Engine) validateIntent(ctx context.Context, s Store, intent Intent) error {
	switch intent.Type {
	case RequestAssign:
		p := intent.Assign
		if p == nil {
			return validationf(CodeInvalidRange, "assign payload missing")
		}
		project, existing, err := e.loadAssignContext(ctx, s, *p)
		if err != nil {
			return err
		}
		if verr := ValidateAssign(*p, project, existing); verr != nil {
			return verr
		}
	case RequestExtend:
		p := intent.Extend
		if p == nil {
			return validationf(CodeInvalidRange, "extend payload missing")
		}
		current, err := e.loadActiveAssignment(ctx, s, p.AssignmentID)
		if err != nil {
			return err
		}
		if verr := ValidateExtend(*p, current); verr != nil {
			return verr
		}
	case RequestRelease:
		p := intent.Release
		if p == nil {
			return validationf(CodeInvalidRange, "release payload missing")
		}
		current, err := e.loadActiveAssignment(ctx, s, p.AssignmentID)
		if err != nil {
			return err
		}
		if verr := ValidateRelease(*p, current); verr != nil {
			return verr
		}
	case RequestProject:
		p := intent.Project
		if p == nil {
			return validationf(CodeInvalidRange, "project payload missing")
		}
		if verr := ValidateProjectProposal(*p); verr != nil {
			return verr
		}
		for _, item := range p.Plan {
			res, err := s.GetResource(ctx, item.ResourceID)
			if err != nil {
				return err
			}
			if res == nil {
				return &NotFoundError{Kind: "resource", ID: string(item.ResourceID)}
			}
		}
	default:
		return validationf(CodeInvalidRange, "unknown request type %q", intent.Type)
	}
	return nil
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

// Approve re-validates the request against current state and applies its
// mutation. On validation failure the request remains PENDING - the
// approval fails, the request is not auto-rejected.
func (e *Engine) Approve(ctx context.Context, actor Actor, id RequestID) (*Request, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}

	var approved *Request
	err := e.Store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return &NotFoundError{Kind: "request", ID: string(id)}
		}
		if req.Status != RequestPending {
			return &StateConflictError{Kind: "request", ID: string(id),
				Message: fmt.Sprintf("cannot approve request in status %q", req.Status)}
		}

		requester := Actor{ID: req.RequesterID, Role: RoleManager}
		createdProject, err := e.apply(ctx, s, requester, Intent{
			Type:    req.Type,
			Assign:  req.Assign,
			Extend:  req.Extend,
			Release: req.Release,
			Project: req.Project,
		})
		if err != nil {
			return err
		}

		now := e.now()
		req.Status = RequestApproved
		req.DecidedAt = &now
		req.DecidedBy = actor.ID
		if err := s.UpdateRequest(ctx, *req); err != nil {
			return err
		}
		approved = req
		entry, err := e.requestActivity(ctx, s, actor, ActivityRequestApproved,
			fmt.Sprintf("approved %s request from %s", req.Type, req.RequesterID), req)
		if err != nil {
			return err
		}
		if createdProject != nil {
			entry.ProjectID = createdProject.ID
		}
		return s.AppendActivity(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject marks the request rejected with a mandatory reason. The reason is
// surfaced verbatim to the requester; no ledger mutation occurs.
func (e *Engine) Reject(ctx context.Context, actor Actor, id RequestID, reason string) (*Request, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return nil, validationf(CodeReasonRequired, "rejection requires a reason")
	}

	var rejected *Request
	err := e.Store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return &NotFoundError{Kind: "request", ID: string(id)}
		}
		if req.Status != RequestPending {
			return &StateConflictError{Kind: "request", ID: string(id),
				Message: fmt.Sprintf("cannot reject request in status %q", req.Status)}
		}

		now := e.now()
		req.Status = RequestRejected
		req.RejectionReason = reason
		req.DecidedAt = &now
		req.DecidedBy = actor.ID
		if err := s.UpdateRequest(ctx, *req); err != nil {
			return err
		}
		rejected = req
		entry, err := e.requestActivity(ctx, s, actor, ActivityRequestRejected,
			fmt.Sprintf("rejected %s request from %s: %s", req.Type, req.RequesterID, reason), req)
		if err != nil {
			return err
		}
		return s.AppendActivity(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// =============================================================================
// DIRECT MUTATION PATHS (administrator only)
// =============================================================================

// DirectAssign validates and creates an assignment immediately.
func (e *Engine) DirectAssign(ctx context.Context, actor Actor, p AssignPayload) (*Assignment, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}
	var created *Assignment
	err := e.Store.WithTx(ctx, func(s Store) error {
		a, err := e.assignTx(ctx, s, actor, p)
		created = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DirectExtend validates and extends an assignment immediately.
func (e *Engine) DirectExtend(ctx context.Context, actor Actor, p ExtendPayload) (*Assignment, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}
	var extended *Assignment
	err := e.Store.WithTx(ctx, func(s Store) error {
		a, err := e.extendTx(ctx, s, actor, p)
		extended = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return extended, nil
}

// DirectRelease validates and releases an assignment immediately.
func (e *Engine) DirectRelease(ctx context.Context, actor Actor, p ReleasePayload) (*Assignment, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}
	var released *Assignment
	err := e.Store.WithTx(ctx, func(s Store) error {
		a, err := e.releaseTx(ctx, s, actor, p)
		released = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// Transaction-scoped mutation+activity pairs. Every entry point - direct,
// bypass, or approval - funnels into these.

func (e *Engine) assignTx(ctx context.Context, s Store, actor Actor, p AssignPayload) (*Assignment, error) {
	a, err := e.applyAssign(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return a, s.AppendActivity(ctx, ActivityEntry{
		ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityAssign,
		Description: fmt.Sprintf("assigned %s to project %s as %s", p.ResourceID, p.ProjectID, p.Role),
		ProjectID:   p.ProjectID, ResourceID: p.ResourceID, Role: p.Role,
	})
}

func (e *Engine) extendTx(ctx context.Context, s Store, actor Actor, p ExtendPayload) (*Assignment, error) {
	a, err := e.applyExtend(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return a, s.AppendActivity(ctx, ActivityEntry{
		ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityExtend,
		Description: fmt.Sprintf("extended assignment %s until %s - %s", p.AssignmentID, p.NewEndDate, p.Reason),
		ProjectID:   a.ProjectID, ResourceID: a.ResourceID, Role: a.Role,
	})
}

func (e *Engine) releaseTx(ctx context.Context, s Store, actor Actor, p ReleasePayload) (*Assignment, error) {
	a, err := e.applyRelease(ctx, s, actor, p)
	if err != nil {
		return nil, err
	}
	return a, s.AppendActivity(ctx, ActivityEntry{
		ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityRelease,
		Description: fmt.Sprintf("released assignment %s on %s - %s", p.AssignmentID, a.EndDate, p.Reason),
		ProjectID:   a.ProjectID, ResourceID: a.ResourceID, Role: a.Role,
	})
}

// applyIntent is the admin bypass path of Submit: one transaction that
// validates and applies, with activity logging matching the direct paths.
func (e *Engine) applyIntent(ctx context.Context, actor Actor, intent Intent) error {
	return e.Store.WithTx(ctx, func(s Store) error {
		switch intent.Type {
		case RequestAssign:
			if intent.Assign == nil {
				return validationf(CodeInvalidRange, "assign payload missing")
			}
			_, err := e.assignTx(ctx, s, actor, *intent.Assign)
			return err
		case RequestExtend:
			if intent.Extend == nil {
				return validationf(CodeInvalidRange, "extend payload missing")
			}
			_, err := e.extendTx(ctx, s, actor, *intent.Extend)
			return err
		case RequestRelease:
			if intent.Release == nil {
				return validationf(CodeInvalidRange, "release payload missing")
			}
			_, err := e.releaseTx(ctx, s, actor, *intent.Release)
			return err
		case RequestProject:
			if intent.Project == nil {
				return validationf(CodeInvalidRange, "project payload missing")
			}
			_, err := e.applyProject(ctx, s, actor, *intent.Project, actor.ID)
			return err
		}
		return validationf(CodeInvalidRange, "unknown request type %q", intent.Type)
	})
}

// apply runs a request's mutation inside an existing transaction. Used by
// Approve; the requester owns the resulting project for PROJECT requests.
// Returns the created project for PROJECT intents, nil otherwise.
func (e *Engine) apply(ctx context.Context, s Store, requester Actor, intent Intent) (*Project, error) {
	switch intent.Type {
	case RequestAssign:
		_, err := e.applyAssign(ctx, s, *intent.Assign)
		return nil, err
	case RequestExtend:
		_, err := e.applyExtend(ctx, s, *intent.Extend)
		return nil, err
	case RequestRelease:
		_, err := e.applyRelease(ctx, s, requester, *intent.Release)
		return nil, err
	case RequestProject:
		return e.applyProject(ctx, s, requester, *intent.Project, requester.ID)
	}
	return nil, validationf(CodeInvalidRange, "unknown request type %q", intent.Type)
}

// =============================================================================
// APPLICATION ROUTINES - one copy of each mutation, all entry points share
// =============================================================================

func (e *Engine) loadAssignContext(ctx context.Context, s Store, p AssignPayload) (*Project, []Assignment, error) {
	res, err := s.GetResource(ctx, p.ResourceID)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return nil, nil, &NotFoundError{Kind: "resource", ID: string(p.ResourceID)}
	}
	project, err := s.GetProject(ctx, p.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, &NotFoundError{Kind: "project", ID: string(p.ProjectID)}
	}
	existing, err := s.ListAssignmentsByResource(ctx, p.ResourceID)
	if err != nil {
		return nil, nil, err
	}
	return project, existing, nil
}

func (e *Engine) loadActiveAssignment(ctx context.Context, s Store, id AssignmentID) (*Assignment, error) {
	a, err := s.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &NotFoundError{Kind: "assignment", ID: string(id)}
	}
	if a.Status != AssignmentActive {
		return nil, &StateConflictError{Kind: "assignment", ID: string(id),
			Message: fmt.Sprintf("assignment is %s, not active", a.Status)}
	}
	return a, nil
}

func (e *Engine) applyAssign(ctx context.Context, s Store, p AssignPayload) (*Assignment, error) {
	project, existing, err := e.loadAssignContext(ctx, s, p)
	if err != nil {
		return nil, err
	}
	if verr := ValidateAssign(p, project, existing); verr != nil {
		return nil, verr
	}

	a := Assignment{
		ID:         AssignmentID(fmt.Sprintf("asg-%d", e.now().UnixNano())),
		ResourceID: p.ResourceID,
		ProjectID:  p.ProjectID,
		Role:       p.Role,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Status:     AssignmentActive,
		CreatedAt:  e.now(),
	}
	if err := s.SaveAssignment(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (e *Engine) applyExtend(ctx context.Context, s Store, p ExtendPayload) (*Assignment, error) {
	current, err := e.loadActiveAssignment(ctx, s, p.AssignmentID)
	if err != nil {
		return nil, err
	}
	if verr := ValidateExtend(p, current); verr != nil {
		return nil, verr
	}
	current.EndDate = p.NewEndDate
	if err := s.SaveAssignment(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

func (e *Engine) applyRelease(ctx context.Context, s Store, actor Actor, p ReleasePayload) (*Assignment, error) {
	current, err := e.loadActiveAssignment(ctx, s, p.AssignmentID)
	if err != nil {
		return nil, err
	}
	if verr := ValidateRelease(p, current); verr != nil {
		return nil, verr
	}

	// The effective end never moves later on a release.
	current.EndDate = current.EndDate.Min(p.ReleaseDate)
	current.Status = AssignmentReleased
	if err := s.SaveAssignment(ctx, *current); err != nil {
		return nil, err
	}

	if err := e.closeProjectIfDrained(ctx, s, actor, current.ProjectID); err != nil {
		return nil, err
	}
	return current, nil
}

// closeProjectIfDrained closes a project once it has assignments but none
// remain active. Closure is terminal and only ever reached this way.
func (e *Engine) closeProjectIfDrained(ctx context.Context, s Store, actor Actor, id ProjectID) error {
	project, err := s.GetProject(ctx, id)
	if err != nil || project == nil || project.Status == ProjectClosed {
		return err
	}
	assignments, err := s.ListAssignmentsByProject(ctx, id)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return nil
	}
	for _, a := range assignments {
		if a.Status == AssignmentActive {
			return nil
		}
	}

	project.Status = ProjectClosed
	if err := s.SaveProject(ctx, *project); err != nil {
		return err
	}
	return s.AppendActivity(ctx, ActivityEntry{
		ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityProjectClosed,
		Description: "project closed: all resources released",
		ProjectID:   id,
	})
}

func (e *Engine) applyProject(ctx context.Context, s Store, actor Actor, p ProjectPayload, managerID UserID) (*Project, error) {
	if verr := ValidateProjectProposal(p); verr != nil {
		return nil, verr
	}

	project := Project{
		ID:        ProjectID(fmt.Sprintf("prj-%d", e.now().UnixNano())),
		Name:      p.Name,
		Client:    p.Client,
		ManagerID: managerID,
		Status:    ProjectOngoing,
		CreatedAt: e.now(),
	}
	if err := s.SaveProject(ctx, project); err != nil {
		return nil, err
	}

	for i, item := range p.Plan {
		res, err := s.GetResource(ctx, item.ResourceID)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, &NotFoundError{Kind: "resource", ID: string(item.ResourceID)}
		}
		a := Assignment{
			ID:         AssignmentID(fmt.Sprintf("asg-%d-%d", e.now().UnixNano(), i)),
			ResourceID: item.ResourceID,
			ProjectID:  project.ID,
			Role:       item.Role,
			StartDate:  item.StartDate,
			EndDate:    item.EndDate,
			Status:     AssignmentActive,
			CreatedAt:  e.now(),
		}
		if err := s.SaveAssignment(ctx, a); err != nil {
			return nil, err
		}
	}

	if err := s.AppendActivity(ctx, ActivityEntry{
		ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityProjectCreated,
		Description: fmt.Sprintf("created project %s for %s with %d planned resource(s)", p.Name, p.Client, len(p.Plan)),
		ProjectID:   project.ID,
	}); err != nil {
		return nil, err
	}
	return &project, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) activityID() string {
	return fmt.Sprintf("act-%d", e.now().UnixNano())
}

// requestActivity builds the decision log entry for a request, resolving
// the assignment it targets so project and resource filters find it.
func (e *Engine) requestActivity(ctx context.Context, s Store, actor Actor, action ActivityAction, desc string, req *Request) (ActivityEntry, error) {
	entry := ActivityEntry{
		ID: e.activityID(), At: e.now(), ActorID: actor.ID,
		Action: action, Description: desc,
	}
	switch {
	case req.Assign != nil:
		entry.ProjectID = req.Assign.ProjectID
		entry.ResourceID = req.Assign.ResourceID
		entry.Role = req.Assign.Role
	case req.Extend != nil, req.Release != nil:
		a, err := s.GetAssignment(ctx, req.TargetAssignment())
		if err != nil {
			return ActivityEntry{}, err
		}
		if a != nil {
			entry.ProjectID = a.ProjectID
			entry.ResourceID = a.ResourceID
			entry.Role = a.Role
		}
	}
	return entry, nil
}
