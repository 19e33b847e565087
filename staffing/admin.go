/*
admin.go - Administrator record management

PURPOSE:
  Resource and project record lifecycle. These are admin-only operations
  with no approval dimension (apart from PROJECT proposals, which live in
  workflow.go); they still run through the engine so the role check, the
  deletion guards, and the activity log are applied in exactly one place.

GUARDS:
  - A project may only be deleted with zero ACTIVE assignments.
  - A resource may only be deleted with zero ACTIVE assignments.
  - A closed project can never reopen; manual status updates may only move
    between ONGOING and HOLD. Closure happens automatically when the last
    active assignment is released or expires.
*/
package staffing

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// RESOURCES
// =============================================================================

// CreateResource adds a resource with a generated sequential employee ID.
// The email must not be in use.
func (e *Engine) CreateResource(ctx context.Context, actor Actor, name, email string) (*Resource, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(name) == "" {
		return nil, validationf(CodeNameRequired, "resource name is required")
	}

	var created *Resource
	err := e.Store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetResourceByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return &StateConflictError{Kind: "resource", ID: email, Message: "email already in use"}
		}
		count, err := s.CountResources(ctx)
		if err != nil {
			return err
		}
		res := Resource{
			ID:         ResourceID(fmt.Sprintf("res-%d", e.now().UnixNano())),
			EmployeeID: fmt.Sprintf("EMP%03d", count+1),
			Name:       name,
			Email:      email,
			CreatedAt:  e.now(),
		}
		if err := s.SaveResource(ctx, res); err != nil {
			return err
		}
		created = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteResource removes a resource. Refused while active assignments remain.
func (e *Engine) DeleteResource(ctx context.Context, actor Actor, id ResourceID) error {
	if !actor.CanActDirectly() {
		return ErrForbidden
	}
	return e.Store.WithTx(ctx, func(s Store) error {
		res, err := s.GetResource(ctx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return &NotFoundError{Kind: "resource", ID: string(id)}
		}
		assignments, err := s.ListAssignmentsByResource(ctx, id)
		if err != nil {
			return err
		}
		active := 0
		for _, a := range assignments {
			if a.Status == AssignmentActive {
				active++
			}
		}
		if active > 0 {
			return &CapacityConflictError{Kind: "resource", ID: string(id), ActiveCount: active}
		}
		return s.DeleteResource(ctx, id)
	})
}

// =============================================================================
// PROJECTS
// =============================================================================

// CreateProject adds a project directly, owned by the given manager.
func (e *Engine) CreateProject(ctx context.Context, actor Actor, name, client string, managerID UserID) (*Project, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(name) == "" {
		return nil, validationf(CodeNameRequired, "project name is required")
	}

	var created *Project
	err := e.Store.WithTx(ctx, func(s Store) error {
		manager, err := s.GetUser(ctx, managerID)
		if err != nil {
			return err
		}
		if manager == nil {
			return &NotFoundError{Kind: "user", ID: string(managerID)}
		}
		p := Project{
			ID:        ProjectID(fmt.Sprintf("prj-%d", e.now().UnixNano())),
			Name:      name,
			Client:    client,
			ManagerID: managerID,
			Status:    ProjectOngoing,
			CreatedAt: e.now(),
		}
		if err := s.SaveProject(ctx, p); err != nil {
			return err
		}
		created = &p
		return s.AppendActivity(ctx, ActivityEntry{
			ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityProjectCreated,
			Description: fmt.Sprintf("created project %s for %s", name, client),
			ProjectID:   p.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ProjectUpdate carries an admin edit of a project's mutable fields.
type ProjectUpdate struct {
	Name   string
	Client string
	Status ProjectStatus
}

// UpdateProject edits name, client, and status. Closed projects are
// terminal; manual status changes may only move between ONGOING and HOLD.
func (e *Engine) UpdateProject(ctx context.Context, actor Actor, id ProjectID, upd ProjectUpdate) (*Project, error) {
	if !actor.CanActDirectly() {
		return nil, ErrForbidden
	}

	var updated *Project
	err := e.Store.WithTx(ctx, func(s Store) error {
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return &NotFoundError{Kind: "project", ID: string(id)}
		}
		if p.Status == ProjectClosed && upd.Status != ProjectClosed {
			return &StateConflictError{Kind: "project", ID: string(id),
				Message: "closed projects cannot reopen"}
		}
		if upd.Status == ProjectClosed && p.Status != ProjectClosed {
			return &StateConflictError{Kind: "project", ID: string(id),
				Message: "projects close automatically when all resources are released"}
		}

		before := *p
		p.Name = upd.Name
		p.Client = upd.Client
		p.Status = upd.Status
		if err := s.SaveProject(ctx, *p); err != nil {
			return err
		}
		updated = p
		return s.AppendActivity(ctx, ActivityEntry{
			ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityProjectUpdated,
			Description: fmt.Sprintf("updated project: name(%s -> %s), client(%s -> %s), status(%s -> %s)",
				before.Name, upd.Name, before.Client, upd.Client, before.Status, upd.Status),
			ProjectID: id,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProject removes a project and its released/expired assignment
// history. Refused while any assignment is still ACTIVE.
func (e *Engine) DeleteProject(ctx context.Context, actor Actor, id ProjectID) error {
	if !actor.CanActDirectly() {
		return ErrForbidden
	}
	return e.Store.WithTx(ctx, func(s Store) error {
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return &NotFoundError{Kind: "project", ID: string(id)}
		}
		assignments, err := s.ListAssignmentsByProject(ctx, id)
		if err != nil {
			return err
		}
		active := 0
		for _, a := range assignments {
			if a.Status == AssignmentActive {
				active++
			}
		}
		if active > 0 {
			return &CapacityConflictError{Kind: "project", ID: string(id), ActiveCount: active}
		}
		if err := s.DeleteProject(ctx, id); err != nil {
			return err
		}
		return s.AppendActivity(ctx, ActivityEntry{
			ID: e.activityID(), At: e.now(), ActorID: actor.ID, Action: ActivityProjectDeleted,
			Description: fmt.Sprintf("deleted project %s", p.Name),
			ProjectID:   id,
		})
	})
}

// =============================================================================
// REQUEST LISTINGS
// =============================================================================

// ListRequests returns requests visible to the actor: admins see all,
// managers only their own submissions.
func (e *Engine) ListRequests(ctx context.Context, actor Actor, f RequestFilter) ([]Request, error) {
	if actor.Role == RoleManager {
		f.RequesterID = &actor.ID
	}
	return e.Store.ListRequests(ctx, f)
}

// ListRequestHistory returns terminal (approved/rejected) requests only.
func (e *Engine) ListRequestHistory(ctx context.Context, actor Actor) ([]Request, error) {
	return e.ListRequests(ctx, actor, RequestFilter{Terminal: true})
}
