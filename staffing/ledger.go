/*
ledger.go - Resource and Project ledgers

PURPOSE:
  Owns resource and project records and the derived views the dashboard
  reads: a resource's AVAILABLE/ASSIGNED status as of any date, a project's
  live member count, and role/date/text filtered listings.

DERIVATION, NOT DENORMALIZATION:
  Status and member count are recomputed from raw assignment rows on every
  query. There is no stored status column to invalidate: a resource is
  ASSIGNED on date d iff some ACTIVE assignment covers d.

SEE ALSO:
  - workflow.go: the only writer of assignment state
  - timeline.go: month-grid view over the same assignment rows
*/
package staffing

import (
	"context"
	"sort"
	"strings"
)

// =============================================================================
// RESOURCE LEDGER
// =============================================================================

type ResourceLedger struct {
	Store Store
}

func NewResourceLedger(store Store) *ResourceLedger {
	return &ResourceLedger{Store: store}
}

// ResourceView is a resource with its derived status.
type ResourceView struct {
	Resource
	Status      ResourceStatus
	Assignments []Assignment
}

// ResourceFilter narrows List. Zero values match everything.
type ResourceFilter struct {
	Status *ResourceStatus
	Role   string
	AsOf   *Date // defaults to today
	Search string
}

// StatusOn derives a resource's status on a date from its assignments.
// Pure; exported so callers holding assignment rows can avoid a re-read.
func StatusOn(assignments []Assignment, asOf Date) ResourceStatus {
	for _, a := range assignments {
		if a.ActiveOn(asOf) {
			return ResourceAssigned
		}
	}
	return ResourceAvailable
}

// Status answers "is/was/will this resource be busy on asOf".
func (l *ResourceLedger) Status(ctx context.Context, id ResourceID, asOf Date) (ResourceStatus, error) {
	res, err := l.Store.GetResource(ctx, id)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", &NotFoundError{Kind: "resource", ID: string(id)}
	}
	assignments, err := l.Store.ListAssignmentsByResource(ctx, id)
	if err != nil {
		return "", err
	}
	return StatusOn(assignments, asOf), nil
}

// Get returns a single resource with derived status and its assignments.
func (l *ResourceLedger) Get(ctx context.Context, id ResourceID, asOf Date) (*ResourceView, error) {
	res, err := l.Store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "resource", ID: string(id)}
	}
	assignments, err := l.Store.ListAssignmentsByResource(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ResourceView{
		Resource:    *res,
		Status:      StatusOn(assignments, asOf),
		Assignments: assignments,
	}, nil
}

// List returns resources with derived status, applying the filter.
// A resource matches a role filter when an assignment active (on the asOf
// date, if given) carries that role label.
func (l *ResourceLedger) List(ctx context.Context, f ResourceFilter) ([]ResourceView, error) {
	asOf := Today()
	if f.AsOf != nil {
		asOf = *f.AsOf
	}

	resources, err := l.Store.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	views := make([]ResourceView, 0, len(resources))
	for _, res := range resources {
		if search != "" &&
			!strings.Contains(strings.ToLower(res.Name), search) &&
			!strings.Contains(strings.ToLower(res.Email), search) &&
			!strings.Contains(strings.ToLower(res.EmployeeID), search) {
			continue
		}

		assignments, err := l.Store.ListAssignmentsByResource(ctx, res.ID)
		if err != nil {
			return nil, err
		}

		status := StatusOn(assignments, asOf)
		if f.Status != nil && status != *f.Status {
			continue
		}
		if f.Role != "" && !matchesRole(assignments, f.Role, asOf) {
			continue
		}

		views = append(views, ResourceView{Resource: res, Status: status, Assignments: assignments})
	}
	return views, nil
}

func matchesRole(assignments []Assignment, role string, asOf Date) bool {
	for _, a := range assignments {
		if a.ActiveOn(asOf) && strings.EqualFold(a.Role, role) {
			return true
		}
	}
	return false
}

// Assignments returns a resource's assignments, most recent start first.
func (l *ResourceLedger) Assignments(ctx context.Context, id ResourceID) ([]Assignment, error) {
	res, err := l.Store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "resource", ID: string(id)}
	}
	assignments, err := l.Store.ListAssignmentsByResource(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].StartDate.After(assignments[j].StartDate)
	})
	return assignments, nil
}

// =============================================================================
// PROJECT LEDGER
// =============================================================================

type ProjectLedger struct {
	Store Store
}

func NewProjectLedger(store Store) *ProjectLedger {
	return &ProjectLedger{Store: store}
}

// ProjectView is a project with its derived member count.
type ProjectView struct {
	Project
	MemberCount int
}

// AssignmentView is an assignment joined with its resource's display name,
// as shown on the project detail page.
type AssignmentView struct {
	Assignment
	ResourceName string
}

// MemberCount counts ACTIVE assignments for the project, recomputed per query.
func (l *ProjectLedger) MemberCount(ctx context.Context, id ProjectID) (int, error) {
	assignments, err := l.Store.ListAssignmentsByProject(ctx, id)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, a := range assignments {
		if a.Status == AssignmentActive {
			count++
		}
	}
	return count, nil
}

// List returns projects with member counts. A manager sees only projects
// they own; admins see everything.
func (l *ProjectLedger) List(ctx context.Context, actor Actor, status *ProjectStatus) ([]ProjectView, error) {
	projects, err := l.Store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		if actor.Role == RoleManager && p.ManagerID != actor.ID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		count, err := l.MemberCount(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, ProjectView{Project: p, MemberCount: count})
	}
	return views, nil
}

// Get returns a single project with member count.
func (l *ProjectLedger) Get(ctx context.Context, id ProjectID) (*ProjectView, error) {
	p, err := l.Store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "project", ID: string(id)}
	}
	count, err := l.MemberCount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: *p, MemberCount: count}, nil
}

// Resources returns the project's assignments joined with resource names.
func (l *ProjectLedger) Resources(ctx context.Context, id ProjectID) ([]AssignmentView, error) {
	p, err := l.Store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "project", ID: string(id)}
	}
	assignments, err := l.Store.ListAssignmentsByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		res, err := l.Store.GetResource(ctx, a.ResourceID)
		if err != nil {
			return nil, err
		}
		view := AssignmentView{Assignment: a}
		if res != nil {
			view.ResourceName = res.Name
		}
		views = append(views, view)
	}
	return views, nil
}
