package staffing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/staffing"
	"github.com/warp/staffing-engine/staffing/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	adminActor   = staffing.Actor{ID: "u-admin", Name: "Admin", Role: staffing.RoleAdmin}
	managerActor = staffing.Actor{ID: "u-mgr", Name: "Manager", Role: staffing.RoleManager}
)

func newTestEngine(t *testing.T) (*staffing.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return staffing.NewEngine(mem), mem
}

func seedResource(t *testing.T, s staffing.Store, id, name string) staffing.Resource {
	t.Helper()
	r := staffing.Resource{
		ID: staffing.ResourceID(id), EmployeeID: "EMP-" + id,
		Name: name, Email: id + "@example.com", CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveResource(context.Background(), r))
	return r
}

func seedProject(t *testing.T, s staffing.Store, id string, status staffing.ProjectStatus) staffing.Project {
	t.Helper()
	p := staffing.Project{
		ID: staffing.ProjectID(id), Name: "Project " + id, Client: "Acme",
		ManagerID: managerActor.ID, Status: status, CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveProject(context.Background(), p))
	return p
}

func seedAssignment(t *testing.T, s staffing.Store, id, resID, prjID string, start, end staffing.Date, status staffing.AssignmentStatus) staffing.Assignment {
	t.Helper()
	a := staffing.Assignment{
		ID: staffing.AssignmentID(id), ResourceID: staffing.ResourceID(resID),
		ProjectID: staffing.ProjectID(prjID), Role: "backend",
		StartDate: start, EndDate: end, Status: status, CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveAssignment(context.Background(), a))
	return a
}

func assignIntent(resID, prjID string, start, end staffing.Date) staffing.Intent {
	return staffing.Intent{
		Type: staffing.RequestAssign,
		Assign: &staffing.AssignPayload{
			ResourceID: staffing.ResourceID(resID), ProjectID: staffing.ProjectID(prjID),
			Role: "backend", StartDate: start, EndDate: end,
		},
	}
}

func extendIntent(asgID string, newEnd staffing.Date, reason string) staffing.Intent {
	return staffing.Intent{
		Type: staffing.RequestExtend,
		Extend: &staffing.ExtendPayload{
			AssignmentID: staffing.AssignmentID(asgID), NewEndDate: newEnd, Reason: reason,
		},
	}
}

func releaseIntent(asgID string, date staffing.Date, reason string) staffing.Intent {
	return staffing.Intent{
		Type: staffing.RequestRelease,
		Release: &staffing.ReleasePayload{
			AssignmentID: staffing.AssignmentID(asgID), ReleaseDate: date, Reason: reason,
		},
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_Manager_CreatesPendingRequest(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	result, err := engine.Submit(ctx, managerActor,
		assignIntent("res-1", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.NoError(t, err)

	assert.False(t, result.Applied)
	require.NotNil(t, result.Request)
	assert.Equal(t, staffing.RequestPending, result.Request.Status)
	assert.Equal(t, managerActor.ID, result.Request.RequesterID)

	// Nothing materializes until approval.
	assignments, err := mem.ListAssignmentsByResource(ctx, "res-1")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestSubmit_Admin_AppliesWithoutRequest(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	result, err := engine.Submit(ctx, adminActor,
		assignIntent("res-1", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Nil(t, result.Request)

	assignments, err := mem.ListAssignmentsByResource(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, staffing.AssignmentActive, assignments[0].Status)

	requests, err := mem.ListRequests(ctx, staffing.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests, "admin bypass must not materialize a request record")
}

func TestSubmit_InvalidIntent_NothingPersisted(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	// Inverted range fails validation before the request ever enters the queue.
	_, err := engine.Submit(ctx, managerActor,
		assignIntent("res-1", "prj-1", d(2026, time.August, 31), d(2026, time.June, 1)))
	require.Error(t, err)
	assert.True(t, staffing.IsValidation(err))

	requests, err := mem.ListRequests(ctx, staffing.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestSubmit_UnknownResource_NotFound(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	_, err := engine.Submit(ctx, managerActor,
		assignIntent("res-ghost", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.Error(t, err)
	assert.True(t, staffing.IsNotFound(err))
}

func TestSubmit_SecondPendingOnSameAssignment_Rejected(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	_, err := engine.Submit(ctx, managerActor,
		extendIntent("asg-1", d(2026, time.September, 30), "client renewal"))
	require.NoError(t, err)

	// A release on the same assignment while the extend is pending.
	_, err = engine.Submit(ctx, managerActor,
		releaseIntent("asg-1", d(2026, time.May, 1), "rolling off early"))
	require.Error(t, err)
	assert.ErrorIs(t, err, staffing.ErrDuplicatePendingRequest)
	assert.True(t, staffing.IsStateConflict(err))
}

func TestSubmit_PendingOnDifferentAssignments_BothAccepted(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedResource(t, mem, "res-2", "Marcus Webb")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)
	seedAssignment(t, mem, "asg-2", "res-2", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	_, err := engine.Submit(ctx, managerActor,
		extendIntent("asg-1", d(2026, time.September, 30), "client renewal"))
	require.NoError(t, err)

	_, err = engine.Submit(ctx, managerActor,
		extendIntent("asg-2", d(2026, time.September, 30), "client renewal"))
	require.NoError(t, err)
}

func TestSubmit_NewPendingAllowedAfterRejection(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	first, err := engine.Submit(ctx, managerActor,
		extendIntent("asg-1", d(2026, time.September, 30), "client renewal"))
	require.NoError(t, err)

	_, err = engine.Reject(ctx, adminActor, first.Request.ID, "budget not approved")
	require.NoError(t, err)

	// The uniqueness constraint only covers PENDING requests.
	_, err = engine.Submit(ctx, managerActor,
		extendIntent("asg-1", d(2026, time.August, 31), "shorter renewal"))
	require.NoError(t, err)
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApprove_AppliesMutationAndMarksRequest(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	submitted, err := engine.Submit(ctx, managerActor,
		assignIntent("res-1", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.NoError(t, err)

	approved, err := engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.NoError(t, err)

	assert.Equal(t, staffing.RequestApproved, approved.Status)
	assert.Equal(t, adminActor.ID, approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)

	assignments, err := mem.ListAssignmentsByResource(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, staffing.AssignmentActive, assignments[0].Status)
}

func TestApprove_ByManager_Forbidden(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Approve(context.Background(), managerActor, "req-1")
	assert.ErrorIs(t, err, staffing.ErrForbidden)
}

func TestApprove_AlreadyDecided_StateConflict(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	submitted, err := engine.Submit(ctx, managerActor,
		assignIntent("res-1", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.NoError(t, err)

	_, err = engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.NoError(t, err)

	_, err = engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.Error(t, err)
	assert.True(t, staffing.IsStateConflict(err))
}

func TestApprove_StaleRequest_FailsAndStaysPending(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	project := seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	submitted, err := engine.Submit(ctx, managerActor,
		assignIntent("res-1", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.NoError(t, err)

	// The project closes between submission and approval.
	project.Status = staffing.ProjectClosed
	require.NoError(t, mem.SaveProject(ctx, project))

	_, err = engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.Error(t, err)
	assert.True(t, staffing.IsValidation(err))

	var verr *staffing.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, staffing.CodeProjectClosed, verr.Code)

	// The failed approval leaves the request pending for an explicit rejection.
	req, err := mem.GetRequest(ctx, submitted.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, staffing.RequestPending, req.Status)

	assignments, err := mem.ListAssignmentsByResource(ctx, "res-1")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestApprove_ProjectProposal_OwnedByRequester(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")

	submitted, err := engine.Submit(ctx, managerActor, staffing.Intent{
		Type: staffing.RequestProject,
		Project: &staffing.ProjectPayload{
			Name: "Phoenix Launch", Client: "Northwind",
			Plan: []staffing.PlanItem{{
				ResourceID: "res-1", Role: "backend",
				StartDate: d(2026, time.July, 1), EndDate: d(2026, time.December, 31),
			}},
		},
	})
	require.NoError(t, err)

	_, err = engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.NoError(t, err)

	projects, err := mem.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Phoenix Launch", projects[0].Name)
	assert.Equal(t, managerActor.ID, projects[0].ManagerID, "the requester owns the approved project")
	assert.Equal(t, staffing.ProjectOngoing, projects[0].Status)

	assignments, err := mem.ListAssignmentsByProject(ctx, projects[0].ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, staffing.AssignmentActive, assignments[0].Status)
}

func TestApprove_Extend_ActivityCarriesAssignmentEntities(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.June, 1), d(2026, time.August, 31), staffing.AssignmentActive)

	submitted, err := engine.Submit(ctx, managerActor,
		extendIntent("asg-1", d(2026, time.October, 31), "client renewal"))
	require.NoError(t, err)

	_, err = engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.NoError(t, err)

	entries, err := mem.ListActivity(ctx, staffing.ActivityFilter{ResourceID: "res-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, staffing.ActivityRequestApproved, entries[0].Action)
	assert.Equal(t, staffing.ProjectID("prj-1"), entries[0].ProjectID)
	assert.Equal(t, staffing.ResourceID("res-1"), entries[0].ResourceID)
	assert.Equal(t, "backend", entries[0].Role)
}

func TestReject_Release_ActivityCarriesAssignmentEntities(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.June, 1), d(2026, time.August, 31), staffing.AssignmentActive)

	submitted, err := engine.Submit(ctx, managerActor,
		releaseIntent("asg-1", d(2026, time.July, 15), "rolled off early"))
	require.NoError(t, err)

	_, err = engine.Reject(ctx, adminActor, submitted.Request.ID, "client extended the contract")
	require.NoError(t, err)

	entries, err := mem.ListActivity(ctx, staffing.ActivityFilter{ProjectID: "prj-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, staffing.ActivityRequestRejected, entries[0].Action)
	assert.Equal(t, staffing.ResourceID("res-1"), entries[0].ResourceID)
	assert.Equal(t, "backend", entries[0].Role)
}

func TestApprove_ProjectProposal_ActivityCarriesProjectID(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")

	submitted, err := engine.Submit(ctx, managerActor, staffing.Intent{
		Type: staffing.RequestProject,
		Project: &staffing.ProjectPayload{
			Name: "Phoenix Launch", Client: "Northwind",
			Plan: []staffing.PlanItem{{
				ResourceID: "res-1", Role: "backend",
				StartDate: d(2026, time.July, 1), EndDate: d(2026, time.December, 31),
			}},
		},
	})
	require.NoError(t, err)

	_, err = engine.Approve(ctx, adminActor, submitted.Request.ID)
	require.NoError(t, err)

	projects, err := mem.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	entries, err := mem.ListActivity(ctx, staffing.ActivityFilter{ProjectID: projects[0].ID})
	require.NoError(t, err)

	actions := make([]staffing.ActivityAction, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, staffing.ActivityProjectCreated)
	assert.Contains(t, actions, staffing.ActivityRequestApproved,
		"the approval decision is visible under the created project")
}

// =============================================================================
// REJECT
// =============================================================================

func TestReject_RequiresReason(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	submitted, err := engine.Submit(ctx, managerActor,
		assignIntent("res-1", "prj-1", d(2026, time.June, 1), d(2026, time.August, 31)))
	require.NoError(t, err)

	_, err = engine.Reject(ctx, adminActor, submitted.Request.ID, "   ")
	require.Error(t, err)
	assert.True(t, staffing.IsValidation(err))

	rejected, err := engine.Reject(ctx, adminActor, submitted.Request.ID, "headcount frozen")
	require.NoError(t, err)
	assert.Equal(t, staffing.RequestRejected, rejected.Status)
	assert.Equal(t, "headcount frozen", rejected.RejectionReason)

	// No mutation happened.
	assignments, err := mem.ListAssignmentsByResource(ctx, "res-1")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestReject_ByManager_Forbidden(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Reject(context.Background(), managerActor, "req-1", "nope")
	assert.ErrorIs(t, err, staffing.ErrForbidden)
}

// =============================================================================
// DIRECT PATHS
// =============================================================================

func TestDirectAssign_ManagerForbidden(t *testing.T) {
	engine, mem := newTestEngine(t)

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)

	_, err := engine.DirectAssign(context.Background(), managerActor, staffing.AssignPayload{
		ResourceID: "res-1", ProjectID: "prj-1", Role: "backend",
		StartDate: d(2026, time.June, 1), EndDate: d(2026, time.August, 31),
	})
	assert.ErrorIs(t, err, staffing.ErrForbidden)
}

func TestDirectExtend_MovesEndDate(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	extended, err := engine.DirectExtend(ctx, adminActor, staffing.ExtendPayload{
		AssignmentID: "asg-1", NewEndDate: d(2026, time.September, 30), Reason: "client renewal",
	})
	require.NoError(t, err)
	assert.True(t, extended.EndDate.Equal(d(2026, time.September, 30)))
	assert.Equal(t, staffing.AssignmentActive, extended.Status)
}

func TestDirectRelease_ClampsEndDate(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedResource(t, mem, "res-2", "Marcus Webb")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)
	seedAssignment(t, mem, "asg-2", "res-2", "prj-1",
		d(2026, time.January, 1), d(2026, time.December, 31), staffing.AssignmentActive)

	released, err := engine.DirectRelease(ctx, adminActor, staffing.ReleasePayload{
		AssignmentID: "asg-1", ReleaseDate: d(2026, time.April, 15), Reason: "rolling off",
	})
	require.NoError(t, err)
	assert.Equal(t, staffing.AssignmentReleased, released.Status)
	assert.True(t, released.EndDate.Equal(d(2026, time.April, 15)))
}

func TestDirectRelease_LateDate_EndDateUnmoved(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedResource(t, mem, "res-2", "Marcus Webb")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)
	seedAssignment(t, mem, "asg-2", "res-2", "prj-1",
		d(2026, time.January, 1), d(2026, time.December, 31), staffing.AssignmentActive)

	released, err := engine.DirectRelease(ctx, adminActor, staffing.ReleasePayload{
		AssignmentID: "asg-1", ReleaseDate: d(2026, time.August, 1), Reason: "rolled off late",
	})
	require.NoError(t, err)
	assert.True(t, released.EndDate.Equal(d(2026, time.June, 30)),
		"release never moves the end date later")
}

func TestDirectRelease_AlreadyReleased_StateConflict(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentReleased)

	_, err := engine.DirectRelease(ctx, adminActor, staffing.ReleasePayload{
		AssignmentID: "asg-1", ReleaseDate: d(2026, time.April, 15), Reason: "again",
	})
	require.Error(t, err)
	assert.True(t, staffing.IsStateConflict(err))
}

// =============================================================================
// AUTOMATIC PROJECT CLOSURE
// =============================================================================

func TestRelease_LastActiveAssignment_ClosesProject(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	_, err := engine.DirectRelease(ctx, adminActor, staffing.ReleasePayload{
		AssignmentID: "asg-1", ReleaseDate: d(2026, time.April, 15), Reason: "project wrapped",
	})
	require.NoError(t, err)

	project, err := mem.GetProject(ctx, "prj-1")
	require.NoError(t, err)
	assert.Equal(t, staffing.ProjectClosed, project.Status)
}

func TestRelease_OtherAssignmentStillActive_ProjectStaysOpen(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedResource(t, mem, "res-2", "Marcus Webb")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)
	seedAssignment(t, mem, "asg-2", "res-2", "prj-1",
		d(2026, time.January, 1), d(2026, time.December, 31), staffing.AssignmentActive)

	_, err := engine.DirectRelease(ctx, adminActor, staffing.ReleasePayload{
		AssignmentID: "asg-1", ReleaseDate: d(2026, time.April, 15), Reason: "rolling off",
	})
	require.NoError(t, err)

	project, err := mem.GetProject(ctx, "prj-1")
	require.NoError(t, err)
	assert.Equal(t, staffing.ProjectOngoing, project.Status)
}
