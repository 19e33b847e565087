package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/staffing"
	"github.com/warp/staffing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(year int, month time.Month, day int) staffing.Date {
	return staffing.NewDate(year, month, day)
}

func testResource(id string) staffing.Resource {
	return staffing.Resource{
		ID: staffing.ResourceID(id), EmployeeID: "EMP-" + id,
		Name: "Resource " + id, Email: id + "@example.com", CreatedAt: time.Now(),
	}
}

func testProject(id string) staffing.Project {
	return staffing.Project{
		ID: staffing.ProjectID(id), Name: "Project " + id, Client: "Acme",
		ManagerID: "u-mgr", Status: staffing.ProjectOngoing, CreatedAt: time.Now(),
	}
}

func testAssignment(id, resID, prjID string, start, end staffing.Date) staffing.Assignment {
	return staffing.Assignment{
		ID: staffing.AssignmentID(id), ResourceID: staffing.ResourceID(resID),
		ProjectID: staffing.ProjectID(prjID), Role: "backend",
		StartDate: start, EndDate: end, Status: staffing.AssignmentActive,
		CreatedAt: time.Now(),
	}
}

func pendingExtend(id, asgID string) staffing.Request {
	return staffing.Request{
		ID: staffing.RequestID(id), Type: staffing.RequestExtend,
		RequesterID: "u-mgr", Status: staffing.RequestPending, SubmittedAt: time.Now(),
		Extend: &staffing.ExtendPayload{
			AssignmentID: staffing.AssignmentID(asgID),
			NewEndDate:   d(2026, time.September, 30),
			Reason:       "client renewal",
		},
	}
}

// =============================================================================
// RESOURCES
// =============================================================================

func TestResource_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResource(ctx, testResource("res-1")))

	got, err := store.GetResource(ctx, "res-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Resource res-1", got.Name)
	assert.Equal(t, "res-1@example.com", got.Email)

	count, err := store.CountResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	missing, err := store.GetResource(ctx, "res-ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestResource_EmailLookupCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResource(ctx, testResource("res-1")))

	got, err := store.GetResourceByEmail(ctx, "RES-1@Example.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, staffing.ResourceID("res-1"), got.ID)
}

func TestResource_DuplicateEmail_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResource(ctx, testResource("res-1")))

	dup := testResource("res-2")
	dup.Email = "RES-1@example.com" // differs only in case
	err := store.SaveResource(ctx, dup)
	require.Error(t, err)
	assert.True(t, staffing.IsStateConflict(err))
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestAssignment_RoundTripAndUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAssignment("asg-1", "res-1", "prj-1", d(2026, time.January, 1), d(2026, time.June, 30))
	require.NoError(t, store.SaveAssignment(ctx, a))

	got, err := store.GetAssignment(ctx, "asg-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.StartDate.Equal(d(2026, time.January, 1)))
	assert.True(t, got.EndDate.Equal(d(2026, time.June, 30)))
	assert.Equal(t, staffing.AssignmentActive, got.Status)

	// Save is an upsert on the mutable columns.
	got.EndDate = d(2026, time.September, 30)
	got.Status = staffing.AssignmentReleased
	require.NoError(t, store.SaveAssignment(ctx, *got))

	updated, err := store.GetAssignment(ctx, "asg-1")
	require.NoError(t, err)
	assert.True(t, updated.EndDate.Equal(d(2026, time.September, 30)))
	assert.Equal(t, staffing.AssignmentReleased, updated.Status)
}

func TestListActiveEndingBefore_CutoffExclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAssignment(ctx,
		testAssignment("asg-before", "res-1", "prj-1", d(2026, time.January, 1), d(2026, time.June, 29))))
	require.NoError(t, store.SaveAssignment(ctx,
		testAssignment("asg-at", "res-2", "prj-1", d(2026, time.January, 1), d(2026, time.June, 30))))

	released := testAssignment("asg-released", "res-3", "prj-1", d(2026, time.January, 1), d(2026, time.March, 31))
	released.Status = staffing.AssignmentReleased
	require.NoError(t, store.SaveAssignment(ctx, released))

	due, err := store.ListActiveEndingBefore(ctx, d(2026, time.June, 30))
	require.NoError(t, err)

	require.Len(t, due, 1)
	assert.Equal(t, staffing.AssignmentID("asg-before"), due[0].ID)
}

// =============================================================================
// REQUESTS AND THE PENDING UNIQUENESS INDEX
// =============================================================================

func TestRequest_RoundTripPreservesPayload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := pendingExtend("req-1", "asg-1")
	require.NoError(t, store.InsertRequest(ctx, req))

	got, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, staffing.RequestExtend, got.Type)
	assert.Equal(t, staffing.RequestPending, got.Status)
	require.NotNil(t, got.Extend)
	assert.Equal(t, staffing.AssignmentID("asg-1"), got.Extend.AssignmentID)
	assert.True(t, got.Extend.NewEndDate.Equal(d(2026, time.September, 30)))
	assert.Equal(t, "client renewal", got.Extend.Reason)
}

func TestRequest_DuplicatePendingOnAssignment_Rejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-1", "asg-1")))

	// Second open request on the same assignment, different type.
	second := staffing.Request{
		ID: "req-2", Type: staffing.RequestRelease,
		RequesterID: "u-mgr", Status: staffing.RequestPending, SubmittedAt: time.Now(),
		Release: &staffing.ReleasePayload{
			AssignmentID: "asg-1", ReleaseDate: d(2026, time.May, 1), Reason: "rolling off",
		},
	}
	err := store.InsertRequest(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, staffing.ErrDuplicatePendingRequest))
}

func TestRequest_PendingOnDifferentAssignments_Allowed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-1", "asg-1")))
	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-2", "asg-2")))
}

func TestRequest_NewPendingAfterDecision_Allowed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := pendingExtend("req-1", "asg-1")
	require.NoError(t, store.InsertRequest(ctx, req))

	now := time.Now()
	req.Status = staffing.RequestRejected
	req.RejectionReason = "no budget"
	req.DecidedAt = &now
	req.DecidedBy = "u-admin"
	require.NoError(t, store.UpdateRequest(ctx, req))

	// The partial index only covers pending rows.
	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-2", "asg-1")))
}

func TestRequest_AssignPayloadsNeverCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Assign requests target no assignment; any number may be open at once.
	for _, id := range []string{"req-1", "req-2", "req-3"} {
		req := staffing.Request{
			ID: staffing.RequestID(id), Type: staffing.RequestAssign,
			RequesterID: "u-mgr", Status: staffing.RequestPending, SubmittedAt: time.Now(),
			Assign: &staffing.AssignPayload{
				ResourceID: "res-1", ProjectID: "prj-1", Role: "backend",
				StartDate: d(2026, time.June, 1), EndDate: d(2026, time.August, 31),
			},
		}
		require.NoError(t, store.InsertRequest(ctx, req))
	}
}

func TestUpdateRequest_MissingRow_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateRequest(context.Background(), pendingExtend("req-ghost", "asg-1"))
	require.Error(t, err)
	assert.True(t, staffing.IsNotFound(err))
}

func TestHasPendingExtend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := pendingExtend("req-1", "asg-1")
	require.NoError(t, store.InsertRequest(ctx, req))

	contested, err := store.HasPendingExtend(ctx, "asg-1")
	require.NoError(t, err)
	assert.True(t, contested)

	contested, err = store.HasPendingExtend(ctx, "asg-other")
	require.NoError(t, err)
	assert.False(t, contested)

	now := time.Now()
	req.Status = staffing.RequestApproved
	req.DecidedAt = &now
	req.DecidedBy = "u-admin"
	require.NoError(t, store.UpdateRequest(ctx, req))

	contested, err = store.HasPendingExtend(ctx, "asg-1")
	require.NoError(t, err)
	assert.False(t, contested)
}

func TestListRequests_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := pendingExtend("req-1", "asg-1")
	first.SubmittedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.InsertRequest(ctx, first))

	second := pendingExtend("req-2", "asg-2")
	second.RequesterID = "u-other"
	require.NoError(t, store.InsertRequest(ctx, second))

	now := time.Now()
	first.Status = staffing.RequestRejected
	first.RejectionReason = "no budget"
	first.DecidedAt = &now
	first.DecidedBy = "u-admin"
	require.NoError(t, store.UpdateRequest(ctx, first))

	pending := staffing.RequestPending
	got, err := store.ListRequests(ctx, staffing.RequestFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, staffing.RequestID("req-2"), got[0].ID)

	requester := staffing.UserID("u-other")
	got, err = store.ListRequests(ctx, staffing.RequestFilter{RequesterID: &requester})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, staffing.RequestID("req-2"), got[0].ID)

	got, err = store.ListRequests(ctx, staffing.RequestFilter{Terminal: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, staffing.RequestID("req-1"), got[0].ID)
	assert.Equal(t, "no budget", got[0].RejectionReason)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollbackDiscardsAllWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s staffing.Store) error {
		if err := s.SaveResource(ctx, testResource("res-1")); err != nil {
			return err
		}
		if err := s.SaveAssignment(ctx, testAssignment("asg-1", "res-1", "prj-1",
			d(2026, time.January, 1), d(2026, time.June, 30))); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetResource(ctx, "res-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	a, err := store.GetAssignment(ctx, "asg-1")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestWithTx_ReadsSeeUncommittedWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s staffing.Store) error {
		if err := s.SaveProject(ctx, testProject("prj-1")); err != nil {
			return err
		}
		got, err := s.GetProject(ctx, "prj-1")
		if err != nil {
			return err
		}
		require.NotNil(t, got, "reads inside the transaction observe its writes")
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// PROJECT CASCADE
// =============================================================================

func TestDeleteProject_CascadesAssignmentsAndRequests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProject(ctx, testProject("prj-1")))
	require.NoError(t, store.SaveProject(ctx, testProject("prj-keep")))

	owned := testAssignment("asg-owned", "res-1", "prj-1", d(2026, time.January, 1), d(2026, time.June, 30))
	owned.Status = staffing.AssignmentReleased
	require.NoError(t, store.SaveAssignment(ctx, owned))
	require.NoError(t, store.SaveAssignment(ctx,
		testAssignment("asg-keep", "res-1", "prj-keep", d(2026, time.January, 1), d(2026, time.June, 30))))

	// An open extend on the doomed project's assignment, an assign request
	// targeting the project directly, and one unrelated pending request.
	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-owned", "asg-owned")))
	require.NoError(t, store.InsertRequest(ctx, staffing.Request{
		ID: "req-assign", Type: staffing.RequestAssign,
		RequesterID: "u-mgr", Status: staffing.RequestPending, SubmittedAt: time.Now(),
		Assign: &staffing.AssignPayload{
			ResourceID: "res-2", ProjectID: "prj-1", Role: "qa",
			StartDate: d(2026, time.July, 1), EndDate: d(2026, time.September, 30),
		},
	}))
	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-keep", "asg-keep")))

	require.NoError(t, store.DeleteProject(ctx, "prj-1"))

	p, err := store.GetProject(ctx, "prj-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	a, err := store.GetAssignment(ctx, "asg-owned")
	require.NoError(t, err)
	assert.Nil(t, a)

	gone, err := store.GetRequest(ctx, "req-owned")
	require.NoError(t, err)
	assert.Nil(t, gone)
	gone, err = store.GetRequest(ctx, "req-assign")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.GetRequest(ctx, "req-keep")
	require.NoError(t, err)
	assert.NotNil(t, kept)
	keptAsg, err := store.GetAssignment(ctx, "asg-keep")
	require.NoError(t, err)
	assert.NotNil(t, keptAsg)
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

func TestActivity_NewestFirstWithLimitAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, action := range []staffing.ActivityAction{
		staffing.ActivityAssign, staffing.ActivityExtend, staffing.ActivityRelease,
	} {
		entry := staffing.ActivityEntry{
			ID: "act-" + string(rune('a'+i)), At: base.Add(time.Duration(i) * time.Minute),
			ActorID: "u-admin", Action: action, Description: "test entry",
			ProjectID: "prj-1", ResourceID: "res-1",
		}
		if i == 2 {
			entry.ProjectID = "prj-2"
		}
		require.NoError(t, store.AppendActivity(ctx, entry))
	}

	all, err := store.ListActivity(ctx, staffing.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, staffing.ActivityRelease, all[0].Action, "newest first")

	limited, err := store.ListActivity(ctx, staffing.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, staffing.ActivityRelease, limited[0].Action)

	filtered, err := store.ListActivity(ctx, staffing.ActivityFilter{ProjectID: "prj-1"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResource(ctx, testResource("res-1")))
	require.NoError(t, store.SaveProject(ctx, testProject("prj-1")))
	require.NoError(t, store.InsertRequest(ctx, pendingExtend("req-1", "asg-1")))

	require.NoError(t, store.Reset(ctx))

	count, err := store.CountResources(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	requests, err := store.ListRequests(ctx, staffing.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests)
}
