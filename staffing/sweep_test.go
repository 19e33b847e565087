package staffing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/staffing"
)

func TestExpireDue_ExpiresElapsedAssignments(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	today := d(2026, time.July, 1)

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedResource(t, mem, "res-2", "Marcus Webb")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-elapsed", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)
	seedAssignment(t, mem, "asg-running", "res-2", "prj-1",
		d(2026, time.January, 1), d(2026, time.December, 31), staffing.AssignmentActive)

	result, err := engine.ExpireDue(ctx, today)
	require.NoError(t, err)

	assert.Equal(t, []staffing.AssignmentID{"asg-elapsed"}, result.Expired)
	assert.Zero(t, result.Skipped)

	expired, err := mem.GetAssignment(ctx, "asg-elapsed")
	require.NoError(t, err)
	assert.Equal(t, staffing.AssignmentExpired, expired.Status)

	running, err := mem.GetAssignment(ctx, "asg-running")
	require.NoError(t, err)
	assert.Equal(t, staffing.AssignmentActive, running.Status)
}

func TestExpireDue_EndDateToday_NotYetExpired(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	today := d(2026, time.June, 30)

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	// The range is inclusive: the assignment still occupies its final day.
	result, err := engine.ExpireDue(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, result.Expired)

	a, err := mem.GetAssignment(ctx, "asg-1")
	require.NoError(t, err)
	assert.Equal(t, staffing.AssignmentActive, a.Status)
}

func TestExpireDue_SkipsAssignmentWithPendingExtend(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	today := d(2026, time.July, 5)

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	_, err := engine.Submit(ctx, managerActor,
		extendIntent("asg-1", d(2026, time.September, 30), "launch slipped"))
	require.NoError(t, err)

	result, err := engine.ExpireDue(ctx, today)
	require.NoError(t, err)

	assert.Empty(t, result.Expired)
	assert.Equal(t, 1, result.Skipped)

	a, err := mem.GetAssignment(ctx, "asg-1")
	require.NoError(t, err)
	assert.Equal(t, staffing.AssignmentActive, a.Status,
		"contested assignment stays active until the extend request resolves")
}

func TestExpireDue_PendingReleaseDoesNotProtect(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	_, err := engine.Submit(ctx, managerActor,
		releaseIntent("asg-1", d(2026, time.June, 15), "wrapping up"))
	require.NoError(t, err)

	// Only a pending EXTEND holds off expiry.
	result, err := engine.ExpireDue(ctx, d(2026, time.July, 5))
	require.NoError(t, err)
	assert.Equal(t, []staffing.AssignmentID{"asg-1"}, result.Expired)
}

func TestExpireDue_Idempotent(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	today := d(2026, time.July, 1)

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	first, err := engine.ExpireDue(ctx, today)
	require.NoError(t, err)
	require.Len(t, first.Expired, 1)

	second, err := engine.ExpireDue(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, second.Expired)
	assert.Empty(t, second.ProjectsClosed)
	assert.Zero(t, second.Skipped)
}

func TestExpireDue_ClosesDrainedProject(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedResource(t, mem, "res-1", "Aiko Tanaka")
	seedProject(t, mem, "prj-1", staffing.ProjectOngoing)
	seedAssignment(t, mem, "asg-1", "res-1", "prj-1",
		d(2026, time.January, 1), d(2026, time.June, 30), staffing.AssignmentActive)

	result, err := engine.ExpireDue(ctx, d(2026, time.July, 1))
	require.NoError(t, err)

	assert.Equal(t, []staffing.ProjectID{"prj-1"}, result.ProjectsClosed)

	project, err := mem.GetProject(ctx, "prj-1")
	require.NoError(t, err)
	assert.Equal(t, staffing.ProjectClosed, project.Status)
}
