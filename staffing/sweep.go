/*
sweep.go - Passive expiry of elapsed assignments

PURPOSE:
  Transitions ACTIVE assignments whose end date has elapsed without a
  release into EXPIRED. This is the only way EXPIRED is reached; it is
  never a user action.

PROPERTIES:
  - Idempotent: a second run over the same state changes nothing.
  - Concurrent-safe: runs in one transaction and only touches rows that
    are still ACTIVE with endDate < today, so it cannot clobber an
    approval committed in between.
  - Contested assignments are skipped: an elapsed assignment with a
    pending EXTEND request stays ACTIVE until that request resolves.

The periodic trigger lives in api/scheduler.go; this file is the logic so
it can be tested without a ticker.
*/
package staffing

import (
	"context"
	"fmt"
)

// SweepResult summarizes one expiry pass.
type SweepResult struct {
	Expired        []AssignmentID
	ProjectsClosed []ProjectID
	Skipped        int // elapsed but contested by a pending extend
}

// ExpireDue expires every ACTIVE assignment with endDate strictly before
// today, then closes any project the pass drained.
func (e *Engine) ExpireDue(ctx context.Context, today Date) (*SweepResult, error) {
	result := &SweepResult{}

	err := e.Store.WithTx(ctx, func(s Store) error {
		due, err := s.ListActiveEndingBefore(ctx, today)
		if err != nil {
			return err
		}

		touched := make(map[ProjectID]bool)
		for _, a := range due {
			contested, err := s.HasPendingExtend(ctx, a.ID)
			if err != nil {
				return err
			}
			if contested {
				result.Skipped++
				continue
			}

			a.Status = AssignmentExpired
			if err := s.SaveAssignment(ctx, a); err != nil {
				return err
			}
			if err := s.AppendActivity(ctx, ActivityEntry{
				ID: e.activityID(), At: e.now(), Action: ActivityExpire,
				Description: fmt.Sprintf("assignment %s expired on %s", a.ID, a.EndDate),
				ProjectID:   a.ProjectID, ResourceID: a.ResourceID, Role: a.Role,
			}); err != nil {
				return err
			}
			result.Expired = append(result.Expired, a.ID)
			touched[a.ProjectID] = true
		}

		for projectID := range touched {
			project, err := s.GetProject(ctx, projectID)
			if err != nil {
				return err
			}
			if project == nil || project.Status == ProjectClosed {
				continue
			}
			if err := e.closeProjectIfDrained(ctx, s, Actor{}, projectID); err != nil {
				return err
			}
			after, err := s.GetProject(ctx, projectID)
			if err != nil {
				return err
			}
			if after != nil && after.Status == ProjectClosed {
				result.ProjectsClosed = append(result.ProjectsClosed, projectID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
