/*
dashboard.go - Aggregated counts for the landing dashboard

PURPOSE:
  Single read-only query object combining bench size, project load, and
  pending-approval backlog. Utilization is the assigned share of the
  bench as an exact decimal fraction so the UI can format it however it
  likes without re-deriving it from rounded values.
*/
package staffing

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// EndingSoonDays is the look-ahead window for assignments flagged on the
// dashboard as coming up for release or extension.
const EndingSoonDays = 14

type DashboardStats struct {
	TotalResources  int
	Available       int
	Assigned        int
	ActiveProjects  int
	PendingRequests int
	// Utilization is Assigned / TotalResources in [0, 1]; zero when the
	// bench is empty.
	Utilization decimal.Decimal
	// EndingSoon lists active assignments whose end date falls within
	// EndingSoonDays of asOf, soonest first.
	EndingSoon []Assignment
}

type Dashboard struct {
	Store Store
}

func NewDashboard(store Store) *Dashboard {
	return &Dashboard{Store: store}
}

func (d *Dashboard) Stats(ctx context.Context, asOf Date) (DashboardStats, error) {
	stats := DashboardStats{Utilization: decimal.Zero}

	resources, err := d.Store.ListResources(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalResources = len(resources)

	cutoff := asOf.AddDays(EndingSoonDays)
	for _, r := range resources {
		assignments, err := d.Store.ListAssignmentsByResource(ctx, r.ID)
		if err != nil {
			return stats, err
		}
		busy := false
		for _, a := range assignments {
			if !a.ActiveOn(asOf) {
				continue
			}
			busy = true
			if a.EndDate.BeforeOrEqual(cutoff) {
				stats.EndingSoon = append(stats.EndingSoon, a)
			}
		}
		if busy {
			stats.Assigned++
		} else {
			stats.Available++
		}
	}
	if stats.TotalResources > 0 {
		stats.Utilization = decimal.NewFromInt(int64(stats.Assigned)).
			Div(decimal.NewFromInt(int64(stats.TotalResources)))
	}

	projects, err := d.Store.ListProjects(ctx)
	if err != nil {
		return stats, err
	}
	for _, p := range projects {
		if p.Status != ProjectClosed {
			stats.ActiveProjects++
		}
	}

	pending := RequestPending
	pendingRequests, err := d.Store.ListRequests(ctx, RequestFilter{Status: &pending})
	if err != nil {
		return stats, err
	}
	stats.PendingRequests = len(pendingRequests)

	sort.Slice(stats.EndingSoon, func(i, j int) bool {
		if !stats.EndingSoon[i].EndDate.Equal(stats.EndingSoon[j].EndDate) {
			return stats.EndingSoon[i].EndDate.Before(stats.EndingSoon[j].EndDate)
		}
		return stats.EndingSoon[i].ID < stats.EndingSoon[j].ID
	})
	return stats, nil
}
