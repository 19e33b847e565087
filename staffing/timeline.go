/*
timeline.go - Month-grid projection of a resource's assignment history

PURPOSE:
  Maps a resource's assignments onto a fixed rolling window of consecutive
  months for the dashboard's track-record view. Pure and stateless: the
  same inputs always produce the same bars, and nothing here performs I/O.

GEOMETRY:
  The window is WindowMonths consecutive months centered on the center
  date's month (the default 9 gives 4 before, the current month, 4 after).
  For each assignment:

    startCol = clamp(monthsBetween(windowStart, startDate), 0, W)
    endCol   = clamp(monthsBetween(windowStart, endDate)+1, 0, W)

  Left and Width are exact fractions of the window, computed with decimal
  so bar geometry never drifts with float rounding. Assignments entirely
  outside the window collapse to zero width and are omitted.

CATEGORIES:
  released, expired, or past the end date  -> closed
  project on hold                          -> hold
  otherwise                                -> ongoing
*/
package staffing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECTOR
// =============================================================================

const (
	DefaultWindowMonths = 9
	DefaultMaxBars      = 4
)

type BarCategory string

const (
	BarOngoing BarCategory = "ongoing"
	BarHold    BarCategory = "hold"
	BarClosed  BarCategory = "closed"
)

// PositionedBar is one assignment placed on the month grid.
type PositionedBar struct {
	AssignmentID AssignmentID
	ProjectID    ProjectID
	ProjectName  string
	Role         string
	StartCol     int
	EndCol       int
	// Left and Width are fractions of the full window in [0, 1].
	Left     decimal.Decimal
	Width    decimal.Decimal
	Category BarCategory
}

// Projector holds the grid parameters. The zero value is not usable; use
// NewProjector for the dashboard's 9-month, 4-row layout.
type Projector struct {
	WindowMonths int
	MaxBars      int
}

func NewProjector() Projector {
	return Projector{WindowMonths: DefaultWindowMonths, MaxBars: DefaultMaxBars}
}

// WindowStart returns the first month of the window centered on the given date.
func (p Projector) WindowStart(center Date) Date {
	return center.StartOfMonth().AddMonths(-(p.WindowMonths / 2))
}

// Project places the assignments on the grid, most recent start first,
// capped at MaxBars. Assignments fully outside the window are omitted.
func (p Projector) Project(assignments []Assignment, projects map[ProjectID]Project, center Date) []PositionedBar {
	windowStart := p.WindowStart(center)
	window := decimal.NewFromInt(int64(p.WindowMonths))

	sorted := make([]Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].StartDate.After(sorted[j].StartDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	bars := make([]PositionedBar, 0, p.MaxBars)
	for _, a := range sorted {
		if len(bars) == p.MaxBars {
			break
		}

		startCol := clampCol(MonthsBetween(windowStart, a.StartDate), p.WindowMonths)
		endCol := clampCol(MonthsBetween(windowStart, a.EndDate)+1, p.WindowMonths)
		if endCol <= startCol {
			continue // entirely outside the window
		}

		bar := PositionedBar{
			AssignmentID: a.ID,
			ProjectID:    a.ProjectID,
			Role:         a.Role,
			StartCol:     startCol,
			EndCol:       endCol,
			Left:         decimal.NewFromInt(int64(startCol)).Div(window),
			Width:        decimal.NewFromInt(int64(endCol - startCol)).Div(window),
			Category:     categorize(a, projects[a.ProjectID], center),
		}
		if project, ok := projects[a.ProjectID]; ok {
			bar.ProjectName = project.Name
		}
		bars = append(bars, bar)
	}
	return bars
}

func clampCol(col, window int) int {
	if col < 0 {
		return 0
	}
	if col > window {
		return window
	}
	return col
}

func categorize(a Assignment, project Project, asOf Date) BarCategory {
	if a.Status == AssignmentReleased || a.Status == AssignmentExpired ||
		a.EndDate.Before(asOf) || project.Status == ProjectClosed {
		return BarClosed
	}
	if project.Status == ProjectHold {
		return BarHold
	}
	return BarOngoing
}
