/*
validate.go - Conflict validation rules

PURPOSE:
  Pure predicates invoked before any assignment create or mutate, whichever
  entry point is calling (direct admin action, approval, or proposal plan).
  No side effects; safe to run any number of times. The workflow engine
  re-runs these at approval time against CURRENT state, so a project that
  closed after submission still rejects the assignment.

RULES:
  INVALID_RANGE         endDate before startDate, or release before start
  PROJECT_CLOSED        new assignment on a closed project
  NOT_AN_EXTENSION      extend target date not strictly after current end
  REASON_REQUIRED       blank reason on extend/release
  DUPLICATE_ASSIGNMENT  resource already active on project with same role

SEE ALSO:
  - workflow.go: the single caller of these checks
*/
package staffing

import "strings"

// ValidateAssign checks a proposed new assignment against the target project
// and the resource's existing assignments.
func ValidateAssign(p AssignPayload, project *Project, existing []Assignment) *ValidationError {
	if p.EndDate.Before(p.StartDate) {
		return validationf(CodeInvalidRange, "end date %s is before start date %s", p.EndDate, p.StartDate)
	}
	if project.Status == ProjectClosed {
		return validationf(CodeProjectClosed, "cannot assign resources to closed project %s", project.ID)
	}
	for _, a := range existing {
		if a.Status == AssignmentActive && a.ProjectID == p.ProjectID && a.Role == p.Role {
			return validationf(CodeDuplicateAssignment,
				"resource %s already holds an active %s assignment on project %s", p.ResourceID, p.Role, p.ProjectID)
		}
	}
	return nil
}

// ValidateExtend checks an extension against the assignment's current end
// date. The new end must be strictly later; at minimum the next calendar day.
func ValidateExtend(p ExtendPayload, current *Assignment) *ValidationError {
	if strings.TrimSpace(p.Reason) == "" {
		return validationf(CodeReasonRequired, "extension requires a reason")
	}
	if !p.NewEndDate.After(current.EndDate) {
		return validationf(CodeNotAnExtension,
			"new end date %s must be after current end date %s", p.NewEndDate, current.EndDate)
	}
	return nil
}

// ValidateRelease checks an early release. The release date may not precede
// the assignment's start; exactly at the start is valid and zeroes the
// effective duration. The resulting end date is min(endDate, releaseDate),
// applied by the workflow engine.
func ValidateRelease(p ReleasePayload, current *Assignment) *ValidationError {
	if strings.TrimSpace(p.Reason) == "" {
		return validationf(CodeReasonRequired, "release requires a reason")
	}
	if p.ReleaseDate.Before(current.StartDate) {
		return validationf(CodeInvalidRange,
			"release date %s is before assignment start %s", p.ReleaseDate, current.StartDate)
	}
	return nil
}

// ValidateProjectProposal checks a project proposal and its resource plan.
func ValidateProjectProposal(p ProjectPayload) *ValidationError {
	if strings.TrimSpace(p.Name) == "" {
		return validationf(CodeNameRequired, "project name is required")
	}
	for _, item := range p.Plan {
		if item.EndDate.Before(item.StartDate) {
			return validationf(CodeInvalidRange,
				"plan row for resource %s: end date %s is before start date %s",
				item.ResourceID, item.EndDate, item.StartDate)
		}
	}
	return nil
}
