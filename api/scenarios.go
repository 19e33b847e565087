/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates users, resources,
	projects, and assignments that demonstrate specific features.

AVAILABLE SCENARIOS:

	steady-state:     A staffed bench with one project mid-flight
	delivery-crunch:  Assignments near expiry plus a contested extension

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create the admin and a delivery manager
 3. Register resources (sequential employee IDs)
 4. Create projects and assignments through the engine
 5. Optionally submit pending requests

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "delivery-crunch"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: shared writers and actor resolution
  - staffing/workflow.go: the engine the loaders drive
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/staffing-engine/staffing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "steady-state",
		Name:        "Steady State",
		Description: "A staffed bench with one project mid-flight and spare capacity",
	},
	{
		ID:          "delivery-crunch",
		Name:        "Delivery Crunch",
		Description: "Assignments near expiry, one contested by a pending extension",
	},
}

// resetter is implemented by stores that can wipe all data (sqlite).
type resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads the named scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.resetAll(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "steady-state":
		err = h.loadSteadyStateScenario(ctx)
	case "delivery-crunch":
		err = h.loadDeliveryCrunchScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func (h *Handler) resetAll(ctx context.Context) error {
	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return rs.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedAccounts creates the demo admin and delivery manager every scenario
// shares, returning their actors.
func (h *Handler) seedAccounts(ctx context.Context) (staffing.Actor, staffing.Actor, error) {
	admin := staffing.User{ID: "u-admin", Name: "Dana Okafor", Email: "dana@warp.dev", Role: staffing.RoleAdmin}
	manager := staffing.User{ID: "u-priya", Name: "Priya Nair", Email: "priya@warp.dev", Role: staffing.RoleManager}

	if err := h.Store.SaveUser(ctx, admin); err != nil {
		return staffing.Actor{}, staffing.Actor{}, err
	}
	if err := h.Store.SaveUser(ctx, manager); err != nil {
		return staffing.Actor{}, staffing.Actor{}, err
	}
	return admin.Actor(), manager.Actor(), nil
}

func (h *Handler) loadSteadyStateScenario(ctx context.Context) error {
	admin, manager, err := h.seedAccounts(ctx)
	if err != nil {
		return err
	}

	names := []struct{ name, email string }{
		{"Aiko Tanaka", "aiko@warp.dev"},
		{"Marcus Webb", "marcus@warp.dev"},
		{"Sofia Reyes", "sofia@warp.dev"},
		{"Jonas Lindqvist", "jonas@warp.dev"},
	}
	resources := make([]*staffing.Resource, len(names))
	for i, n := range names {
		resources[i], err = h.Engine.CreateResource(ctx, admin, n.name, n.email)
		if err != nil {
			return err
		}
	}

	project, err := h.Engine.CreateProject(ctx, admin, "Atlas Migration", "Northwind", manager.ID)
	if err != nil {
		return err
	}

	today := staffing.Today()
	roles := []string{"backend engineer", "data engineer"}
	for i := 0; i < 2; i++ {
		_, err = h.Engine.DirectAssign(ctx, admin, staffing.AssignPayload{
			ResourceID: resources[i].ID,
			ProjectID:  project.ID,
			Role:       roles[i],
			StartDate:  today.AddMonths(-2),
			EndDate:    today.AddMonths(4),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadDeliveryCrunchScenario(ctx context.Context) error {
	admin, manager, err := h.seedAccounts(ctx)
	if err != nil {
		return err
	}

	a, err := h.Engine.CreateResource(ctx, admin, "Aiko Tanaka", "aiko@warp.dev")
	if err != nil {
		return err
	}
	b, err := h.Engine.CreateResource(ctx, admin, "Marcus Webb", "marcus@warp.dev")
	if err != nil {
		return err
	}

	project, err := h.Engine.CreateProject(ctx, admin, "Phoenix Launch", "Acme", manager.ID)
	if err != nil {
		return err
	}

	today := staffing.Today()
	near, err := h.Engine.DirectAssign(ctx, admin, staffing.AssignPayload{
		ResourceID: a.ID, ProjectID: project.ID, Role: "frontend engineer",
		StartDate: today.AddMonths(-3), EndDate: today.AddDays(5),
	})
	if err != nil {
		return err
	}
	if _, err = h.Engine.DirectAssign(ctx, admin, staffing.AssignPayload{
		ResourceID: b.ID, ProjectID: project.ID, Role: "qa engineer",
		StartDate: today.AddMonths(-3), EndDate: today.AddDays(10),
	}); err != nil {
		return err
	}

	// The manager contests the near-term end with a pending extension, so
	// the sweep will leave that assignment alone until it resolves.
	_, err = h.Engine.Submit(ctx, manager, staffing.Intent{
		Type: staffing.RequestExtend,
		Extend: &staffing.ExtendPayload{
			AssignmentID: near.ID,
			NewEndDate:   today.AddMonths(2),
			Reason:       "launch slipped to next quarter",
		},
	})
	return err
}
