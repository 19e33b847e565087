// Package store provides in-memory Store implementations for tests and dev.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/staffing-engine/staffing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	s  *state
}

// state holds the record maps. All methods assume the caller holds the
// Memory lock; the transactional view reuses them directly.
type state struct {
	users       map[staffing.UserID]staffing.User
	resources   map[staffing.ResourceID]staffing.Resource
	projects    map[staffing.ProjectID]staffing.Project
	assignments map[staffing.AssignmentID]staffing.Assignment
	requests    map[staffing.RequestID]staffing.Request
	activity    []staffing.ActivityEntry
}

func NewMemory() *Memory {
	return &Memory{s: newState()}
}

func newState() *state {
	return &state{
		users:       make(map[staffing.UserID]staffing.User),
		resources:   make(map[staffing.ResourceID]staffing.Resource),
		projects:    make(map[staffing.ProjectID]staffing.Project),
		assignments: make(map[staffing.AssignmentID]staffing.Assignment),
		requests:    make(map[staffing.RequestID]staffing.Request),
	}
}

// --- Users ---

func (m *Memory) SaveUser(_ context.Context, u staffing.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.saveUser(u)
}

func (m *Memory) GetUser(_ context.Context, id staffing.UserID) (*staffing.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.getUser(id)
}

func (m *Memory) ListUsers(_ context.Context) ([]staffing.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listUsers()
}

// --- Resources ---

func (m *Memory) SaveResource(_ context.Context, r staffing.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.saveResource(r)
}

func (m *Memory) GetResource(_ context.Context, id staffing.ResourceID) (*staffing.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.getResource(id)
}

func (m *Memory) GetResourceByEmail(_ context.Context, email string) (*staffing.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.getResourceByEmail(email)
}

func (m *Memory) ListResources(_ context.Context) ([]staffing.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listResources()
}

func (m *Memory) CountResources(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.s.resources), nil
}

func (m *Memory) DeleteResource(_ context.Context, id staffing.ResourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.deleteResource(id)
}

// --- Projects ---

func (m *Memory) SaveProject(_ context.Context, p staffing.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.saveProject(p)
}

func (m *Memory) GetProject(_ context.Context, id staffing.ProjectID) (*staffing.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.getProject(id)
}

func (m *Memory) ListProjects(_ context.Context) ([]staffing.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listProjects()
}

func (m *Memory) DeleteProject(_ context.Context, id staffing.ProjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.deleteProject(id)
}

// --- Assignments ---

func (m *Memory) SaveAssignment(_ context.Context, a staffing.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.saveAssignment(a)
}

func (m *Memory) GetAssignment(_ context.Context, id staffing.AssignmentID) (*staffing.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.getAssignment(id)
}

func (m *Memory) ListAssignmentsByResource(_ context.Context, id staffing.ResourceID) ([]staffing.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listAssignmentsByResource(id)
}

func (m *Memory) ListAssignmentsByProject(_ context.Context, id staffing.ProjectID) ([]staffing.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listAssignmentsByProject(id)
}

func (m *Memory) ListActiveEndingBefore(_ context.Context, cutoff staffing.Date) ([]staffing.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listActiveEndingBefore(cutoff)
}

// --- Requests ---

func (m *Memory) InsertRequest(_ context.Context, r staffing.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.insertRequest(r)
}

func (m *Memory) UpdateRequest(_ context.Context, r staffing.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.updateRequest(r)
}

func (m *Memory) GetRequest(_ context.Context, id staffing.RequestID) (*staffing.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.getRequest(id)
}

func (m *Memory) ListRequests(_ context.Context, f staffing.RequestFilter) ([]staffing.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listRequests(f)
}

func (m *Memory) HasPendingExtend(_ context.Context, id staffing.AssignmentID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.hasPendingExtend(id)
}

// --- Activity ---

func (m *Memory) AppendActivity(_ context.Context, e staffing.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.appendActivity(e)
}

func (m *Memory) ListActivity(_ context.Context, f staffing.ActivityFilter) ([]staffing.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.listActivity(f)
}

// =============================================================================
// TRANSACTIONS - Snapshot and restore
// =============================================================================

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot of all maps, restored if fn fails.
func (m *Memory) WithTx(_ context.Context, fn func(staffing.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.s.clone()
	if err := fn(&txView{s: m.s}); err != nil {
		m.s = snapshot
		return err
	}
	return nil
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	c.activity = append([]staffing.ActivityEntry{}, s.activity...)
	return c
}

// txView exposes the already-locked state as a Store inside WithTx.
type txView struct {
	s *state
}

func (tv *txView) SaveUser(_ context.Context, u staffing.User) error { return tv.s.saveUser(u) }
func (tv *txView) GetUser(_ context.Context, id staffing.UserID) (*staffing.User, error) {
	return tv.s.getUser(id)
}
func (tv *txView) ListUsers(_ context.Context) ([]staffing.User, error) { return tv.s.listUsers() }

func (tv *txView) SaveResource(_ context.Context, r staffing.Resource) error {
	return tv.s.saveResource(r)
}
func (tv *txView) GetResource(_ context.Context, id staffing.ResourceID) (*staffing.Resource, error) {
	return tv.s.getResource(id)
}
func (tv *txView) GetResourceByEmail(_ context.Context, email string) (*staffing.Resource, error) {
	return tv.s.getResourceByEmail(email)
}
func (tv *txView) ListResources(_ context.Context) ([]staffing.Resource, error) {
	return tv.s.listResources()
}
func (tv *txView) CountResources(_ context.Context) (int, error) { return len(tv.s.resources), nil }
func (tv *txView) DeleteResource(_ context.Context, id staffing.ResourceID) error {
	return tv.s.deleteResource(id)
}

func (tv *txView) SaveProject(_ context.Context, p staffing.Project) error {
	return tv.s.saveProject(p)
}
func (tv *txView) GetProject(_ context.Context, id staffing.ProjectID) (*staffing.Project, error) {
	return tv.s.getProject(id)
}
func (tv *txView) ListProjects(_ context.Context) ([]staffing.Project, error) {
	return tv.s.listProjects()
}
func (tv *txView) DeleteProject(_ context.Context, id staffing.ProjectID) error {
	return tv.s.deleteProject(id)
}

func (tv *txView) SaveAssignment(_ context.Context, a staffing.Assignment) error {
	return tv.s.saveAssignment(a)
}
func (tv *txView) GetAssignment(_ context.Context, id staffing.AssignmentID) (*staffing.Assignment, error) {
	return tv.s.getAssignment(id)
}
func (tv *txView) ListAssignmentsByResource(_ context.Context, id staffing.ResourceID) ([]staffing.Assignment, error) {
	return tv.s.listAssignmentsByResource(id)
}
func (tv *txView) ListAssignmentsByProject(_ context.Context, id staffing.ProjectID) ([]staffing.Assignment, error) {
	return tv.s.listAssignmentsByProject(id)
}
func (tv *txView) ListActiveEndingBefore(_ context.Context, cutoff staffing.Date) ([]staffing.Assignment, error) {
	return tv.s.listActiveEndingBefore(cutoff)
}

func (tv *txView) InsertRequest(_ context.Context, r staffing.Request) error {
	return tv.s.insertRequest(r)
}
func (tv *txView) UpdateRequest(_ context.Context, r staffing.Request) error {
	return tv.s.updateRequest(r)
}
func (tv *txView) GetRequest(_ context.Context, id staffing.RequestID) (*staffing.Request, error) {
	return tv.s.getRequest(id)
}
func (tv *txView) ListRequests(_ context.Context, f staffing.RequestFilter) ([]staffing.Request, error) {
	return tv.s.listRequests(f)
}
func (tv *txView) HasPendingExtend(_ context.Context, id staffing.AssignmentID) (bool, error) {
	return tv.s.hasPendingExtend(id)
}

func (tv *txView) AppendActivity(_ context.Context, e staffing.ActivityEntry) error {
	return tv.s.appendActivity(e)
}
func (tv *txView) ListActivity(_ context.Context, f staffing.ActivityFilter) ([]staffing.ActivityEntry, error) {
	return tv.s.listActivity(f)
}

// =============================================================================
// STATE OPERATIONS
// =============================================================================

func (s *state) saveUser(u staffing.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *state) getUser(id staffing.UserID) (*staffing.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *state) listUsers() ([]staffing.User, error) {
	out := make([]staffing.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) saveResource(r staffing.Resource) error {
	s.resources[r.ID] = r
	return nil
}

func (s *state) getResource(id staffing.ResourceID) (*staffing.Resource, error) {
	if r, ok := s.resources[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *state) getResourceByEmail(email string) (*staffing.Resource, error) {
	for _, r := range s.resources {
		if strings.EqualFold(r.Email, email) {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (s *state) listResources() ([]staffing.Resource, error) {
	out := make([]staffing.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (s *state) deleteResource(id staffing.ResourceID) error {
	delete(s.resources, id)
	return nil
}

func (s *state) saveProject(p staffing.Project) error {
	s.projects[p.ID] = p
	return nil
}

func (s *state) getProject(id staffing.ProjectID) (*staffing.Project, error) {
	if p, ok := s.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *state) listProjects() ([]staffing.Project, error) {
	out := make([]staffing.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *state) deleteProject(id staffing.ProjectID) error {
	delete(s.projects, id)
	owned := make(map[staffing.AssignmentID]bool)
	for aid, a := range s.assignments {
		if a.ProjectID == id {
			owned[aid] = true
			delete(s.assignments, aid)
		}
	}
	for rid, r := range s.requests {
		if r.Assign != nil && r.Assign.ProjectID == id {
			delete(s.requests, rid)
			continue
		}
		if target := r.TargetAssignment(); target != "" && owned[target] {
			delete(s.requests, rid)
		}
	}
	return nil
}

func (s *state) saveAssignment(a staffing.Assignment) error {
	s.assignments[a.ID] = a
	return nil
}

func (s *state) getAssignment(id staffing.AssignmentID) (*staffing.Assignment, error) {
	if a, ok := s.assignments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *state) listAssignmentsByResource(id staffing.ResourceID) ([]staffing.Assignment, error) {
	var out []staffing.Assignment
	for _, a := range s.assignments {
		if a.ResourceID == id {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func (s *state) listAssignmentsByProject(id staffing.ProjectID) ([]staffing.Assignment, error) {
	var out []staffing.Assignment
	for _, a := range s.assignments {
		if a.ProjectID == id {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func (s *state) listActiveEndingBefore(cutoff staffing.Date) ([]staffing.Assignment, error) {
	var out []staffing.Assignment
	for _, a := range s.assignments {
		if a.Status == staffing.AssignmentActive && a.EndDate.Before(cutoff) {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func sortAssignments(out []staffing.Assignment) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
}

func (s *state) insertRequest(r staffing.Request) error {
	if r.Status == staffing.RequestPending {
		if target := r.TargetAssignment(); target != "" {
			for _, existing := range s.requests {
				if existing.Status == staffing.RequestPending && existing.TargetAssignment() == target {
					return staffing.ErrDuplicatePendingRequest
				}
			}
		}
	}
	s.requests[r.ID] = r
	return nil
}

func (s *state) updateRequest(r staffing.Request) error {
	if _, ok := s.requests[r.ID]; !ok {
		return &staffing.NotFoundError{Kind: "request", ID: string(r.ID)}
	}
	s.requests[r.ID] = r
	return nil
}

func (s *state) getRequest(id staffing.RequestID) (*staffing.Request, error) {
	if r, ok := s.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *state) listRequests(f staffing.RequestFilter) ([]staffing.Request, error) {
	var out []staffing.Request
	for _, r := range s.requests {
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.Type != nil && r.Type != *f.Type {
			continue
		}
		if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
			continue
		}
		if f.Terminal && !r.Status.IsTerminal() {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *state) hasPendingExtend(id staffing.AssignmentID) (bool, error) {
	for _, r := range s.requests {
		if r.Status == staffing.RequestPending && r.Type == staffing.RequestExtend &&
			r.Extend != nil && r.Extend.AssignmentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) appendActivity(e staffing.ActivityEntry) error {
	s.activity = append(s.activity, e)
	return nil
}

func (s *state) listActivity(f staffing.ActivityFilter) ([]staffing.ActivityEntry, error) {
	var out []staffing.ActivityEntry
	for _, e := range s.activity {
		if f.ProjectID != "" && e.ProjectID != f.ProjectID {
			continue
		}
		if f.ResourceID != "" && e.ResourceID != f.ResourceID {
			continue
		}
		out = append(out, e)
	}
	// Most recent first.
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
