// Package store provides in-memory collaborator implementations for
// testing and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements roster.RequestStore and roster.AlertStateStore with
// RWMutex-guarded maps. Reads return copies so callers hold true snapshots.
type Memory struct {
	mu       sync.RWMutex
	requests map[string]roster.AnnotatedRequest
	states   map[string]roster.StageStates
}

func NewMemory() *Memory {
	return &Memory{
		requests: make(map[string]roster.AnnotatedRequest),
		states:   make(map[string]roster.StageStates),
	}
}

// SaveRequest replaces any previous classification of the same request ID.
func (m *Memory) SaveRequest(_ context.Context, req roster.AnnotatedRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

// ListRequests returns a snapshot ordered by request ID.
func (m *Memory) ListRequests(_ context.Context) ([]roster.AnnotatedRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]roster.AnnotatedRequest, 0, len(m.requests))
	for _, req := range m.requests {
		result = append(result, req)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// LoadStates returns a copy of the period's stage states.
func (m *Memory) LoadStates(_ context.Context, periodCode string) (roster.StageStates, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[periodCode].Clone(), nil
}

// SaveStates persists a copy of the states so later caller mutations do not
// leak into the store.
func (m *Memory) SaveStates(_ context.Context, periodCode string, states roster.StageStates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[periodCode] = states.Clone()
	return nil
}

// =============================================================================
// STATIC ROSTER SOURCE - Fixed anchor and headcounts (for testing/dev)
// =============================================================================

// StaticRoster implements roster.RosterSource over fixed data.
type StaticRoster struct {
	PeriodAnchor roster.Anchor
	Members      []roster.Pilot
}

func (s *StaticRoster) Anchor(_ context.Context) (roster.Anchor, error) {
	return s.PeriodAnchor, nil
}

func (s *StaticRoster) Counts(_ context.Context) (roster.RosterCounts, error) {
	counts := make(roster.RosterCounts)
	for _, p := range s.Members {
		counts[p.Rank]++
	}
	return counts, nil
}

func (s *StaticRoster) Pilots(_ context.Context) ([]roster.Pilot, error) {
	pilots := append([]roster.Pilot(nil), s.Members...)
	sort.Slice(pilots, func(i, j int) bool { return pilots[i].Seniority < pilots[j].Seniority })
	return pilots, nil
}
