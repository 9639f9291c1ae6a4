/*
store.go - Collaborator interfaces for engine inputs and durable state

PURPOSE:
  The engine is a library: it never fetches rosters, never persists
  requests, never delivers notifications. These interfaces are the contract
  with the collaborators that own I/O. Different implementations can use
  SQLite or in-memory storage.

KEY INTERFACES:
  RosterSource:    Supplies the anchor and per-rank headcounts/seniority
  RequestStore:    Supplies raw requests, persists annotated results
  AlertStateStore: Durable (periodCode, stage) -> firedAt state
  Notifier:        Consumes alert events; owns actual delivery

DURABILITY CONTRACT:
  AlertStateStore makes the at-most-once-fire invariant survive restarts:
  the scheduler's Tick is pure over stored state, so replaying a tick after
  a crash re-reads the same state and cannot double-fire a persisted stage.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite-backed collaborator store
  - roster/store/memory.go: In-memory for testing

SEE ALSO:
  - alert.go: the pure Tick the stored state feeds
  - api/scheduler.go: the runner wiring these together
*/
package roster

import "context"

// =============================================================================
// ROSTER SOURCE - Anchor and headcount supplier
// =============================================================================

// Pilot is one roster member as the roster source exposes it.
type Pilot struct {
	ID        string
	Name      string
	Rank      Rank
	Seniority int
}

// RosterSource supplies the facts the engine never owns: the period anchor
// and who is on the roster.
type RosterSource interface {
	// Anchor returns the known reference period.
	Anchor(ctx context.Context) (Anchor, error)

	// Counts returns the total on-roster headcount per rank.
	Counts(ctx context.Context) (RosterCounts, error)

	// Pilots returns the full roster, ordered by seniority.
	Pilots(ctx context.Context) ([]Pilot, error)
}

// =============================================================================
// REQUEST STORE - Raw in, annotated out
// =============================================================================

// RequestStore persists classification results and supplies snapshots for
// conflict evaluation. The engine reads and writes only through it.
type RequestStore interface {
	// SaveRequest persists an annotated request, replacing any previous
	// classification of the same request ID (last write wins; serializing
	// writers for the same ID is the host's job).
	SaveRequest(ctx context.Context, req AnnotatedRequest) error

	// ListRequests returns a point-in-time snapshot of all annotated
	// requests, ordered by ID.
	ListRequests(ctx context.Context) ([]AnnotatedRequest, error)
}

// =============================================================================
// ALERT STATE STORE - Durable at-most-once firing
// =============================================================================

// AlertStateStore owns the durable (periodCode, stage) -> firedAt records.
type AlertStateStore interface {
	// LoadStates returns the stage states for a period. Missing stages are
	// simply absent from the map (PENDING).
	LoadStates(ctx context.Context, periodCode string) (StageStates, error)

	// SaveStates persists a period's stage states. Must be called before
	// acting on the tick's events.
	SaveStates(ctx context.Context, periodCode string, states StageStates) error
}

// =============================================================================
// NOTIFIER - Event consumer
// =============================================================================

// Notifier consumes alert events. The engine only produces the values;
// delivery (email, push, in-app) is entirely the implementation's concern.
type Notifier interface {
	Notify(ctx context.Context, event AlertEvent) error
}
