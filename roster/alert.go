/*
alert.go - Deadline alert escalation state machine

PURPOSE:
  As a period's submission deadline approaches, a ladder of alert stages
  (days-before-deadline counts) fires one notification event each. Each
  (period, stage) fires at most once, ever. Stages fire in descending
  day-count order, so a scheduler that slept through several stages emits
  all of them, in order, on the next tick - none silently skipped, none
  fired twice.

STATE:
  One AlertState per (period, stage): PENDING until FiredAt is set, FIRED
  afterwards. There is no transition back. The state lives in a collaborator
  store (see store.go); Tick is a pure function of (now, period, prior
  state), so replay-safety across process restarts is a property of the
  stored state, not of in-process memory.

DELIVERY SEMANTICS:
  The caller persists the new state before acting on the events. A crash in
  between means stale prior state on the next tick and a harmless re-emit
  of already-delivered alerts: the design favors "alerts are eventually
  delivered" over "exactly once".

CONCURRENCY:
  Ticks for the same period must be serialized by the host (single writer
  per period's state record); ticks for different periods are independent.

SEE ALSO:
  - period.go: Deadline derivation
  - store.go: AlertStateStore interface
  - api/scheduler.go: the background tick runner
*/
package roster

import "fmt"

// =============================================================================
// LADDER
// =============================================================================

// Ladder is the ordered set of days-before-deadline stages. Must be strictly
// descending.
type Ladder []int

// DefaultLadder returns the shipped escalation ladder.
func DefaultLadder() Ladder {
	return Ladder{21, 14, 7, 3, 1, 0}
}

// Validate enforces strict descending order and non-negative stages.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("ladder must have at least one stage")
	}
	for i, s := range l {
		if s < 0 {
			return fmt.Errorf("ladder stage %d is negative", s)
		}
		if i > 0 && s >= l[i-1] {
			return fmt.Errorf("ladder must be strictly descending, got %d after %d", s, l[i-1])
		}
	}
	return nil
}

// =============================================================================
// STATE
// =============================================================================

// AlertState tracks one (period, stage). Nil FiredAt = PENDING.
type AlertState struct {
	PeriodCode string
	Stage      int
	FiredAt    *TimePoint
}

// Fired reports whether this stage has already fired.
func (s AlertState) Fired() bool { return s.FiredAt != nil }

// StageStates is the per-period map of stage number to state. Missing
// entries are PENDING (states are created lazily on first evaluation).
type StageStates map[int]AlertState

// Clone returns an independent copy; Tick never mutates its input.
func (ss StageStates) Clone() StageStates {
	out := make(StageStates, len(ss))
	for k, v := range ss {
		out[k] = v
	}
	return out
}

// AlertEvent is one emitted notification. The engine only produces the
// value; delivery belongs to the notification dispatcher collaborator.
type AlertEvent struct {
	PeriodCode        string
	Stage             int
	DaysUntilDeadline int
	Deadline          TimePoint
	FiredAt           TimePoint
}

// =============================================================================
// SCHEDULER
// =============================================================================

// AlertScheduler advances the per-period alert state machine.
type AlertScheduler struct {
	Ladder Ladder
}

// NewAlertScheduler returns a scheduler on the shipped ladder.
func NewAlertScheduler() *AlertScheduler {
	return &AlertScheduler{Ladder: DefaultLadder()}
}

// Tick evaluates one period at one instant. Pure: identical (now, period,
// prior) yields identical (state, events). Stages whose threshold has been
// reached and that are still PENDING fire once each, in descending stage
// order; a deadline already in the past fires every remaining stage - that
// is catch-up, not an error.
func (a *AlertScheduler) Tick(now TimePoint, period Period, prior StageStates) (StageStates, []AlertEvent) {
	next := prior.Clone()
	if next == nil {
		next = make(StageStates, len(a.Ladder))
	}

	daysUntil := DaysBetween(now, period.Deadline)
	var events []AlertEvent

	for _, stage := range a.Ladder {
		if daysUntil > stage {
			continue
		}
		if st, ok := next[stage]; ok && st.Fired() {
			continue
		}
		firedAt := now
		next[stage] = AlertState{
			PeriodCode: period.Code(),
			Stage:      stage,
			FiredAt:    &firedAt,
		}
		events = append(events, AlertEvent{
			PeriodCode:        period.Code(),
			Stage:             stage,
			DaysUntilDeadline: daysUntil,
			Deadline:          period.Deadline,
			FiredAt:           now,
		})
	}

	return next, events
}
