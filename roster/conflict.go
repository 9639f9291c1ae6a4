/*
conflict.go - Minimum-staffing conflict detection

PURPOSE:
  Given a snapshot of classified requests plus per-rank minimum staffing
  configuration, computes for every (date, rank) with at least one absence
  how far staffing falls below the configured floor, and grades it NONE /
  WARNING / CRITICAL.

ALGORITHM:
  1. Filter to requests whose category removes the subject from the duty
     count (the AbsencePolicy table - LEAVE does, flight changes and bids
     do not).
  2. Expand each request's date range into individual days and tally
     distinct absent subjects per (date, rank). Overlapping requests from
     the same subject count once.
  3. remaining = totalOnRoster[rank] - absent; compare to the effective
     minimum (configured minimum x scope multiplier).

PARTIAL FAILURE:
  A request whose rank is absent from the thresholds cannot contribute to
  any tally. It is excluded and RECORDED in the report's Skipped list with
  its reason - one bad record must not abort a fleet-wide evaluation, but
  it must not vanish without trace either.

PURITY:
  Evaluate is a pure reduction over its inputs: no mutation, no shared
  state, safe to call repeatedly and concurrently.

SEE ALSO:
  - request.go: AnnotatedRequest and Days expansion
  - priority.go: contribution ordering
*/
package roster

import "sort"

// =============================================================================
// CONFIGURATION
// =============================================================================

// StaffingThreshold is externally supplied configuration; read-only here.
type StaffingThreshold struct {
	// MinimumPerRank is the on-duty floor per rank per operational unit.
	MinimumPerRank map[Rank]int

	// ScopeMultiplier scales the floor by the number of operational units
	// (e.g. aircraft types) the minimum applies per. Zero means 1.
	ScopeMultiplier int
}

// EffectiveMinimum returns the scaled floor for a rank and whether the rank
// is configured at all.
func (t StaffingThreshold) EffectiveMinimum(rank Rank) (int, bool) {
	min, ok := t.MinimumPerRank[rank]
	if !ok {
		return 0, false
	}
	scope := t.ScopeMultiplier
	if scope <= 0 {
		scope = 1
	}
	return min * scope, true
}

// AbsencePolicy is the policy table deciding which categories remove the
// subject from the duty count. Supplied alongside thresholds.
type AbsencePolicy map[Category]bool

// DefaultAbsencePolicy: leave removes crew from duty; flight changes and
// bids reshuffle duty but do not reduce headcount.
func DefaultAbsencePolicy() AbsencePolicy {
	return AbsencePolicy{
		CategoryLeave:        true,
		CategoryFlightChange: false,
		CategoryBid:          false,
	}
}

// RosterCounts is the total on-roster headcount per rank, supplied by the
// roster source collaborator.
type RosterCounts map[Rank]int

// =============================================================================
// REPORT
// =============================================================================

// Severity grades a staffing margin.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// ConflictEntry is the margin for one (date, rank) with at least one absence.
type ConflictEntry struct {
	Date            TimePoint
	Rank            Rank
	OnLeaveCount    int
	RemainingCount  int
	MinimumRequired int
	Severity        Severity

	// ContributingIDs lists the requests absent on this date, ascending by
	// priority score (so the least essential request to deny sorts last).
	// Advisory ordering, not a decision.
	ContributingIDs []string
}

// SkippedContribution records a request excluded from the tally.
type SkippedContribution struct {
	RequestID string
	Rank      Rank
	Reason    string
}

// ConflictReport is the output of one evaluation run. Ephemeral: recomputed
// per run, never persisted by the engine.
type ConflictReport struct {
	Entries []ConflictEntry
	Skipped []SkippedContribution
}

// HasConflicts reports whether any entry is above NONE.
func (r ConflictReport) HasConflicts() bool {
	for _, e := range r.Entries {
		if e.Severity != SeverityNone {
			return true
		}
	}
	return false
}

// =============================================================================
// DETECTOR
// =============================================================================

// DefaultWarningBand is the shipped severity band: a deficit of at most one
// below the floor grades WARNING, anything deeper grades CRITICAL.
const DefaultWarningBand = 1

// Detector evaluates staffing conflicts. Stateless.
type Detector struct {
	// WarningBand widens the WARNING zone: deficit in [0, WarningBand] is a
	// WARNING, beyond it (or any negative remaining) is CRITICAL.
	WarningBand int

	// Policy decides which categories count as absences. Nil means
	// DefaultAbsencePolicy.
	Policy AbsencePolicy
}

// NewDetector returns a detector with the shipped band and policy.
func NewDetector() *Detector {
	return &Detector{WarningBand: DefaultWarningBand, Policy: DefaultAbsencePolicy()}
}

type dateRank struct {
	date TimePoint
	rank Rank
}

// Evaluate runs one conflict evaluation over a snapshot of requests.
// The error return is reserved for future use; per-request problems are
// reported in the Skipped list, and the report is always produced.
func (d *Detector) Evaluate(requests []AnnotatedRequest, roster RosterCounts, thresholds StaffingThreshold) ConflictReport {
	policy := d.Policy
	if policy == nil {
		policy = DefaultAbsencePolicy()
	}

	type tally struct {
		contributions []AnnotatedRequest
		subjects      map[string]struct{}
	}
	tallies := make(map[dateRank]*tally)
	var skipped []SkippedContribution

	for _, req := range requests {
		if !policy[req.Category] {
			continue
		}
		if _, ok := thresholds.MinimumPerRank[req.Rank]; !ok {
			err := &UnknownRankError{RequestID: req.ID, Rank: req.Rank}
			skipped = append(skipped, SkippedContribution{
				RequestID: req.ID,
				Rank:      req.Rank,
				Reason:    err.Error(),
			})
			continue
		}
		for _, day := range req.Days() {
			k := dateRank{date: day, rank: req.Rank}
			t := tallies[k]
			if t == nil {
				t = &tally{subjects: make(map[string]struct{})}
				tallies[k] = t
			}
			t.contributions = append(t.contributions, req)
			t.subjects[req.SubjectID] = struct{}{}
		}
	}

	entries := make([]ConflictEntry, 0, len(tallies))
	for k, t := range tallies {
		minimum, _ := thresholds.EffectiveMinimum(k.rank)
		// A subject holding several overlapping requests is still one absent
		// body; the count is distinct subjects, not requests.
		absent := len(t.subjects)
		remaining := roster[k.rank] - absent

		// Ascending by priority score, ties broken by ID for determinism.
		sort.Slice(t.contributions, func(i, j int) bool {
			a, b := t.contributions[i], t.contributions[j]
			if !a.PriorityScore.Equal(b.PriorityScore) {
				return a.PriorityScore.LessThan(b.PriorityScore)
			}
			return a.ID < b.ID
		})
		ids := make([]string, len(t.contributions))
		for i, c := range t.contributions {
			ids[i] = c.ID
		}

		entries = append(entries, ConflictEntry{
			Date:            k.date,
			Rank:            k.rank,
			OnLeaveCount:    absent,
			RemainingCount:  remaining,
			MinimumRequired: minimum,
			Severity:        d.severity(remaining, minimum),
			ContributingIDs: ids,
		})
	}

	// Map iteration is unordered; the report is sorted by date then rank so
	// identical inputs produce identical reports.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Rank < entries[j].Rank
	})
	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].RequestID < skipped[j].RequestID
	})

	return ConflictReport{Entries: entries, Skipped: skipped}
}

// severity grades one (date, rank) margin. Monotonic in absence count for a
// fixed minimum: more absences never lower the grade.
func (d *Detector) severity(remaining, minimum int) Severity {
	if remaining < 0 {
		return SeverityCritical
	}
	deficit := minimum - remaining
	switch {
	case deficit <= 0:
		return SeverityNone
	case deficit <= d.WarningBand:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}
