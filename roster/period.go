/*
period.go - Roster period calendar

PURPOSE:
  Pure date arithmetic for the 28-day recurring roster period cycle.
  Every other component derives period facts (containment, publish date,
  submission deadline) from here.

THE CYCLE:
  13 periods per year, 28 days each. 13 x 28 = 364 days, which does NOT
  align to a calendar year, so the displayed year is part of the period's
  identity and is advanced by counting periods from the anchor - never
  derived from the computed start date's calendar year.

ANCHOR:
  One known (number, year, start date) tuple. All periods, past and future,
  are derived from it by whole-period offsets. Dates before the anchor
  produce negative offsets and must floor (not truncate) on division.

CODES:
  The one wire format intrinsic to the engine: "RP" + 2-digit zero-padded
  number + "/" + 4-digit year, e.g. "RP01/2026". Parsing is deliberately
  strict: "RP1/2026" is a defect, not an alternate form.

USAGE:
  cal := roster.Calendar{
      Anchor: roster.Anchor{Number: 12, Year: 2025, Start: roster.NewTimePoint(2025, time.October, 11)},
      Config: roster.DefaultPeriodConfig(),
  }
  p := cal.PeriodContaining(roster.Today())

SEE ALSO:
  - request.go: assigns periods to requests
  - alert.go: fires deadline alerts off period.Deadline
*/
package roster

import (
	"fmt"
	"strconv"
)

// PeriodLengthDays is fixed across the fleet; the cycle is not configurable.
const PeriodLengthDays = 28

// PeriodsPerYear is the number of periods before the displayed year advances.
const PeriodsPerYear = 13

// =============================================================================
// CONFIGURATION
// =============================================================================

// PeriodConfig carries the publish/deadline offsets. Offsets are configuration
// supplied by the caller; DefaultPeriodConfig documents the shipped defaults.
type PeriodConfig struct {
	// PublishOffsetDays is how many days before the period start the roster
	// is published.
	PublishOffsetDays int

	// DeadlineOffsetDays is how many days before the period start requests
	// must be submitted. Must exceed PublishOffsetDays so that
	// deadline < publish < start.
	DeadlineOffsetDays int
}

// DefaultPeriodConfig returns the standard offsets: publish 10 days before
// start, submission deadline 31 days before start.
func DefaultPeriodConfig() PeriodConfig {
	return PeriodConfig{PublishOffsetDays: 10, DeadlineOffsetDays: 31}
}

// Validate enforces the deadline < publish < start ordering.
func (c PeriodConfig) Validate() error {
	if c.PublishOffsetDays <= 0 {
		return fmt.Errorf("publish offset must be positive, got %d", c.PublishOffsetDays)
	}
	if c.DeadlineOffsetDays <= c.PublishOffsetDays {
		return fmt.Errorf("deadline offset (%d) must exceed publish offset (%d)",
			c.DeadlineOffsetDays, c.PublishOffsetDays)
	}
	return nil
}

// Anchor is one known period from which all others are derived.
type Anchor struct {
	Number int
	Year   int
	Start  TimePoint
}

// Validate checks the anchor is usable.
func (a Anchor) Validate() error {
	if a.Number < 1 || a.Number > PeriodsPerYear {
		return fmt.Errorf("anchor period number must be 1..%d, got %d", PeriodsPerYear, a.Number)
	}
	if a.Start.IsZero() {
		return fmt.Errorf("anchor start date is required")
	}
	return nil
}

// =============================================================================
// PERIOD
// =============================================================================

// Period is one 28-day operational window. Number and Year are identity,
// carried from the anchor by modular arithmetic; Start..End is inclusive.
type Period struct {
	Number   int
	Year     int
	Start    TimePoint
	End      TimePoint
	Publish  TimePoint
	Deadline TimePoint
}

// Code returns the canonical textual identifier, e.g. "RP01/2026".
// Always zero-padded.
func (p Period) Code() string {
	return fmt.Sprintf("RP%02d/%04d", p.Number, p.Year)
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return p.Code() + " [" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar resolves dates and codes to periods. Stateless: safe for
// concurrent use from any number of goroutines.
type Calendar struct {
	Anchor Anchor
	Config PeriodConfig
}

// periodAt builds the period `index` whole periods after the anchor
// (negative index = before the anchor).
func (c Calendar) periodAt(index int) Period {
	start := c.Anchor.Start.AddDays(index * PeriodLengthDays)

	// Advance (number, year) from the anchor by modular arithmetic.
	// 13 x 28 days is not a calendar year, so the year must come from
	// counting periods, never from start.Year().
	absolute := c.Anchor.Number - 1 + index
	number := mod(absolute, PeriodsPerYear) + 1
	year := c.Anchor.Year + floorDiv(absolute, PeriodsPerYear)

	return Period{
		Number:   number,
		Year:     year,
		Start:    start,
		End:      start.AddDays(PeriodLengthDays - 1),
		Publish:  start.AddDays(-c.Config.PublishOffsetDays),
		Deadline: start.AddDays(-c.Config.DeadlineOffsetDays),
	}
}

// PeriodContaining returns the unique period whose [Start, End] window
// contains the given date. Handles dates arbitrarily far before or after
// the anchor.
func (c Calendar) PeriodContaining(date TimePoint) Period {
	offsetDays := DaysBetween(c.Anchor.Start, date)
	return c.periodAt(floorDiv(offsetDays, PeriodLengthDays))
}

// PeriodsFrom returns `count` consecutive periods in order, starting with
// the period containing `date`. No side effects; calling it again restarts
// the sequence.
func (c Calendar) PeriodsFrom(date TimePoint, count int) []Period {
	if count <= 0 {
		return nil
	}
	first := floorDiv(DaysBetween(c.Anchor.Start, date), PeriodLengthDays)
	periods := make([]Period, 0, count)
	for i := 0; i < count; i++ {
		periods = append(periods, c.periodAt(first+i))
	}
	return periods
}

// PeriodByCode resolves a canonical "RPnn/yyyy" code to its period.
// Only the exact zero-padded form is accepted; "RP1/2026" fails with
// ErrInvalidFormat. A syntactically valid code whose number falls outside
// the 1..13 cycle fails with ErrPeriodNotFound.
func (c Calendar) PeriodByCode(code string) (Period, error) {
	number, year, err := parsePeriodCode(code)
	if err != nil {
		return Period{}, err
	}
	if number < 1 || number > PeriodsPerYear {
		return Period{}, &PeriodNotFoundError{Code: code}
	}
	index := (year-c.Anchor.Year)*PeriodsPerYear + (number - c.Anchor.Number)
	return c.periodAt(index), nil
}

// parsePeriodCode validates the exact shape RP + 2 digits + "/" + 4 digits.
// Strictness is deliberate: accepting both "RP1" and "RP01" would put two
// representations of the same value into circulation.
func parsePeriodCode(code string) (number, year int, err error) {
	if len(code) != 9 || code[0] != 'R' || code[1] != 'P' || code[4] != '/' {
		return 0, 0, &InvalidFormatError{Code: code}
	}
	numPart, yearPart := code[2:4], code[5:9]
	if !allDigits(numPart) || !allDigits(yearPart) {
		return 0, 0, &InvalidFormatError{Code: code}
	}
	number, _ = strconv.Atoi(numPart)
	year, _ = strconv.Atoi(yearPart)
	return number, year, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// floorDiv divides rounding toward negative infinity, which Go's integer
// division does not do for negative operands.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
