/*
classify_test.go - Behavior tests for request classification

ORGANIZATION:
  1. Derived fields (period assignment, day counts)
  2. Lateness window and boundary
  3. Deadline flag
  4. Validation failures
  5. Idempotence and priority
*/
package roster_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// lateCalendar anchors period 1/2026 on 2026-02-06, matching the lateness
// scenario dates.
func lateCalendar() roster.Calendar {
	return roster.Calendar{
		Anchor: roster.Anchor{
			Number: 1,
			Year:   2026,
			Start:  roster.NewTimePoint(2026, time.February, 6),
		},
		Config: roster.DefaultPeriodConfig(),
	}
}

func leaveRequest(id string, start roster.TimePoint, submitted roster.TimePoint) roster.RawRequest {
	return roster.RawRequest{
		ID:          id,
		SubjectID:   "plt-1",
		Rank:        roster.RankFirstOfficer,
		Seniority:   42,
		Category:    roster.CategoryLeave,
		Type:        roster.TypeAnnual,
		Channel:     roster.ChannelWeb,
		Start:       start,
		SubmittedAt: submitted,
	}
}

// =============================================================================
// DERIVED FIELDS
// =============================================================================

func TestClassify_AssignsContainingPeriod(t *testing.T) {
	// GIVEN: A request starting mid-period
	// THEN: assignedPeriod is the unique period containing the start date
	c := roster.NewClassifier(testCalendar())

	raw := leaveRequest("r1",
		date(2025, time.October, 20),
		date(2025, time.September, 1))
	ar, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if ar.AssignedPeriod.Number != 12 || ar.AssignedPeriod.Year != 2025 {
		t.Errorf("expected period 12/2025, got %s", ar.AssignedPeriod.Code())
	}
	if !ar.AssignedPeriod.Contains(raw.Start) {
		t.Errorf("assigned period %s does not contain %s", ar.AssignedPeriod, raw.Start)
	}
}

func TestClassify_DaysCount(t *testing.T) {
	c := roster.NewClassifier(testCalendar())

	// Single day (nil end)
	single, err := c.Classify(leaveRequest("r1",
		date(2025, time.October, 20), date(2025, time.September, 1)))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if single.DaysCount != 1 {
		t.Errorf("expected 1 day for nil end, got %d", single.DaysCount)
	}

	// Inclusive range: 20th..24th is 5 days
	raw := leaveRequest("r2", date(2025, time.October, 20), date(2025, time.September, 1))
	end := date(2025, time.October, 24)
	raw.End = &end
	ranged, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if ranged.DaysCount != 5 {
		t.Errorf("expected 5 days, got %d", ranged.DaysCount)
	}

	// Same-day range is 1 day
	raw = leaveRequest("r3", date(2025, time.October, 20), date(2025, time.September, 1))
	same := date(2025, time.October, 20)
	raw.End = &same
	zero, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if zero.DaysCount != 1 {
		t.Errorf("expected 1 day for same-day range, got %d", zero.DaysCount)
	}
}

// =============================================================================
// LATENESS
// =============================================================================

func TestClassify_LateScenario(t *testing.T) {
	// GIVEN: assignedPeriod.start = 2026-02-06, window 21 days
	// WHEN: submitted 2026-01-20 (gap 17 days)
	// THEN: late
	c := roster.NewClassifier(lateCalendar())

	ar, err := c.Classify(leaveRequest("r1",
		date(2026, time.February, 6),
		date(2026, time.January, 20)))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !ar.IsLateRequest {
		t.Error("17-day gap with a 21-day window should be late")
	}
}

func TestClassify_LatenessBoundary(t *testing.T) {
	// Exactly lateWindowDays before start is NOT late; one day closer
	// IS late. Calendar days, not business days.
	c := roster.NewClassifier(lateCalendar())
	start := date(2026, time.February, 6)

	onTime, err := c.Classify(leaveRequest("r1", start, start.AddDays(-21)))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if onTime.IsLateRequest {
		t.Error("exactly 21 days before start must not be late")
	}

	late, err := c.Classify(leaveRequest("r2", start, start.AddDays(-20)))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !late.IsLateRequest {
		t.Error("20 days before start must be late")
	}
}

func TestClassify_LatenessAppliesToUrgentCategories(t *testing.T) {
	// The window is uniform: medical leave inside the window is still
	// flagged. The flag is informational; the category travels with it.
	c := roster.NewClassifier(lateCalendar())
	start := date(2026, time.February, 6)

	raw := leaveRequest("r1", start, start.AddDays(-3))
	raw.Type = roster.TypeMedical
	ar, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !ar.IsLateRequest {
		t.Error("medical leave inside the window should still carry the late flag")
	}
}

// =============================================================================
// DEADLINE FLAG
// =============================================================================

func TestClassify_PastDeadline(t *testing.T) {
	// GIVEN: period start 2026-02-06, deadline offset 31 -> deadline 2026-01-06
	c := roster.NewClassifier(lateCalendar())
	start := date(2026, time.February, 6)

	// Submitted ON the deadline: not past
	onDeadline, err := c.Classify(leaveRequest("r1", start, date(2026, time.January, 6)))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if onDeadline.IsPastDeadline {
		t.Error("submission on the deadline date is not past it")
	}

	// Submitted the day after: past
	past, err := c.Classify(leaveRequest("r2", start, date(2026, time.January, 7)))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !past.IsPastDeadline {
		t.Error("submission after the deadline date must be flagged")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestClassify_RejectsInvertedDateRange(t *testing.T) {
	c := roster.NewClassifier(testCalendar())

	raw := leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1))
	end := date(2025, time.October, 19)
	raw.End = &end

	_, err := c.Classify(raw)
	if !errors.Is(err, roster.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestClassify_RejectsIllegalCategoryTypePairing(t *testing.T) {
	c := roster.NewClassifier(testCalendar())

	// SWAP is a flight-change type, not a leave type
	raw := leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1))
	raw.Type = roster.TypeSwap

	_, err := c.Classify(raw)
	if !errors.Is(err, roster.ErrInvalidTypeForCategory) {
		t.Fatalf("expected ErrInvalidTypeForCategory, got %v", err)
	}

	var pairErr *roster.TypePairingError
	if !errors.As(err, &pairErr) {
		t.Fatal("expected a TypePairingError with context")
	}
	if pairErr.Category != roster.CategoryLeave || pairErr.Type != roster.TypeSwap {
		t.Errorf("error context wrong: %v", pairErr)
	}
}

func TestClassify_RejectsUnknownChannel(t *testing.T) {
	c := roster.NewClassifier(testCalendar())

	raw := leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1))
	raw.Channel = roster.Channel("CARRIER_PIGEON")

	_, err := c.Classify(raw)
	if !errors.Is(err, roster.ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestValidTypeFor_Table(t *testing.T) {
	valid := []struct {
		cat roster.Category
		typ roster.RequestType
	}{
		{roster.CategoryLeave, roster.TypeAnnual},
		{roster.CategoryLeave, roster.TypeCompassionate},
		{roster.CategoryFlightChange, roster.TypeSwap},
		{roster.CategoryBid, roster.TypeLineBid},
	}
	for _, v := range valid {
		if !roster.ValidTypeFor(v.cat, v.typ) {
			t.Errorf("%s/%s should be permitted", v.cat, v.typ)
		}
	}

	invalid := []struct {
		cat roster.Category
		typ roster.RequestType
	}{
		{roster.CategoryBid, roster.TypeAnnual},
		{roster.CategoryFlightChange, roster.TypeMedical},
		{roster.Category("UNKNOWN"), roster.TypeAnnual},
	}
	for _, v := range invalid {
		if roster.ValidTypeFor(v.cat, v.typ) {
			t.Errorf("%s/%s should be rejected", v.cat, v.typ)
		}
	}
}

// =============================================================================
// IDEMPOTENCE AND PRIORITY
// =============================================================================

func TestClassify_Idempotent(t *testing.T) {
	// Reclassifying with unchanged inputs yields identical output.
	c := roster.NewClassifier(testCalendar())

	raw := leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1))
	end := date(2025, time.October, 24)
	raw.End = &end

	first, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	second, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDefaultScorer_LowerIsHigherPriority(t *testing.T) {
	// More senior crew (lower seniority number) scores lower.
	senior := leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1))
	senior.Seniority = 5
	junior := leaveRequest("r2", date(2025, time.October, 20), date(2025, time.September, 1))
	junior.Seniority = 200

	var scorer roster.DefaultScorer
	if !scorer.Score(senior).LessThan(scorer.Score(junior)) {
		t.Error("senior crew should outrank junior crew on the same type")
	}
}

func TestDefaultScorer_UrgentLeaveOutranksSeniority(t *testing.T) {
	// A junior pilot's medical leave outranks the most senior routine bid.
	medical := leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1))
	medical.Type = roster.TypeMedical
	medical.Seniority = 999

	bid := leaveRequest("r2", date(2025, time.October, 20), date(2025, time.September, 1))
	bid.Category = roster.CategoryBid
	bid.Type = roster.TypeLineBid
	bid.Seniority = 1

	var scorer roster.DefaultScorer
	if !scorer.Score(medical).LessThan(scorer.Score(bid)) {
		t.Error("medical leave should outrank a routine bid regardless of seniority")
	}
}

func TestClassifyAll_StopsOnFirstInvalid(t *testing.T) {
	c := roster.NewClassifier(testCalendar())

	bad := leaveRequest("r2", date(2025, time.October, 21), date(2025, time.September, 1))
	bad.Type = roster.TypeSwap

	_, err := c.ClassifyAll([]roster.RawRequest{
		leaveRequest("r1", date(2025, time.October, 20), date(2025, time.September, 1)),
		bad,
	})
	if !errors.Is(err, roster.ErrInvalidTypeForCategory) {
		t.Fatalf("expected ErrInvalidTypeForCategory, got %v", err)
	}
}
