/*
request.go - Request classification

PURPOSE:
  Turns a raw staffing request (who, what, when, how submitted) into a fully
  annotated record: assigned period, day count, lateness flag, past-deadline
  flag, priority score. Classification is the single place these derived
  facts are computed so that every downstream consumer sees the same answer.

CATEGORY/TYPE PAIRING:
  The category space is closed. Each Category owns its permitted RequestType
  set and an illegal pairing is rejected at classification time with
  ErrInvalidTypeForCategory - there is no free-form string combination.

PURITY:
  Classify reads no clocks and mutates nothing. Identical input yields
  identical output, always; conflict detection and reporting rely on that
  stable identity. Concurrent classification of different requests needs no
  locking; serializing reclassification of the SAME request against shared
  storage is the host's job.

LATENESS:
  A request is late when it was submitted fewer than LateWindowDays calendar
  days before its period starts. Exactly LateWindowDays is on time. The
  window applies uniformly to every category, including medical and
  compassionate leave; the flag is informational and the category travels
  with it, so a policy layer that wants to exempt urgent categories can.

SEE ALSO:
  - period.go: period assignment
  - priority.go: priority scoring
  - conflict.go: consumes AnnotatedRequest
*/
package roster

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Rank is an ordered crew tier. The engine treats ranks as opaque keys; the
// threshold configuration decides which ranks exist.
type Rank string

const (
	RankCaptain      Rank = "CPT"
	RankFirstOfficer Rank = "FO"
)

// Category classifies what a request asks for.
type Category string

const (
	CategoryLeave        Category = "LEAVE"
	CategoryFlightChange Category = "FLIGHT_CHANGE"
	CategoryBid          Category = "BID"
)

// RequestType refines a category. Each type belongs to exactly one category.
type RequestType string

const (
	// LEAVE types
	TypeAnnual        RequestType = "ANNUAL"
	TypeMedical       RequestType = "MEDICAL"
	TypeCompassionate RequestType = "COMPASSIONATE"
	TypeUnpaid        RequestType = "UNPAID"

	// FLIGHT_CHANGE types
	TypeSwap   RequestType = "SWAP"
	TypeDrop   RequestType = "DROP"
	TypePickup RequestType = "PICKUP"

	// BID types
	TypeLineBid     RequestType = "LINE"
	TypeTrainingBid RequestType = "TRAINING"
)

// permittedTypes is the closed pairing table. An entry's absence IS the
// rejection rule.
var permittedTypes = map[Category]map[RequestType]bool{
	CategoryLeave: {
		TypeAnnual:        true,
		TypeMedical:       true,
		TypeCompassionate: true,
		TypeUnpaid:        true,
	},
	CategoryFlightChange: {
		TypeSwap:   true,
		TypeDrop:   true,
		TypePickup: true,
	},
	CategoryBid: {
		TypeLineBid:     true,
		TypeTrainingBid: true,
	},
}

// ValidTypeFor reports whether the category/type pairing is permitted.
func ValidTypeFor(cat Category, typ RequestType) bool {
	return permittedTypes[cat][typ]
}

// Channel records how a request was submitted. Informational only, but an
// unrecognized value is still rejected so garbage cannot round-trip.
type Channel string

const (
	ChannelWeb    Channel = "WEB"
	ChannelMobile Channel = "MOBILE"
	ChannelOps    Channel = "OPS_DESK"
)

var knownChannels = map[Channel]bool{
	ChannelWeb:    true,
	ChannelMobile: true,
	ChannelOps:    true,
}

// =============================================================================
// REQUEST RECORDS
// =============================================================================

// RawRequest is a staffing request before classification, as supplied by the
// request store collaborator.
type RawRequest struct {
	ID        string
	SubjectID string
	Rank      Rank
	Seniority int // lower number = more senior
	Category  Category
	Type      RequestType
	Channel   Channel

	Start TimePoint
	// End is nil for single-day types.
	End *TimePoint

	SubmittedAt TimePoint
}

// AnnotatedRequest is a staffing request after classification. All derived
// fields are functions of the raw request plus calendar configuration.
type AnnotatedRequest struct {
	ID        string
	SubjectID string
	Rank      Rank
	Seniority int
	Category  Category
	Type      RequestType
	Channel   Channel

	Start TimePoint
	End   *TimePoint

	DaysCount      int
	AssignedPeriod Period
	SubmittedAt    TimePoint
	IsLateRequest  bool
	IsPastDeadline bool

	// PriorityScore: LOWER is HIGHER priority. See priority.go.
	PriorityScore PriorityScore
}

// Days expands the request's occupied date range into individual dates.
func (r AnnotatedRequest) Days() []TimePoint {
	days := make([]TimePoint, 0, r.DaysCount)
	current := r.Start
	end := r.Start
	if r.End != nil {
		end = *r.End
	}
	for current.BeforeOrEqual(end) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// DefaultLateWindowDays is the shipped lateness window: a request submitted
// fewer than 21 calendar days before its period start is flagged late.
const DefaultLateWindowDays = 21

// Classifier derives annotated requests. Stateless per call.
type Classifier struct {
	Calendar       Calendar
	LateWindowDays int
	Scorer         PriorityScorer
}

// NewClassifier wires a classifier with the default late window and scorer.
func NewClassifier(cal Calendar) *Classifier {
	return &Classifier{
		Calendar:       cal,
		LateWindowDays: DefaultLateWindowDays,
		Scorer:         DefaultScorer{},
	}
}

// Classify validates the raw request and computes every derived field.
// Pure: no clocks, no stores, byte-identical output for identical input.
func (c *Classifier) Classify(raw RawRequest) (AnnotatedRequest, error) {
	if raw.End != nil && raw.End.Before(raw.Start) {
		return AnnotatedRequest{}, &DateRangeError{Start: raw.Start, End: *raw.End}
	}
	if !ValidTypeFor(raw.Category, raw.Type) {
		return AnnotatedRequest{}, &TypePairingError{Category: raw.Category, Type: raw.Type}
	}
	if !knownChannels[raw.Channel] {
		return AnnotatedRequest{}, &UnknownChannelError{Channel: raw.Channel}
	}

	daysCount := 1
	if raw.End != nil {
		daysCount = DaysBetween(raw.Start, *raw.End) + 1
	}

	period := c.Calendar.PeriodContaining(raw.Start)

	// Calendar days, not business days. Exactly LateWindowDays out is on time.
	gap := DaysBetween(raw.SubmittedAt, period.Start)
	isLate := gap < c.LateWindowDays

	isPastDeadline := raw.SubmittedAt.After(period.Deadline)

	return AnnotatedRequest{
		ID:             raw.ID,
		SubjectID:      raw.SubjectID,
		Rank:           raw.Rank,
		Seniority:      raw.Seniority,
		Category:       raw.Category,
		Type:           raw.Type,
		Channel:        raw.Channel,
		Start:          raw.Start,
		End:            raw.End,
		DaysCount:      daysCount,
		AssignedPeriod: period,
		SubmittedAt:    raw.SubmittedAt,
		IsLateRequest:  isLate,
		IsPastDeadline: isPastDeadline,
		PriorityScore:  c.Scorer.Score(raw),
	}, nil
}

// ClassifyAll classifies a batch, stopping at the first invalid request.
// Used for bulk re-classification after calendar or window changes.
func (c *Classifier) ClassifyAll(raws []RawRequest) ([]AnnotatedRequest, error) {
	annotated := make([]AnnotatedRequest, 0, len(raws))
	for _, raw := range raws {
		ar, err := c.Classify(raw)
		if err != nil {
			return nil, err
		}
		annotated = append(annotated, ar)
	}
	return annotated, nil
}
