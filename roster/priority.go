/*
priority.go - Pluggable request priority scoring

PURPOSE:
  Computes the priority score attached to every classified request. The
  exact weighting between seniority and category urgency is airline policy,
  so the scorer is an interface; DefaultScorer documents and implements the
  shipped policy.

CONVENTION:
  LOWER score = HIGHER priority, everywhere in this engine. Conflict
  reports list contributing requests ascending by score so the least
  essential request to deny appears last.

SEE ALSO:
  - request.go: Classifier calls Scorer.Score
  - conflict.go: sorts contributions by score
*/
package roster

import "github.com/shopspring/decimal"

// PriorityScore is an exact, comparable ordering key. Decimal rather than
// float so equal policies produce byte-identical scores.
type PriorityScore struct {
	Value decimal.Decimal
}

func NewPriorityScore(v int64) PriorityScore {
	return PriorityScore{Value: decimal.NewFromInt(v)}
}

func (p PriorityScore) LessThan(other PriorityScore) bool {
	return p.Value.LessThan(other.Value)
}

func (p PriorityScore) Equal(other PriorityScore) bool {
	return p.Value.Equal(other.Value)
}

func (p PriorityScore) String() string { return p.Value.String() }

// PriorityScorer computes a request's score. Implementations must be total
// (defined for every valid request) and deterministic (no clocks, no
// randomness): classification idempotence depends on it.
type PriorityScorer interface {
	Score(raw RawRequest) PriorityScore
}

// DefaultScorer is the shipped policy:
//
//	score = seniority + typeWeight
//
// Seniority is the subject's seniority number (lower = more senior, so more
// senior crew get lower scores and therefore higher priority). Urgent leave
// types carry a large negative weight so a medical or compassionate request
// outranks any routine request regardless of seniority; routine bids carry a
// positive weight so they rank below everything else at equal seniority.
type DefaultScorer struct{}

// urgencyBoost dominates any realistic seniority number.
const urgencyBoost = -1000

var typeWeights = map[RequestType]int64{
	TypeMedical:       urgencyBoost,
	TypeCompassionate: urgencyBoost,
	TypeAnnual:        0,
	TypeUnpaid:        0,
	TypeSwap:          50,
	TypeDrop:          50,
	TypePickup:        50,
	TypeLineBid:       100,
	TypeTrainingBid:   100,
}

func (DefaultScorer) Score(raw RawRequest) PriorityScore {
	weight := typeWeights[raw.Type] // unknown types weigh 0; Score stays total
	return NewPriorityScore(int64(raw.Seniority) + weight)
}
