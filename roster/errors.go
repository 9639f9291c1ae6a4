/*
errors.go - Centralized error types for the roster engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure in this engine is a caller error (malformed input);
  there is no I/O here and nothing is retryable.

ERROR CATEGORIES:
  1. Format errors    - Malformed period codes
  2. Validation errors - Bad request input (dates, category pairing, channel)
  3. Lookup errors    - Codes or ranks that do not resolve

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, roster.ErrInvalidFormat) {
        // surface as a 400 to the user
    }

SEE ALSO:
  - period.go: InvalidFormat / PeriodNotFound producers
  - request.go: validation error producers
  - conflict.go: UnknownRank (partial failure, reported not raised)
*/
package roster

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidFormat is returned when a period code does not match the
	// exact zero-padded RPnn/yyyy form.
	ErrInvalidFormat = errors.New("invalid period code format")

	// ErrPeriodNotFound is returned when a well-formed period code does not
	// resolve to a period in the cycle.
	ErrPeriodNotFound = errors.New("period not found")

	// ErrInvalidDateRange is returned when a request's end date precedes
	// its start date.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrInvalidTypeForCategory is returned when a request's type is not
	// permitted for its category.
	ErrInvalidTypeForCategory = errors.New("invalid type for category")

	// ErrUnknownChannel is returned when a request's submission channel is
	// not a recognized value.
	ErrUnknownChannel = errors.New("unknown submission channel")

	// ErrUnknownRank is returned when a request references a rank that the
	// staffing thresholds do not configure. Inside conflict evaluation this
	// is a partial failure: the contribution is skipped and reported, the
	// run still succeeds.
	ErrUnknownRank = errors.New("unknown rank")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidFormatError reports the offending period code.
type InvalidFormatError struct {
	Code string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid period code %q: want RPnn/yyyy, zero-padded", e.Code)
}

func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// PeriodNotFoundError reports a well-formed code outside the cycle.
type PeriodNotFoundError struct {
	Code string
}

func (e *PeriodNotFoundError) Error() string {
	return fmt.Sprintf("period %q does not resolve: number must be 01..%02d", e.Code, PeriodsPerYear)
}

func (e *PeriodNotFoundError) Unwrap() error { return ErrPeriodNotFound }

// DateRangeError reports an inverted request date range.
type DateRangeError struct {
	Start TimePoint
	End   TimePoint
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("end date %s precedes start date %s", e.End, e.Start)
}

func (e *DateRangeError) Unwrap() error { return ErrInvalidDateRange }

// TypePairingError reports an illegal category/type combination.
type TypePairingError struct {
	Category Category
	Type     RequestType
}

func (e *TypePairingError) Error() string {
	return fmt.Sprintf("type %q is not permitted for category %q", e.Type, e.Category)
}

func (e *TypePairingError) Unwrap() error { return ErrInvalidTypeForCategory }

// UnknownChannelError reports an unrecognized submission channel.
type UnknownChannelError struct {
	Channel Channel
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown submission channel %q", e.Channel)
}

func (e *UnknownChannelError) Unwrap() error { return ErrUnknownChannel }

// UnknownRankError reports a rank missing from the threshold configuration.
type UnknownRankError struct {
	RequestID string
	Rank      Rank
}

func (e *UnknownRankError) Error() string {
	return fmt.Sprintf("request %s references rank %q absent from thresholds", e.RequestID, e.Rank)
}

func (e *UnknownRankError) Unwrap() error { return ErrUnknownRank }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
// Every engine error is; the helper exists so HTTP layers can map uniformly.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidTypeForCategory) ||
		errors.Is(err, ErrUnknownChannel) ||
		errors.Is(err, ErrUnknownRank)
}

// IsNotFound returns true if the error indicates an unresolvable lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound)
}
