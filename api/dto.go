/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  All dates cross the wire as YYYY-MM-DD strings. Period codes cross as the
  canonical zero-padded RPnn/yyyy form and nothing else.

VALIDATION:
  Structural validation (date parsing) is done in handlers; semantic
  validation (category pairing, ranges) belongs to the engine and its typed
  errors are mapped to HTTP statuses in handlers.go.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/roster-engine/roster"

// =============================================================================
// PERIOD TYPES
// =============================================================================

// PeriodDTO represents one roster period in API responses.
type PeriodDTO struct {
	Code     string `json:"code"`
	Number   int    `json:"number"`
	Year     int    `json:"year"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Publish  string `json:"publish"`
	Deadline string `json:"deadline"`
}

func toPeriodDTO(p roster.Period) PeriodDTO {
	return PeriodDTO{
		Code:     p.Code(),
		Number:   p.Number,
		Year:     p.Year,
		Start:    p.Start.String(),
		End:      p.End.String(),
		Publish:  p.Publish.String(),
		Deadline: p.Deadline.String(),
	}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ClassifyRequest is the payload for POST /api/requests/classify.
// ID is optional; one is minted when absent.
type ClassifyRequest struct {
	ID          string `json:"id,omitempty"`
	SubjectID   string `json:"subject_id"`
	Rank        string `json:"rank"`
	Seniority   int    `json:"seniority"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}

// AnnotatedRequestDTO is a classified request in API responses.
type AnnotatedRequestDTO struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"subject_id"`
	Rank           string    `json:"rank"`
	Seniority      int       `json:"seniority"`
	Category       string    `json:"category"`
	Type           string    `json:"type"`
	Channel        string    `json:"channel"`
	Start          string    `json:"start"`
	End            string    `json:"end,omitempty"`
	DaysCount      int       `json:"days_count"`
	AssignedPeriod PeriodDTO `json:"assigned_period"`
	SubmittedAt    string    `json:"submitted_at"`
	IsLateRequest  bool      `json:"is_late_request"`
	IsPastDeadline bool      `json:"is_past_deadline"`
	PriorityScore  string    `json:"priority_score"`
}

func toAnnotatedRequestDTO(r roster.AnnotatedRequest) AnnotatedRequestDTO {
	dto := AnnotatedRequestDTO{
		ID:             r.ID,
		SubjectID:      r.SubjectID,
		Rank:           string(r.Rank),
		Seniority:      r.Seniority,
		Category:       string(r.Category),
		Type:           string(r.Type),
		Channel:        string(r.Channel),
		Start:          r.Start.String(),
		DaysCount:      r.DaysCount,
		AssignedPeriod: toPeriodDTO(r.AssignedPeriod),
		SubmittedAt:    r.SubmittedAt.String(),
		IsLateRequest:  r.IsLateRequest,
		IsPastDeadline: r.IsPastDeadline,
		PriorityScore:  r.PriorityScore.String(),
	}
	if r.End != nil {
		dto.End = r.End.String()
	}
	return dto
}

// =============================================================================
// CONFLICT TYPES
// =============================================================================

// ConflictEntryDTO is one (date, rank) margin in a conflict report.
type ConflictEntryDTO struct {
	Date            string   `json:"date"`
	Rank            string   `json:"rank"`
	OnLeaveCount    int      `json:"on_leave_count"`
	RemainingCount  int      `json:"remaining_count"`
	MinimumRequired int      `json:"minimum_required"`
	Severity        string   `json:"severity"`
	ContributingIDs []string `json:"contributing_ids"`
}

// SkippedDTO is one excluded contribution.
type SkippedDTO struct {
	RequestID string `json:"request_id"`
	Rank      string `json:"rank"`
	Reason    string `json:"reason"`
}

// ConflictReportDTO is one evaluation run's output.
type ConflictReportDTO struct {
	Entries []ConflictEntryDTO `json:"entries"`
	Skipped []SkippedDTO       `json:"skipped"`
}

func toConflictReportDTO(r roster.ConflictReport) ConflictReportDTO {
	dto := ConflictReportDTO{
		Entries: make([]ConflictEntryDTO, 0, len(r.Entries)),
		Skipped: make([]SkippedDTO, 0, len(r.Skipped)),
	}
	for _, e := range r.Entries {
		dto.Entries = append(dto.Entries, ConflictEntryDTO{
			Date:            e.Date.String(),
			Rank:            string(e.Rank),
			OnLeaveCount:    e.OnLeaveCount,
			RemainingCount:  e.RemainingCount,
			MinimumRequired: e.MinimumRequired,
			Severity:        string(e.Severity),
			ContributingIDs: e.ContributingIDs,
		})
	}
	for _, sk := range r.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedDTO{
			RequestID: sk.RequestID,
			Rank:      string(sk.Rank),
			Reason:    sk.Reason,
		})
	}
	return dto
}

// =============================================================================
// ALERT TYPES
// =============================================================================

// AlertEventDTO is one emitted alert.
type AlertEventDTO struct {
	PeriodCode        string `json:"period_code"`
	Stage             int    `json:"stage"`
	DaysUntilDeadline int    `json:"days_until_deadline"`
	Deadline          string `json:"deadline"`
	FiredAt           string `json:"fired_at"`
}

func toAlertEventDTO(e roster.AlertEvent) AlertEventDTO {
	return AlertEventDTO{
		PeriodCode:        e.PeriodCode,
		Stage:             e.Stage,
		DaysUntilDeadline: e.DaysUntilDeadline,
		Deadline:          e.Deadline.String(),
		FiredAt:           e.FiredAt.String(),
	}
}

// AlertStateDTO is one (period, stage) tracking record.
type AlertStateDTO struct {
	PeriodCode string `json:"period_code"`
	Stage      int    `json:"stage"`
	FiredAt    string `json:"fired_at,omitempty"`
}

// TickResponse is the result of a manual alert tick.
type TickResponse struct {
	Now    string          `json:"now"`
	Events []AlertEventDTO `json:"events"`
}

// =============================================================================
// PILOT TYPES
// =============================================================================

// PilotDTO represents a roster member.
type PilotDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rank      string `json:"rank"`
	Seniority int    `json:"seniority"`
}

// CreatePilotRequest is the request to add a roster member.
type CreatePilotRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rank      string `json:"rank"`
	Seniority int    `json:"seniority"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
