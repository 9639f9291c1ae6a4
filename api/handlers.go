/*
handlers.go - HTTP handlers for the roster engine API

PURPOSE:
  Exposes the engine's operations over JSON: period lookup, request
  classification, conflict evaluation, alert state inspection and manual
  ticks, plus roster CRUD needed to feed the engine.

HANDLER PATTERN:
  1. Parse and validate input
  2. Call engine logic (calendar, classifier, detector, scheduler)
  3. Serialize response
  4. Map typed engine errors to HTTP statuses

ERROR HANDLING:
  - 400: roster.IsClientError (format, range, pairing, channel, rank)
  - 404: roster.IsNotFound (unresolvable period code)
  - 500: store failures

SECURITY NOTE:
  No authentication. Authentication/session handling belongs to the host
  application, not this engine.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background alert ticks
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Calendar   roster.Calendar
	Classifier *roster.Classifier
	Detector   *roster.Detector
	Alerts     *roster.AlertScheduler
	Thresholds roster.StaffingThreshold
}

// NewHandler creates a handler from the store's anchor and the supplied
// engine configuration.
func NewHandler(store *sqlite.Store, cal roster.Calendar, thresholds roster.StaffingThreshold) *Handler {
	return &Handler{
		Store:      store,
		Calendar:   cal,
		Classifier: roster.NewClassifier(cal),
		Detector:   roster.NewDetector(),
		Alerts:     roster.NewAlertScheduler(),
		Thresholds: thresholds,
	}
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// GetPeriodForDate resolves the period containing a date.
// GET /api/periods?date=YYYY-MM-DD (default: today)
func (h *Handler) GetPeriodForDate(w http.ResponseWriter, r *http.Request) {
	date := roster.Today()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := roster.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(h.Calendar.PeriodContaining(date)))
}

// GetPeriodByCode resolves a canonical RPnn/yyyy code.
// GET /api/periods/{number}/{year} (the code's slash splits across two
// path segments)
func (h *Handler) GetPeriodByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "number") + "/" + chi.URLParam(r, "year")

	period, err := h.Calendar.PeriodByCode(code)
	if err != nil {
		if roster.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Period not found", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid period code", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// ListUpcomingPeriods enumerates consecutive periods from today.
// GET /api/periods/upcoming?count=N (default 3, max 53)
func (h *Handler) ListUpcomingPeriods(w http.ResponseWriter, r *http.Request) {
	count := 3
	if q := r.URL.Query().Get("count"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer", err)
			return
		}
		count = n
	}
	if count > 53 {
		count = 53
	}

	periods := h.Calendar.PeriodsFrom(roster.Today(), count)
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ClassifyRequest classifies and persists a staffing request.
// POST /api/requests/classify
func (h *Handler) ClassifyRequest(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	raw, err := h.toRawRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request fields", err)
		return
	}

	annotated, err := h.Classifier.Classify(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Classification failed", err)
		return
	}

	if err := h.Store.SaveRequest(r.Context(), annotated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAnnotatedRequestDTO(annotated))
}

// ListRequests returns all annotated requests.
// GET /api/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]AnnotatedRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toAnnotatedRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) toRawRequest(req ClassifyRequest) (roster.RawRequest, error) {
	start, err := roster.ParseDate(req.Start)
	if err != nil {
		return roster.RawRequest{}, err
	}
	submittedAt, err := roster.ParseDate(req.SubmittedAt)
	if err != nil {
		return roster.RawRequest{}, err
	}

	raw := roster.RawRequest{
		ID:          req.ID,
		SubjectID:   req.SubjectID,
		Rank:        roster.Rank(req.Rank),
		Seniority:   req.Seniority,
		Category:    roster.Category(req.Category),
		Type:        roster.RequestType(req.Type),
		Channel:     roster.Channel(req.Channel),
		Start:       start,
		SubmittedAt: submittedAt,
	}
	if raw.ID == "" {
		raw.ID = "req-" + uuid.NewString()
	}
	if req.End != "" {
		end, err := roster.ParseDate(req.End)
		if err != nil {
			return roster.RawRequest{}, err
		}
		raw.End = &end
	}
	return raw, nil
}

// =============================================================================
// CONFLICT HANDLERS
// =============================================================================

// EvaluateConflicts runs a conflict evaluation over the stored snapshot.
// POST /api/conflicts/evaluate
func (h *Handler) EvaluateConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := h.Store.ListRequests(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requests", err)
		return
	}
	counts, err := h.Store.Counts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load roster counts", err)
		return
	}

	report := h.Detector.Evaluate(requests, counts, h.Thresholds)
	writeJSON(w, http.StatusOK, toConflictReportDTO(report))
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlertStates returns the stage states for the upcoming periods.
// GET /api/alerts?count=N (default 2, max 53)
func (h *Handler) ListAlertStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count := 2
	if q := r.URL.Query().Get("count"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer", err)
			return
		}
		count = n
	}
	if count > 53 {
		count = 53
	}

	var dtos []AlertStateDTO
	for _, period := range h.Calendar.PeriodsFrom(roster.Today(), count) {
		states, err := h.Store.LoadStates(ctx, period.Code())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load alert states", err)
			return
		}
		for _, stage := range h.Alerts.Ladder {
			dto := AlertStateDTO{PeriodCode: period.Code(), Stage: stage}
			if st, ok := states[stage]; ok && st.Fired() {
				dto.FiredAt = st.FiredAt.String()
			}
			dtos = append(dtos, dto)
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// TriggerTick runs one alert tick immediately over the upcoming periods.
// POST /api/alerts/tick
func (h *Handler) TriggerTick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := roster.Today()

	var events []roster.AlertEvent
	for _, period := range h.Calendar.PeriodsFrom(now, schedulerLookahead) {
		states, err := h.Store.LoadStates(ctx, period.Code())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load alert states", err)
			return
		}

		next, fired := h.Alerts.Tick(now, period, states)
		if len(fired) == 0 {
			continue
		}
		// State is persisted before the events are handed out; a crash in
		// between re-delivers, it never double-fires a persisted stage.
		if err := h.Store.SaveStates(ctx, period.Code(), next); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save alert states", err)
			return
		}
		events = append(events, fired...)
	}

	resp := TickResponse{Now: now.String(), Events: make([]AlertEventDTO, len(events))}
	for i, e := range events {
		resp.Events[i] = toAlertEventDTO(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PILOT HANDLERS
// =============================================================================

// ListPilots returns the roster ordered by seniority.
// GET /api/pilots
func (h *Handler) ListPilots(w http.ResponseWriter, r *http.Request) {
	pilots, err := h.Store.Pilots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pilots", err)
		return
	}

	dtos := make([]PilotDTO, len(pilots))
	for i, p := range pilots {
		dtos[i] = PilotDTO{ID: p.ID, Name: p.Name, Rank: string(p.Rank), Seniority: p.Seniority}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePilot adds or updates a roster member.
// POST /api/pilots
func (h *Handler) CreatePilot(w http.ResponseWriter, r *http.Request) {
	var req CreatePilotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = "plt-" + uuid.NewString()
	}

	pilot := roster.Pilot{
		ID:        req.ID,
		Name:      req.Name,
		Rank:      roster.Rank(req.Rank),
		Seniority: req.Seniority,
	}
	if err := h.Store.UpsertPilot(r.Context(), pilot); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pilot", err)
		return
	}

	writeJSON(w, http.StatusCreated, PilotDTO{
		ID: pilot.ID, Name: pilot.Name, Rank: string(pilot.Rank), Seniority: pilot.Seniority,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
