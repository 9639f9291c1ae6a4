package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	store  *sqlite.Store
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	anchor := roster.Anchor{Number: 12, Year: 2025, Start: roster.NewTimePoint(2025, time.October, 11)}
	require.NoError(t, store.SeedAnchor(context.Background(), anchor))

	cal := roster.Calendar{Anchor: anchor, Config: roster.DefaultPeriodConfig()}
	thresholds := roster.StaffingThreshold{
		MinimumPerRank: map[roster.Rank]int{
			roster.RankCaptain:      3,
			roster.RankFirstOfficer: 3,
		},
	}

	h := api.NewHandler(store, cal, thresholds)
	return &testEnv{store: store, router: api.NewRouter(h, []string{"*"})}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// =============================================================================
// PERIOD ENDPOINTS
// =============================================================================

func TestGetPeriodForDate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/periods?date=2025-10-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	period := decode[api.PeriodDTO](t, rec)
	assert.Equal(t, "RP12/2025", period.Code)
	assert.Equal(t, "2025-10-11", period.Start)
	assert.Equal(t, "2025-11-07", period.End)
	assert.Equal(t, "2025-10-01", period.Publish)
	assert.Equal(t, "2025-09-10", period.Deadline)
}

func TestGetPeriodForDate_RejectsBadDate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/periods?date=20-10-2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPeriodByCode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/periods/RP13/2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	period := decode[api.PeriodDTO](t, rec)
	assert.Equal(t, 13, period.Number)
	assert.Equal(t, 2025, period.Year)
	assert.Equal(t, "2025-11-08", period.Start)
}

func TestGetPeriodByCode_StrictFormat(t *testing.T) {
	env := newTestEnv(t)

	// Missing zero padding is a format error, not a miss.
	rec := env.do(t, http.MethodGet, "/api/periods/RP1/2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPeriodByCode_OutOfCycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/periods/RP14/2026", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUpcomingPeriods(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/periods/upcoming?count=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	periods := decode[[]api.PeriodDTO](t, rec)
	require.Len(t, periods, 4)
	for i := 1; i < len(periods); i++ {
		prevEnd, err := roster.ParseDate(periods[i-1].End)
		require.NoError(t, err)
		start, err := roster.ParseDate(periods[i].Start)
		require.NoError(t, err)
		assert.True(t, start.Equal(prevEnd.AddDays(1)), "periods must be consecutive")
	}
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

func TestClassifyRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/requests/classify", api.ClassifyRequest{
		SubjectID: "p7", Rank: "FO", Seniority: 7,
		Category: "LEAVE", Type: "ANNUAL", Channel: "WEB",
		Start: "2025-10-20", End: "2025-10-24",
		SubmittedAt: "2025-10-05",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[api.AnnotatedRequestDTO](t, rec)
	assert.NotEmpty(t, got.ID, "an ID is minted when absent")
	assert.Equal(t, 5, got.DaysCount)
	assert.Equal(t, "RP12/2025", got.AssignedPeriod.Code)
	assert.True(t, got.IsLateRequest, "6 days before start is inside the late window")
	assert.True(t, got.IsPastDeadline)

	// The classification is persisted.
	list := decode[[]api.AnnotatedRequestDTO](t, env.do(t, http.MethodGet, "/api/requests", nil))
	require.Len(t, list, 1)
	assert.Equal(t, got.ID, list[0].ID)
}

func TestClassifyRequest_OnTime(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/requests/classify", api.ClassifyRequest{
		ID: "r1", SubjectID: "p7", Rank: "FO", Seniority: 7,
		Category: "LEAVE", Type: "ANNUAL", Channel: "WEB",
		Start:       "2025-11-20",
		SubmittedAt: "2025-09-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[api.AnnotatedRequestDTO](t, rec)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "RP13/2025", got.AssignedPeriod.Code)
	assert.False(t, got.IsLateRequest)
	assert.False(t, got.IsPastDeadline)
}

func TestClassifyRequest_IllegalPairing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/requests/classify", api.ClassifyRequest{
		SubjectID: "p7", Rank: "FO", Seniority: 7,
		Category: "LEAVE", Type: "SWAP", Channel: "WEB",
		Start: "2025-10-20", SubmittedAt: "2025-10-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := decode[[]api.AnnotatedRequestDTO](t, env.do(t, http.MethodGet, "/api/requests", nil))
	assert.Empty(t, list, "rejected requests are not persisted")
}

// =============================================================================
// CONFLICT ENDPOINT
// =============================================================================

func TestEvaluateConflicts(t *testing.T) {
	env := newTestEnv(t)

	for _, p := range []api.CreatePilotRequest{
		{ID: "p1", Name: "A", Rank: "FO", Seniority: 1},
		{ID: "p2", Name: "B", Rank: "FO", Seniority: 2},
		{ID: "p3", Name: "C", Rank: "FO", Seniority: 3},
		{ID: "p4", Name: "D", Rank: "FO", Seniority: 4},
	} {
		rec := env.do(t, http.MethodPost, "/api/pilots", p)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// Three first officers out of four on leave over 2025-10-20: one remains
	// against a minimum of three.
	for _, r := range []api.ClassifyRequest{
		{ID: "r1", SubjectID: "p1", Rank: "FO", Seniority: 1, Category: "LEAVE", Type: "ANNUAL", Channel: "WEB", Start: "2025-10-20", End: "2025-10-22", SubmittedAt: "2025-09-01"},
		{ID: "r2", SubjectID: "p2", Rank: "FO", Seniority: 2, Category: "LEAVE", Type: "MEDICAL", Channel: "OPS_DESK", Start: "2025-10-20", SubmittedAt: "2025-10-19"},
		{ID: "r3", SubjectID: "p3", Rank: "FO", Seniority: 3, Category: "LEAVE", Type: "ANNUAL", Channel: "MOBILE", Start: "2025-10-19", End: "2025-10-20", SubmittedAt: "2025-09-01"},
	} {
		rec := env.do(t, http.MethodPost, "/api/requests/classify", r)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/conflicts/evaluate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[api.ConflictReportDTO](t, rec)
	require.NotEmpty(t, report.Entries)
	assert.Empty(t, report.Skipped)

	var peak *api.ConflictEntryDTO
	for i := range report.Entries {
		if report.Entries[i].Date == "2025-10-20" {
			peak = &report.Entries[i]
		}
	}
	require.NotNil(t, peak)
	assert.Equal(t, 3, peak.OnLeaveCount)
	assert.Equal(t, 1, peak.RemainingCount)
	assert.Equal(t, 3, peak.MinimumRequired)
	assert.Equal(t, "CRITICAL", peak.Severity)
	assert.Equal(t, "r2", peak.ContributingIDs[0], "medical leave orders first")
}

func TestEvaluateConflicts_EmptyStore(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/conflicts/evaluate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[api.ConflictReportDTO](t, rec)
	assert.Empty(t, report.Entries)
	assert.Empty(t, report.Skipped)
}

// =============================================================================
// ALERT ENDPOINTS
// =============================================================================

func TestTriggerTick_AtMostOncePerStage(t *testing.T) {
	env := newTestEnv(t)

	// The period containing today has its deadline long past, so the first
	// tick fires its whole ladder regardless of the wall clock.
	first := decode[api.TickResponse](t, env.do(t, http.MethodPost, "/api/alerts/tick", nil))
	require.NotEmpty(t, first.Events)

	current := first.Events[0].PeriodCode
	var stages []int
	for _, e := range first.Events {
		if e.PeriodCode == current {
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, []int{21, 14, 7, 3, 1, 0}, stages, "catch-up fires in ladder order")

	// A second tick on the same day fires nothing new.
	second := decode[api.TickResponse](t, env.do(t, http.MethodPost, "/api/alerts/tick", nil))
	assert.Empty(t, second.Events)
}

func TestListAlertStates_CapsCount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/alerts?count=100000", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	states := decode[[]api.AlertStateDTO](t, rec)
	assert.Len(t, states, 53*6, "count is capped at 53 periods of 6 stages")
}

func TestListAlertStates_ReflectsFiredStages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/alerts?count=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[[]api.AlertStateDTO](t, rec)
	require.Len(t, before, 6, "one row per ladder stage")
	for _, st := range before {
		assert.Empty(t, st.FiredAt)
	}

	tick := decode[api.TickResponse](t, env.do(t, http.MethodPost, "/api/alerts/tick", nil))
	require.NotEmpty(t, tick.Events)

	after := decode[[]api.AlertStateDTO](t, env.do(t, http.MethodGet, "/api/alerts?count=1", nil))
	require.Len(t, after, 6)
	for _, st := range after {
		assert.NotEmpty(t, st.FiredAt, "stage %d should be fired for the current period", st.Stage)
	}
}
