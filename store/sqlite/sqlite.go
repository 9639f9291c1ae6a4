/*
Package sqlite provides a SQLite-backed implementation of the collaborator
interfaces.

PURPOSE:
  Implements roster.RosterSource, roster.RequestStore and
  roster.AlertStateStore using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  anchor:       The single known reference period (one row)
  pilots:       Roster members with rank and seniority
  requests:     Annotated request records (classification output)
  alert_states: (period_code, stage) -> fired_at, the durable firing record

DERIVED, NOT AUTHORITATIVE:
  The period columns on requests are persisted classification OUTPUT. The
  engine treats them as derivable from the raw fields plus the anchor; a
  bulk re-classification rewrites them.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - roster/store.go: Interface definitions
  - roster/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/roster"
)

// Store implements the collaborator interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- The single known reference period
	CREATE TABLE IF NOT EXISTS anchor (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		period_number INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		start_date TEXT NOT NULL
	);

	-- Roster members
	CREATE TABLE IF NOT EXISTS pilots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rank TEXT NOT NULL,
		seniority INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pilots_rank ON pilots(rank);

	-- Annotated requests (classification output; rewritten on re-classification)
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		rank TEXT NOT NULL,
		seniority INTEGER NOT NULL,
		category TEXT NOT NULL,
		req_type TEXT NOT NULL,
		channel TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		days_count INTEGER NOT NULL,
		period_number INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		period_publish TEXT NOT NULL,
		period_deadline TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		is_late INTEGER NOT NULL,
		is_past_deadline INTEGER NOT NULL,
		priority_score TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_subject ON requests(subject_id);
	CREATE INDEX IF NOT EXISTS idx_requests_period ON requests(period_number, period_year);

	-- Durable alert firing record
	CREATE TABLE IF NOT EXISTS alert_states (
		period_code TEXT NOT NULL,
		stage INTEGER NOT NULL,
		fired_at TEXT,
		PRIMARY KEY (period_code, stage)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROSTER SOURCE
// =============================================================================

// SeedAnchor stores the reference period if none exists yet.
func (s *Store) SeedAnchor(ctx context.Context, anchor roster.Anchor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := anchor.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO anchor (id, period_number, period_year, start_date)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		anchor.Number, anchor.Year, anchor.Start.String())
	return err
}

// Anchor returns the stored reference period.
func (s *Store) Anchor(ctx context.Context) (roster.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var number, year int
	var startStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT period_number, period_year, start_date FROM anchor WHERE id = 1`,
	).Scan(&number, &year, &startStr)
	if err == sql.ErrNoRows {
		return roster.Anchor{}, fmt.Errorf("no anchor seeded")
	}
	if err != nil {
		return roster.Anchor{}, err
	}

	start, err := roster.ParseDate(startStr)
	if err != nil {
		return roster.Anchor{}, fmt.Errorf("corrupt anchor start date %q: %w", startStr, err)
	}
	return roster.Anchor{Number: number, Year: year, Start: start}, nil
}

// UpsertPilot creates or updates a roster member.
func (s *Store) UpsertPilot(ctx context.Context, p roster.Pilot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pilots (id, name, rank, seniority)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			rank = excluded.rank, seniority = excluded.seniority`,
		p.ID, p.Name, string(p.Rank), p.Seniority)
	return err
}

// Pilots returns the roster ordered by seniority.
func (s *Store) Pilots(ctx context.Context) ([]roster.Pilot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, rank, seniority FROM pilots ORDER BY seniority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pilots []roster.Pilot
	for rows.Next() {
		var p roster.Pilot
		var rank string
		if err := rows.Scan(&p.ID, &p.Name, &rank, &p.Seniority); err != nil {
			return nil, err
		}
		p.Rank = roster.Rank(rank)
		pilots = append(pilots, p)
	}
	return pilots, rows.Err()
}

// Counts returns the per-rank headcount.
func (s *Store) Counts(ctx context.Context) (roster.RosterCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, COUNT(*) FROM pilots GROUP BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(roster.RosterCounts)
	for rows.Next() {
		var rank string
		var n int
		if err := rows.Scan(&rank, &n); err != nil {
			return nil, err
		}
		counts[roster.Rank(rank)] = n
	}
	return counts, rows.Err()
}

// =============================================================================
// REQUEST STORE
// =============================================================================

// SaveRequest persists an annotated request, replacing any previous
// classification of the same request ID.
func (s *Store) SaveRequest(ctx context.Context, req roster.AnnotatedRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endStr any
	if req.End != nil {
		endStr = req.End.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO requests (
			id, subject_id, rank, seniority, category, req_type, channel,
			start_date, end_date, days_count,
			period_number, period_year, period_start, period_end,
			period_publish, period_deadline,
			submitted_at, is_late, is_past_deadline, priority_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.SubjectID, string(req.Rank), req.Seniority,
		string(req.Category), string(req.Type), string(req.Channel),
		req.Start.String(), endStr, req.DaysCount,
		req.AssignedPeriod.Number, req.AssignedPeriod.Year,
		req.AssignedPeriod.Start.String(), req.AssignedPeriod.End.String(),
		req.AssignedPeriod.Publish.String(), req.AssignedPeriod.Deadline.String(),
		req.SubmittedAt.String(), boolToInt(req.IsLateRequest), boolToInt(req.IsPastDeadline),
		req.PriorityScore.Value.String())
	return err
}

// ListRequests returns all annotated requests ordered by ID.
func (s *Store) ListRequests(ctx context.Context) ([]roster.AnnotatedRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, rank, seniority, category, req_type, channel,
			start_date, end_date, days_count,
			period_number, period_year, period_start, period_end,
			period_publish, period_deadline,
			submitted_at, is_late, is_past_deadline, priority_score
		FROM requests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []roster.AnnotatedRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (roster.AnnotatedRequest, error) {
	var req roster.AnnotatedRequest
	var rank, category, reqType, channel string
	var startStr, submittedStr, scoreStr string
	var endStr sql.NullString
	var periodStart, periodEnd, periodPublish, periodDeadline string
	var isLate, isPastDeadline int

	err := rows.Scan(
		&req.ID, &req.SubjectID, &rank, &req.Seniority, &category, &reqType, &channel,
		&startStr, &endStr, &req.DaysCount,
		&req.AssignedPeriod.Number, &req.AssignedPeriod.Year,
		&periodStart, &periodEnd, &periodPublish, &periodDeadline,
		&submittedStr, &isLate, &isPastDeadline, &scoreStr)
	if err != nil {
		return roster.AnnotatedRequest{}, err
	}

	req.Rank = roster.Rank(rank)
	req.Category = roster.Category(category)
	req.Type = roster.RequestType(reqType)
	req.Channel = roster.Channel(channel)
	req.IsLateRequest = isLate != 0
	req.IsPastDeadline = isPastDeadline != 0

	if req.Start, err = roster.ParseDate(startStr); err != nil {
		return roster.AnnotatedRequest{}, err
	}
	if endStr.Valid {
		end, err := roster.ParseDate(endStr.String)
		if err != nil {
			return roster.AnnotatedRequest{}, err
		}
		req.End = &end
	}
	if req.SubmittedAt, err = roster.ParseDate(submittedStr); err != nil {
		return roster.AnnotatedRequest{}, err
	}
	if req.AssignedPeriod.Start, err = roster.ParseDate(periodStart); err != nil {
		return roster.AnnotatedRequest{}, err
	}
	if req.AssignedPeriod.End, err = roster.ParseDate(periodEnd); err != nil {
		return roster.AnnotatedRequest{}, err
	}
	if req.AssignedPeriod.Publish, err = roster.ParseDate(periodPublish); err != nil {
		return roster.AnnotatedRequest{}, err
	}
	if req.AssignedPeriod.Deadline, err = roster.ParseDate(periodDeadline); err != nil {
		return roster.AnnotatedRequest{}, err
	}

	score, err := decimal.NewFromString(scoreStr)
	if err != nil {
		return roster.AnnotatedRequest{}, fmt.Errorf("corrupt priority score %q: %w", scoreStr, err)
	}
	req.PriorityScore = roster.PriorityScore{Value: score}

	return req, nil
}

// =============================================================================
// ALERT STATE STORE
// =============================================================================

// LoadStates returns the stage states for a period. Missing stages are
// absent from the map (PENDING).
func (s *Store) LoadStates(ctx context.Context, periodCode string) (roster.StageStates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, fired_at FROM alert_states WHERE period_code = ?`, periodCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(roster.StageStates)
	for rows.Next() {
		var stage int
		var firedAt sql.NullString
		if err := rows.Scan(&stage, &firedAt); err != nil {
			return nil, err
		}
		st := roster.AlertState{PeriodCode: periodCode, Stage: stage}
		if firedAt.Valid {
			tp, err := roster.ParseDate(firedAt.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt fired_at %q: %w", firedAt.String, err)
			}
			st.FiredAt = &tp
		}
		states[stage] = st
	}
	return states, rows.Err()
}

// SaveStates upserts a period's stage states atomically.
func (s *Store) SaveStates(ctx context.Context, periodCode string, states roster.StageStates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for stage, st := range states {
		var firedAt any
		if st.FiredAt != nil {
			firedAt = st.FiredAt.String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO alert_states (period_code, stage, fired_at)
			VALUES (?, ?, ?)
			ON CONFLICT(period_code, stage) DO UPDATE SET fired_at = excluded.fired_at`,
			periodCode, stage, firedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
