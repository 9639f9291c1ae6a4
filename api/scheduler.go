/*
scheduler.go - Background deadline alert runner

PURPOSE:
  Periodically walks the upcoming roster periods, advances each period's
  alert state machine via roster.AlertScheduler.Tick, persists the new
  state, and hands the emitted events to a Notifier.

DESIGN:
  - Runs a single background goroutine with configurable check interval
  - One goroutine = one writer, so ticks for a given period are serialized
    and the at-most-once-fire invariant holds
  - State is saved BEFORE events are dispatched; a crash in between means
    a harmless re-delivery on the next tick, never a double-fire of a
    persisted stage
  - Notifier failures are logged and do not block other events

CONFIGURATION:
  - CheckInterval: How often to tick (default: 24 hours)
  - Lookahead:     How many upcoming periods to evaluate (default: 3)

USAGE:
  runner := NewAlertRunner(store, cal, notifier)
  runner.Start()
  // ... later
  runner.Stop()

SEE ALSO:
  - roster/alert.go: the pure state machine
  - handlers.go: TriggerTick endpoint (manual tick)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/roster-engine/roster"
)

// schedulerLookahead is how many upcoming periods a tick evaluates. Three
// periods is 84 days, comfortably past the longest default ladder stage
// plus the deadline offset.
const schedulerLookahead = 3

// AlertRunner drives the deadline alert state machine on a timer.
type AlertRunner struct {
	Store         roster.AlertStateStore
	Calendar      roster.Calendar
	Scheduler     *roster.AlertScheduler
	Notifier      roster.Notifier
	CheckInterval time.Duration
	Lookahead     int
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAlertRunner creates a runner with the default ladder and daily ticks.
func NewAlertRunner(store roster.AlertStateStore, cal roster.Calendar, notifier roster.Notifier) *AlertRunner {
	return &AlertRunner{
		Store:         store,
		Calendar:      cal,
		Scheduler:     roster.NewAlertScheduler(),
		Notifier:      notifier,
		CheckInterval: 24 * time.Hour,
		Lookahead:     schedulerLookahead,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the runner.
func (ar *AlertRunner) Start() {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if !ar.Enabled {
		log.Println("[AlertRunner] Disabled, not starting")
		return
	}

	ar.ticker = time.NewTicker(ar.CheckInterval)
	ar.wg.Add(1)

	go ar.run()

	log.Printf("[AlertRunner] Started with check interval: %v", ar.CheckInterval)
}

// Stop stops the runner.
func (ar *AlertRunner) Stop() {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.ticker != nil {
		ar.ticker.Stop()
		close(ar.stop)
		ar.wg.Wait()
		log.Println("[AlertRunner] Stopped")
	}
}

func (ar *AlertRunner) run() {
	defer ar.wg.Done()

	// Tick immediately on start
	ar.tickAll()

	for {
		select {
		case <-ar.ticker.C:
			ar.tickAll()
		case <-ar.stop:
			return
		}
	}
}

func (ar *AlertRunner) tickAll() {
	ctx := context.Background()
	now := roster.Today()

	fired := 0
	for _, period := range ar.Calendar.PeriodsFrom(now, ar.Lookahead) {
		states, err := ar.Store.LoadStates(ctx, period.Code())
		if err != nil {
			log.Printf("[AlertRunner] Error loading states for %s: %v", period.Code(), err)
			continue
		}

		next, events := ar.Scheduler.Tick(now, period, states)
		if len(events) == 0 {
			continue
		}

		if err := ar.Store.SaveStates(ctx, period.Code(), next); err != nil {
			log.Printf("[AlertRunner] Error saving states for %s: %v", period.Code(), err)
			continue
		}

		for _, event := range events {
			if err := ar.Notifier.Notify(ctx, event); err != nil {
				log.Printf("[AlertRunner] Notify failed for %s stage %d: %v",
					event.PeriodCode, event.Stage, err)
			}
			fired++
		}
	}

	if fired > 0 {
		log.Printf("[AlertRunner] Tick completed: %d alerts fired", fired)
	}
}

// RunNow triggers an immediate tick (for testing/admin).
func (ar *AlertRunner) RunNow() {
	ar.tickAll()
}

// =============================================================================
// LOG NOTIFIER - Default dispatcher
// =============================================================================

// LogNotifier writes alert events to the process log. Real delivery (email,
// push) is a host concern; this is the reference implementation.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, e roster.AlertEvent) error {
	log.Printf("[AlertRunner] %s: deadline %s is %d day(s) away (stage %d)",
		e.PeriodCode, e.Deadline, e.DaysUntilDeadline, e.Stage)
	return nil
}
