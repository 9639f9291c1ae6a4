/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the roster engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment
  2. Initialize SQLite store, seed the anchor if empty
  3. Build the period calendar from the stored anchor
  4. Create API handler and router
  5. Start the background alert runner
  6. Start server with graceful shutdown

ENVIRONMENT:
  ROSTER_ADDR              Listen address (default :8080)
  ROSTER_DB                SQLite path (default roster.db, ":memory:" ok)
  ROSTER_ALLOWED_ORIGINS   CORS origins (comma-separated)
  ROSTER_ANCHOR_NUMBER     Seed anchor period number (default 12)
  ROSTER_ANCHOR_YEAR       Seed anchor year (default 2025)
  ROSTER_ANCHOR_START      Seed anchor start date (default 2025-10-11)
  ROSTER_PUBLISH_OFFSET    Days before start the roster publishes (default 10)
  ROSTER_DEADLINE_OFFSET   Days before start requests close (default 31)
  ROSTER_MIN_CAPTAINS      Minimum on-duty captains (default 10)
  ROSTER_MIN_FIRST_OFFICERS Minimum on-duty first officers (default 10)
  ROSTER_LATE_WINDOW       Late-request window in days (default 21)
  ROSTER_WARNING_BAND      Deficit still reported as WARNING (default 1)
  ROSTER_ALERT_LADDER      Alert stages, days before deadline (default 21,14,7,3,1,0)
  ROSTER_TICK_INTERVAL     Alert tick interval (default 24h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the alert runner
  2. Stop accepting new connections, drain (30s timeout)
  3. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Background alert runner
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
)

// Config holds runtime configuration, loaded from the environment.
type Config struct {
	Addr           string   `envconfig:"ROSTER_ADDR" default:":8080"`
	DBPath         string   `envconfig:"ROSTER_DB" default:"roster.db"`
	AllowedOrigins []string `envconfig:"ROSTER_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`

	AnchorNumber int    `envconfig:"ROSTER_ANCHOR_NUMBER" default:"12"`
	AnchorYear   int    `envconfig:"ROSTER_ANCHOR_YEAR" default:"2025"`
	AnchorStart  string `envconfig:"ROSTER_ANCHOR_START" default:"2025-10-11"`

	PublishOffset  int `envconfig:"ROSTER_PUBLISH_OFFSET" default:"10"`
	DeadlineOffset int `envconfig:"ROSTER_DEADLINE_OFFSET" default:"31"`

	MinCaptains      int `envconfig:"ROSTER_MIN_CAPTAINS" default:"10"`
	MinFirstOfficers int `envconfig:"ROSTER_MIN_FIRST_OFFICERS" default:"10"`

	LateWindow  int   `envconfig:"ROSTER_LATE_WINDOW" default:"21"`
	WarningBand int   `envconfig:"ROSTER_WARNING_BAND" default:"1"`
	AlertLadder []int `envconfig:"ROSTER_ALERT_LADDER" default:"21,14,7,3,1,0"`

	TickInterval time.Duration `envconfig:"ROSTER_TICK_INTERVAL" default:"24h"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	periodConfig := roster.PeriodConfig{
		PublishOffsetDays:  cfg.PublishOffset,
		DeadlineOffsetDays: cfg.DeadlineOffset,
	}
	if err := periodConfig.Validate(); err != nil {
		log.Fatalf("Invalid period configuration: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed the anchor on first run; subsequent runs read the stored one so
	// a config change cannot silently renumber existing periods.
	ctx := context.Background()
	seedStart, err := roster.ParseDate(cfg.AnchorStart)
	if err != nil {
		log.Fatalf("Invalid anchor start date: %v", err)
	}
	seed := roster.Anchor{Number: cfg.AnchorNumber, Year: cfg.AnchorYear, Start: seedStart}
	if err := store.SeedAnchor(ctx, seed); err != nil {
		log.Fatalf("Failed to seed anchor: %v", err)
	}
	anchor, err := store.Anchor(ctx)
	if err != nil {
		log.Fatalf("Failed to load anchor: %v", err)
	}

	cal := roster.Calendar{Anchor: anchor, Config: periodConfig}
	thresholds := roster.StaffingThreshold{
		MinimumPerRank: map[roster.Rank]int{
			roster.RankCaptain:      cfg.MinCaptains,
			roster.RankFirstOfficer: cfg.MinFirstOfficers,
		},
	}

	ladder := roster.Ladder(cfg.AlertLadder)
	if err := ladder.Validate(); err != nil {
		log.Fatalf("Invalid alert ladder: %v", err)
	}

	// Initialize handler and router
	handler := api.NewHandler(store, cal, thresholds)
	handler.Classifier.LateWindowDays = cfg.LateWindow
	handler.Detector.WarningBand = cfg.WarningBand
	handler.Alerts.Ladder = ladder
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Start the background alert runner
	runner := api.NewAlertRunner(store, cal, api.LogNotifier{})
	runner.Scheduler = handler.Alerts
	runner.CheckInterval = cfg.TickInterval
	runner.Start()
	defer runner.Stop()

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s (anchor %s)", cfg.Addr, cal.PeriodContaining(anchor.Start).Code())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
