/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the back-office engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse environment configuration
  2. Initialize SQLite store
  3. Build commission engine, monthly runner, and eligibility router
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION (environment variables):
  PORT             HTTP server port (default: 8080)
  DB_PATH          SQLite database path (default: backoffice.db)
                   Use ":memory:" for an in-memory database
  SSB_BASE_URL     Base URL of the salary-service bureau API
  FCB_BASE_URL     Base URL of the credit bureau API
  CHECK_TIMEOUT    Per-call deadline for external checks (default: 30s)
  RUN_CONCURRENCY  Agents processed at once in the monthly run (default: 4)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  DB_PATH=./data/backoffice.db ./server

  # Run on a different port with an in-memory database
  PORT=3000 DB_PATH=":memory:" ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/atlas/backoffice-engine/api"
	"github.com/atlas/backoffice-engine/commission"
	"github.com/atlas/backoffice-engine/eligibility"
	"github.com/atlas/backoffice-engine/store/sqlite"
)

type config struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"backoffice.db"`
	SSBBaseURL     string        `env:"SSB_BASE_URL" envDefault:"http://localhost:9001"`
	FCBBaseURL     string        `env:"FCB_BASE_URL" envDefault:"http://localhost:9002"`
	CheckTimeout   time.Duration `env:"CHECK_TIMEOUT" envDefault:"30s"`
	RunConcurrency int           `env:"RUN_CONCURRENCY" envDefault:"4"`
}

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire the engine and its collaborators
	engine := commission.NewEngine(store, store)
	runner := commission.NewMonthlyRunner(engine, store, store)
	runner.Concurrency = cfg.RunConcurrency

	checks := eligibility.NewRouter(
		eligibility.NewSSBClient(cfg.SSBBaseURL),
		eligibility.NewFCBClient(cfg.FCBBaseURL),
		store,
		cfg.CheckTimeout,
	)

	handler := api.NewHandler(store, engine, runner, checks)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
