/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the claims engine server. Handles configuration,
  dependency injection, worker startup, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env supported)
  2. Set up structured logging
  3. Initialize SQLite store (claims + job queue)
  4. Build collaborator clients (digitization, matching)
  5. Start the pipeline worker and resume any pending jobs
  6. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT env)
  -db      SQLite database path (overrides DB_PATH env)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the pipeline worker and wait for the in-flight claim
  4. Close the database
  Interrupted claims are requeued from the job table on next start.

EXAMPLES:
  # Run with file database
  ./server -db="./data/claims.db"

  # Run on a different port
  ./server -port=3000

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - pipeline/controller.go: The background worker
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian/claims-engine/adjudication"
	"github.com/meridian/claims-engine/api"
	"github.com/meridian/claims-engine/config"
	"github.com/meridian/claims-engine/digitize"
	"github.com/meridian/claims-engine/logging"
	"github.com/meridian/claims-engine/match"
	"github.com/meridian/claims-engine/pipeline"
	"github.com/meridian/claims-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	log := logging.Setup(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Store backs both the claim records and the durable job queue.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	digitizer := digitize.NewClient(cfg.DigitizationURL, cfg.DigitizationKey, log)
	matcher := match.NewMatcher(match.NewOpenAIClient(cfg.ChatURL, cfg.ChatKey, cfg.ChatModel, log), log)
	adjudicator := adjudication.NewAdjudicator(log)

	svc := pipeline.New(store, store, digitizer, matcher, adjudicator, log)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	svc.Start(workerCtx)
	if err := svc.Resume(workerCtx); err != nil {
		log.Error().Err(err).Msg("failed to resume pending jobs")
	}

	router := api.NewRouter(api.NewHandler(svc, log))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stopWorker()
	svc.Wait()

	log.Info().Msg("server stopped")
}
