/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Debenture Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the returns policy (YAML file or built-in defaults)
  3. Initialize SQLite store
  4. Create API handler and background reconciliation scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: debenture.db)
             Use ":memory:" for in-memory database
  -config    Policy YAML file (default: built-in policy)
  -reconcile Reconciliation sweep interval (default: 1h, 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Stop the reconciliation scheduler
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/debenture.db"

  # Run with a custom policy file
  ./server -config="./policy.yaml"

  # Run without background reconciliation
  ./server -reconcile=0

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Background reconciliation
  - config/config.go: Policy file format
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nivesh/debenture-engine/api"
	"github.com/nivesh/debenture-engine/config"
	"github.com/nivesh/debenture-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "debenture.db", "SQLite database path")
	configPath := flag.String("config", "", "policy YAML file (empty = built-in defaults)")
	reconcileEvery := flag.Duration("reconcile", 1*time.Hour, "reconciliation sweep interval (0 disables)")
	flag.Parse()

	// Load policy
	policy, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and scheduler
	handler := api.NewHandler(store, policy)

	scheduler := api.NewReconciliationScheduler(store, handler)
	if *reconcileEvery > 0 {
		scheduler.CheckInterval = *reconcileEvery
	} else {
		scheduler.Enabled = false
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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
