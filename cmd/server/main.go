/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the staffing engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Bootstrap the default admin account if no users exist
  4. Create API handler, router, and expiry sweeper
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port            HTTP server port (default: 8080)
  -db              SQLite database path (default: staffing.db)
                   Use ":memory:" for an in-memory database
  -sweep-interval  Expiry sweep interval (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/staffing.db"

  # Sweep every minute (demo)
  ./server -sweep-interval=1m

SEE ALSO:
  - api/server.go: router configuration
  - api/scheduler.go: expiry sweeper
  - store/sqlite/sqlite.go: database implementation
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

	"github.com/warp/staffing-engine/api"
	"github.com/warp/staffing-engine/staffing"
	"github.com/warp/staffing-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "staffing.db", "SQLite database path")
	sweepInterval := flag.Duration("sweep-interval", time.Hour, "assignment expiry sweep interval")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Bootstrap a default admin so a fresh database is usable
	if err := bootstrapAdmin(context.Background(), store); err != nil {
		log.Fatalf("Failed to bootstrap admin account: %v", err)
	}

	// Initialize handler and background sweeper
	handler := api.NewHandler(store)
	sweeper := api.NewExpirySweeper(handler.Engine)
	sweeper.CheckInterval = *sweepInterval
	sweeper.Start()
	defer sweeper.Stop()

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
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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

// bootstrapAdmin creates the default admin account on an empty database.
func bootstrapAdmin(ctx context.Context, store staffing.TxStore) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	admin := staffing.User{
		ID:        "u-admin",
		Name:      "Administrator",
		Email:     "admin@localhost",
		Role:      staffing.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.SaveUser(ctx, admin); err != nil {
		return err
	}
	log.Printf("[Bootstrap] Created default admin account %q", admin.ID)
	return nil
}
