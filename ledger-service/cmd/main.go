/**
 * @description
 * This is the main entry point for the ledger-service. The ledger is the
 * authoritative owner of card records: it answers authorization calls from the
 * transaction-service and exposes the administrative card endpoints.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Wires up the authorization logic with its repository.
 * - Starts the HTTP server and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and API.
 * - pgxpool for database connection, godotenv for local config.
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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/api"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/app"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/config"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/store"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if cfg.InternalAPIKey == "" {
		log.Fatal("INTERNAL_API_KEY must be set; the ledger never runs unauthenticated")
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}

	// Configure connection pool for high-traffic scenarios
	dbConfig.MaxConns = 100
	dbConfig.MinConns = 20
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up dependencies.
	repo := store.NewPostgresRepository(dbpool)
	service := app.NewService(repo)
	handlers := api.NewLedgerHandlers(service)

	// Setup and start HTTP server.
	router := api.LedgerRoutes(handlers, cfg.InternalAPIKey)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Ledger service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down ledger-service...")

	// Create a context with a timeout for shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the HTTP server.
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
