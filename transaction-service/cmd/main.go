/**
 * @description
 * This is the main entry point for the transaction-service. It is responsible
 * for initializing all components of the service: configuration, database
 * connection, the ledger client, the message producer, the repository, the
 * core orchestration service, and the HTTP server.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/ledgerclient: Client for the ledger-service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/api"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/app"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/config"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/store"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/pkg/ledgerclient"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/pkg/rabbitmq"
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
		log.Fatal("INTERNAL_API_KEY must be set; the orchestrator never runs unauthenticated")
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

	// Set up RabbitMQ producer; fall back to a no-op publisher when the broker
	// is unreachable so a broker outage never blocks payment processing.
	var producer rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("level=warn component=main msg=\"failed to connect to RabbitMQ; using fallback publisher\" err=%v", err)
			producer = &rabbitmq.EventProducerFallback{}
		} else {
			producer = eventProducer
		}
	} else {
		log.Println("RABBITMQ_URL not set, using fallback publisher")
		producer = &rabbitmq.EventProducerFallback{}
	}
	defer producer.Close()

	// Set up dependencies.
	repo := store.NewPostgresRepository(dbpool)
	ledgerClient := ledgerclient.NewClient(cfg.LedgerServiceURL, cfg.LedgerServiceInternalKey)
	service := app.NewService(repo, ledgerClient, producer)
	handlers := api.NewTransactionHandlers(service)

	// Setup and start HTTP server.
	router := api.TransactionRoutes(handlers, cfg.InternalAPIKey)
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

	log.Println("Transaction service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down transaction-service...")

	// Create a context with a timeout for shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the HTTP server.
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
