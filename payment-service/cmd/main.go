/**
 * @description
 * This is the main entry point for the payment-service, the public gateway of
 * the platform. It is responsible for initializing all components: config,
 * database connection, Redis (optional, for mobile token rate limiting), the
 * transaction client, the message producer, the application services, and the
 * HTTP server.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for rate limiting.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/transactionclient, pkg/rabbitmq: Clients for the orchestrator and RabbitMQ.
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
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/api"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/app"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/config"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/store"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/pkg/rabbitmq"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/pkg/transactionclient"
	"github.com/redis/go-redis/v9"
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
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatal("JWT_SECRET must be set; the gateway never runs unauthenticated")
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

	// Redis is optional: without it, mobile token validations are simply not
	// rate limited.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; mobile token rate limiting disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; mobile token rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; mobile token rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Set up RabbitMQ producer; fall back to a no-op publisher when the broker
	// is unreachable so a broker outage never blocks payment intake.
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
	txClient := transactionclient.NewClient(cfg.TransactionServiceURL, cfg.TransactionServiceInternalKey)
	paymentService := app.NewPaymentService(repo, txClient, producer)

	var limiter app.RateLimiter
	if redisClient != nil {
		limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}
	tokenService := app.NewMobileTokenService(repo, limiter)

	handlers := api.NewPaymentHandlers(paymentService, tokenService)

	// Setup and start HTTP server.
	router := api.PaymentRoutes(handlers, tokenService, cfg.JWTSecret)
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

	log.Println("Payment service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down payment-service...")

	// Create a context with a timeout for shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the HTTP server.
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
