package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/api"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/db"
	"hostel-allocation-backend/internal/events"
	"hostel-allocation-backend/internal/occupancy"
	"hostel-allocation-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "hostel-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Booking events go to RabbitMQ when configured, to the log otherwise
	var publisher events.Publisher = events.LogPublisher{}
	if cfg.Events.Enabled {
		rabbit, err := events.NewRabbitPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatalf("failed to connect to event broker: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
		logger.Printf("publishing booking events to exchange %q", cfg.Events.Exchange)
	}
	workerPool := events.NewWorkerPool(cfg.WorkerPool.Size, publisher)
	workerPool.Start(ctx)

	clock := allocation.SystemClock{Location: cfg.Hostel.Location}
	svc := booking.NewService(appStore, clock, workerPool, *cfg.Allocation.MaxRetries)

	// Record daily occupancy in the background
	recorder := occupancy.NewRecorder(&cfg.Recorder, svc, appStore, clock)
	go recorder.Run(ctx)

	// Initialize router
	router := api.NewRouter(ctx, &cfg.Server, svc, appStore, cfg.Hostel.Location)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	cancel()

	logger.Println("Server gracefully stopped")
}
