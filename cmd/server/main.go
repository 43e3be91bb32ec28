package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kickdemo-go/internal/app"
	"kickdemo-go/internal/config"
)

func main() {
	log.SetPrefix("kickdemo: ")
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create a new application instance
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	// Start the application
	if err := application.Start(ctx); err != nil {
		log.Fatalf("Application failed to start: %v", err)
	}

	<-sigchan
	log.Println("Shutdown signal received, initiating graceful shutdown...")
	if err := application.Stop(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
	}

	log.Println("Application has stopped.")
}
