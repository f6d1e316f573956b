package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"house-price-backend/cmd"
	"house-price-backend/internal/config"
	"house-price-backend/internal/database"
	"house-price-backend/internal/messaging"
)

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	recorder := messaging.NewPredictionRecorder(db, receiver)

	done := make(chan struct{})
	go func() {
		recorder.Start()
		close(done)
	}()

	log.Println("Worker started. Waiting for prediction records. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, waiting for worker to finish...")

	recorder.Stop()
	<-done

	log.Println("Worker process stopped.")
}
