package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fingerattend/internal/backend"
	"fingerattend/internal/config"
	"fingerattend/internal/linker"
	"fingerattend/internal/queue"
	"fingerattend/internal/sensor"
	"fingerattend/internal/store"
)

// Worker consumes fingerprint link jobs, reads the sensor and patches the
// student record on the backend.
func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if err := checkBackends(cfg); err != nil {
		log.Fatal(err)
	}

	kv, err := store.Open(ctx, store.Options{
		Backend:     cfg.StorageBackend,
		RedisAddr:   cfg.RedisAddr,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		log.Fatalf("job storage failed: %v", err)
	}
	defer kv.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	q := queue.NewRedisQueue(redisClient.Client, "")

	api := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	reader := sensor.New(cfg.SensorURL, cfg.SensorSkip)

	// Check sensor bridge health on startup
	if !cfg.SensorSkip {
		if err := reader.Health(ctx); err != nil {
			log.Printf("WARNING: fingerprint sensor not available: %v", err)
			log.Println("Worker will retry the sensor when jobs arrive")
		} else {
			log.Println("Fingerprint sensor connected")
		}
	}

	log.Println("worker started, waiting for link jobs...")
	if err := linker.New(api, reader, kv).Run(ctx, q); err != nil && ctx.Err() == nil {
		log.Fatalf("link consumer failed: %v", err)
	}
	log.Println("worker stopped")
}

// checkBackends rejects settings under which the api could not see the
// worker's jobs or their status.
func checkBackends(cfg config.App) error {
	if cfg.QueueBackend == "memory" {
		return errors.New("QUEUE_BACKEND=memory runs link jobs inside the api process; set it to redis to use the worker")
	}
	if cfg.StorageBackend == "memory" {
		return errors.New("STORAGE_BACKEND=memory keeps job status inside this process; use redis, postgres or sqlite shared with the api")
	}
	return nil
}
