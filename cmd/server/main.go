// Command main is the entry point for the Claro Hub idea board API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ideaboard/internal/config"
	"ideaboard/internal/observability"
	"ideaboard/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tracingShutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "ideaboard-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.OTLPEndpoint != "",
		Exporter:       "otlp",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   0.1,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := tracingShutdown(ctx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
