/*
Package main is the entry point for the marsgrid application.

It is responsible for loading configuration, initializing the global logging
system, opening the file-backed user and room stores, starting the live
update hub and HTTP server, and gracefully handling operating system
interrupt signals (SIGINT, SIGTERM) to ensure a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marsgrid/internal/app/live"
	"marsgrid/internal/app/payment"
	"marsgrid/internal/app/store"
	"marsgrid/internal/configs"
	"marsgrid/internal/handler"
	"marsgrid/internal/pkg/logx"
	"marsgrid/internal/pkg/metrics"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("default_coupons", cfg.DefaultCoupons).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the persisted resources; rooms fall back to the bundled seed on
	// a cold boot.
	usersRes, err := store.NewResource(cfg.DataDir, "users.json", nil)
	if err != nil {
		logx.Fatal(err, "Failed to open the users resource")
	}
	roomsRes, err := store.NewResource(cfg.DataDir, "rooms.json", store.SeedRooms)
	if err != nil {
		logx.Fatal(err, "Failed to open the rooms resource")
	}

	users := store.NewUserStore(usersRes)
	rooms := store.NewRoomStore(roomsRes, users)

	hub := live.NewHub()

	deps := &handler.AppDeps{
		Config:  cfg,
		Users:   users,
		Rooms:   rooms,
		Hub:     hub,
		Payment: payment.NewClient(cfg.PaymentAPIBaseURL, cfg.PaymentSecretKey),
		Metrics: metrics.New(),
	}

	// Setup HTTP server and routes
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("marsgrid server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
