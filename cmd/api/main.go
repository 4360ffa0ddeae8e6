package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"propertyflow/db"
	"propertyflow/gateway"
	"propertyflow/httpapi"
	"propertyflow/property"
	"propertyflow/purchase"
	"propertyflow/user"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("skipping .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("bootstrap database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	payments := gateway.NewHTTPClient(
		envOr("GATEWAY_BASE_URL", "https://api.razorpay.com"),
		os.Getenv("GATEWAY_KEY_ID"),
		os.Getenv("GATEWAY_KEY_SECRET"),
	)

	properties := property.NewService(property.NewRepository(pool))
	workflow := purchase.NewWorkflow(pool, purchase.NewRepository(pool), properties, payments)
	users := user.NewRepository(pool)
	verifier := user.NewTokenVerifier(os.Getenv("JWT_SECRET"))

	server := httpapi.NewServer(workflow, properties, users, verifier)

	addr := envOr("HTTP_ADDR", ":8080")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("purchase API listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
