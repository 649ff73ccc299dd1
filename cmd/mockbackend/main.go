// Command mockbackend serves an in-memory SportMatch backend with demo data
// for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"sportmatch/logging"
	"sportmatch/mockbackend"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(serve())
}

// serve runs the server until SIGINT or SIGTERM and returns the exit code
func serve() int {
	// .env is optional
	_ = godotenv.Load()

	port := pflag.String("port", envOr("PORT", "8000"), "Port to listen on")
	secret := pflag.String("jwt-secret", envOr("JWT_SECRET", "dev-secret-change-me"), "HS256 signing secret")
	tokenTTL := pflag.Duration("token-ttl", mockbackend.DefaultTokenTTL, "Access token lifetime")
	logLevel := pflag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level: trace, debug, info, warn, error")
	dev := pflag.Bool("dev", true, "Human readable development logging")
	pflag.Parse()

	logger, err := logging.NewLogger(*logLevel, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}

	store := mockbackend.NewStore()
	if err := mockbackend.Seed(store); err != nil {
		logger.Error(err, "Failed to seed store")
		return 1
	}
	controller := mockbackend.NewController(store, mockbackend.NewTokenIssuer(*secret, *tokenTTL), logger)

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           mockbackend.NewRouter(controller),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Starting mock backend", "addr", server.Addr, "demoPassword", mockbackend.DemoPassword)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down mock backend")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(err, "Mock backend stopped")
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
