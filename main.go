package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"sportmatch/config"
	"sportmatch/controllers"
	"sportmatch/discovery"
	"sportmatch/logging"
	"sportmatch/models"
	"sportmatch/services"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitInvalidated = 2
)

func main() {
	os.Exit(start(os.Args[1:], os.Stdin, os.Stdout))
}

// start runs the client with the given command line and returns the process
// exit code. Deferred cleanup runs before main exits.
func start(args []string, in io.Reader, out io.Writer) int {
	fs := pflag.NewFlagSet("sportmatch", pflag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return exitFailure
	}
	flags.Apply(cfg)

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ failed to create logger: %v\n", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		logger.Error(err, "Invalid configuration")
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, in, out); err != nil {
		if errors.Is(err, services.ErrSessionInvalidated) {
			logger.Info("Session ended, log in again to continue")
			return exitInvalidated
		}
		logger.Error(err, "SportMatch stopped")
		return exitFailure
	}
	return exitOK
}

func run(ctx context.Context, cfg *config.Config, logger logr.Logger, in io.Reader, out io.Writer) error {
	logger.Info("Using backend", "url", cfg.BaseURL())
	api := services.NewAPIService(cfg.BaseURL(), cfg.Timeout(), logger)

	auth := &services.AuthService{API: api}
	if _, err := auth.Login(ctx, cfg.Auth.Username, cfg.Auth.Password); err != nil {
		return err
	}
	defer auth.Logout()

	var photos controllers.PhotoResolver
	if cfg.Photos.Bucket != "" {
		ps, err := services.NewPhotoService(ctx, cfg.Photos.Region, cfg.Photos.Bucket, cfg.PresignTTL())
		if err != nil {
			return err
		}
		photos = ps
		logger.V(logging.VERBOSE).Info("Presigning photos", "bucket", cfg.Photos.Bucket)
	}

	registry := prometheus.NewRegistry()
	session := discovery.New(
		&services.DiscoveryService{API: api},
		discovery.WithLogger(logger),
		discovery.WithMetrics(discovery.NewMetrics(registry)),
	)
	defer session.Close()
	api.OnUnauthorized(session.Invalidate)

	controller := controllers.NewSwipeController(session, &services.MatchService{API: api}, photos, logger)
	controller.AutoRefill = cfg.Discovery.AutoRefill
	controller.Moderation = &services.ModerationService{API: api}
	if cfg.Auth.UserID > 0 {
		controller.Preferences = &services.PreferencesService{API: api, UserID: models.CandidateID(cfg.Auth.UserID)}
	}

	err := controller.Run(ctx, in, out)
	logSummary(logger, registry)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// logSummary writes the session counters to the log on exit
func logSummary(logger logr.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		logger.Error(err, "Failed to gather session metrics")
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			kv := []interface{}{"metric", family.GetName()}
			for _, label := range metric.GetLabel() {
				kv = append(kv, label.GetName(), label.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				kv = append(kv, "value", metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				kv = append(kv, "count", metric.GetHistogram().GetSampleCount(), "sum", metric.GetHistogram().GetSampleSum())
			}
			logger.V(logging.VERBOSE).Info("Session summary", kv...)
		}
	}
}
