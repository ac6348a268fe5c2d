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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"productivity_agent/internal/core"
	"productivity_agent/internal/metrics"
	"productivity_agent/internal/server"
	"productivity_agent/internal/storage"
	"productivity_agent/internal/tools"
	"productivity_agent/src"
	"productivity_agent/src/logger"
	"productivity_agent/src/model"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "productivity agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	configPath := os.Getenv("AGENT_CONFIG_FILE")
	if configPath == "" {
		configPath = src.DefaultConfigFile
	}

	cfg, err := src.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tracker := metrics.NewTracker(reg)

	responder := core.NewResponder(ctx, cfg.Agent, log.With().Str("component", "responder").Logger())
	agent := core.NewAgent(cfg.Agent, responder,
		core.WithTracker(tracker),
		core.WithLogger(log.With().Str("component", "agent").Logger()),
	)

	archiver := openArchiver(ctx, cfg.Storage, log)
	if archiver != nil {
		defer archiver.Close()
	}

	toolset, err := tools.GetTools(tools.NewToolkit(log.With().Str("component", "tools").Logger()))
	if err != nil {
		return err
	}

	srv, err := server.New(ctx, cfg.Server, agent, toolset, archiver, tracker, reg, log.With().Str("component", "http").Logger())
	if err != nil {
		return err
	}

	log.Info().
		Str("session_id", agent.ID()).
		Str("provider", cfg.Agent.Provider).
		Bool("model_available", agent.Status().ModelAvailable).
		Msg("Productivity agent ready")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if archiver != nil {
		export := agent.ExportSession()
		if err := archiver.Archive(shutdownCtx, export.SessionID, export); err != nil {
			log.Error().Err(err).Msg("Failed to archive session")
		} else {
			log.Info().
				Str("session_id", export.SessionID).
				Int("interactions", len(export.Interactions)).
				Msg("Session archived")
		}
	}

	return nil
}

// openArchiver connects the session archive. Failures are logged and the agent runs without one.
func openArchiver(ctx context.Context, cfg model.StorageConfig, log zerolog.Logger) storage.Archiver {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	archiver, err := storage.NewArchiver(connectCtx, cfg)
	if err != nil {
		log.Warn().Err(err).Bool("redis", cfg.RedisURL != "").Msg("Session archive unavailable, continuing without it")
		return nil
	}
	if archiver == nil {
		log.Info().Msg("No session archive configured")
	}
	return archiver
}
