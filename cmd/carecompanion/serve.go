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
	"github.com/spf13/cobra"

	carecompanion "github.com/scalisek3/CareCompanionAIWebsite"
	"github.com/scalisek3/CareCompanionAIWebsite/config"
	"github.com/scalisek3/CareCompanionAIWebsite/logging"
)

// newServeCmd creates the "serve" subcommand.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant HTTP server",
		RunE:  runServe,
	}

	cmd.Flags().String("config", "config.yaml", "Path to the YAML configuration file")
	cmd.Flags().String("env-file", ".env", "Path to an optional env file with credentials")
	cmd.Flags().String("addr", "", "Listen address, overrides the configured one")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	// Credentials commonly live in a local env file during development; a
	// missing file is not an error.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewSlogLogger(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
		cfg.Logging.AddSource,
	)

	backend, err := carecompanion.New(cfg, func(o *carecompanion.Options) {
		o.Logger = logger
	})
	if err != nil {
		return fmt.Errorf("build backend: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      backend.Handler(),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 60*time.Second),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("server.shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
