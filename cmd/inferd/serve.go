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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/catalog"
	"inferd/internal/config"
	"inferd/internal/dispatch"
	"inferd/internal/httpapi"
	"inferd/internal/journal"
	"inferd/internal/provider"
)

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	overlayServeFlags(cmd, &cfg)
	fillDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	// Catalog: scanned models first, explicit config entries win on name.
	specs := cfg.Specs()
	if cfg.ModelsDir != "" {
		discovered, err := catalog.Scan(cfg.ModelsDir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("model scan failed")
		} else {
			specs = catalog.Merge(discovered, specs)
		}
	}

	// Events flow through the metrics publisher and on into the journal
	// when one is configured.
	var events dispatch.EventPublisher
	if cfg.JournalPath != "" {
		jr, err := journal.Open(cfg.JournalPath, logger)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jr.Close()
		httpapi.SetEventSource(jr)
		defer httpapi.SetEventSource(nil)
		events = httpapi.NewMetricsPublisher(jr)
	} else {
		events = httpapi.NewMetricsPublisher(nil)
	}

	prov, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	d, err := dispatch.New(dispatch.Config{
		Catalog:    specs,
		Workers:    cfg.Workers,
		QueueDepth: cfg.QueueDepth,
		Provider:   prov,
		Publisher:  events,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// Base context canceled at shutdown so handlers blocked on completion
	// handles unwind before the listener closes.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(logger)
	if v, _ := cmd.Flags().GetInt64("max-body-bytes"); v > 0 {
		httpapi.SetMaxBodyBytes(v)
	}
	if v, _ := cmd.Flags().GetInt64("infer-timeout-seconds"); v > 0 {
		httpapi.SetInferTimeoutSeconds(v)
	}
	if v, _ := cmd.Flags().GetString("cors-origins"); v != "" {
		httpapi.SetCORSOptions(true, splitCSV(v),
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Content-Type", "X-Log-Level"})
	}

	if cfg.InitOnStart {
		h := d.InitializeAll(baseCtx)
		go func() {
			anyReady, err := h.Await(baseCtx)
			if err != nil {
				return
			}
			if anyReady {
				logger.Info().Msg("startup initialization finished")
			} else {
				logger.Warn().Msg("startup initialization finished with no ready models")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("backend", cfg.Backend).
			Int("models", len(specs)).
			Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return err
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := d.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("dispatcher close error")
	}
	return nil
}

// overlayServeFlags applies explicitly set serve flags on top of file and
// environment values.
func overlayServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr, _ = f.GetString("addr")
	}
	if f.Changed("models-dir") {
		cfg.ModelsDir, _ = f.GetString("models-dir")
	}
	if f.Changed("backend") {
		cfg.Backend, _ = f.GetString("backend")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("queue-depth") {
		cfg.QueueDepth, _ = f.GetInt("queue-depth")
	}
	if f.Changed("journal") {
		cfg.JournalPath, _ = f.GetString("journal")
	}
	if f.Changed("init-on-start") {
		cfg.InitOnStart, _ = f.GetBool("init-on-start")
	}
	if f.Changed("llama-ctx") {
		cfg.LlamaCtx, _ = f.GetInt("llama-ctx")
	}
	if f.Changed("llama-threads") {
		cfg.LlamaThreads, _ = f.GetInt("llama-threads")
	}
}

// buildProvider selects the backend. The llama stub refuses initialization
// when the binary lacks the native runtime, so warn early.
func buildProvider(cfg config.Config, logger zerolog.Logger) (provider.Provider, error) {
	switch cfg.Backend {
	case "echo":
		return provider.NewEcho(), nil
	case "", "llama":
		if !provider.LlamaBuilt() {
			logger.Warn().Msg("llama backend not built; initializations will fail until the binary is built with the llama tag")
		}
		return provider.NewLlama(cfg.LlamaCtx, cfg.LlamaThreads), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}
