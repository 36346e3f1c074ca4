package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"botdash/internal/backend"
	"botdash/internal/cfg"
	"botdash/internal/control"
	"botdash/internal/dashboard"
	"botdash/internal/logging"
	"botdash/internal/metrics"
	"botdash/internal/model"
	"botdash/internal/storage"
	"botdash/internal/synchronizer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	out, closeLog, err := logging.Open(c.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("log file open failed")
	}
	defer closeLog()
	logging.Setup(c.LogLevel, c.LogFormat, out)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	client := backend.New(c.BaseURL, c.RESTTimeout)
	client.SetObserver(mw)

	syncer := initializeSynchronizer(c, client, mw, store)

	dispatcher := control.NewDispatcher(client, nil)
	dispatcher.SetMetrics(mw)
	dispatcher.SetRefresher(syncer)
	if store != nil {
		dispatcher.SetJournal(store)
	}

	dash := dashboard.New(syncer, dispatcher, c.Symbols, c.DashboardPort)
	dash.SetObserver(mw)
	if store != nil {
		dash.SetPreferences(store)
	}

	startMetricsServer(ctx, c)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := syncer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("synchronizer stopped")
			cancel()
		}
	}()

	if err := dash.Start(); err != nil {
		log.Fatal().Err(err).Msg("dashboard start failed")
	}

	log.Info().
		Str("backend", client.BaseURL()).
		Dur("poll", c.PollInterval).
		Str("interval", string(syncer.Interval())).
		Int("dashboard_port", c.DashboardPort).
		Msg("botdash started")

	waitForShutdown(ctx, cancel, &wg)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := dash.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown failed")
	}
}

// initializeStorage opens the preference store if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Msg("data directory unavailable, continuing without persistence")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// initializeSynchronizer restores the saved chart interval and persists
// later changes.
func initializeSynchronizer(c cfg.Settings, client *backend.Client, mw *metrics.MetricsWrapper, store *storage.Store) *synchronizer.Synchronizer {
	interval := c.ChartInterval
	if store != nil {
		prefs, err := store.LoadPreferences()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load preferences")
		} else if prefs.Interval != "" {
			interval = prefs.Interval
		}
	}

	s := synchronizer.New(client, interval, c.PollInterval)
	s.SetMetrics(mw)
	if store != nil {
		s.OnIntervalChange(func(iv model.Interval) {
			if err := store.SaveInterval(iv); err != nil {
				log.Warn().Err(err).Str("interval", string(iv)).Msg("failed to persist chart interval")
			}
		})
	}
	return s
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		log.Info().Int("port", c.MetricsPort).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
