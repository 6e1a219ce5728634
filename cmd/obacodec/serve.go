package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/config"
	"github.com/KilimcininKorOglu/obacodec/internal/logging"
	"github.com/KilimcininKorOglu/obacodec/internal/metrics"
	"github.com/KilimcininKorOglu/obacodec/internal/server"
)

// shutdownTimeout bounds the metrics endpoint shutdown.
const shutdownTimeout = 10 * time.Second

func serveCmd(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flags.verbose {
		cfg.Logging.Level = logging.LevelDebug.String()
	}
	logger, logOut, err := cfg.Logging.Logger()
	if err != nil {
		return err
	}
	defer logOut.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		metricsSrv := newMetricsServer(cfg.Metrics)
		go func() {
			logger.Info("metrics endpoint started", "address", cfg.Metrics.Address, "path", cfg.Metrics.Path)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown failed", "error", err)
			}
		}()
	}

	srv := server.New(serverConfig(cfg), logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// serverConfig maps the file configuration onto the server settings.
func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Address:        cfg.Server.Address,
		MaxConnections: cfg.Server.MaxConnections,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		Codec:          cfg.Codec.Options(),
		ReadBufferSize: cfg.Codec.ReadBufferSize,
	}
}

func newMetricsServer(cfg config.MetricsConfig) *http.Server {
	metrics.Register()
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
