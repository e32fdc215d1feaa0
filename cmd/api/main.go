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

	"github.com/riskibarqy/zeal-league/internal/app"
	"github.com/riskibarqy/zeal-league/internal/config"
	"github.com/riskibarqy/zeal-league/internal/observability"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, flushLogs, err := observability.InitBetterStackLogger(cfg, logging.NewJSON(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped with error", "error", err)
		_ = flushLogs(context.Background())
		os.Exit(1)
	}

	if err := flushLogs(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	debugSrv, err := observability.StartDebugServer(cfg, logger)
	if err != nil {
		return errors.Join(err, stopProfiler(), shutdownTracing(context.Background()))
	}

	srv, cleanup, err := app.NewHTTPServer(ctx, cfg, logger)
	if err != nil {
		return errors.Join(
			fmt.Errorf("build app: %w", err),
			debugSrv.Shutdown(context.Background()),
			stopProfiler(),
			shutdownTracing(context.Background()),
		)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := []error{runErr}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := cleanup(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("release dependencies: %w", err))
	}
	if err := debugSrv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := stopProfiler(); err != nil {
		errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
	}

	logger.Info("http server stopped")
	return errors.Join(errs...)
}
