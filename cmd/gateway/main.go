// Package main contains the translation routing gateway entry point.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/jcnm/meeshy-sub009/config"
	"github.com/jcnm/meeshy-sub009/correlator"
	"github.com/jcnm/meeshy-sub009/di"
	"github.com/jcnm/meeshy-sub009/gateway"
	"github.com/jcnm/meeshy-sub009/transport"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	push, err := transport.DialPush(cfg.EngineAddr())
	if err != nil {
		logger.Fatalw("failed to open job channel", "error", err)
	}
	defer func() { _ = push.Close() }()

	pull, err := transport.ListenPull(cfg.ResultPort)
	if err != nil {
		logger.Fatalw("failed to open result channel", "error", err)
	}
	defer func() { _ = pull.Close() }()

	corr := correlator.New(push, logger)
	container := di.NewContainer(
		di.WithLogger(logger),
		di.WithDispatcher(corr),
	)

	server := gateway.NewServer(container.Registry, container.Broadcaster, corr, push, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Infow("gateway starting",
		"listenAddr", cfg.ListenAddr(),
		"engineAddr", cfg.EngineAddr(),
		"resultPort", cfg.ResultPort)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return corr.Listen(groupCtx, pull)
	})

	group.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Infow("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("graceful shutdown failed", "error", err)
			_ = httpServer.Close()
		}

		corr.Close()
		_ = pull.Close()
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Fatalw("gateway failed", "error", err)
	}
	logger.Infow("gateway stopped")
}

func newLogger(level string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger.Sugar()
}
