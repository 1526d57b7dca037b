// Package main contains a standalone stub translation engine. It speaks
// the gateway's wire protocol over the same push/pull transport, so a
// gateway pointed at it behaves end to end without the real engine.
package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/jcnm/meeshy-sub009/config"
	"github.com/jcnm/meeshy-sub009/translation"
	"github.com/jcnm/meeshy-sub009/transport"
	"github.com/jcnm/meeshy-sub009/wire"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	logger := zl.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The engine's channels mirror the gateway's: jobs arrive on the job
	// port, results go back to the gateway's result port.
	pull, err := transport.ListenPull(cfg.JobPort)
	if err != nil {
		logger.Fatalw("failed to open job channel", "error", err)
	}
	defer func() { _ = pull.Close() }()

	resultAddr := net.JoinHostPort(cfg.EngineHost, strconv.Itoa(cfg.ResultPort))
	push, err := transport.DialPush(resultAddr)
	if err != nil {
		logger.Fatalw("failed to open result channel", "error", err)
	}
	defer func() { _ = push.Close() }()

	engine := translation.NewStubEngine(nil)
	logger.Infow("stub engine starting", "jobPort", cfg.JobPort, "resultAddr", resultAddr)

	for {
		frame, err := pull.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Errorw("failed to receive job frame", "error", err)
			continue
		}
		serveFrame(engine, push, logger, frame)
	}

	logger.Infow("stub engine stopped")
}

func serveFrame(engine *translation.StubEngine, push *transport.PushSocket, logger *zap.SugaredLogger, frame []byte) {
	env, err := wire.Decode(frame)
	if err != nil {
		logger.Warnw("dropping malformed job frame", "error", err)
		return
	}

	var reply []byte
	switch env.Kind {
	case wire.KindSingleJob:
		var job translation.Job
		if err := env.Unmarshal(&job); err != nil {
			logger.Warnw("dropping undecodable single job", "error", err)
			return
		}
		reply, err = wire.Encode(wire.KindSingleResult, engine.Translate(job))
	case wire.KindBatchJob:
		var job translation.BatchJob
		if err := env.Unmarshal(&job); err != nil {
			logger.Warnw("dropping undecodable batch job", "error", err)
			return
		}
		reply, err = wire.Encode(wire.KindBatchResult, engine.TranslateBatch(job))
	default:
		logger.Warnw("dropping unexpected frame kind", "kind", env.Kind.String())
		return
	}
	if err != nil {
		logger.Errorw("failed to encode result frame", "error", err)
		return
	}
	if err := push.Send(reply); err != nil {
		logger.Errorw("failed to push result frame", "error", err)
	}
}
