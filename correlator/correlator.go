// Package correlator reconstructs request/response pairing on top of the
// one-way push/pull transport. Jobs go out on the push channel with a
// caller-generated identifier; results come back on the pull channel with
// no sender or session context, and the correlator matches them to the
// waiting dispatch by that identifier, enforcing a per-request timeout.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jcnm/meeshy-sub009/translation"
	"github.com/jcnm/meeshy-sub009/wire"
)

const (
	// DefaultSingleTimeout bounds a single-language round trip.
	DefaultSingleTimeout = 5 * time.Second
	// DefaultBatchTimeout bounds a batch round trip.
	DefaultBatchTimeout = 10 * time.Second
)

var (
	// ErrTimeout means no matching result arrived within the deadline.
	// Recoverable: the caller may redispatch with a fresh job id or fall
	// back to untranslated delivery.
	ErrTimeout = errors.New("correlator: translation timed out")
	// ErrShuttingDown rejects requests pending at shutdown.
	ErrShuttingDown = errors.New("correlator: shutting down")
	// ErrDuplicateJob rejects a dispatch whose job id collides with an
	// in-flight request.
	ErrDuplicateJob = errors.New("correlator: duplicate job id")
)

// TransportError wraps a failure to hand a job to the outbound channel.
// It is fatal for that job; the correlator never retries.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("correlator: transport write failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Sender is the outbound half of the transport.
type Sender interface {
	Send(frame []byte) error
}

// Receiver is the inbound half of the transport.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// NewJobID generates a job identifier: a random UUID plus a timestamp
// suffix, unique for the lifetime of any request.
func NewJobID() string {
	return uuid.NewString() + "-" + fmt.Sprintf("%d", time.Now().UnixNano())
}

// Correlator dispatches translation jobs and matches asynchronously
// arriving results back to their callers.
type Correlator struct {
	sender  Sender
	logger  *zap.SugaredLogger
	singles *table[translation.Result]
	batches *table[translation.BatchResult]

	unknownDropped atomic.Uint64
}

// New creates a correlator writing jobs to sender.
func New(sender Sender, logger *zap.SugaredLogger) *Correlator {
	return &Correlator{
		sender:  sender,
		logger:  logger,
		singles: newTable[translation.Result](),
		batches: newTable[translation.BatchResult](),
	}
}

// Dispatch sends a single-language job and waits for its result. A zero
// timeout selects DefaultSingleTimeout.
func (c *Correlator) Dispatch(ctx context.Context, job translation.Job, timeout time.Duration) (translation.Result, error) {
	if timeout <= 0 {
		timeout = DefaultSingleTimeout
	}
	return dispatch(ctx, c, c.singles, wire.KindSingleJob, job.JobID, job, timeout)
}

// DispatchBatch sends a batch job and waits for its result. A zero
// timeout selects DefaultBatchTimeout.
func (c *Correlator) DispatchBatch(ctx context.Context, job translation.BatchJob, timeout time.Duration) (translation.BatchResult, error) {
	if err := job.Validate(); err != nil {
		return translation.BatchResult{}, err
	}
	if timeout <= 0 {
		timeout = DefaultBatchTimeout
	}
	return dispatch(ctx, c, c.batches, wire.KindBatchJob, job.JobID, job, timeout)
}

// dispatch registers the pending entry, pushes the encoded job, and waits
// for exactly one of: a matching result, the timeout, context
// cancellation, or shutdown.
func dispatch[R any](ctx context.Context, c *Correlator, t *table[R], kind wire.Kind, jobID string, job any, timeout time.Duration) (R, error) {
	var zero R
	if jobID == "" {
		return zero, errors.New("correlator: job missing jobId")
	}

	frame, err := wire.Encode(kind, job)
	if err != nil {
		return zero, err
	}

	ch, err := t.add(jobID)
	if err != nil {
		return zero, err
	}

	if err := c.sender.Send(frame); err != nil {
		t.take(jobID)
		return zero, &TransportError{Err: err}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.result, out.err
	case <-timer.C:
		if t.take(jobID) {
			return zero, ErrTimeout
		}
		// Lost the race: the result landed between the timer firing and
		// the take. Honour it.
		out := <-ch
		return out.result, out.err
	case <-ctx.Done():
		if t.take(jobID) {
			return zero, ctx.Err()
		}
		out := <-ch
		return out.result, out.err
	}
}

// Listen consumes the inbound channel until the context is cancelled or
// the receiver is closed. It is a long-lived loop, not a per-request
// operation; run it once in its own goroutine.
func (c *Correlator) Listen(ctx context.Context, receiver Receiver) error {
	for {
		frame, err := receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("receive result frame: %w", err)
		}
		c.handleFrame(frame)
	}
}

func (c *Correlator) handleFrame(frame []byte) {
	env, err := wire.Decode(frame)
	if err != nil {
		c.logger.Warnw("dropping malformed result frame", "error", err)
		return
	}

	switch env.Kind {
	case wire.KindSingleResult:
		var result translation.Result
		if err := env.Unmarshal(&result); err != nil {
			c.logger.Warnw("dropping undecodable single result", "error", err)
			return
		}
		if !c.singles.resolve(result.JobID, result) {
			c.dropUnknown(result.JobID, env.Kind)
		}
	case wire.KindBatchResult:
		var result translation.BatchResult
		if err := env.Unmarshal(&result); err != nil {
			c.logger.Warnw("dropping undecodable batch result", "error", err)
			return
		}
		if !c.batches.resolve(result.JobID, result) {
			c.dropUnknown(result.JobID, env.Kind)
		}
	default:
		c.logger.Warnw("dropping unexpected frame kind", "kind", env.Kind.String())
	}
}

// dropUnknown records a result that matched no pending job. Routine after
// a timeout, so it is never surfaced to a caller.
func (c *Correlator) dropUnknown(jobID string, kind wire.Kind) {
	c.unknownDropped.Add(1)
	c.logger.Debugw("dropping result for unknown job", "jobId", jobID, "kind", kind.String())
}

// PendingCount returns the number of in-flight jobs, single and batch.
func (c *Correlator) PendingCount() int {
	return c.singles.len() + c.batches.len()
}

// UnknownDropped returns how many results matched no pending job.
func (c *Correlator) UnknownDropped() uint64 {
	return c.unknownDropped.Load()
}

// Close rejects every pending request with ErrShuttingDown. Dispatches
// after Close fail the same way.
func (c *Correlator) Close() {
	c.singles.close()
	c.batches.close()
}
