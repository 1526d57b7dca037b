package transport

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestPushPullRoundTrip(t *testing.T) {
	pull, err := ListenPull(0)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer func() { _ = pull.Close() }()

	push, err := DialPush(pull.LocalAddr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer func() { _ = push.Close() }()

	want := []byte("frame-payload")
	if err := push.Send(want); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := pull.Receive(ctx)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("received %q, want %q", got, want)
	}
}

func TestPushPullPreservesFrameBoundaries(t *testing.T) {
	pull, err := ListenPull(0)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer func() { _ = pull.Close() }()

	push, err := DialPush(pull.LocalAddr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer func() { _ = push.Close() }()

	frames := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, frame := range frames {
		if err := push.Send(frame); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Loopback UDP keeps ordering in practice, but the contract only
	// promises each frame arrives whole, so compare as a set.
	remaining := map[string]struct{}{"first": {}, "second": {}, "third": {}}
	for range frames {
		frame, err := pull.Receive(ctx)
		if err != nil {
			t.Fatalf("receive failed: %v", err)
		}
		if _, ok := remaining[string(frame)]; !ok {
			t.Fatalf("unexpected frame %q", frame)
		}
		delete(remaining, string(frame))
	}
}

func TestReceiveHonoursContextCancellation(t *testing.T) {
	pull, err := ListenPull(0)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer func() { _ = pull.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := pull.Receive(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not observe cancellation")
	}
}

func TestClosedSockets(t *testing.T) {
	pull, err := ListenPull(0)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	push, err := DialPush(pull.LocalAddr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	if err := push.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := push.Send([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if push.Healthy() {
		t.Error("closed socket reports healthy")
	}

	if err := pull.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := pull.Receive(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSendRejectsOversizedFrame(t *testing.T) {
	pull, err := ListenPull(0)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer func() { _ = pull.Close() }()

	push, err := DialPush(pull.LocalAddr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer func() { _ = push.Close() }()

	if err := push.Send(make([]byte, maxFrameSize+1)); err == nil {
		t.Error("expected error for oversized frame")
	}
}

func TestDialPushRejectsBadAddr(t *testing.T) {
	if _, err := DialPush("not-a-valid:addr:at:all"); err == nil {
		t.Error("expected error for invalid address")
	}
}
