// Package transport provides the one-way datagram channels between the
// gateway and the translation engine: a push socket for outbound jobs and
// a pull socket for inbound results. The channels are connectionless,
// unordered, and carry no reply addressing; request/response pairing is
// layered on top by the correlator.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// maxFrameSize is the largest datagram either side will send or accept.
const maxFrameSize = 64 * 1024

// pollInterval bounds how long a blocked Receive takes to observe
// context cancellation.
const pollInterval = 250 * time.Millisecond

// ErrClosed is returned by operations on a closed socket.
var ErrClosed = errors.New("transport: socket closed")

// PushSocket writes frames to a fixed remote endpoint. Writes are
// fire-and-forget; there is no delivery acknowledgment.
type PushSocket struct {
	conn   *net.UDPConn
	addr   string
	closed atomic.Bool
}

// DialPush opens a push socket towards addr (host:port).
func DialPush(addr string) (*PushSocket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve push endpoint %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial push endpoint %s: %w", addr, err)
	}
	return &PushSocket{conn: conn, addr: addr}, nil
}

// Send writes one frame. A frame larger than the datagram limit or a
// refused write is reported as an error; nothing is retried.
func (s *PushSocket) Send(frame []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(frame) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds datagram limit", len(frame))
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("push frame to %s: %w", s.addr, err)
	}
	return nil
}

// Addr returns the remote endpoint this socket pushes to.
func (s *PushSocket) Addr() string { return s.addr }

// Healthy reports whether the socket is open and writable.
func (s *PushSocket) Healthy() bool { return !s.closed.Load() }

// Close releases the socket. Subsequent Sends fail with ErrClosed.
func (s *PushSocket) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// PullSocket receives frames on a local port. Frames may arrive in any
// order and carry no sender context.
type PullSocket struct {
	conn   *net.UDPConn
	closed atomic.Bool
}

// ListenPull binds a pull socket on the given local port.
func ListenPull(port int) (*PullSocket, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen pull port %d: %w", port, err)
	}
	return &PullSocket{conn: conn}, nil
}

// Receive blocks until one frame arrives, the context is cancelled, or
// the socket is closed. The returned slice is owned by the caller.
func (s *PullSocket) Receive(ctx context.Context) ([]byte, error) {
	buf := make([]byte, maxFrameSize)
	for {
		if s.closed.Load() {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.closed.Load() {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("read pull socket: %w", err)
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		return frame, nil
	}
}

// LocalAddr returns the bound address, useful when listening on port 0 in
// tests.
func (s *PullSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close releases the socket and unblocks a pending Receive.
func (s *PullSocket) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}
