package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameBytes  = 256 * 1024
	sendBufferSize = 64
)

// client wraps one live websocket connection. Its send buffer decouples
// fan-out from the socket: Deliver never blocks, and a recipient that
// cannot drain its buffer loses frames instead of stalling everyone else.
type client struct {
	conn   *websocket.Conn
	logger *zap.SugaredLogger
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	// identity is set by the auth frame; read and written only by the
	// connection's read loop.
	identity string
}

func newClient(conn *websocket.Conn, logger *zap.SugaredLogger) *client {
	return &client{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues a frame for the write loop. It reports false when the
// connection is closed or its buffer is full; the frame is then dropped.
func (c *client) Deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// close tears the connection down exactly once and unblocks both loops.
func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writeLoop drains the send buffer onto the socket and keeps the
// connection alive with pings. It exits when the client closes.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debugw("write failed, dropping connection", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
