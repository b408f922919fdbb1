// Package ws is the WebSocket transport: it authenticates connections,
// decodes client frames and forwards them to the match coordinator.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/smuotoe/geoelevate/pkg/logger"
	"github.com/smuotoe/geoelevate/pkg/metrics"
)

// Write-side tuning. Values follow the common gorilla pump settings.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// client owns one authenticated WebSocket connection. All writes to the
// socket go through the out channel so the write pump is the only writer.
type client struct {
	id       string
	identity int64
	conn     *websocket.Conn

	out    chan []byte
	closed chan struct{}
	once   sync.Once

	logger logger.Logger
}

func newClient(identity int64, conn *websocket.Conn) *client {
	return &client{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
		out:      make(chan []byte, sendBufferSize),
		closed:   make(chan struct{}),
		logger:   logger.Get().Named("ws"),
	}
}

// Send marshals v and queues it for the write pump. It never blocks: when
// the peer cannot keep up the frame is dropped and reported.
func (c *client) Send(v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error(context.Background(), "marshal outbound frame",
			logger.String("clientID", c.id),
			logger.Error(err),
		)
		return false
	}

	select {
	case <-c.closed:
		return false
	case c.out <- payload:
		return true
	default:
		metrics.RecordFrameDropped()
		c.logger.Warn(context.Background(), "outbound buffer full, frame dropped",
			logger.String("clientID", c.id),
			logger.Int64("identity", c.identity),
		)
		return false
	}
}

// shutdown makes Send a no-op and wakes the write pump. Safe to call more
// than once.
func (c *client) shutdown() {
	c.once.Do(func() { close(c.closed) })
}

// writePump drains the out channel onto the socket and keeps the
// connection alive with protocol-level pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
