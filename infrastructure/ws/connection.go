// Package ws carries the two websocket surfaces of the server: the JSON
// control channel and the binary document sync channel.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Options struct {
	BufferSize      int
	DeliveryTimeout time.Duration
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
}

func DefaultOptions() Options {
	return Options{
		BufferSize:      64,
		DeliveryTimeout: 2 * time.Second,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		PingInterval:    50 * time.Second,
		MaxMessageSize:  4 << 20,
	}
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// The UI may be served from another origin in development.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
}

// conn serialises writes, gorilla allows one concurrent writer only.
type conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu   sync.Mutex
	once sync.Once
}

func newConn(ws *websocket.Conn, opts Options) *conn {
	c := &conn{ws: ws, writeTimeout: opts.WriteTimeout}
	ws.SetReadLimit(opts.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(opts.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(opts.PongTimeout))
	})
	return c
}

func (c *conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

func (c *conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// close sends a normal closure when possible, then drops the socket.
// The reader blocked on the socket returns with an error.
func (c *conn) close() {
	c.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		_ = c.ws.Close()
	})
}

// pinger keeps the peer's read deadline alive until done is closed.
func (c *conn) pinger(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.close()
				return
			}
		}
	}
}

func unexpectedClose(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived)
}
