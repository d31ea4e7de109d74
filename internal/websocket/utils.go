package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 5 * time.Minute
)

// Conn serialises writes to a WebSocket shared by the poll loop and the
// read loop.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps an upgraded connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed payload.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON reads and decodes a client frame with a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	return c.ws.ReadJSON(v)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
