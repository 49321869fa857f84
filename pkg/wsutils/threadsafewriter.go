package wsutils

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type ThreadSafeWriter struct {
	*websocket.Conn
	sync.Mutex
}

// WriteJSONDeadline is the only JSON write path. Write deadlines persist
// on the underlying conn, so every frame sets its own before writing.
func (t *ThreadSafeWriter) WriteJSONDeadline(val interface{}, deadline time.Time) error {
	t.Lock()
	defer t.Unlock()

	_ = t.Conn.SetWriteDeadline(deadline)
	return t.Conn.WriteJSON(val)
}

func (t *ThreadSafeWriter) Ping(deadline time.Time) error {
	t.Lock()
	defer t.Unlock()

	return t.Conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (t *ThreadSafeWriter) Close() error {
	return t.Conn.Close()
}

func (t *ThreadSafeWriter) ReadJSON(val any) error {
	return t.Conn.ReadJSON(val)
}

func NewThreadSafeWriter(conn *websocket.Conn) *ThreadSafeWriter {
	return &ThreadSafeWriter{
		Conn: conn,
	}
}
