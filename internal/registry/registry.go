package registry

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/fx"

	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
)

var ErrConnectionNotFound = errors.New("connection not found")

// Sender is the outbound handle of one transport session. The websocket
// layer backs it with a thread-safe writer; tests use a recording fake.
// Send must tolerate being called after the transport is gone.
type Sender interface {
	Send(event protocol.Event) error
}

// Connection is the registry's record of one live transport session.
// Identity and ConnectedAt are immutable; the room pointer and profile
// are guarded by the connection's own mutex so reads never contend with
// the registry map lock.
type Connection struct {
	id          protocol.ConnectionID
	connectedAt time.Time
	sender      Sender

	lastActivity atomic.Int64 // unix nano

	mu      sync.Mutex
	name    string
	contact string
	roomID  protocol.RoomID // empty when not in a room
}

func (c *Connection) ID() protocol.ConnectionID { return c.id }

func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

func (c *Connection) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

func (c *Connection) RoomID() protocol.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Connection) Profile() (name, contact string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.contact
}

func (c *Connection) Send(event protocol.Event) error {
	return c.sender.Send(event)
}

// Registry is the authoritative map from connection id to connection
// state. It owns connection lifecycle; the room coordinator only ever
// references connections by id.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[protocol.ConnectionID]*Connection
}

type NewRegistry_Params struct {
	fx.In

	Logger *slog.Logger
}

func NewRegistry(params NewRegistry_Params) *Registry {
	return &Registry{
		logger: params.Logger,
		conns:  make(map[protocol.ConnectionID]*Connection),
	}
}

// Register creates an entry for a new transport session and assigns its id.
func (r *Registry) Register(sender Sender) *Connection {
	now := time.Now()
	conn := &Connection{
		id:          uuid.NewString(),
		connectedAt: now,
		sender:      sender,
	}
	conn.lastActivity.Store(now.UnixNano())

	r.mu.Lock()
	r.conns[conn.id] = conn
	r.mu.Unlock()

	r.logger.Debug("connection registered", slog.String("connectionId", conn.id))
	return conn
}

// Touch refreshes the last-activity timestamp. Called on every inbound
// message; unknown ids are ignored.
func (r *Registry) Touch(connectionID protocol.ConnectionID) {
	r.mu.RLock()
	conn, exist := r.conns[connectionID]
	r.mu.RUnlock()
	if !exist {
		return
	}
	conn.lastActivity.Store(time.Now().UnixNano())
}

func (r *Registry) SetRoom(connectionID protocol.ConnectionID, roomID protocol.RoomID) error {
	conn, exist := r.lookup(connectionID)
	if !exist {
		return ErrConnectionNotFound
	}
	conn.mu.Lock()
	conn.roomID = roomID
	conn.mu.Unlock()
	return nil
}

func (r *Registry) SetProfile(connectionID protocol.ConnectionID, name, contact string) error {
	conn, exist := r.lookup(connectionID)
	if !exist {
		return ErrConnectionNotFound
	}
	conn.mu.Lock()
	conn.name = name
	conn.contact = contact
	conn.mu.Unlock()
	return nil
}

func (r *Registry) Get(connectionID protocol.ConnectionID) (*Connection, bool) {
	return r.lookup(connectionID)
}

func (r *Registry) Remove(connectionID protocol.ConnectionID) {
	r.mu.Lock()
	delete(r.conns, connectionID)
	r.mu.Unlock()

	r.logger.Debug("connection removed", slog.String("connectionId", connectionID))
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) lookup(connectionID protocol.ConnectionID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, exist := r.conns[connectionID]
	return conn, exist
}
