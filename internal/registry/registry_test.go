package registry_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Emmyhack/Codar-Meeting-App/internal/registry"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
)

type nopSender struct{}

func (nopSender) Send(protocol.Event) error { return nil }

func newTestRegistry() *registry.Registry {
	return registry.NewRegistry(registry.NewRegistry_Params{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	reg := newTestRegistry()

	a := reg.Register(nopSender{})
	b := reg.Register(nopSender{})

	require.NotEmpty(t, a.ID())
	require.NotEmpty(t, b.ID())
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, 2, reg.Count())

	require.Empty(t, a.RoomID(), "fresh connection must not be in a room")
	require.False(t, a.ConnectedAt().IsZero())
}

func TestTouchAdvancesLastActivity(t *testing.T) {
	reg := newTestRegistry()
	conn := reg.Register(nopSender{})

	before := conn.LastActivity()
	time.Sleep(time.Millisecond)
	reg.Touch(conn.ID())

	require.True(t, conn.LastActivity().After(before))

	// Unknown ids are ignored.
	reg.Touch("nope")
}

func TestSetRoomAndProfile(t *testing.T) {
	reg := newTestRegistry()
	conn := reg.Register(nopSender{})

	require.NoError(t, reg.SetRoom(conn.ID(), "standup"))
	require.Equal(t, "standup", conn.RoomID())

	require.NoError(t, reg.SetProfile(conn.ID(), "Alice", "alice@example.com"))
	name, contact := conn.Profile()
	require.Equal(t, "Alice", name)
	require.Equal(t, "alice@example.com", contact)

	require.NoError(t, reg.SetRoom(conn.ID(), ""))
	require.Empty(t, conn.RoomID())

	require.ErrorIs(t, reg.SetRoom("nope", "standup"), registry.ErrConnectionNotFound)
	require.ErrorIs(t, reg.SetProfile("nope", "x", ""), registry.ErrConnectionNotFound)
}

func TestGetAndRemove(t *testing.T) {
	reg := newTestRegistry()
	conn := reg.Register(nopSender{})

	got, exist := reg.Get(conn.ID())
	require.True(t, exist)
	require.Equal(t, conn.ID(), got.ID())

	reg.Remove(conn.ID())
	_, exist = reg.Get(conn.ID())
	require.False(t, exist)
	require.Equal(t, 0, reg.Count())

	// Removing twice is harmless.
	reg.Remove(conn.ID())
}
