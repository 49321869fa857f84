package signaling

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Emmyhack/Codar-Meeting-App/internal/registry"
	"github.com/Emmyhack/Codar-Meeting-App/internal/room"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/wsutils"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// 64 KB is enough for any SDP payload.
	maxMessageSize = 64 * 1024
)

type connSender struct {
	w *wsutils.ThreadSafeWriter
}

func (s connSender) Send(event protocol.Event) error {
	return s.w.WriteJSONDeadline(event, time.Now().Add(writeWait))
}

// signalingController binds the websocket transport to the registry and
// the room coordinator: upgrade registers a connection, the read loop feeds
// events in, and a terminal read of any kind tears the membership down.
type signalingController struct {
	registry    *registry.Registry
	coordinator *room.Coordinator
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func (ctrl *signalingController) Signal(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	connection := ctrl.registry.Register(connSender{w})
	defer func() {
		// Transport is gone, whatever the reason: leave first so peers get
		// notified while the registry entry still resolves, then remove.
		ctrl.coordinator.Leave(connection.ID())
		ctrl.registry.Remove(connection.ID())
	}()

	ctrl.write(w, protocol.NewEvent(protocol.EventConnected, connectedPayload{
		ConnectionID: connection.ID(),
	}))

	done := make(chan struct{})
	defer close(done)
	go ctrl.pingLoop(w, done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event protocol.Event
		if err := w.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ctrl.logger.Debug("websocket read failed",
					slog.String("connectionId", connection.ID()),
					slog.String("error", err.Error()))
			}
			return nil
		}

		ctrl.registry.Touch(connection.ID())
		ctrl.dispatch(connection, w, event)
	}
}

func (ctrl *signalingController) dispatch(connection *registry.Connection, w *wsutils.ThreadSafeWriter, event protocol.Event) {
	switch event.Event {
	case protocol.EventJoinRoom:
		var payload joinRoomPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			ctrl.sendError(w, "bad_message", "malformed join-room payload")
			return
		}
		result, err := ctrl.coordinator.Join(connection.ID(), payload.RoomID, payload.Participant)
		if err != nil {
			ctrl.write(w, protocol.NewEvent(protocol.EventJoinError, room.JoinErrorPayload{
				Code:  errorCode(err),
				Error: err.Error(),
			}))
			return
		}
		ctrl.write(w, protocol.NewEvent(protocol.EventJoinedRoom, room.JoinedRoomPayload{
			Room:                 result.Room,
			ExistingParticipants: result.ExistingParticipants,
		}))

	case protocol.EventLeaveRoom:
		ctrl.coordinator.Leave(connection.ID())

	case protocol.EventOffer, protocol.EventAnswer, protocol.EventICECandidate:
		var payload signalPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil || !payload.valid() {
			return
		}
		ctrl.coordinator.Relay(connection.ID(), payload.TargetID, event.Event, payload.Payload, connection.RoomID())

	case protocol.EventChatMessage:
		var payload chatPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			ctrl.sendError(w, "bad_message", "malformed chat-message payload")
			return
		}
		if _, err := ctrl.coordinator.Chat(connection.ID(), payload.Text); err != nil {
			ctrl.sendError(w, errorCode(err), err.Error())
		}

	case protocol.EventMediaStateUpdate:
		var payload mediaStatePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			ctrl.sendError(w, "bad_message", "malformed media-state-update payload")
			return
		}
		ctrl.coordinator.UpdateMediaState(connection.ID(), payload.State)

	case protocol.EventScreenShareStart:
		ctrl.coordinator.ScreenShare(connection.ID(), true)

	case protocol.EventScreenShareStop:
		ctrl.coordinator.ScreenShare(connection.ID(), false)

	default:
		ctrl.sendError(w, "unknown_event", "unknown event kind "+event.Event)
	}
}

// write sends one event with a fresh write deadline. Gorilla write
// deadlines persist on the conn, so a stale one left by an earlier push
// would fail the next frame; every server write goes through here or
// through connSender, never through a bare WriteJSON.
func (ctrl *signalingController) write(w *wsutils.ThreadSafeWriter, event protocol.Event) {
	_ = w.WriteJSONDeadline(event, time.Now().Add(writeWait))
}

func (ctrl *signalingController) sendError(w *wsutils.ThreadSafeWriter, code, message string) {
	ctrl.write(w, protocol.NewEvent(protocol.EventError, errorPayload{
		Code:    code,
		Message: message,
	}))
}

func (ctrl *signalingController) pingLoop(w *wsutils.ThreadSafeWriter, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := w.Ping(time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func errorCode(err error) string {
	var coordErr *room.Error
	if errors.As(err, &coordErr) {
		return coordErr.Code
	}
	return "internal_error"
}

func (ctrl *signalingController) Resolve(router protocol.HttpRouter) error {
	router.GET("/ws", ctrl.Signal)
	return nil
}

var _ protocol.HttpResolvable = (*signalingController)(nil)

type newSignalingController_Params struct {
	fx.In

	Registry    *registry.Registry
	Coordinator *room.Coordinator
	Logger      *slog.Logger
}

func NewController(params newSignalingController_Params) *signalingController {
	return &signalingController{
		registry:    params.Registry,
		coordinator: params.Coordinator,
		logger:      params.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}
