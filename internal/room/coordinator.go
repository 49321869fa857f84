package room

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/Emmyhack/Codar-Meeting-App/internal/registry"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/executils"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/variables"
)

// Batches below this size are delivered on the calling goroutine.
const fanoutThreshold = 8

const sweepParallelism = 4

type Config struct {
	Capacity       int
	EmptyRoomGrace time.Duration
	IdleThreshold  time.Duration
	ReapInterval   time.Duration
	ChatHistory    int
	ChatMaxLength  int
}

func NewConfig() Config {
	return Config{
		Capacity:       variables.EnvInt(variables.ROOM_CAPACITY_NAME, variables.ROOM_CAPACITY_DEFAULT),
		EmptyRoomGrace: variables.EnvDuration(variables.EMPTY_ROOM_GRACE_NAME, variables.EMPTY_ROOM_GRACE_DEFAULT),
		IdleThreshold:  variables.EnvDuration(variables.ROOM_IDLE_THRESHOLD_NAME, variables.ROOM_IDLE_THRESHOLD_DEFAULT),
		ReapInterval:   variables.EnvDuration(variables.ROOM_REAP_INTERVAL_NAME, variables.ROOM_REAP_INTERVAL_DEFAULT),
		ChatHistory:    variables.EnvInt(variables.CHAT_HISTORY_LIMIT_NAME, variables.CHAT_HISTORY_LIMIT_DEFAULT),
		ChatMaxLength:  variables.EnvInt(variables.CHAT_MAX_LENGTH_NAME, variables.CHAT_MAX_LENGTH_DEFAULT),
	}
}

// Payloads of coordinator-emitted events.
type (
	JoinedRoomPayload struct {
		Room                 *Snapshot     `json:"room"`
		ExistingParticipants []Participant `json:"existingParticipants"`
	}
	JoinErrorPayload struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	UserJoinedPayload struct {
		Participant Participant `json:"participant"`
	}
	UserLeftPayload struct {
		ParticipantID protocol.ConnectionID `json:"participantId"`
	}
	HostTransferredPayload struct {
		IsHost bool `json:"isHost"`
	}
	HostChangedPayload struct {
		NewHostID protocol.ConnectionID `json:"newHostId"`
	}
	SignalPayload struct {
		From    protocol.ConnectionID `json:"fromId"`
		Payload json.RawMessage       `json:"payload"`
	}
	ParticipantMediaPayload struct {
		ParticipantID protocol.ConnectionID `json:"participantId"`
		Media         MediaState            `json:"media"`
	}
	ScreenSharePayload struct {
		ParticipantID protocol.ConnectionID `json:"participantId"`
	}
)

type JoinResult struct {
	Participant          Participant
	Room                 *Snapshot
	ExistingParticipants []Participant
}

// Coordinator owns room lifecycle, membership, host assignment and message
// routing. Every mutation of a room happens under that room's keyed lock;
// the coordinator mutex only guards the room map itself.
type Coordinator struct {
	cfg      Config
	logger   *slog.Logger
	registry *registry.Registry

	locks *keyedMutex

	mu    sync.Mutex
	rooms map[protocol.RoomID]*room
}

type NewCoordinator_Params struct {
	fx.In

	Config   Config
	Logger   *slog.Logger
	Registry *registry.Registry
}

func NewCoordinator(params NewCoordinator_Params) *Coordinator {
	cfg := params.Config
	if cfg.Capacity <= 0 {
		cfg.Capacity = 50
	}
	if cfg.ChatMaxLength <= 0 {
		cfg.ChatMaxLength = 1000
	}
	return &Coordinator{
		cfg:      cfg,
		logger:   params.Logger,
		registry: params.Registry,
		locks:    newKeyedMutex(),
		rooms:    make(map[protocol.RoomID]*room),
	}
}

// Join adds the connection to roomID, creating the room when absent. The
// first joiner becomes host. The caller (the joiner) gets the snapshot and
// the pre-existing participants it must originate offers toward; everyone
// else gets a user-joined notification. Validation and policy rejections
// mutate nothing.
func (c *Coordinator) Join(connectionID protocol.ConnectionID, roomID protocol.RoomID, info ParticipantInfo) (*JoinResult, error) {
	if !ValidRoomID(roomID) {
		return nil, ErrBadRoomID
	}
	info.Name = strings.TrimSpace(info.Name)
	info.Contact = strings.TrimSpace(info.Contact)
	if info.Name == "" || len(info.Name) > participantNameMaxLen {
		return nil, ErrBadParticipant
	}
	if len(info.Contact) > participantContactMaxLen {
		return nil, ErrBadParticipant
	}

	conn, exist := c.registry.Get(connectionID)
	if !exist {
		return nil, ErrUnknownConnection
	}

	// Leave before join: membership in two rooms at once is never allowed.
	if current := conn.RoomID(); current != "" && current != roomID {
		c.Leave(connectionID)
	}

	unlock := c.locks.Lock(roomID)

	rm := c.getOrCreateRoom(roomID)
	if rm.member(connectionID) != nil {
		unlock()
		return nil, ErrAlreadyInRoom
	}
	if len(rm.participants) >= c.cfg.Capacity {
		unlock()
		return nil, ErrRoomFull
	}

	participant := &Participant{
		ID:       connectionID,
		Name:     info.Name,
		Contact:  info.Contact,
		JoinedAt: time.Now(),
		IsHost:   len(rm.participants) == 0,
	}

	existing := make([]Participant, 0, len(rm.participants))
	peers := make([]*registry.Connection, 0, len(rm.participants))
	for _, p := range rm.participants {
		existing = append(existing, *p)
		if peer, ok := c.registry.Get(p.ID); ok {
			peers = append(peers, peer)
		}
	}

	rm.participants = append(rm.participants, participant)
	rm.emptyAt = time.Time{}
	rm.touch()
	rm.publish()
	_ = c.registry.SetRoom(connectionID, roomID)
	_ = c.registry.SetProfile(connectionID, info.Name, info.Contact)
	snapshot := rm.snapshot()

	unlock()

	c.logger.Info("participant joined",
		slog.String("roomId", roomID),
		slog.String("connectionId", connectionID),
		slog.Bool("host", participant.IsHost))

	// The joiner is told who was already there and originates offers toward
	// them; existing members only learn about the joiner. Reversing this
	// produces duplicate offers under concurrent joins.
	event := protocol.NewEvent(protocol.EventUserJoined, UserJoinedPayload{Participant: *participant})
	executils.Fanout(peers, fanoutThreshold, func(peer *registry.Connection) {
		_ = peer.Send(event)
	})

	return &JoinResult{
		Participant:          *participant,
		Room:                 snapshot,
		ExistingParticipants: existing,
	}, nil
}

// Leave removes the connection from its current room, if any. Idempotent.
func (c *Coordinator) Leave(connectionID protocol.ConnectionID) {
	conn, exist := c.registry.Get(connectionID)
	if !exist {
		return
	}
	roomID := conn.RoomID()
	if roomID == "" {
		return
	}

	unlock := c.locks.Lock(roomID)

	rm := c.getRoom(roomID)
	if rm == nil {
		_ = c.registry.SetRoom(connectionID, "")
		unlock()
		return
	}

	idx := -1
	for i, p := range rm.participants {
		if p.ID == connectionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		_ = c.registry.SetRoom(connectionID, "")
		unlock()
		return
	}

	wasHost := rm.participants[idx].IsHost
	rm.participants = append(rm.participants[:idx], rm.participants[idx+1:]...)
	_ = c.registry.SetRoom(connectionID, "")
	rm.touch()

	if len(rm.participants) == 0 {
		if c.cfg.EmptyRoomGrace <= 0 {
			c.deleteRoom(roomID)
		} else {
			rm.emptyAt = time.Now()
			rm.publish()
		}
		unlock()
		c.logger.Info("participant left, room empty",
			slog.String("roomId", roomID),
			slog.String("connectionId", connectionID))
		return
	}

	// Deterministic hand-off: first remaining participant in join order.
	var newHost *Participant
	if wasHost {
		newHost = rm.participants[0]
		newHost.IsHost = true
	}
	rm.publish()

	type outbound struct {
		peer  *registry.Connection
		event protocol.Event
	}
	var sends []outbound

	leftEvent := protocol.NewEvent(protocol.EventUserLeft, UserLeftPayload{ParticipantID: connectionID})
	for _, p := range rm.participants {
		peer, ok := c.registry.Get(p.ID)
		if !ok {
			continue
		}
		sends = append(sends, outbound{peer, leftEvent})
		if newHost == nil {
			continue
		}
		if p.ID == newHost.ID {
			sends = append(sends, outbound{peer, protocol.NewEvent(protocol.EventHostTransferred, HostTransferredPayload{IsHost: true})})
		} else {
			sends = append(sends, outbound{peer, protocol.NewEvent(protocol.EventHostChanged, HostChangedPayload{NewHostID: newHost.ID})})
		}
	}

	unlock()

	if newHost != nil {
		c.logger.Info("host transferred",
			slog.String("roomId", roomID),
			slog.String("newHostId", newHost.ID))
	}

	executils.Fanout(sends, fanoutThreshold, func(o outbound) {
		_ = o.peer.Send(o.event)
	})
}

// Relay forwards a negotiation message (offer, answer, ice-candidate) to
// one specific member of roomID, tagged with the sender's id. The payload
// is opaque. Stale or unauthorized messages are dropped without surfacing
// anything to the sender: late candidates for gone peers are normal churn,
// not errors.
func (c *Coordinator) Relay(fromID, targetID protocol.ConnectionID, kind string, payload json.RawMessage, roomID protocol.RoomID) {
	conn, exist := c.registry.Get(fromID)
	if !exist || roomID == "" || conn.RoomID() != roomID {
		c.logger.Debug("relay dropped: sender not in room",
			slog.String("fromId", fromID),
			slog.String("roomId", roomID))
		return
	}

	unlock := c.locks.Lock(roomID)
	var target *registry.Connection
	if rm := c.getRoom(roomID); rm != nil && rm.member(targetID) != nil {
		rm.touch()
		if peer, ok := c.registry.Get(targetID); ok {
			target = peer
		}
	}
	unlock()

	if target == nil {
		c.logger.Debug("relay dropped: target not in room",
			slog.String("targetId", targetID),
			slog.String("roomId", roomID))
		return
	}

	_ = target.Send(protocol.NewEvent(kind, SignalPayload{From: fromID, Payload: payload}))
}

// Chat trims, validates and broadcasts a chat message to every other member
// of the sender's room, retaining the bounded history tail. The sender does
// not get an echo; it already has local optimistic state. Empty-after-trim
// text is dropped silently, oversized text is a validation error.
func (c *Coordinator) Chat(fromID protocol.ConnectionID, text string) (*ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	// The cap is 1000 characters, not bytes; multibyte text counts per rune.
	if utf8.RuneCountInString(text) > c.cfg.ChatMaxLength {
		return nil, ErrChatTooLong
	}

	conn, exist := c.registry.Get(fromID)
	if !exist || conn.RoomID() == "" {
		return nil, nil
	}
	roomID := conn.RoomID()

	unlock := c.locks.Lock(roomID)
	rm := c.getRoom(roomID)
	if rm == nil || rm.member(fromID) == nil {
		unlock()
		return nil, nil
	}

	msg := ChatMessage{
		ID:     uuid.NewString(),
		Text:   text,
		From:   fromID,
		SentAt: time.Now(),
	}
	rm.chat = append(rm.chat, msg)
	if c.cfg.ChatHistory > 0 && len(rm.chat) > c.cfg.ChatHistory {
		rm.chat = rm.chat[len(rm.chat)-c.cfg.ChatHistory:]
	}
	rm.touch()
	rm.publish()
	peers := c.peersExcept(rm, fromID)
	unlock()

	event := protocol.NewEvent(protocol.EventChatMessage, msg)
	executils.Fanout(peers, fanoutThreshold, func(peer *registry.Connection) {
		_ = peer.Send(event)
	})

	return &msg, nil
}

// UpdateMediaState records the sender's self-reported media state and
// notifies the rest of the room. Non-members are dropped silently.
func (c *Coordinator) UpdateMediaState(fromID protocol.ConnectionID, state MediaState) {
	c.updateMedia(fromID, protocol.EventParticipantMedia, func(p *Participant) any {
		p.Media = state
		return ParticipantMediaPayload{ParticipantID: fromID, Media: state}
	})
}

// ScreenShare flags the sender's screen-share state and notifies the room.
func (c *Coordinator) ScreenShare(fromID protocol.ConnectionID, active bool) {
	kind := protocol.EventScreenShareStarted
	if !active {
		kind = protocol.EventScreenShareStopped
	}
	c.updateMedia(fromID, kind, func(p *Participant) any {
		p.Media.Screen = active
		return ScreenSharePayload{ParticipantID: fromID}
	})
}

func (c *Coordinator) updateMedia(fromID protocol.ConnectionID, kind string, mutate func(*Participant) any) {
	conn, exist := c.registry.Get(fromID)
	if !exist || conn.RoomID() == "" {
		return
	}
	roomID := conn.RoomID()

	unlock := c.locks.Lock(roomID)
	rm := c.getRoom(roomID)
	if rm == nil {
		unlock()
		return
	}
	participant := rm.member(fromID)
	if participant == nil {
		unlock()
		return
	}
	payload := mutate(participant)
	rm.touch()
	rm.publish()
	peers := c.peersExcept(rm, fromID)
	unlock()

	event := protocol.NewEvent(kind, payload)
	executils.Fanout(peers, fanoutThreshold, func(peer *registry.Connection) {
		_ = peer.Send(event)
	})
}

// ListRooms returns eventually-consistent statuses for every room, sorted
// by id. Reads published snapshots only; no room lock is taken.
func (c *Coordinator) ListRooms() []Status {
	c.mu.Lock()
	rooms := make([]*room, 0, len(c.rooms))
	for _, rm := range c.rooms {
		rooms = append(rooms, rm)
	}
	c.mu.Unlock()

	result := make([]Status, 0, len(rooms))
	for _, rm := range rooms {
		result = append(result, rm.status())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (c *Coordinator) RoomStatus(roomID protocol.RoomID) (Status, bool) {
	rm := c.getRoom(roomID)
	if rm == nil {
		return Status{}, false
	}
	return rm.status(), true
}

func (c *Coordinator) RoomSnapshot(roomID protocol.RoomID) (*Snapshot, bool) {
	rm := c.getRoom(roomID)
	if rm == nil {
		return nil, false
	}
	return rm.snapshot(), true
}

func (c *Coordinator) RoomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// Sweep force-deletes rooms idle past the threshold and empty rooms whose
// grace window elapsed. A failure on one room never aborts the rest.
func (c *Coordinator) Sweep(now time.Time) {
	c.mu.Lock()
	ids := make([]protocol.RoomID, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(sweepParallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("room sweep failed",
						slog.String("roomId", id),
						slog.Any("panic", r))
				}
			}()
			c.sweepRoom(id, now)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) sweepRoom(roomID protocol.RoomID, now time.Time) {
	unlock := c.locks.Lock(roomID)
	defer unlock()

	rm := c.getRoom(roomID)
	if rm == nil {
		return
	}

	idle := c.cfg.IdleThreshold > 0 && now.Sub(rm.lastActive()) > c.cfg.IdleThreshold
	graceExpired := !rm.emptyAt.IsZero() && now.Sub(rm.emptyAt) >= c.cfg.EmptyRoomGrace
	if !idle && !graceExpired {
		return
	}

	for _, p := range rm.participants {
		_ = c.registry.SetRoom(p.ID, "")
	}
	c.deleteRoom(roomID)
	c.logger.Warn("room reaped",
		slog.String("roomId", roomID),
		slog.Int("participants", len(rm.participants)),
		slog.Bool("idle", idle))
}

func (c *Coordinator) peersExcept(rm *room, exceptID protocol.ConnectionID) []*registry.Connection {
	peers := make([]*registry.Connection, 0, len(rm.participants))
	for _, p := range rm.participants {
		if p.ID == exceptID {
			continue
		}
		if peer, ok := c.registry.Get(p.ID); ok {
			peers = append(peers, peer)
		}
	}
	return peers
}

func (c *Coordinator) getOrCreateRoom(roomID protocol.RoomID) *room {
	c.mu.Lock()
	defer c.mu.Unlock()
	rm, exist := c.rooms[roomID]
	if !exist {
		rm = newRoom(roomID)
		c.rooms[roomID] = rm
		c.logger.Info("room created", slog.String("roomId", roomID))
	}
	return rm
}

func (c *Coordinator) getRoom(roomID protocol.RoomID) *room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[roomID]
}

func (c *Coordinator) deleteRoom(roomID protocol.RoomID) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
	c.logger.Info("room deleted", slog.String("roomId", roomID))
}
