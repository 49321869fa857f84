package room

import (
	"time"

	"go.uber.org/atomic"

	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
)

const (
	roomIDMinLen = 3
	roomIDMaxLen = 50

	participantNameMaxLen    = 64
	participantContactMaxLen = 128
)

// MediaState is the participant's last self-reported media state. Advisory
// only; the relay never verifies it against actual media.
type MediaState struct {
	Audio  bool `json:"audio"`
	Video  bool `json:"video"`
	Screen bool `json:"screen"`
}

// ParticipantInfo is the client-supplied display metadata sent with a join.
type ParticipantInfo struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

type Participant struct {
	ID       protocol.ConnectionID `json:"id"`
	Name     string                `json:"name"`
	Contact  string                `json:"contact,omitempty"`
	JoinedAt time.Time             `json:"joinedAt"`
	IsHost   bool                  `json:"isHost"`
	Media    MediaState            `json:"media"`
}

type ChatMessage struct {
	ID     string                `json:"id"`
	Text   string                `json:"text"`
	From   protocol.ConnectionID `json:"fromId"`
	SentAt time.Time             `json:"sentAt"`
}

// Snapshot is an immutable copy of a room's observable state. A fresh one
// is published after every membership mutation so read-only queries never
// touch the room lock.
type Snapshot struct {
	ID           protocol.RoomID       `json:"id"`
	HostID       protocol.ConnectionID `json:"hostId"`
	CreatedAt    time.Time             `json:"createdAt"`
	Participants []Participant         `json:"participants"`
	Chat         []ChatMessage         `json:"chat,omitempty"`
}

// Status is the reduced form served by the diagnostics endpoints.
type Status struct {
	ID           protocol.RoomID       `json:"id"`
	Participants int                   `json:"participants"`
	HostID       protocol.ConnectionID `json:"hostId"`
	CreatedAt    time.Time             `json:"createdAt"`
}

type room struct {
	id        protocol.RoomID
	createdAt time.Time

	lastActivity atomic.Int64 // unix nano
	info         atomic.Value // *Snapshot

	// Mutable only while holding the coordinator's per-room lock.
	participants []*Participant
	chat         []ChatMessage
	emptyAt      time.Time // zero while occupied
}

func newRoom(id protocol.RoomID) *room {
	now := time.Now()
	r := &room{
		id:        id,
		createdAt: now,
	}
	r.lastActivity.Store(now.UnixNano())
	r.publish()
	return r
}

func (r *room) touch() {
	r.lastActivity.Store(time.Now().UnixNano())
}

func (r *room) lastActive() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

func (r *room) hostID() protocol.ConnectionID {
	for _, p := range r.participants {
		if p.IsHost {
			return p.ID
		}
	}
	return ""
}

func (r *room) member(id protocol.ConnectionID) *Participant {
	for _, p := range r.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// publish swaps in a fresh snapshot. Call after every mutation, while the
// per-room lock is still held.
func (r *room) publish() {
	snap := &Snapshot{
		ID:           r.id,
		HostID:       r.hostID(),
		CreatedAt:    r.createdAt,
		Participants: make([]Participant, 0, len(r.participants)),
		Chat:         append([]ChatMessage(nil), r.chat...),
	}
	for _, p := range r.participants {
		snap.Participants = append(snap.Participants, *p)
	}
	r.info.Store(snap)
}

func (r *room) snapshot() *Snapshot {
	return r.info.Load().(*Snapshot)
}

func (r *room) status() Status {
	snap := r.snapshot()
	return Status{
		ID:           snap.ID,
		Participants: len(snap.Participants),
		HostID:       snap.HostID,
		CreatedAt:    snap.CreatedAt,
	}
}

// ValidRoomID reports whether id satisfies the boundary contract:
// 3-50 characters, letters, digits, hyphen and underscore only.
func ValidRoomID(id string) bool {
	if len(id) < roomIDMinLen || len(id) > roomIDMaxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
