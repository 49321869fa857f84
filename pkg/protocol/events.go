package protocol

import "encoding/json"

type (
	ConnectionID = string
	RoomID       = string
)

// Client-to-server event kinds.
const (
	EventJoinRoom         = "join-room"
	EventLeaveRoom        = "leave-room"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
	EventChatMessage      = "chat-message"
	EventMediaStateUpdate = "media-state-update"
	EventScreenShareStart = "screen-share-start"
	EventScreenShareStop  = "screen-share-stop"
)

// Server-to-client event kinds. Offer, answer and ice-candidate keep the
// inbound names since the relay forwards them with sender attribution only.
const (
	EventConnected          = "connected"
	EventJoinedRoom         = "joined-room"
	EventJoinError          = "join-error"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventHostTransferred    = "host-transferred"
	EventHostChanged        = "host-changed"
	EventParticipantMedia   = "participant-media-update"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareStopped = "screen-share-stopped"
	EventError              = "error"
)

// Event is the envelope for every websocket message, both directions.
// Data holds the kind-specific payload.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEvent(kind string, payload any) Event {
	if payload == nil {
		return Event{Event: kind}
	}
	data, _ := json.Marshal(payload)
	return Event{Event: kind, Data: data}
}
