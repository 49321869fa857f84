package signaling

import (
	"encoding/json"

	"github.com/Emmyhack/Codar-Meeting-App/internal/room"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
)

// Per-event payload schemas, validated here before anything reaches the
// coordinator.
//
// Drop-vs-error policy: client-initiated state changes (join, chat, media)
// get explicit error events back; malformed or stale negotiation traffic
// (offer/answer/ice-candidate) is dropped silently, since late signals for
// gone peers are routine churn.

type joinRoomPayload struct {
	RoomID      protocol.RoomID      `json:"roomId"`
	Participant room.ParticipantInfo `json:"participantInfo"`
}

type signalPayload struct {
	TargetID protocol.ConnectionID `json:"targetId"`
	Payload  json.RawMessage       `json:"payload"`
}

func (p signalPayload) valid() bool {
	return p.TargetID != "" && len(p.Payload) > 0
}

type chatPayload struct {
	Text string `json:"text"`
}

type mediaStatePayload struct {
	State room.MediaState `json:"state"`
}

type connectedPayload struct {
	ConnectionID protocol.ConnectionID `json:"connectionId"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
