package room

// Error is a validation or policy rejection with a stable machine-readable
// code. The UI layer owns translating codes into user-facing text.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

var (
	ErrBadRoomID = &Error{
		Code:    "bad_room_id",
		Message: "room id must be 3-50 characters of letters, digits, hyphen or underscore",
	}
	ErrBadParticipant = &Error{
		Code:    "bad_participant",
		Message: "participant name must be 1-64 characters",
	}
	ErrRoomFull = &Error{
		Code:    "room_full",
		Message: "room is at capacity",
	}
	ErrAlreadyInRoom = &Error{
		Code:    "already_in_room",
		Message: "connection is already a member of this room",
	}
	ErrUnknownConnection = &Error{
		Code:    "unknown_connection",
		Message: "connection is not registered",
	}
	ErrChatTooLong = &Error{
		Code:    "bad_chat_message",
		Message: "chat message exceeds the length limit",
	}
)
