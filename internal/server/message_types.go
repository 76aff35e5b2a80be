package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeReset  MessageType = "reset"
	MessageTypeDraw   MessageType = "draw"
	MessageTypePlay   MessageType = "play"
	MessageTypeUndo   MessageType = "undo"
	MessageTypeEnd    MessageType = "end"
	MessageTypeHint   MessageType = "hint"
	MessageTypePause  MessageType = "pause"
	MessageTypeResume MessageType = "resume"
	MessageTypeState  MessageType = "state"

	// Server to client messages
	MessageTypeWelcome  MessageType = "welcome"
	MessageTypeScore    MessageType = "score"
	MessageTypeGameOver MessageType = "game_over"
	MessageTypeError    MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in ErrorData.Code
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownType    = "unknown_message_type"
	ErrCodeInvalidLane    = "invalid_lane"
	ErrCodeNoActiveCard   = "no_active_card"
	ErrCodeCardActive     = "card_active"
	ErrCodeGameOver       = "game_over"
	ErrCodeNothingToUndo  = "nothing_to_undo"
	ErrCodeDeckEmpty      = "deck_empty"
)
