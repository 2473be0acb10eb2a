package messages

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 64 * 1024
)

// Message types
const (
	MessageTypeUpdate    = "update"
	MessageTypeGameFound = "game_found"
	MessageTypeGameEnd   = "game_end"
	MessageTypeInputs    = "inputs"
)

// Message is the envelope every record travels in. Room is -1 when the
// message is not about a room.
type Message struct {
	Type    string `json:"type"`
	Room    int    `json:"room"`
	Payload []byte `json:"payload"`
}
