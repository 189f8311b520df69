package session

import (
	"encoding/json"

	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/input"
)

type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Renderer -> session
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeWheel       = "wheel"
	TypeKey         = "key"
	TypeCommand     = "command"

	// Session -> renderer
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeSaved   = "saved"
	TypeError   = "error"
)

type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Space bool `json:"space,omitempty"`
}

// PointerPayload is a pointer event in screen pixels.
type PointerPayload struct {
	Target    input.TargetRef `json:"target"`
	Modifiers Modifiers       `json:"modifiers"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
}

type WheelPayload struct {
	DeltaY float64 `json:"deltaY"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type KeyPayload struct {
	Key  string `json:"key"`
	Down bool   `json:"down"`
}

type CommandPayload struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

// StatePayload carries the topics that changed since the last state message
// and the full render snapshot.
type StatePayload struct {
	Dirty    []string        `json:"dirty"`
	Snapshot canvas.Snapshot `json:"snapshot"`
}

type SavedPayload struct {
	Version   int   `json:"version"`
	NewFrames []int `json:"newFrames"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, seq int64, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Seq: seq, Payload: data}, nil
}
