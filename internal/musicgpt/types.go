package musicgpt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerationRequest is the correlation pair submitted once per unit. Both
// identifiers are generated fresh and never reused.
type GenerationRequest struct {
	ID      string
	ChatID  string
	Prompt  string
	Seconds int
}

// NewGenerationRequest builds a request with fresh correlation identifiers.
func NewGenerationRequest(prompt string, seconds int) GenerationRequest {
	return GenerationRequest{
		ID:      uuid.NewString(),
		ChatID:  uuid.NewString(),
		Prompt:  prompt,
		Seconds: seconds,
	}
}

type generateAudioNewChat struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
	Prompt string `json:"prompt"`
	Secs   int    `json:"secs"`
}

type clientMessage struct {
	GenerateAudioNewChat *generateAudioNewChat `json:"GenerateAudioNewChat,omitempty"`
}

func encodeRequest(req GenerationRequest) clientMessage {
	return clientMessage{GenerateAudioNewChat: &generateAudioNewChat{
		ID:     req.ID,
		ChatID: req.ChatID,
		Prompt: req.Prompt,
		Secs:   req.Seconds,
	}}
}

// EventType tags the variants the backend multiplexes onto the stream.
type EventType string

const (
	EventInfo     EventType = "info"
	EventStarted  EventType = "started"
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
	EventChats    EventType = "chats"
	EventUnknown  EventType = "unknown"
)

// Event is the decoded form of a server message.
type Event struct {
	Type EventType
	// Progress fraction in 0..1, only for EventProgress.
	Progress float64
	// RelPath names the produced artifact, only for EventResult.
	RelPath string
	// Message carries Info text or an Error description.
	Message string
}

type progressPayload struct {
	Progress float64 `json:"progress"`
}

type resultPayload struct {
	RelPath string `json:"relpath"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type generationMessage struct {
	Start    json.RawMessage  `json:"Start,omitempty"`
	Progress *progressPayload `json:"Progress,omitempty"`
	Result   *resultPayload   `json:"Result,omitempty"`
	Error    *errorPayload    `json:"Error,omitempty"`
}

type serverMessage struct {
	Info       json.RawMessage    `json:"Info,omitempty"`
	Chats      json.RawMessage    `json:"Chats,omitempty"`
	Error      json.RawMessage    `json:"Error,omitempty"`
	Generation *generationMessage `json:"Generation,omitempty"`
}

// DecodeEvent turns a raw server message into an Event. Unrecognized
// payloads decode to EventUnknown so the session loop can skip them.
func DecodeEvent(data []byte) (Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("decode server message: %w", err)
	}

	switch {
	case msg.Generation != nil:
		gen := msg.Generation
		switch {
		case gen.Error != nil:
			return Event{Type: EventError, Message: strings.TrimSpace(gen.Error.Error)}, nil
		case gen.Result != nil:
			return Event{Type: EventResult, RelPath: strings.TrimSpace(gen.Result.RelPath)}, nil
		case gen.Progress != nil:
			return Event{Type: EventProgress, Progress: gen.Progress.Progress}, nil
		case gen.Start != nil:
			return Event{Type: EventStarted}, nil
		}
		return Event{Type: EventUnknown}, nil
	case msg.Error != nil:
		return Event{Type: EventError, Message: rawToString(msg.Error)}, nil
	case msg.Info != nil:
		return Event{Type: EventInfo, Message: rawToString(msg.Info)}, nil
	case msg.Chats != nil:
		return Event{Type: EventChats}, nil
	}
	return Event{Type: EventUnknown}, nil
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
