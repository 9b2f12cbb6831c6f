package ws

import (
	"code-lab/domain/event"
	"code-lab/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound control events.
const (
	JoinEvent             = "join"
	LeaveEvent            = "leave"
	LanguageChangeEvent   = "language-change"
	ExecutionStartedEvent = "execution-started"
	BroadcastResultsEvent = "broadcast-results"
	ClearWorkspaceEvent   = "clear-workspace"

	// ErrorEvent is outbound only, it answers a frame the server refused.
	ErrorEvent = "error"
)

// Frame is the envelope of every control message, in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	RoomID   string `json:"roomId" validate:"required,max=128"`
	Username string `json:"username" validate:"max=64"`
}

type RoomPayload struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
}

type LanguageChangePayload struct {
	RoomID      string `json:"roomId" validate:"required,max=128"`
	NewLanguage string `json:"newLanguage" validate:"required"`
}

type BroadcastResultsPayload struct {
	RoomID     string `json:"roomId" validate:"required,max=128"`
	Output     string `json:"output"`
	AIAnalysis string `json:"aiAnalysis"`
}

type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// EncodeEvent wraps a domain event in a frame named after its kind.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: string(e.Kind()), Data: data})
}

func encodeError(name string, cause error) ([]byte, error) {
	data, err := json.Marshal(ErrorPayload{Event: name, Message: cause.Error()})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: ErrorEvent, Data: data})
}

// decodePayload unmarshals the frame data into dst and validates it.
func decodePayload(validate *validator.Validate, f Frame, dst any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: %s without data", errors.ErrInvalidRequest, f.Event)
	}
	if err := json.Unmarshal(f.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}
