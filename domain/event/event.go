// Package event defines the room-scoped notifications exchanged on the control channel.
package event

import "code-lab/domain"

type Kind string

const (
	UserJoinedKind       Kind = "user-joined"
	UserLeftKind         Kind = "user-left"
	RoomStateKind        Kind = "room-state"
	LanguageChangedKind  Kind = "language-changed"
	ExecutionStartedKind Kind = "execution-started"
	ExecutionResultsKind Kind = "execution-results"
	WorkspaceClearedKind Kind = "workspace-cleared"
)

// DomainEvent is published to every member of Room except Origin.
// An empty Origin means the server itself published it.
type DomainEvent interface {
	Kind() Kind
	RoomID() domain.RoomID
	Origin() domain.ConnectionID
}

// Envelope carries the routing part shared by every event, it never goes on the wire.
type Envelope struct {
	Room   domain.RoomID       `json:"-"`
	Sender domain.ConnectionID `json:"-"`
}

func (e Envelope) RoomID() domain.RoomID       { return e.Room }
func (e Envelope) Origin() domain.ConnectionID { return e.Sender }

type UserJoined struct {
	Envelope
	Username     string              `json:"username"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
}

func (UserJoined) Kind() Kind { return UserJoinedKind }

type UserLeft struct {
	Envelope
	Username     string              `json:"username"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
}

func (UserLeft) Kind() Kind { return UserLeftKind }

type LanguageChanged struct {
	Envelope
	NewLanguage domain.Language `json:"newLanguage"`
}

func (LanguageChanged) Kind() Kind { return LanguageChangedKind }

type ExecutionStarted struct {
	Envelope
}

func (ExecutionStarted) Kind() Kind { return ExecutionStartedKind }

type ExecutionResults struct {
	Envelope
	Output     string `json:"output"`
	AIAnalysis string `json:"aiAnalysis"`
}

func (ExecutionResults) Kind() Kind { return ExecutionResultsKind }

type WorkspaceCleared struct {
	Envelope
}

func (WorkspaceCleared) Kind() Kind { return WorkspaceClearedKind }

// RoomState is sent only to a connection that just joined.
type RoomState struct {
	Envelope
	ID           domain.RoomID       `json:"roomId"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
	Language     domain.Language     `json:"language"`
	Participants []ParticipantView   `json:"participants"`
}

func (RoomState) Kind() Kind { return RoomStateKind }

type ParticipantView struct {
	Username     string              `json:"username"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
}
