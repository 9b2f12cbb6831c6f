package domain

import "strings"

// ConnectionID identifies one control-channel connection.
type ConnectionID string

const AnonymousName = "Anonymous"

// Participant is a connection attached to at most one room at a time.
// Display names are not unique.
type Participant struct {
	ConnectionID ConnectionID
	Username     string
}

func NewParticipant(id ConnectionID, username string) Participant {
	name := strings.TrimSpace(username)
	if name == "" {
		name = AnonymousName
	}
	return Participant{ConnectionID: id, Username: name}
}
