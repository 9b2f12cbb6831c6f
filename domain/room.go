// Package domain contains the core concepts of the collaboration server:
// rooms, participants, languages and the execution request/result pair.
// No runtime, network, or process logic should be added here.
package domain

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

type RoomID string

// Room is an isolated collaboration session. It is created on first join and
// discarded when its last holder goes away, nothing about it is persisted.
type Room struct {
	ID       RoomID
	Language Language
	members  map[ConnectionID]Participant
}

func NewRoom(id RoomID) *Room {
	return &Room{
		ID:       id,
		Language: DefaultLanguage,
		members:  make(map[ConnectionID]Participant),
	}
}

// Add registers the participant and reports whether it was not already a member.
func (r *Room) Add(p Participant) bool {
	if _, ok := r.members[p.ConnectionID]; ok {
		return false
	}
	r.members[p.ConnectionID] = p
	return true
}

// Remove drops the participant and reports whether it was a member.
func (r *Room) Remove(id ConnectionID) (Participant, bool) {
	p, ok := r.members[id]
	if !ok {
		return Participant{}, false
	}
	delete(r.members, id)
	return p, true
}

func (r *Room) Has(id ConnectionID) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) Empty() bool {
	return len(r.members) == 0
}

func (r *Room) Size() int {
	return len(r.members)
}

// Members returns a snapshot of the participants ordered by connection,
// safe to use after the room changes.
func (r *Room) Members() []Participant {
	members := lo.Values(r.members)
	slices.SortFunc(members, func(a, b Participant) int {
		return cmp.Compare(a.ConnectionID, b.ConnectionID)
	})
	return members
}
