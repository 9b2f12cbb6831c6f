package runtime

import (
	"code-lab/contract"
	"code-lab/docsync"
	"code-lab/domain"
	"code-lab/errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// DocumentFactory builds the shared document of a room on first attach.
type DocumentFactory func(room domain.RoomID) *docsync.Document

type roomEntry struct {
	room        *domain.Room
	doc         *docsync.Document
	attachments int
}

func (e *roomEntry) idle() bool {
	return e.room.Empty() && e.attachments == 0
}

// Registry owns the room lifecycle. A room exists while it has a control
// member or a sync attachment, its document is released with it.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sessions    map[domain.ConnectionID]contract.EventSink // map connection -> Sink
	memberships map[domain.ConnectionID]domain.RoomID      // map connection to its room
	rooms       map[domain.RoomID]*roomEntry
	newDocument DocumentFactory
}

func NewRegistry(log *slog.Logger, newDocument DocumentFactory) *Registry {
	return &Registry{
		log:         log,
		sessions:    make(map[domain.ConnectionID]contract.EventSink),
		memberships: make(map[domain.ConnectionID]domain.RoomID),
		rooms:       make(map[domain.RoomID]*roomEntry),
		newDocument: newDocument,
	}
}

// Connect registers the delivery end of a control connection.
func (r *Registry) Connect(conn domain.ConnectionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn] = sink
}

// Membership is one participant in one room.
type Membership struct {
	Room        domain.RoomID
	Participant domain.Participant
}

// Disconnect drops the sink and leaves the room the connection was in.
func (r *Registry) Disconnect(conn domain.ConnectionID) (Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conn)

	roomID, ok := r.memberships[conn]
	if !ok {
		return Membership{}, false
	}
	p, ok := r.leave(roomID, conn)
	return Membership{Room: roomID, Participant: p}, ok
}

// JoinResult is the room as seen by the participant who joined it.
// Previous is set when joining moved the participant out of another room.
type JoinResult struct {
	Joined   bool
	Language domain.Language
	Members  []domain.Participant
	Previous *Membership
}

// Join adds a participant, creating the room if absent. Joining twice is a
// no-op. A participant is in at most one room, joining another one leaves
// the current one first.
func (r *Registry) Join(roomID domain.RoomID, p domain.Participant) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var previous *Membership
	if current, ok := r.memberships[p.ConnectionID]; ok && current != roomID {
		if old, left := r.leave(current, p.ConnectionID); left {
			previous = &Membership{Room: current, Participant: old}
		}
	}

	entry := r.entry(roomID)
	joined := entry.room.Add(p)
	if joined {
		r.memberships[p.ConnectionID] = roomID
		r.log.Debug("Participant joined", "room_id", roomID, "connection_id", p.ConnectionID, "members", entry.room.Size())
	}
	return JoinResult{Joined: joined, Language: entry.room.Language, Members: entry.room.Members(), Previous: previous}
}

// Leave removes a participant. Leaving a room one is not in is a no-op.
func (r *Registry) Leave(roomID domain.RoomID, conn domain.ConnectionID) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(roomID, conn)
}

func (r *Registry) leave(roomID domain.RoomID, conn domain.ConnectionID) (domain.Participant, bool) {
	entry, ok := r.rooms[roomID]
	if !ok {
		return domain.Participant{}, false
	}
	p, ok := entry.room.Remove(conn)
	if ok {
		delete(r.memberships, conn)
		r.log.Debug("Participant left", "room_id", roomID, "connection_id", conn, "members", entry.room.Size())
	}
	r.releaseIfIdle(roomID, entry)
	return p, ok
}

// RoomOf returns the room conn is currently in.
func (r *Registry) RoomOf(conn domain.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.memberships[conn]
	return roomID, ok
}

// IsMember reports whether conn has joined roomID.
func (r *Registry) IsMember(roomID domain.RoomID, conn domain.ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.rooms[roomID]
	return ok && entry.room.Has(conn)
}

// SinksFor resolves the sinks of every member of the room except one.
func (r *Registry) SinksFor(roomID domain.RoomID, except domain.ConnectionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for _, p := range entry.room.Members() {
		if p.ConnectionID == except {
			continue
		}
		if sink, exists := r.sessions[p.ConnectionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// SetLanguage records the room language so that late joiners see it.
func (r *Registry) SetLanguage(roomID domain.RoomID, lang domain.Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotInRoom, roomID)
	}
	entry.room.Language = lang
	return nil
}

func (r *Registry) Language(roomID domain.RoomID) domain.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.rooms[roomID]; ok {
		return entry.room.Language
	}
	return domain.DefaultLanguage
}

// Attach returns the room's shared document, creating room and document on
// first attach. The release func must be called once the sync connection ends.
func (r *Registry) Attach(roomID domain.RoomID) (*docsync.Document, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entry(roomID)
	if entry.doc == nil {
		entry.doc = r.newDocument(roomID)
		r.log.Debug("Document created", "room_id", roomID)
	}
	entry.attachments++
	doc := entry.doc

	var once sync.Once
	return doc, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			current, ok := r.rooms[roomID]
			if !ok || current != entry {
				return
			}
			entry.attachments--
			r.releaseIfIdle(roomID, entry)
		})
	}
}

func (r *Registry) entry(roomID domain.RoomID) *roomEntry {
	entry, ok := r.rooms[roomID]
	if !ok {
		entry = &roomEntry{room: domain.NewRoom(roomID)}
		r.rooms[roomID] = entry
		r.log.Debug("Room created", "room_id", roomID)
	}
	return entry
}

func (r *Registry) releaseIfIdle(roomID domain.RoomID, entry *roomEntry) {
	if !entry.idle() {
		return
	}
	delete(r.rooms, roomID)
	if entry.doc != nil {
		if err := entry.doc.Release(); err != nil {
			r.log.Error("Document release failed", "room_id", roomID, "error", err)
		}
	}
	r.log.Debug("Room released", "room_id", roomID)
}

type Stats struct {
	Rooms        int `json:"rooms"`
	Participants int `json:"participants"`
	Connections  int `json:"connections"`
	Documents    int `json:"documents"`
	SyncClients  int `json:"syncClients"`
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := lo.Values(r.rooms)
	return Stats{
		Rooms: len(entries),
		Participants: lo.SumBy(entries, func(e *roomEntry) int {
			return e.room.Size()
		}),
		Connections: len(r.sessions),
		Documents: lo.CountBy(entries, func(e *roomEntry) bool {
			return e.doc != nil
		}),
		SyncClients: lo.SumBy(entries, func(e *roomEntry) int {
			return e.attachments
		}),
	}
}
