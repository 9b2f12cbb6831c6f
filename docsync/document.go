// Package docsync relays Yjs sync and awareness frames between the editors
// of one room. It never merges: updates are stored in arrival order,
// relayed to the other connections and replayed to late joiners, the
// clients' sync engine doing the merge.
package docsync

import (
	"code-lab/domain"
	"code-lab/errors"
	"code-lab/repositories"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// MaxUpdateSize bounds one update delta. MaxFrameSize adds room for the
// message header, it is the read limit of a sync connection.
const (
	MaxUpdateSize = repositories.MaxUpdateSize
	MaxFrameSize  = MaxUpdateSize + 16
)

type awarenessEntry struct {
	owner domain.ConnectionID
	AwarenessState
}

// Document is the shared buffer of one room.
type Document struct {
	Room domain.RoomID

	log  *slog.Logger
	repo repositories.IUpdateRepository

	mu        sync.Mutex
	subs      map[domain.ConnectionID]*Subscription
	awareness map[uint64]awarenessEntry
	updates   int
	released  bool
}

func NewDocument(log *slog.Logger, room domain.RoomID, repo repositories.IUpdateRepository) *Document {
	return &Document{
		Room:      room,
		log:       log,
		repo:      repo,
		subs:      make(map[domain.ConnectionID]*Subscription),
		awareness: make(map[uint64]awarenessEntry),
	}
}

// Subscribe attaches a connection. The new subscription starts with the
// server's sync step 1 and the presence of everybody already here.
func (d *Document) Subscribe(conn domain.ConnectionID) (*Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, fmt.Errorf("document %s already released", d.Room)
	}
	if old, ok := d.subs[conn]; ok {
		old.Close()
	}
	sub := newSubscription(conn)
	sub.push(EncodeSync(SyncStep1, emptyStateVector))
	if len(d.awareness) > 0 {
		sub.push(EncodeAwareness(EncodeAwarenessUpdate(d.awarenessStates())))
	}
	d.subs[conn] = sub
	return sub, nil
}

// Unsubscribe detaches a connection and tells the others its editor
// clients are gone.
func (d *Document) Unsubscribe(conn domain.ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sub, ok := d.subs[conn]
	if !ok {
		return
	}
	sub.Close()
	delete(d.subs, conn)

	var removed []AwarenessState
	for id, e := range d.awareness {
		if e.owner != conn {
			continue
		}
		delete(d.awareness, id)
		removed = append(removed, AwarenessState{ClientID: id, Clock: e.Clock + 1, State: removedState})
	}
	if len(removed) > 0 {
		d.broadcast(conn, EncodeAwareness(EncodeAwarenessUpdate(removed)))
	}
}

// Receive handles one inbound frame from conn. Malformed frames are
// rejected and never relayed.
func (d *Document) Receive(from domain.ConnectionID, frame []byte) error {
	m, err := Decode(frame)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch m.Type {
	case MessageSync:
		switch m.Sync {
		case SyncStep1:
			return d.replay(from)
		default:
			return d.apply(from, m.Payload, frame)
		}
	case MessageAwareness:
		states, err := DecodeAwareness(m.Payload)
		if err != nil {
			return err
		}
		for _, s := range states {
			d.observe(from, s)
		}
		d.broadcast(from, frame)
	case MessageQueryAwareness:
		if sub, ok := d.subs[from]; ok {
			sub.push(EncodeAwareness(EncodeAwarenessUpdate(d.awarenessStates())))
		}
	}
	return nil
}

// Apply accepts one update delta from conn and relays it to the others.
func (d *Document) Apply(from domain.ConnectionID, update []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.apply(from, update, EncodeSync(SyncUpdate, update))
}

func (d *Document) apply(from domain.ConnectionID, update, frame []byte) error {
	if d.released {
		return nil
	}
	if len(update) > MaxUpdateSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", errors.ErrUpdateTooLarge, len(update), MaxUpdateSize)
	}
	if err := d.repo.Append(d.Room, slices.Clone(update)); err != nil {
		return err
	}
	d.updates++
	d.broadcast(from, frame)
	return nil
}

// replay answers a sync step 1 with the whole accepted log as step 2
// frames. An empty log still answers, the peer waits for it to report synced.
func (d *Document) replay(to domain.ConnectionID) error {
	sub, ok := d.subs[to]
	if !ok {
		return nil
	}
	updates, err := d.repo.Updates(d.Room)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		sub.push(EncodeSync(SyncStep2, emptyUpdate))
		return nil
	}
	for _, u := range updates {
		sub.push(EncodeSync(SyncStep2, u))
	}
	return nil
}

func (d *Document) observe(from domain.ConnectionID, s AwarenessState) {
	current, known := d.awareness[s.ClientID]
	if known && s.Clock < current.Clock {
		return
	}
	if s.Removed() {
		delete(d.awareness, s.ClientID)
		return
	}
	d.awareness[s.ClientID] = awarenessEntry{owner: from, AwarenessState: s}
}

func (d *Document) awarenessStates() []AwarenessState {
	states := lo.MapToSlice(d.awareness, func(_ uint64, e awarenessEntry) AwarenessState {
		return e.AwarenessState
	})
	slices.SortFunc(states, func(a, b AwarenessState) int {
		switch {
		case a.ClientID < b.ClientID:
			return -1
		case a.ClientID > b.ClientID:
			return 1
		}
		return 0
	})
	return states
}

func (d *Document) broadcast(from domain.ConnectionID, frame []byte) {
	for id, sub := range d.subs {
		if id == from {
			continue
		}
		sub.push(frame)
	}
}

// Release closes every subscription and drops the update log.
func (d *Document) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	d.released = true
	for id, sub := range d.subs {
		sub.Close()
		delete(d.subs, id)
	}
	d.awareness = make(map[uint64]awarenessEntry)
	d.log.Debug("Document released", "room_id", d.Room, "updates", d.updates)
	return d.repo.Drop(d.Room)
}

func (d *Document) Connections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
