//go:generate go run go.uber.org/mock/mockgen -source=update.go -destination=../mocks/mock_update_repository.go -package=mocks
package repositories

import (
	"code-lab/domain"
	"code-lab/errors"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// MaxUpdateSize stays under the 1 MiB value threshold of an in-memory badger,
// whose write path has no value log to fall back on.
const MaxUpdateSize = 1<<20 - 64<<10

// IUpdateRepository is the accepted update log of every live shared document.
type IUpdateRepository interface {
	Append(room domain.RoomID, update []byte) error
	Updates(room domain.RoomID) ([][]byte, error)
	Drop(room domain.RoomID) error
}

type UpdateRepository struct {
	db  *badger.DB
	log *slog.Logger
	mu  sync.Mutex
	seq map[domain.RoomID]uint64
}

func NewUpdateRepository(db *badger.DB, log *slog.Logger) *UpdateRepository {
	return &UpdateRepository{db: db, log: log, seq: make(map[domain.RoomID]uint64)}
}

// prefix hex-encodes the room so that no room id can be the prefix of another.
func prefix(room domain.RoomID) []byte {
	return []byte(fmt.Sprintf("doc:%s:", hex.EncodeToString([]byte(room))))
}

// Append stores an update under "doc:{room_hex}:{seq_padded}", the padded
// sequence keeping the prefix scan in arrival order.
func (r *UpdateRepository) Append(room domain.RoomID, update []byte) error {
	if len(update) > MaxUpdateSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", errors.ErrUpdateTooLarge, len(update), MaxUpdateSize)
	}
	r.mu.Lock()
	seq := r.seq[room]
	r.seq[room] = seq + 1
	r.mu.Unlock()

	key := append(prefix(room), []byte(fmt.Sprintf("%019d", seq))...)
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, update)
	})
}

// Updates returns the log of a room, oldest first.
func (r *UpdateRepository) Updates(room domain.RoomID) ([][]byte, error) {
	var updates [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		p := prefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			updates = append(updates, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// Drop removes the whole log of a room once its document is released.
func (r *UpdateRepository) Drop(room domain.RoomID) error {
	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		p := prefix(room)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.seq, room)
	r.mu.Unlock()
	r.log.Debug("Document log dropped", "room_id", room, "updates", len(keys))
	return nil
}

// OpenInMemory opens the badger instance backing the update log. Nothing
// outlives the process, a restarted server starts with empty documents.
func OpenInMemory() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}
