package ws

import (
	"code-lab/docsync"
	"code-lab/domain"
	"code-lab/errors"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DocumentSource hands out the shared document of a room.
type DocumentSource interface {
	Attach(room domain.RoomID) (*docsync.Document, func())
}

// SyncHandler bridges editor sync connections to the room's document.
// Frames are binary and relayed as received.
type SyncHandler struct {
	log      *slog.Logger
	docs     DocumentSource
	upgrader websocket.Upgrader
	opts     Options
}

// NewSyncHandler caps the read limit at docsync.MaxFrameSize, a larger
// frame closes the connection instead of reaching the document.
func NewSyncHandler(log *slog.Logger, docs DocumentSource, opts Options) *SyncHandler {
	opts.MaxMessageSize = min(opts.MaxMessageSize, docsync.MaxFrameSize)
	return &SyncHandler{
		log:      log,
		docs:     docs,
		upgrader: newUpgrader(),
		opts:     opts,
	}
}

// Serve upgrades the request and keeps it attached to room until either
// side hangs up.
func (h *SyncHandler) Serve(w http.ResponseWriter, r *http.Request, room domain.RoomID) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Sync upgrade refused", "room_id", room, "error", err)
		return
	}
	c := newConn(socket, h.opts)
	defer c.close()

	id := domain.ConnectionID(uuid.NewString())
	log := h.log.With("room_id", room, "connection_id", id)

	doc, release := h.docs.Attach(room)
	defer release()
	sub, err := doc.Subscribe(id)
	if err != nil {
		log.Warn("Sync subscription refused", "error", err)
		return
	}
	defer doc.Unsubscribe(id)
	log.Debug("Sync connection opened")

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.pinger(ctx.Done(), h.opts.PingInterval)
	}()
	go func() {
		defer wg.Done()
		for frame := range sub.Frames(ctx) {
			if err := c.write(websocket.BinaryMessage, frame); err != nil {
				log.Debug("Sync write failed", "error", err)
				c.close()
				return
			}
		}
	}()

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if unexpectedClose(err) {
				log.Debug("Sync connection lost", "error", err)
			}
			break
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if err := doc.Receive(id, data); err != nil {
			if stderrors.Is(err, errors.ErrMalformedFrame) {
				log.Debug("Sync frame dropped", "error", err)
			} else {
				log.Warn("Sync update refused", "error", err)
			}
		}
	}

	cancel()
	wg.Wait()
	log.Debug("Sync connection closed")
}
