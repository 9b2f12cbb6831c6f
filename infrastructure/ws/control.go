package ws

import (
	"code-lab/domain"
	"code-lab/errors"
	"code-lab/services"
	"code-lab/sink"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ControlHandler serves the control channel. Every connection gets its own
// sink, events from the room's other members are written as they arrive.
type ControlHandler struct {
	log      *slog.Logger
	rooms    services.IRoomService
	validate *validator.Validate
	upgrader websocket.Upgrader
	opts     Options
}

func NewControlHandler(log *slog.Logger, rooms services.IRoomService, validate *validator.Validate, opts Options) *ControlHandler {
	return &ControlHandler{
		log:      log,
		rooms:    rooms,
		validate: validate,
		upgrader: newUpgrader(),
		opts:     opts,
	}
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Control upgrade refused", "error", err)
		return
	}
	c := newConn(socket, h.opts)
	defer c.close()

	id := domain.ConnectionID(uuid.NewString())
	log := h.log.With("connection_id", id)
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))

	// 1. Register the connection before anything can be addressed to it
	s := sink.NewConnectionSink(log, h.opts.BufferSize, h.opts.DeliveryTimeout)
	h.rooms.Connect(id, s)
	log.Debug("Control connection opened")

	// 2. Writer: room events and keep-alive pings
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(ctx, c, s, log)
	}()

	// 3. Reader: runs until the peer goes away
	h.readPump(ctx, c, id, log)

	cancel()
	wg.Wait()
	h.rooms.Disconnect(context.WithoutCancel(r.Context()), id)
	log.Debug("Control connection closed")
}

func (h *ControlHandler) writePump(ctx context.Context, c *conn, s *sink.ConnectionSink, log *slog.Logger) {
	done := make(chan struct{})
	defer close(done)
	go c.pinger(done, h.opts.PingInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.Events:
			data, err := EncodeEvent(e)
			if err != nil {
				log.Error("Event not encodable", "kind", e.Kind(), "error", err)
				continue
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				log.Debug("Control write failed", "error", err)
				c.close()
				return
			}
		}
	}
}

func (h *ControlHandler) readPump(ctx context.Context, c *conn, id domain.ConnectionID, log *slog.Logger) {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if unexpectedClose(err) {
				log.Debug("Control connection lost", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var f Frame
		var reply []byte
		if err = json.Unmarshal(data, &f); err != nil {
			err = fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
		} else {
			reply, err = h.dispatch(ctx, id, f)
		}
		if err != nil {
			log.Info("Control event refused", "event", f.Event, "error", err)
			if reply, err = encodeError(f.Event, err); err != nil {
				continue
			}
		}
		if reply == nil {
			continue
		}
		if err := c.write(websocket.TextMessage, reply); err != nil {
			log.Debug("Control write failed", "error", err)
			return
		}
	}
}

// dispatch applies one inbound event. The returned frame, when not nil,
// goes back to the sender only.
func (h *ControlHandler) dispatch(ctx context.Context, id domain.ConnectionID, f Frame) ([]byte, error) {
	switch f.Event {
	case JoinEvent:
		var p JoinPayload
		if err := decodePayload(h.validate, f, &p); err != nil {
			return nil, err
		}
		state := h.rooms.Join(ctx, id, domain.RoomID(p.RoomID), p.Username)
		return EncodeEvent(state)
	case LeaveEvent:
		var p RoomPayload
		if err := decodePayload(h.validate, f, &p); err != nil {
			return nil, err
		}
		h.rooms.Leave(ctx, id, domain.RoomID(p.RoomID))
		return nil, nil
	case LanguageChangeEvent:
		var p LanguageChangePayload
		if err := decodePayload(h.validate, f, &p); err != nil {
			return nil, err
		}
		lang, err := domain.ParseLanguage(p.NewLanguage)
		if err != nil {
			return nil, err
		}
		return nil, h.rooms.ChangeLanguage(ctx, id, domain.RoomID(p.RoomID), lang)
	case ExecutionStartedEvent:
		var p RoomPayload
		if err := decodePayload(h.validate, f, &p); err != nil {
			return nil, err
		}
		return nil, h.rooms.AnnounceExecution(ctx, id, domain.RoomID(p.RoomID))
	case BroadcastResultsEvent:
		var p BroadcastResultsPayload
		if err := decodePayload(h.validate, f, &p); err != nil {
			return nil, err
		}
		return nil, h.rooms.BroadcastResults(ctx, id, domain.RoomID(p.RoomID), p.Output, p.AIAnalysis)
	case ClearWorkspaceEvent:
		var p RoomPayload
		if err := decodePayload(h.validate, f, &p); err != nil {
			return nil, err
		}
		return nil, h.rooms.ClearWorkspace(ctx, id, domain.RoomID(p.RoomID))
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, f.Event)
	}
}
