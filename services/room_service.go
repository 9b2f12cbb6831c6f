package services

import (
	"code-lab/contract"
	"code-lab/domain"
	"code-lab/domain/event"
	"code-lab/errors"
	"code-lab/runtime"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

// IRoomService handles the control events of one connection.
type IRoomService interface {
	Connect(conn domain.ConnectionID, sink contract.EventSink)
	Disconnect(ctx context.Context, conn domain.ConnectionID)
	Join(ctx context.Context, conn domain.ConnectionID, room domain.RoomID, username string) event.RoomState
	Leave(ctx context.Context, conn domain.ConnectionID, room domain.RoomID)
	ChangeLanguage(ctx context.Context, conn domain.ConnectionID, room domain.RoomID, lang domain.Language) error
	AnnounceExecution(ctx context.Context, conn domain.ConnectionID, room domain.RoomID) error
	BroadcastResults(ctx context.Context, conn domain.ConnectionID, room domain.RoomID, output, aiAnalysis string) error
	ClearWorkspace(ctx context.Context, conn domain.ConnectionID, room domain.RoomID) error
}

var _ IRoomService = (*RoomService)(nil)

type RoomService struct {
	log         *slog.Logger
	registry    *runtime.Registry
	broadcaster contract.Broadcaster
}

func NewRoomService(log *slog.Logger, registry *runtime.Registry, broadcaster contract.Broadcaster) *RoomService {
	return &RoomService{log: log, registry: registry, broadcaster: broadcaster}
}

func (s *RoomService) Connect(conn domain.ConnectionID, sink contract.EventSink) {
	s.registry.Connect(conn, sink)
}

// Disconnect leaves the connection's room. An execution it started keeps running.
func (s *RoomService) Disconnect(ctx context.Context, conn domain.ConnectionID) {
	if m, ok := s.registry.Disconnect(conn); ok {
		s.publish(ctx, userLeft(m.Room, m.Participant))
	}
}

// Join returns the room as the joiner must see it. The others are told
// about the joiner only the first time.
func (s *RoomService) Join(ctx context.Context, conn domain.ConnectionID, room domain.RoomID, username string) event.RoomState {
	p := domain.NewParticipant(conn, username)
	res := s.registry.Join(room, p)
	if res.Previous != nil {
		s.publish(ctx, userLeft(res.Previous.Room, res.Previous.Participant))
	}
	if res.Joined {
		s.publish(ctx, event.UserJoined{
			Envelope:     event.Envelope{Room: room, Sender: conn},
			Username:     p.Username,
			ConnectionID: conn,
		})
	}
	return event.RoomState{
		Envelope:     event.Envelope{Room: room},
		ID:           room,
		ConnectionID: conn,
		Language:     res.Language,
		Participants: lo.Map(res.Members, func(m domain.Participant, _ int) event.ParticipantView {
			return event.ParticipantView{Username: m.Username, ConnectionID: m.ConnectionID}
		}),
	}
}

func (s *RoomService) Leave(ctx context.Context, conn domain.ConnectionID, room domain.RoomID) {
	if p, ok := s.registry.Leave(room, conn); ok {
		s.publish(ctx, userLeft(room, p))
	}
}

// ChangeLanguage records the selection, then relays it. The same language
// twice produces two events.
func (s *RoomService) ChangeLanguage(ctx context.Context, conn domain.ConnectionID, room domain.RoomID, lang domain.Language) error {
	if err := s.member(conn, room); err != nil {
		return err
	}
	if err := s.registry.SetLanguage(room, lang); err != nil {
		return err
	}
	return s.broadcaster.Publish(ctx, event.LanguageChanged{
		Envelope:    event.Envelope{Room: room, Sender: conn},
		NewLanguage: lang,
	})
}

func (s *RoomService) AnnounceExecution(ctx context.Context, conn domain.ConnectionID, room domain.RoomID) error {
	if err := s.member(conn, room); err != nil {
		return err
	}
	return s.broadcaster.Publish(ctx, event.ExecutionStarted{Envelope: event.Envelope{Room: room, Sender: conn}})
}

func (s *RoomService) BroadcastResults(ctx context.Context, conn domain.ConnectionID, room domain.RoomID, output, aiAnalysis string) error {
	if err := s.member(conn, room); err != nil {
		return err
	}
	return s.broadcaster.Publish(ctx, event.ExecutionResults{
		Envelope:   event.Envelope{Room: room, Sender: conn},
		Output:     output,
		AIAnalysis: aiAnalysis,
	})
}

func (s *RoomService) ClearWorkspace(ctx context.Context, conn domain.ConnectionID, room domain.RoomID) error {
	if err := s.member(conn, room); err != nil {
		return err
	}
	return s.broadcaster.Publish(ctx, event.WorkspaceCleared{Envelope: event.Envelope{Room: room, Sender: conn}})
}

func (s *RoomService) member(conn domain.ConnectionID, room domain.RoomID) error {
	if !s.registry.IsMember(room, conn) {
		return fmt.Errorf("%w: %s", errors.ErrNotInRoom, room)
	}
	return nil
}

// publish is for notifications nobody waits on, a lost one is only logged.
func (s *RoomService) publish(ctx context.Context, e event.DomainEvent) {
	if err := s.broadcaster.Publish(ctx, e); err != nil {
		s.log.Warn("Notification not published", "kind", e.Kind(), "room_id", e.RoomID(), "error", err)
	}
}

func userLeft(room domain.RoomID, p domain.Participant) event.UserLeft {
	return event.UserLeft{
		Envelope:     event.Envelope{Room: room, Sender: p.ConnectionID},
		Username:     p.Username,
		ConnectionID: p.ConnectionID,
	}
}
