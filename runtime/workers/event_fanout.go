package workers

import (
	"code-lab/contract"
	"code-lab/domain/event"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout delivers the events of its shard to the other members of
// each event's room.
//
// It provides best-effort fan-out with no retries: a sink that is gone or
// full loses the event. Every room is served by exactly one shard, so a
// single EventFanout preserves the publish order of a room for each
// recipient.
type EventFanout struct {
	log         *slog.Logger
	shard       int
	registry    contract.IRegistry
	events      <-chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, shard int, registry contract.IRegistry,
	events <-chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		shard:       shard,
		registry:    registry,
		events:      events,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed", "shard", w.shard)
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout", "shard", w.shard)
			return nil
		}
	}
}

// Fanout hands the event to every sink of its room except the sender's.
// Sinks are served one after the other, so a slow sink delays the others
// by at most sinkTimeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.SinksFor(evt.RoomID(), evt.Origin())
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Debug("Event not delivered", "kind", evt.Kind(), "room_id", evt.RoomID(), "error", err)
		}
		cancel()
	}
}
