package sink

import (
	"code-lab/contract"
	"code-lab/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"
)

var _ contract.EventSink = (*ConnectionSink)(nil)

// ConnectionSink buffers the events addressed to one control connection
// until its writer picks them up.
type ConnectionSink struct {
	log             *slog.Logger
	Events          chan event.DomainEvent
	deliveryTimeout time.Duration
}

func NewConnectionSink(log *slog.Logger, bufferSize int, deliveryTimeout time.Duration) *ConnectionSink {
	return &ConnectionSink{
		log:             log,
		Events:          make(chan event.DomainEvent, bufferSize),
		deliveryTimeout: deliveryTimeout,
	}
}

// Consume waits at most deliveryTimeout for room in the buffer. A connection
// that cannot keep up loses the event, the others are not held back.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	default:
	}
	timer := time.NewTimer(s.deliveryTimeout)
	defer timer.Stop()
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		s.log.Debug("Connection buffer full, event dropped", "kind", e.Kind(), "room_id", e.RoomID())
		return fmt.Errorf("delivery timed out after %s", s.deliveryTimeout)
	}
}
