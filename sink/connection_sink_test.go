package sink

import (
	"code-lab/domain/event"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestConnectionSink_Consume_Buffers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	s := NewConnectionSink(log, 2, 10*time.Millisecond)

	// Given two events that fit in the buffer
	first := event.ExecutionStarted{Envelope: event.Envelope{Room: "r1"}}
	second := event.WorkspaceCleared{Envelope: event.Envelope{Room: "r1"}}

	// When they are consumed
	req.NoError(s.Consume(context.Background(), first))
	req.NoError(s.Consume(context.Background(), second))

	// Then they come out in order
	req.Equal(event.ExecutionStartedKind, (<-s.Events).Kind())
	req.Equal(event.WorkspaceClearedKind, (<-s.Events).Kind())
}

func TestConnectionSink_Consume_FullBufferTimesOut(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	s := NewConnectionSink(log, 1, 20*time.Millisecond)
	evt := event.ExecutionStarted{Envelope: event.Envelope{Room: "r1"}}
	req.NoError(s.Consume(context.Background(), evt))

	// When nobody drains the buffer
	start := time.Now()
	err := s.Consume(context.Background(), evt)

	// Then delivery gives up after the timeout
	req.Error(err)
	req.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
	req.Len(s.Events, 1)
}

func TestConnectionSink_Consume_CancelledContext(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	s := NewConnectionSink(log, 1, time.Second)
	evt := event.ExecutionStarted{Envelope: event.Envelope{Room: "r1"}}
	req.NoError(s.Consume(context.Background(), evt))

	// Given a cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Then the full buffer is not waited on
	req.ErrorIs(s.Consume(ctx, evt), context.Canceled)
}
