package workers

import (
	"code-lab/contract"
	"code-lab/domain"
	"code-lab/domain/event"
	"code-lab/mocks"
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_SkipsSenderThroughRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	bob := mocks.NewMockEventSink(ctrl)
	carol := mocks.NewMockEventSink(ctrl)
	w := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 0, registry, nil, time.Second)

	evt := event.LanguageChanged{
		Envelope:    event.Envelope{Room: "r1", Sender: "alice"},
		NewLanguage: domain.Java,
	}

	// Given the registry excludes the sender
	registry.EXPECT().SinksFor(domain.RoomID("r1"), domain.ConnectionID("alice")).
		Return([]contract.EventSink{bob, carol}).Times(1)
	// Then every other member consumes the event once
	bob.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	carol.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	w.Fanout(context.Background(), evt)
}

func TestEventFanout_FailingSinkDoesNotStopOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	gone := mocks.NewMockEventSink(ctrl)
	alive := mocks.NewMockEventSink(ctrl)
	w := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 0, registry, nil, 50*time.Millisecond)

	evt := event.ExecutionStarted{Envelope: event.Envelope{Room: "r1", Sender: "alice"}}
	registry.EXPECT().SinksFor(gomock.Any(), gomock.Any()).Return([]contract.EventSink{gone, alive})

	// Given a sink that blocks until its deadline
	gone.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ event.DomainEvent) error {
		<-ctx.Done()
		return stderrors.New("sink too slow")
	})
	alive.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	start := time.Now()
	w.Fanout(context.Background(), evt)
	require.Less(t, time.Since(start), time.Second)
}

func TestEventFanout_PreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)

	events := make(chan event.DomainEvent, 16)
	w := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 0, registry, events, time.Second)

	var got []domain.Language
	done := make(chan struct{})
	registry.EXPECT().SinksFor(gomock.Any(), gomock.Any()).Return([]contract.EventSink{sink}).AnyTimes()
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
		got = append(got, e.(event.LanguageChanged).NewLanguage)
		if len(got) == 3 {
			close(done)
		}
		return nil
	}).Times(3)

	// Given the same language published twice in a row, both are delivered
	for _, lang := range []domain.Language{domain.Java, domain.Cpp, domain.Cpp} {
		events <- event.LanguageChanged{Envelope: event.Envelope{Room: "r1", Sender: "alice"}, NewLanguage: lang}
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(stopped)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("events were not delivered")
	}
	cancel()
	<-stopped
	req.Equal([]domain.Language{domain.Java, domain.Cpp, domain.Cpp}, got)
}
