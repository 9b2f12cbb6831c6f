package services

import (
	"code-lab/domain"
	"code-lab/domain/event"
	"code-lab/errors"
	"code-lab/internal"
	"code-lab/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type executionFixture struct {
	executor    *mocks.MockExecutor
	explainer   *mocks.MockExplainer
	broadcaster *mocks.MockBroadcaster
	svc         *ExecutionService
}

func newExecutionFixture(t *testing.T, policy internal.ExecutionPolicy) executionFixture {
	ctrl := gomock.NewController(t)
	f := executionFixture{
		executor:    mocks.NewMockExecutor(ctrl),
		explainer:   mocks.NewMockExplainer(ctrl),
		broadcaster: mocks.NewMockBroadcaster(ctrl),
	}
	f.svc = NewExecutionService(logs.GetLoggerFromLevel(slog.LevelDebug), f.executor, f.explainer, f.broadcaster, policy)
	return f
}

func TestExecutionService_Success_NoDiagnostic(t *testing.T) {
	req := require.New(t)
	f := newExecutionFixture(t, internal.PolicyReject)

	// Given a program that prints a literal
	f.executor.EXPECT().Execute(gomock.Any(), "print('hi')", domain.Python).
		Return(domain.Output{Stdout: "hi\n"}, nil)
	f.explainer.EXPECT().Explain(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	// When it runs without a room
	res, err := f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "print('hi')", Language: domain.Python})

	// Then the literal comes back and no diagnostic was asked for
	req.NoError(err)
	req.Equal("hi\n", res.Stdout)
	req.Empty(res.Stderr)
	req.Empty(res.AIExplanation)
}

func TestExecutionService_Failure_IsExplainedAndBroadcast(t *testing.T) {
	req := require.New(t)
	f := newExecutionFixture(t, internal.PolicyReject)
	request := domain.ExecutionRequest{Code: "print(1/0)", Language: domain.Python, Room: "r1", ConnectionID: "alice"}

	gomock.InOrder(
		f.broadcaster.EXPECT().Publish(gomock.Any(), event.ExecutionStarted{
			Envelope: event.Envelope{Room: "r1", Sender: "alice"},
		}).Return(nil),
		f.executor.EXPECT().Execute(gomock.Any(), "print(1/0)", domain.Python).
			Return(domain.Output{Stderr: "ZeroDivisionError: division by zero"}, nil),
		f.explainer.EXPECT().Explain(gomock.Any(), "print(1/0)", "ZeroDivisionError: division by zero", domain.Python).
			Return("[DATASET-GROUNDED ANALYSIS]\n\nGuard the divisor."),
		f.broadcaster.EXPECT().Publish(gomock.Any(), event.ExecutionResults{
			Envelope:   event.Envelope{Room: "r1", Sender: "alice"},
			Output:     "ZeroDivisionError: division by zero",
			AIAnalysis: "[DATASET-GROUNDED ANALYSIS]\n\nGuard the divisor.",
		}).Return(nil),
	)

	res, err := f.svc.Run(context.Background(), request)

	req.NoError(err)
	req.Empty(res.Stdout)
	req.Contains(res.Stderr, "ZeroDivisionError")
	req.Equal("[DATASET-GROUNDED ANALYSIS]\n\nGuard the divisor.", res.AIExplanation)
}

func TestExecutionService_NoOutput_Placeholder(t *testing.T) {
	f := newExecutionFixture(t, internal.PolicyReject)

	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(event.ExecutionStarted{})).Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Output{}, nil)
	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(event.ExecutionResults{})).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			require.Equal(t, domain.NoOutputMessage, e.(event.ExecutionResults).Output)
			return nil
		})

	_, err := f.svc.Run(context.Background(), domain.ExecutionRequest{Language: domain.Python, Room: "r1"})
	require.NoError(t, err)
}

func TestExecutionService_CallerGoneDoesNotCancel(t *testing.T) {
	req := require.New(t)
	f := newExecutionFixture(t, internal.PolicyReject)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ domain.Language) (domain.Output, error) {
			req.NoError(ctx.Err())
			return domain.Output{Stdout: "done"}, nil
		})

	res, err := f.svc.Run(ctx, domain.ExecutionRequest{Language: domain.Python})
	req.NoError(err)
	req.Equal("done", res.Stdout)
}

func TestExecutionService_EnvironmentFault_StillAnsweredToRoom(t *testing.T) {
	req := require.New(t)
	f := newExecutionFixture(t, internal.PolicyReject)

	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(event.ExecutionStarted{})).Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Output{}, errors.ErrQueueFull)
	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(event.ExecutionResults{})).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			req.Contains(e.(event.ExecutionResults).Output, errors.ErrQueueFull.Error())
			return nil
		})

	_, err := f.svc.Run(context.Background(), domain.ExecutionRequest{Language: domain.Python, Room: "r1"})
	req.ErrorIs(err, errors.ErrQueueFull)
}

func TestExecutionService_RoomBusy(t *testing.T) {
	req := require.New(t)
	f := newExecutionFixture(t, internal.PolicyReject)
	started := make(chan struct{})
	finish := make(chan struct{})

	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.executor.EXPECT().Execute(gomock.Any(), "slow", gomock.Any()).
		DoAndReturn(func(context.Context, string, domain.Language) (domain.Output, error) {
			close(started)
			<-finish
			return domain.Output{Stdout: "slow"}, nil
		})
	f.executor.EXPECT().Execute(gomock.Any(), "other-room", gomock.Any()).Return(domain.Output{}, nil)

	done := make(chan error)
	go func() {
		_, err := f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "slow", Language: domain.Python, Room: "r1"})
		done <- err
	}()
	<-started

	// When a second request targets the same room, it is refused
	_, err := f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "fast", Language: domain.Python, Room: "r1"})
	req.ErrorIs(err, errors.ErrRoomBusy)

	// And another room is unaffected
	_, err = f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "other-room", Language: domain.Python, Room: "r2"})
	req.NoError(err)

	close(finish)
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("first execution did not finish")
	}

	// Then the slot is free again
	f.executor.EXPECT().Execute(gomock.Any(), "again", gomock.Any()).Return(domain.Output{}, nil)
	_, err = f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "again", Language: domain.Python, Room: "r1"})
	req.NoError(err)
}

func TestExecutionService_ConcurrentPolicy(t *testing.T) {
	req := require.New(t)
	f := newExecutionFixture(t, internal.PolicyConcurrent)
	started := make(chan struct{})
	finish := make(chan struct{})

	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.executor.EXPECT().Execute(gomock.Any(), "slow", gomock.Any()).
		DoAndReturn(func(context.Context, string, domain.Language) (domain.Output, error) {
			close(started)
			<-finish
			return domain.Output{}, nil
		})
	f.executor.EXPECT().Execute(gomock.Any(), "fast", gomock.Any()).Return(domain.Output{Stdout: "fast"}, nil)

	done := make(chan struct{})
	go func() {
		_, _ = f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "slow", Language: domain.Python, Room: "r1"})
		close(done)
	}()
	<-started

	res, err := f.svc.Run(context.Background(), domain.ExecutionRequest{Code: "fast", Language: domain.Python, Room: "r1"})
	req.NoError(err)
	req.Equal("fast", res.Stdout)
	close(finish)
	<-done
}
