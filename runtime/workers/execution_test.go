package workers

import (
	"code-lab/domain"
	"code-lab/errors"
	"code-lab/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestExecutionWorker_RunsJobs(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	jobs := make(chan ExecutionJob, 1)
	w := NewExecutionWorker(logs.GetLoggerFromLevel(slog.LevelDebug), executor, jobs)

	executor.EXPECT().Execute(gomock.Any(), "print(1)", domain.Python).
		Return(domain.Output{Stdout: "1\n"}, nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- w.Run(ctx) }()

	job := NewExecutionJob(context.Background(), "print(1)", domain.Python)
	jobs <- job
	outcome := <-job.Result

	req.NoError(outcome.Err)
	req.Equal("1\n", outcome.Output.Stdout)
	cancel()
	req.ErrorIs(<-stopped, context.Canceled)
}

func TestExecutionWorker_PanicStillAnswersAndRestarts(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	jobs := make(chan ExecutionJob, 2)
	w := NewExecutionWorker(logs.GetLoggerFromLevel(slog.LevelDebug), executor, jobs)
	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond)

	gomock.InOrder(
		executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, string, domain.Language) (domain.Output, error) {
				panic("toolchain exploded")
			}),
		executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.Output{Stdout: "ok"}, nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Add(w).Run(ctx)
		close(done)
	}()

	// When the first job panics, its caller still gets an answer
	first := NewExecutionJob(context.Background(), "a", domain.Python)
	jobs <- first
	req.ErrorIs((<-first.Result).Err, errors.ErrWorkerPanic)

	// Then the restarted worker serves the next one
	second := NewExecutionJob(context.Background(), "b", domain.Python)
	jobs <- second
	req.Equal("ok", (<-second.Result).Output.Stdout)

	cancel()
	<-done
}

func TestExecutionWorker_AbandonedJobSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	w := NewExecutionWorker(logs.GetLoggerFromLevel(slog.LevelDebug), executor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := NewExecutionJob(ctx, "a", domain.Python)
	w.handle(job)

	require.ErrorIs(t, (<-job.Result).Err, context.Canceled)
}
