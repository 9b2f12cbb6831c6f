package workers

import (
	"code-lab/contract"
	"code-lab/domain"
	"code-lab/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var _ contract.Worker = (*ExecutionWorker)(nil)

// ExecutionJob is one program waiting for a pool slot. Result is buffered,
// the worker never blocks on a caller that went away.
type ExecutionJob struct {
	ID       uuid.UUID
	Ctx      context.Context
	Code     string
	Language domain.Language
	Result   chan ExecutionOutcome
}

type ExecutionOutcome struct {
	Output domain.Output
	Err    error
}

func NewExecutionJob(ctx context.Context, code string, language domain.Language) ExecutionJob {
	return ExecutionJob{
		ID:       uuid.New(),
		Ctx:      ctx,
		Code:     code,
		Language: language,
		Result:   make(chan ExecutionOutcome, 1),
	}
}

type ExecutionWorker struct {
	log      *slog.Logger
	executor contract.Executor
	jobs     <-chan ExecutionJob
}

func NewExecutionWorker(log *slog.Logger, executor contract.Executor, jobs <-chan ExecutionJob) *ExecutionWorker {
	return &ExecutionWorker{log: log, executor: executor, jobs: jobs}
}

func (w *ExecutionWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping execution worker")
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Job channel is closed")
				return nil
			}
			w.handle(job)
		}
	}
}

// handle answers the job even when the executor panics, then lets the
// panic reach the supervisor.
func (w *ExecutionWorker) handle(job ExecutionJob) {
	answered := false
	defer func() {
		if r := recover(); r != nil {
			if !answered {
				job.Result <- ExecutionOutcome{Err: fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)}
			}
			panic(r)
		}
	}()

	if err := job.Ctx.Err(); err != nil {
		job.Result <- ExecutionOutcome{Err: err}
		answered = true
		return
	}

	start := time.Now()
	out, err := w.executor.Execute(job.Ctx, job.Code, job.Language)
	w.log.Debug("Execution finished", "execution_id", job.ID, "language", job.Language,
		"duration", time.Since(start), "failed", out.Failed(), "error", err)
	job.Result <- ExecutionOutcome{Output: out, Err: err}
	answered = true
}
