package services

import (
	"code-lab/contract"
	"code-lab/domain"
	"code-lab/domain/event"
	"code-lab/errors"
	"code-lab/internal"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type IExecutionService interface {
	Run(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error)
}

var _ IExecutionService = (*ExecutionService)(nil)

type ExecutionService struct {
	log         *slog.Logger
	executor    contract.Executor
	explainer   contract.Explainer
	broadcaster contract.Broadcaster
	policy      internal.ExecutionPolicy

	mu   sync.Mutex
	busy map[domain.RoomID]struct{}
}

func NewExecutionService(log *slog.Logger, executor contract.Executor, explainer contract.Explainer,
	broadcaster contract.Broadcaster, policy internal.ExecutionPolicy) *ExecutionService {
	return &ExecutionService{
		log:         log,
		executor:    executor,
		explainer:   explainer,
		broadcaster: broadcaster,
		policy:      policy,
		busy:        make(map[domain.RoomID]struct{}),
	}
}

// Run executes the program and, when it failed, explains why. With a room,
// the other members see execution-started before and execution-results
// after. The caller going away cancels neither step.
func (s *ExecutionService) Run(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	if req.Room != "" {
		release, err := s.acquire(req.Room)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		defer release()
	}
	ctx = context.WithoutCancel(ctx)
	log := s.log.With("room_id", req.Room, "connection_id", req.ConnectionID, "language", req.Language)

	// 1. Peers switch to the running state
	s.announce(ctx, req, event.ExecutionStarted{Envelope: envelope(req)})

	// 2. Run on the pool
	start := time.Now()
	out, err := s.executor.Execute(ctx, req.Code, req.Language)
	if err != nil {
		log.Error("Execution failed", "error", err)
		s.announce(ctx, req, event.ExecutionResults{
			Envelope: envelope(req),
			Output:   fmt.Sprintf("Execution failed: %v", err),
		})
		return domain.ExecutionResult{}, err
	}
	log.Info("Execution finished", "duration", time.Since(start), "failed", out.Failed())

	// 3. Diagnose only what failed
	result := domain.ExecutionResult{Output: out}
	if out.Failed() {
		result.AIExplanation = s.explainer.Explain(ctx, req.Code, out.Stderr, req.Language)
	}

	// 4. Peers get the same result as the caller
	s.announce(ctx, req, event.ExecutionResults{
		Envelope:   envelope(req),
		Output:     result.Combined(),
		AIAnalysis: result.AIExplanation,
	})
	return result, nil
}

func (s *ExecutionService) acquire(room domain.RoomID) (func(), error) {
	if s.policy == internal.PolicyConcurrent {
		return func() {}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[room]; ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrRoomBusy, room)
	}
	s.busy[room] = struct{}{}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.busy, room)
	}, nil
}

func (s *ExecutionService) announce(ctx context.Context, req domain.ExecutionRequest, e event.DomainEvent) {
	if req.Room == "" {
		return
	}
	if err := s.broadcaster.Publish(ctx, e); err != nil {
		s.log.Warn("Execution event not published", "kind", e.Kind(), "room_id", req.Room, "error", err)
	}
}

func envelope(req domain.ExecutionRequest) event.Envelope {
	return event.Envelope{Room: req.Room, Sender: req.ConnectionID}
}
