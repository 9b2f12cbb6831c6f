// Package runtime handles event propagation and execution scheduling.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"code-lab/contract"
	"code-lab/domain"
	"code-lab/domain/event"
	"code-lab/errors"
	"code-lab/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

var (
	_ contract.Broadcaster = (*Orchestrator)(nil)
	_ contract.Executor    = (*Orchestrator)(nil)
)

type Orchestrator struct {
	log              *slog.Logger
	supervisor       contract.ISupervisor
	registry         contract.IRegistry
	executor         contract.Executor
	extraWorkers     []contract.Worker
	shards           []chan event.DomainEvent
	jobs             chan workers.ExecutionJob
	executionWorkers int
	sinkTimeout      time.Duration
	inFlight         atomic.Int64
	dropped          atomic.Int64

	mu      sync.RWMutex
	stopped bool
}

type OrchestratorConfig struct {
	FanoutWorkers    int
	ExecutionWorkers int
	BufferSize       int
	QueueSize        int
	SinkTimeout      time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	executor contract.Executor, cfg OrchestratorConfig) *Orchestrator {
	shards := make([]chan event.DomainEvent, max(cfg.FanoutWorkers, 1))
	for i := range shards {
		shards[i] = make(chan event.DomainEvent, cfg.BufferSize)
	}
	return &Orchestrator{
		log:              log,
		supervisor:       supervisor,
		registry:         registry,
		executor:         executor,
		shards:           shards,
		jobs:             make(chan workers.ExecutionJob, cfg.QueueSize),
		executionWorkers: max(cfg.ExecutionWorkers, 1),
		sinkTimeout:      cfg.SinkTimeout,
	}
}

// Add registers extra workers to run under the same supervisor.
func (o *Orchestrator) Add(w ...contract.Worker) {
	o.extraWorkers = append(o.extraWorkers, w...)
}

// shard maps a room to its fan-out worker, always the same one.
func (o *Orchestrator) shard(room domain.RoomID) chan event.DomainEvent {
	return o.shards[xxhash.Sum64String(string(room))%uint64(len(o.shards))]
}

// Publish queues the event on its room's shard. A full shard drops it.
func (o *Orchestrator) Publish(ctx context.Context, e event.DomainEvent) error {
	if e.RoomID() == "" {
		return fmt.Errorf("%w: %s without room", errors.ErrNotInRoom, e.Kind())
	}
	select {
	case o.shard(e.RoomID()) <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		o.dropped.Add(1)
		o.log.Warn("Event channel full, dropping event", "room_id", e.RoomID(), "kind", e.Kind())
		return fmt.Errorf("%w: event %s for room %s", errors.ErrEventQueueFull, e.Kind(), e.RoomID())
	}
}

// Execute runs the program on the worker pool. A saturated queue is refused
// immediately rather than queued without bound.
func (o *Orchestrator) Execute(ctx context.Context, code string, language domain.Language) (domain.Output, error) {
	job := workers.NewExecutionJob(ctx, code, language)
	if err := o.enqueue(job); err != nil {
		return domain.Output{}, err
	}
	o.inFlight.Add(1)
	defer o.inFlight.Add(-1)

	select {
	case outcome := <-job.Result:
		return outcome.Output, outcome.Err
	case <-ctx.Done():
		return domain.Output{}, ctx.Err()
	}
}

func (o *Orchestrator) enqueue(job workers.ExecutionJob) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return errors.ErrShuttingDown
	}
	select {
	case o.jobs <- job:
		return nil
	default:
		return errors.ErrQueueFull
	}
}

// Start registers every worker and blocks while the supervisor runs.
func (o *Orchestrator) Start(ctx context.Context) {
	for i, ch := range o.shards {
		o.supervisor.Add(workers.NewEventFanout(o.log, i, o.registry, ch, o.sinkTimeout))
	}
	for range o.executionWorkers {
		o.supervisor.Add(workers.NewExecutionWorker(o.log, o.executor, o.jobs))
	}
	o.supervisor.Add(o.extraWorkers...)

	o.log.Info("Starting orchestrator and all supervised workers",
		"fanout_workers", len(o.shards), "execution_workers", o.executionWorkers)
	o.supervisor.Run(ctx)
}

// Channels names every internal queue, for capacity sampling.
func (o *Orchestrator) Channels() []workers.NamedChannel {
	named := make([]workers.NamedChannel, 0, len(o.shards)+1)
	for i, ch := range o.shards {
		named = append(named, workers.NamedChannel{Name: fmt.Sprintf("fanout-%d", i), Channel: ch})
	}
	return append(named, workers.NamedChannel{Name: "executions", Channel: o.jobs})
}

// Stop cancels the supervised context, workers stop blocking on their channels.
// Jobs still queued are answered with ErrShuttingDown and later ones refused.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	o.supervisor.Stop()

	drained := 0
	for {
		select {
		case job := <-o.jobs:
			job.Result <- workers.ExecutionOutcome{Err: errors.ErrShuttingDown}
			drained++
		default:
			if drained > 0 {
				o.log.Warn("Queued executions refused on shutdown", "count", drained)
			}
			return
		}
	}
}

type Load struct {
	InFlight      int64 `json:"inFlight"`
	Queued        int   `json:"queued"`
	DroppedEvents int64 `json:"droppedEvents"`
}

func (o *Orchestrator) Load() Load {
	return Load{
		InFlight:      o.inFlight.Load(),
		Queued:        len(o.jobs),
		DroppedEvents: o.dropped.Load(),
	}
}
