//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"code-lab/domain"
	"code-lab/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery end of one participant connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry resolves the sinks an event must reach.
type IRegistry interface {
	SinksFor(roomID domain.RoomID, except domain.ConnectionID) []EventSink
}

// Broadcaster publishes an event to the other members of its room.
type Broadcaster interface {
	Publish(ctx context.Context, e event.DomainEvent) error
}

// Executor compiles and runs one program. The returned error is reserved for
// environment faults, user-code faults are reported in Output.Stderr.
type Executor interface {
	Execute(ctx context.Context, code string, language domain.Language) (domain.Output, error)
}

// Explainer turns a failure into remediation advice. It never fails, a
// collaborator fault is reported as text.
type Explainer interface {
	Explain(ctx context.Context, code, errorText string, language domain.Language) string
}

// ProcessTracker is told about every user program while it runs.
type ProcessTracker interface {
	Track(p domain.Process)
	Untrack(pid domain.PID)
}
