package ai

import (
	"code-lab/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerGenerator stops calling the collaborator after consecutive failures,
// so a dead upstream costs nothing until the cooldown elapses.
type BreakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerGenerator(log *slog.Logger, next Generator, failures uint32, cooldown time.Duration) *BreakerGenerator {
	st := gobreaker.Settings{
		Name:        "diagnostic-collaborator",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A caller that gave up says nothing about the upstream.
			return err == nil || stderrors.Is(err, context.Canceled)
		},
	}
	return &BreakerGenerator{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, prompt)
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", errors.ErrCollaboratorSuspended, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerGenerator) State() gobreaker.State {
	return b.cb.State()
}
