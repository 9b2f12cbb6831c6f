package docsync

import (
	"code-lab/domain"
	"context"
	"iter"
	"sync"
)

// Subscription is the outbound side of one sync connection. Frames queue
// without bound so a slow reader never stalls the document.
type Subscription struct {
	Connection domain.ConnectionID

	mu     sync.Mutex
	queue  [][]byte
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newSubscription(conn domain.ConnectionID) *Subscription {
	return &Subscription{
		Connection: conn,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (s *Subscription) push(frame []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, frame)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until a frame is queued. It reports false once the
// subscription is closed and drained, or ctx is done.
func (s *Subscription) Next(ctx context.Context) ([]byte, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			frame := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return frame, true
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.done:
			s.mu.Lock()
			empty := len(s.queue) == 0
			s.mu.Unlock()
			if empty {
				return nil, false
			}
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Frames is the lazy sequence of outbound frames.
func (s *Subscription) Frames(ctx context.Context) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			frame, ok := s.Next(ctx)
			if !ok || !yield(frame) {
				return
			}
		}
	}
}

func (s *Subscription) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
