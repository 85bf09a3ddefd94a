package pipeline

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds the number of concurrent Read calls. A writer acquires
// every unit, so it waits for all readers and excludes new ones.
const maxReaders = 1 << 30

// Shared holds pipeline-wide state read and written by services during a run.
// Any number of readers may hold the state at once; a writer holds it alone.
// Waiters are served in arrival order, so a pending writer is not starved by
// a stream of readers.
//
// A Shared must not be copied after first use. The Processor and every
// service invocation refer to the same *Shared.
type Shared[S any] struct {
	sem   *semaphore.Weighted
	state S
}

// NewShared returns a Shared initialised with the given state.
func NewShared[S any](initial S) *Shared[S] {
	return &Shared[S]{sem: semaphore.NewWeighted(maxReaders), state: initial}
}

// Read returns the current state. Blocks while a writer holds the state;
// returns ctx.Err() if ctx is done before access is granted.
//
// For reference types (maps, slices, pointers) the returned value is shared
// with the container: treat it as immutable and replace it through Write or
// Update instead of mutating it in place. Values follows this rule.
func (s *Shared[S]) Read(ctx context.Context) (S, error) {
	if err := s.acquire(ctx, 1); err != nil {
		var zero S
		return zero, err
	}
	defer s.sem.Release(1)
	return s.state, nil
}

// Write replaces the state. Blocks until no reader or writer holds the state.
func (s *Shared[S]) Write(ctx context.Context, state S) error {
	if err := s.acquire(ctx, maxReaders); err != nil {
		return err
	}
	defer s.sem.Release(maxReaders)
	s.state = state
	return nil
}

// Update runs fn on the current state under the write lock and stores its
// result. If fn returns an error the state is left unchanged. If fn panics the
// panic is recovered, the state keeps its last committed value, and Update
// returns a *PanicError; the Shared stays usable.
func (s *Shared[S]) Update(ctx context.Context, fn func(S) (S, error)) error {
	if err := s.acquire(ctx, maxReaders); err != nil {
		return err
	}
	defer s.sem.Release(maxReaders)
	next, err := applyUpdate(fn, s.state)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Shared[S]) acquire(ctx context.Context, n int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sem.Acquire(ctx, n)
}

func applyUpdate[S any](fn func(S) (S, error), cur S) (next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = cur, newPanicError(r)
		}
	}()
	return fn(cur)
}
