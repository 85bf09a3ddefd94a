package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyResult is returned by Result.Unwrap on the zero Result.
var ErrEmptyResult = errors.New("empty result")

// Result is a success value or a failure, never both. Services that exchange
// Result values can be chained without the processor knowing the payload
// type; see Lift.
type Result[T any] struct {
	id        uuid.UUID
	createdAt time.Time
	value     T
	err       error
	ok        bool
}

// Success returns a successful Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{id: uuid.New(), createdAt: time.Now().UTC(), value: v, ok: true}
}

// Failure returns a failed Result holding err.
func Failure[T any](err error) Result[T] {
	return Result[T]{id: uuid.New(), createdAt: time.Now().UTC(), err: err}
}

// FromPair returns Failure(err) if err is non-nil, otherwise Success(v).
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

func (r Result[T]) Value() T             { return r.value }
func (r Result[T]) Err() error           { return r.err }
func (r Result[T]) IsSuccess() bool      { return r.ok }
func (r Result[T]) ID() uuid.UUID        { return r.id }
func (r Result[T]) CreatedAt() time.Time { return r.createdAt }

// IsEmpty reports whether r is the zero Result.
func (r Result[T]) IsEmpty() bool { return !r.ok && r.err == nil }

// Unwrap returns the value and a nil error on success, the zero value and
// the failure otherwise.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	if r.err == nil {
		return zero, ErrEmptyResult
	}
	return zero, r.err
}

// Lift returns a Service whose input and output are Result[T]. A failed input
// is terminal: the stage fails with the carried error and fn is not called.
// A successful input is passed to fn and its output re-wrapped with Success.
func Lift[S, T any](name string, fn func(ctx context.Context, v T, shared *Shared[S]) (T, error)) Service[S] {
	return Typed[S, Result[T], Result[T]](name, func(ctx context.Context, in Result[T], shared *Shared[S]) (Result[T], error) {
		v, err := in.Unwrap()
		if err != nil {
			return Result[T]{}, err
		}
		out, err := fn(ctx, v, shared)
		if err != nil {
			return Result[T]{}, err
		}
		return Success(out), nil
	})
}
