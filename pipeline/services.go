// Package pipeline: standard services for common pipeline patterns.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ConvertFunc converts value of type A to type B. Used by Transform and MapSlice.
type ConvertFunc[A, B any] func(ctx context.Context, a A) (B, error)

// Transform returns a service that converts the previous stage's output (type A)
// to type B without touching shared state. Use it between services whose
// output and input types differ.
func Transform[S, A, B any](convert ConvertFunc[A, B]) Service[S] {
	return Typed("transform", func(ctx context.Context, a A, _ *Shared[S]) (B, error) {
		return convert(ctx, a)
	})
}

// Identity returns a service that passes the input through unchanged.
// Useful as a no-op, for observer boundaries, or as a placeholder.
func Identity[S any]() Service[S] {
	return Named[S]("identity", ServiceFunc[S](func(ctx context.Context, input any, _ *Shared[S]) (any, error) {
		return input, nil
	}))
}

// Tap returns a service that calls fn(ctx, input) then passes input through unchanged.
// Use for logging, metrics, or side effects without changing the value.
func Tap[S any](fn func(context.Context, any)) Service[S] {
	return Named[S]("tap", ServiceFunc[S](func(ctx context.Context, input any, _ *Shared[S]) (any, error) {
		fn(ctx, input)
		return input, nil
	}))
}

// Validate returns a service that passes input through only if predicate(v) is true.
// Otherwise it fails with errMsg ("validation failed" when empty).
// Input must be of type T.
func Validate[S, T any](predicate func(T) bool, errMsg string) Service[S] {
	if errMsg == "" {
		errMsg = "validation failed"
	}
	return Typed("validate", func(ctx context.Context, v T, _ *Shared[S]) (T, error) {
		if !predicate(v) {
			return v, errors.New(errMsg)
		}
		return v, nil
	})
}

// Constant returns a service that ignores input and always outputs value.
func Constant[S any](value any) Service[S] {
	return Named[S]("constant", ServiceFunc[S](func(context.Context, any, *Shared[S]) (any, error) {
		return value, nil
	}))
}

// WithTimeout wraps inner so it runs with a context deadline of now+timeout.
// If inner does not return before the deadline, context.DeadlineExceeded is
// returned. The wrapper keeps inner's name and Signature.
func WithTimeout[S any](inner Service[S], timeout time.Duration) Service[S] {
	n := named[S]{name: ServiceName(inner), Service: ServiceFunc[S](func(ctx context.Context, input any, shared *Shared[S]) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return inner.Call(ctx, input, shared)
	})}
	if sig, ok := inner.(Signature); ok {
		return namedSignature[S]{named: n, Signature: sig}
	}
	return n
}

// MapSlice returns a service that converts []T to []U using convert for each element.
func MapSlice[S, T, U any](convert ConvertFunc[T, U]) Service[S] {
	return Typed("mapslice", func(ctx context.Context, slice []T, _ *Shared[S]) ([]U, error) {
		out := make([]U, 0, len(slice))
		for i, v := range slice {
			u, err := convert(ctx, v)
			if err != nil {
				return nil, fmt.Errorf("mapslice[%d]: %w", i, err)
			}
			out = append(out, u)
		}
		return out, nil
	})
}

// FilterSlice returns a service that keeps only elements of []T for which keep(v) is true.
func FilterSlice[S, T any](keep func(T) bool) Service[S] {
	return Typed("filterslice", func(ctx context.Context, slice []T, _ *Shared[S]) ([]T, error) {
		out := make([]T, 0, len(slice))
		for _, v := range slice {
			if keep(v) {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

// ReadShared returns a service that ignores its input and outputs the current
// shared state.
func ReadShared[S any]() Service[S] {
	return Named[S]("read-shared", ServiceFunc[S](func(ctx context.Context, _ any, shared *Shared[S]) (any, error) {
		return shared.Read(ctx)
	}))
}

// UpdateShared returns a service that replaces the shared state with
// fn(state, input) and passes input through unchanged. If fn fails the state
// is not modified.
func UpdateShared[S any](fn func(state S, input any) (S, error)) Service[S] {
	return Named[S]("update-shared", ServiceFunc[S](func(ctx context.Context, input any, shared *Shared[S]) (any, error) {
		err := shared.Update(ctx, func(state S) (S, error) {
			return fn(state, input)
		})
		if err != nil {
			return nil, err
		}
		return input, nil
	}))
}
