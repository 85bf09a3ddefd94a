package pipeline

import (
	"context"
	"maps"
)

// Values is a string-keyed bag of arbitrary values, meant to be used as the
// state of a Shared. It is copy-on-write: With and Without return new maps
// and never modify the receiver, so a snapshot obtained from Shared.Read
// never changes underneath its holder.
type Values map[string]any

// With returns a copy of v with key set to value.
func (v Values) With(key string, value any) Values {
	out := make(Values, len(v)+1)
	maps.Copy(out, v)
	out[key] = value
	return out
}

// Without returns a copy of v without key.
func (v Values) Without(key string) Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	delete(out, key)
	return out
}

// Lookup returns the value stored under key as a T. The second result is
// false if the key is missing or holds a value of another type.
func Lookup[T any](v Values, key string) (T, bool) {
	raw, ok := v[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := raw.(T)
	return t, ok
}

// Get reads key from shared as a T.
func Get[T any](ctx context.Context, shared *Shared[Values], key string) (T, bool, error) {
	v, err := shared.Read(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	t, ok := Lookup[T](v, key)
	return t, ok, nil
}

// Set stores value under key in shared.
func Set(ctx context.Context, shared *Shared[Values], key string, value any) error {
	return shared.Update(ctx, func(v Values) (Values, error) {
		return v.With(key, value), nil
	})
}
