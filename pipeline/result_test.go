package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Variants(t *testing.T) {
	ok := Success(42)
	assert.True(t, ok.IsSuccess())
	assert.NoError(t, ok.Err())
	assert.Equal(t, 42, ok.Value())
	assert.NotEqual(t, uuid.Nil, ok.ID())
	assert.False(t, ok.CreatedAt().IsZero())

	errBad := errors.New("bad")
	fail := Failure[int](errBad)
	assert.False(t, fail.IsSuccess())
	assert.Same(t, errBad, fail.Err())
	assert.Zero(t, fail.Value())
	assert.NotEqual(t, ok.ID(), fail.ID())

	var empty Result[int]
	assert.True(t, empty.IsEmpty())
	assert.False(t, ok.IsEmpty())
	assert.False(t, fail.IsEmpty())
}

func TestResult_Unwrap(t *testing.T) {
	v, err := Success("x").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	errBad := errors.New("bad")
	_, err = Failure[string](errBad).Unwrap()
	assert.ErrorIs(t, err, errBad)

	_, err = Result[string]{}.Unwrap()
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestFromPair(t *testing.T) {
	assert.True(t, FromPair(1, nil).IsSuccess())
	r := FromPair(1, errors.New("e"))
	assert.False(t, r.IsSuccess())
	assert.Zero(t, r.Value())
}

func TestLift_FailedInputIsTerminal(t *testing.T) {
	var calls int
	svc := Lift("count", func(_ context.Context, n int, _ *Shared[Values]) (int, error) {
		calls++
		return n + 1, nil
	})
	errUp := errors.New("upstream")
	p := New(NewShared(Values{}), []Service[Values]{svc, svc})

	_, err := p.Execute(context.Background(), Failure[int](errUp))
	assert.ErrorIs(t, err, errUp)
	assert.Zero(t, calls)

	out, err := p.Execute(context.Background(), Success(1))
	require.NoError(t, err)
	assert.Equal(t, 3, out.(Result[int]).Value())
	assert.Equal(t, 2, calls)
	assert.NoError(t, p.CheckTypes())
}
