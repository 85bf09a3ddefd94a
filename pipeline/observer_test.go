package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiObserver_SkipsNil(t *testing.T) {
	only := &hookObserver{}
	assert.Same(t, only, MultiObserver(nil, only, nil))
	assert.Empty(t, MultiObserver(nil, nil))
}

func TestMultiObserver_CallsEveryObserver(t *testing.T) {
	var calls []string
	first := &hookObserver{beforeStage: func(_ context.Context, _ string, _ int, service string, _ any) error {
		calls = append(calls, "first:"+service)
		return errors.New("first failed")
	}}
	second := &hookObserver{beforeStage: func(_ context.Context, _ string, _ int, service string, _ any) error {
		calls = append(calls, "second:"+service)
		return errors.New("second failed")
	}}

	err := MultiObserver(first, second).BeforeStage(context.Background(), "r", 0, "svc", nil)
	assert.Equal(t, []string{"first:svc", "second:svc"}, calls)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Equal(t, "first failed; second failed", err.Error())
}

func TestMultiObserver_SingleErrorUnwrapped(t *testing.T) {
	errDown := errors.New("db down")
	failing := &hookObserver{beforeRun: func(context.Context, string, string, any) error {
		return errDown
	}}

	err := MultiObserver(&hookObserver{}, failing).BeforeRun(context.Background(), "r", "p", nil)
	assert.Same(t, errDown, err)
}

func TestMultiObserver_NoErrors(t *testing.T) {
	obs := MultiObserver(&hookObserver{}, NopObserver{})
	ctx := context.Background()
	assert.NoError(t, obs.BeforeRun(ctx, "r", "p", nil))
	assert.NoError(t, obs.BeforeStage(ctx, "r", 0, "s", nil))
	assert.NoError(t, obs.AfterStage(ctx, "r", 0, "s", nil, nil, nil, 0))
	assert.NoError(t, obs.AfterRun(ctx, "r", nil, nil))
}

func TestProcessor_MultiObserverBeforeRunAborts(t *testing.T) {
	called := false
	svc := ServiceFunc[int](func(context.Context, any, *Shared[int]) (any, error) {
		called = true
		return nil, nil
	})
	failing := &hookObserver{beforeRun: func(context.Context, string, string, any) error {
		return errors.New("store down")
	}}
	var afterErr error
	opened := &hookObserver{afterRun: func(_ context.Context, _ string, _ any, err error) error {
		afterErr = err
		return nil
	}}
	p := New(NewShared(0), []Service[int]{svc}, WithObserver(MultiObserver(opened, failing)))

	_, err := p.Execute(context.Background(), 1)
	require.EqualError(t, err, "before run: store down")
	assert.False(t, called)
	assert.Equal(t, err, afterErr, "AfterRun should see the abort")
}
