package observer

import (
	"context"
	"errors"
	"testing"

	"github.com/dcshock/servicepipe/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper() pipeline.Service[int] {
	return pipeline.Typed("upper", func(_ context.Context, in string, _ *pipeline.Shared[int]) (string, error) {
		return in + "!", nil
	})
}

func failing(err error) pipeline.Service[int] {
	return pipeline.Named[int]("boom", pipeline.ServiceFunc[int](func(context.Context, any, *pipeline.Shared[int]) (any, error) {
		return nil, err
	}))
}

func TestTracker_SuccessfulRun(t *testing.T) {
	tr := NewTracker()
	p := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{upper(), upper()},
		pipeline.WithName("shout"), pipeline.WithObserver(tr))

	out, err := p.ExecuteWithOptions(context.Background(), "hi", &pipeline.RunOptions{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "hi!!", out)

	run, ok := tr.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, "shout", run.Pipeline)
	assert.Equal(t, pipeline.StatusSucceeded, run.Status)
	assert.Equal(t, 1, run.Stage)
	assert.Equal(t, "hi", run.Input)
	assert.Equal(t, "hi!!", run.Output)
	assert.NoError(t, run.Err)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
	require.Len(t, run.Stages, 2)
	for i, s := range run.Stages {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, "upper", s.Service)
		assert.Equal(t, pipeline.StatusSucceeded, s.Status)
	}
	assert.Equal(t, "hi!", run.Stages[1].Input)
}

func TestTracker_FailedRunStopsAtFailingStage(t *testing.T) {
	tr := NewTracker()
	boom := errors.New("boom")
	p := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{upper(), failing(boom), upper()},
		pipeline.WithObserver(tr))

	_, err := p.ExecuteWithOptions(context.Background(), "hi", &pipeline.RunOptions{RunID: "run-2"})
	require.ErrorIs(t, err, boom)

	run, ok := tr.Get("run-2")
	require.True(t, ok)
	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Equal(t, 1, run.Stage)
	require.Len(t, run.Stages, 2)
	assert.Equal(t, pipeline.StatusFailed, run.Stages[1].Status)
	assert.ErrorIs(t, run.Stages[1].Err, boom)
	assert.Nil(t, run.Output)
}

func TestTracker_EmptyPipelineGoesPendingToSucceeded(t *testing.T) {
	tr := NewTracker()
	p := pipeline.New[int](nil, nil, pipeline.WithObserver(tr))

	_, err := p.ExecuteWithOptions(context.Background(), 7, &pipeline.RunOptions{RunID: "empty"})
	require.NoError(t, err)

	run, _ := tr.Get("empty")
	assert.Equal(t, pipeline.StatusSucceeded, run.Status)
	assert.Equal(t, -1, run.Stage)
	assert.Equal(t, 7, run.Output)
	assert.Empty(t, run.Stages)
}

func TestTracker_RejectsUnknownAndFinishedRuns(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()

	assert.Error(t, tr.BeforeStage(ctx, "nope", 0, "s", nil))
	assert.Error(t, tr.AfterRun(ctx, "nope", nil, nil))

	require.NoError(t, tr.BeforeRun(ctx, "r", "p", nil))
	assert.Error(t, tr.AfterStage(ctx, "r", 0, "s", nil, nil, nil, 0), "stage never started")
	require.NoError(t, tr.AfterRun(ctx, "r", "done", nil))
	assert.Error(t, tr.BeforeStage(ctx, "r", 0, "s", nil), "run already succeeded")
}

func TestTracker_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()
	require.NoError(t, tr.BeforeRun(ctx, "r", "p", nil))
	require.NoError(t, tr.BeforeStage(ctx, "r", 0, "s", "in"))

	run, _ := tr.Get("r")
	run.Stages[0].Service = "changed"
	run.Status = pipeline.StatusFailed

	again, _ := tr.Get("r")
	assert.Equal(t, "s", again.Stages[0].Service)
	assert.Equal(t, pipeline.StatusRunning, again.Status)

	_, ok := tr.Get("missing")
	assert.False(t, ok)
}

func TestTracker_RunsInStartOrder(t *testing.T) {
	tr := NewTracker()
	p := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{upper()}, pipeline.WithObserver(tr))
	for _, id := range []string{"c", "a", "b"} {
		_, err := p.ExecuteWithOptions(context.Background(), "x", &pipeline.RunOptions{RunID: id})
		require.NoError(t, err)
	}
	runs := tr.Runs()
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
}

type refuseRun struct {
	pipeline.NopObserver
	err error
}

func (r refuseRun) BeforeRun(context.Context, string, string, any) error { return r.err }

func TestTracker_AbortedRunIsTerminal(t *testing.T) {
	tr := NewTracker()
	m, err := NewMetricsObserver(prometheus.NewRegistry())
	require.NoError(t, err)
	called := false
	svc := pipeline.ServiceFunc[int](func(context.Context, any, *pipeline.Shared[int]) (any, error) {
		called = true
		return nil, nil
	})
	obs := pipeline.MultiObserver(tr, m, refuseRun{err: errors.New("db down")})
	p := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{svc}, pipeline.WithName("guarded"), pipeline.WithObserver(obs))

	_, err = p.ExecuteWithOptions(context.Background(), "x", &pipeline.RunOptions{RunID: "r1"})
	require.EqualError(t, err, "before run: db down")
	assert.False(t, called)

	run, ok := tr.Get("r1")
	require.True(t, ok)
	assert.True(t, run.Status.Terminal())
	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Equal(t, 0, run.Stage)
	assert.Empty(t, run.Stages)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("guarded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("guarded", "failed")))
}

func TestTracker_CanceledRunReportsNextStage(t *testing.T) {
	tr := NewTracker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := pipeline.Typed("stop", func(_ context.Context, in string, _ *pipeline.Shared[int]) (string, error) {
		cancel()
		return in, nil
	})
	p := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{stop, upper()}, pipeline.WithObserver(tr))

	_, err := p.ExecuteWithOptions(ctx, "x", &pipeline.RunOptions{RunID: "c1"})
	require.ErrorIs(t, err, context.Canceled)

	run, _ := tr.Get("c1")
	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Equal(t, 1, run.Stage)
	require.Len(t, run.Stages, 1)
	assert.Equal(t, pipeline.StatusSucceeded, run.Stages[0].Status)
}

func TestTracker_BeforeStageAbortClosesStage(t *testing.T) {
	tr := NewTracker()
	refuse := &stageRefuser{err: errors.New("quota")}
	p := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{upper()},
		pipeline.WithObserver(pipeline.MultiObserver(tr, refuse)))

	_, err := p.ExecuteWithOptions(context.Background(), "x", &pipeline.RunOptions{RunID: "s1"})
	require.ErrorContains(t, err, "before stage 0: quota")

	run, _ := tr.Get("s1")
	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Equal(t, 0, run.Stage)
	require.Len(t, run.Stages, 1)
	assert.Equal(t, pipeline.StatusFailed, run.Stages[0].Status)
}

type stageRefuser struct {
	pipeline.NopObserver
	err error
}

func (s *stageRefuser) BeforeStage(context.Context, string, int, string, any) error { return s.err }
