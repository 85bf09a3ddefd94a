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

func TestMetricsObserver_CountsRunsAndStages(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsObserver(reg)
	require.NoError(t, err)

	ok := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{upper(), upper()},
		pipeline.WithName("good"), pipeline.WithObserver(m))
	bad := pipeline.New(pipeline.NewShared(0), []pipeline.Service[int]{upper(), failing(errors.New("x"))},
		pipeline.WithName("bad"), pipeline.WithObserver(m))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := ok.Execute(ctx, "a")
		require.NoError(t, err)
	}
	_, err = bad.Execute(ctx, "a")
	require.Error(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.runs.WithLabelValues("good", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("bad", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageFailures.WithLabelValues("bad", "boom")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("good")))
	// good/upper, bad/upper, bad/boom
	assert.Equal(t, 3, testutil.CollectAndCount(m.stageDuration))
}

func TestNewMetricsObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsObserver(reg)
	require.NoError(t, err)
	_, err = NewMetricsObserver(reg)
	assert.Error(t, err)
}
