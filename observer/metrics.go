package observer

import (
	"context"
	"sync"
	"time"

	"github.com/dcshock/servicepipe/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver records Prometheus metrics for runs and stages.
type MetricsObserver struct {
	runs          *prometheus.CounterVec
	inFlight      *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec

	names sync.Map // run ID -> pipeline name, between BeforeRun and AfterRun
}

// NewMetricsObserver creates the servicepipe_* collectors and registers them
// with reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepipe_runs_total",
			Help: "Pipeline runs by final status.",
		}, []string{"pipeline", "status"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "servicepipe_runs_in_flight",
			Help: "Pipeline runs currently executing.",
		}, []string{"pipeline"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicepipe_stage_duration_seconds",
			Help:    "Service call duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline", "service"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepipe_stage_failures_total",
			Help: "Service calls that returned an error.",
		}, []string{"pipeline", "service"}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.inFlight, m.stageDuration, m.stageFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// BeforeRun implements pipeline.Observer. Counts the run as in flight.
func (m *MetricsObserver) BeforeRun(ctx context.Context, runID, name string, input any) error {
	m.names.Store(runID, name)
	m.inFlight.WithLabelValues(name).Inc()
	return nil
}

// AfterRun implements pipeline.Observer. Counts the run by final status.
// Runs this observer never saw start are ignored.
func (m *MetricsObserver) AfterRun(ctx context.Context, runID string, output any, err error) error {
	v, ok := m.names.LoadAndDelete(runID)
	if !ok {
		return nil
	}
	name := v.(string)
	status := pipeline.StatusSucceeded
	if err != nil {
		status = pipeline.StatusFailed
	}
	m.inFlight.WithLabelValues(name).Dec()
	m.runs.WithLabelValues(name, status.String()).Inc()
	return nil
}

// BeforeStage implements pipeline.Observer.
func (m *MetricsObserver) BeforeStage(ctx context.Context, runID string, stage int, service string, input any) error {
	return nil
}

// AfterStage implements pipeline.Observer. Records the call duration and
// counts failures per service.
func (m *MetricsObserver) AfterStage(ctx context.Context, runID string, stage int, service string, input, output any, stageErr error, d time.Duration) error {
	info, _ := pipeline.RunInfoFromContext(ctx)
	m.stageDuration.WithLabelValues(info.Pipeline, service).Observe(d.Seconds())
	if stageErr != nil {
		m.stageFailures.WithLabelValues(info.Pipeline, service).Inc()
	}
	return nil
}

var _ pipeline.Observer = (*MetricsObserver)(nil)
