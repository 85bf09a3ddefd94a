// Package observer provides pipeline.Observer implementations.
//
//   - LogObserver: one slog record per run and stage boundary.
//   - Tracker: in-memory run records following each run through
//     Pending -> Running(stage) -> Succeeded | Failed(stage).
//   - PostgresObserver: persists each run and its stages to Postgres
//     (pipeline_run, pipeline_run_stage) for monitoring. Apply Schema with
//     Migrate first.
//   - MetricsObserver: Prometheus counters and histograms per pipeline and
//     service.
//
// Combine several with pipeline.MultiObserver.
package observer
