package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dcshock/servicepipe/pipeline"
)

// StageRecord is one service call within a Run.
type StageRecord struct {
	Index    int
	Service  string
	Status   pipeline.Status
	Input    any
	Output   any
	Err      error
	Duration time.Duration
}

// Run is the tracked state of one pipeline run. Stage is the index of the
// stage currently running, or the failing stage once Status is Failed; it is
// -1 before the first stage starts. A run that fails between services (an
// aborting observer or a canceled context) reports the stage that was about
// to run.
type Run struct {
	ID         string
	Pipeline   string
	Status     pipeline.Status
	Stage      int
	Input      any
	Output     any
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []StageRecord
}

// Tracker keeps run records in memory and moves each through
// Pending -> Running(i) -> Running(i+1) | Failed(i) | Succeeded.
// Safe for concurrent runs.
type Tracker struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
	now   func() time.Time
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{runs: make(map[string]*Run), now: time.Now}
}

// BeforeRun implements pipeline.Observer. The run starts Pending.
func (t *Tracker) BeforeRun(ctx context.Context, runID, name string, input any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.runs[runID]; !ok {
		t.order = append(t.order, runID)
	}
	t.runs[runID] = &Run{
		ID:        runID,
		Pipeline:  name,
		Status:    pipeline.StatusPending,
		Stage:     -1,
		Input:     input,
		StartedAt: t.now(),
	}
	return nil
}

// BeforeStage implements pipeline.Observer. The run becomes Running(stage).
func (t *Tracker) BeforeStage(ctx context.Context, runID string, stage int, service string, input any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, err := t.active(runID)
	if err != nil {
		return err
	}
	run.Status = pipeline.StatusRunning
	run.Stage = stage
	run.Stages = append(run.Stages, StageRecord{
		Index:   stage,
		Service: service,
		Status:  pipeline.StatusRunning,
		Input:   input,
	})
	return nil
}

// AfterStage implements pipeline.Observer. A stage error moves the run to Failed(stage).
func (t *Tracker) AfterStage(ctx context.Context, runID string, stage int, service string, input, output any, stageErr error, d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, err := t.active(runID)
	if err != nil {
		return err
	}
	if len(run.Stages) == 0 || run.Stages[len(run.Stages)-1].Index != stage {
		return fmt.Errorf("tracker: run %s: stage %d was not started", runID, stage)
	}
	rec := &run.Stages[len(run.Stages)-1]
	rec.Output = output
	rec.Err = stageErr
	rec.Duration = d
	rec.Status = pipeline.StatusSucceeded
	if stageErr != nil {
		rec.Status = pipeline.StatusFailed
		run.Status = pipeline.StatusFailed
		run.Err = stageErr
	}
	return nil
}

// AfterRun implements pipeline.Observer. The run ends Succeeded or Failed.
func (t *Tracker) AfterRun(ctx context.Context, runID string, output any, err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, ok := t.runs[runID]
	if !ok {
		return fmt.Errorf("tracker: unknown run %s", runID)
	}
	run.FinishedAt = t.now()
	if err != nil {
		if run.Status != pipeline.StatusFailed {
			run.Stage = t.abortedStage(run, err)
		}
		run.Status = pipeline.StatusFailed
		run.Err = err
		return nil
	}
	run.Status = pipeline.StatusSucceeded
	run.Output = output
	return nil
}

// abortedStage closes a stage left running by an aborting observer, or
// returns the index of the next stage when the last one finished.
func (t *Tracker) abortedStage(run *Run, err error) int {
	if len(run.Stages) == 0 {
		return 0
	}
	last := &run.Stages[len(run.Stages)-1]
	if last.Status == pipeline.StatusRunning {
		last.Status = pipeline.StatusFailed
		last.Err = err
		return last.Index
	}
	return last.Index + 1
}

func (t *Tracker) active(runID string) (*Run, error) {
	run, ok := t.runs[runID]
	if !ok {
		return nil, fmt.Errorf("tracker: unknown run %s", runID)
	}
	if run.Status.Terminal() {
		return nil, fmt.Errorf("tracker: run %s already %s", runID, run.Status)
	}
	return run, nil
}

// Get returns a copy of the run record.
func (t *Tracker) Get(runID string) (Run, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	run, ok := t.runs[runID]
	if !ok {
		return Run{}, false
	}
	return run.clone(), true
}

// Runs returns copies of all run records in the order they started.
func (t *Tracker) Runs() []Run {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Run, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.runs[id].clone())
	}
	return out
}

func (r *Run) clone() Run {
	c := *r
	c.Stages = append([]StageRecord(nil), r.Stages...)
	return c
}

var _ pipeline.Observer = (*Tracker)(nil)
