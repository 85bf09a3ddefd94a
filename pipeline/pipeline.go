package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Processor runs an ordered sequence of services against one input at a time,
// all sharing one Shared state. The sequence is fixed at construction. A
// Processor is safe for concurrent use; concurrent runs interleave freely and
// only Shared serialises their writes.
type Processor[S any] struct {
	name     string
	shared   *Shared[S]
	services []Service[S]
	observer Observer
}

type options struct {
	name     string
	observer Observer
}

// Option configures a Processor.
type Option func(*options)

// WithName names the processor. The name is passed to Observer.BeforeRun and
// carried in RunInfo.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithObserver sets the default observer for every run. RunOptions.Observer
// overrides it for a single run.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// New returns a Processor over shared and services. The services slice is
// copied; an empty slice yields a processor whose runs return their input
// unchanged. A nil shared is replaced by a Shared holding the zero S.
func New[S any](shared *Shared[S], services []Service[S], opts ...Option) *Processor[S] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if shared == nil {
		var zero S
		shared = NewShared(zero)
	}
	return &Processor[S]{
		name:     o.name,
		shared:   shared,
		services: append([]Service[S](nil), services...),
		observer: o.observer,
	}
}

// Name returns the name set with WithName.
func (p *Processor[S]) Name() string { return p.name }

// Len returns the number of services.
func (p *Processor[S]) Len() int { return len(p.services) }

// Shared returns the state shared by every run.
func (p *Processor[S]) Shared() *Shared[S] { return p.shared }

// Services returns a copy of the service sequence.
func (p *Processor[S]) Services() []Service[S] {
	return append([]Service[S](nil), p.services...)
}

// RunOptions overrides per-run settings. If RunID is empty a new UUID is
// generated.
type RunOptions struct {
	RunID    string
	Observer Observer
}

// RunInfo describes the run and stage a service call belongs to. It is
// available to services through RunInfoFromContext.
type RunInfo struct {
	RunID    string
	Pipeline string
	Stage    int
	Service  string
}

type runInfoKey struct{}

// RunInfoFromContext returns the RunInfo attached to a service call context.
func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}

// Execute runs every service in order. The input is passed to the first
// service; each service's output is the next one's input. Returns the last
// service's output, or the first error as a *ServiceFailure. Services after
// a failing one are never called. Shared writes made by services that ran
// before the failure are kept.
func (p *Processor[S]) Execute(ctx context.Context, input any) (any, error) {
	return p.ExecuteWithOptions(ctx, input, nil)
}

// ExecuteWithOptions is Execute with a per-run ID and observer. AfterRun is
// called for every run whose BeforeRun was called, including runs that
// BeforeRun aborted.
func (p *Processor[S]) ExecuteWithOptions(ctx context.Context, input any, opts *RunOptions) (any, error) {
	obs := p.observer
	var runID string
	if opts != nil {
		if opts.Observer != nil {
			obs = opts.Observer
		}
		runID = opts.RunID
	}
	if runID == "" {
		runID = uuid.New().String()
	}
	if obs == nil {
		return p.runServices(ctx, input, nil, runID)
	}
	if err := obs.BeforeRun(ctx, runID, p.name, input); err != nil {
		// Observers that did open the run still see it end.
		err = fmt.Errorf("before run: %w", err)
		_ = obs.AfterRun(ctx, runID, nil, err)
		return nil, err
	}
	out, err := p.runServices(ctx, input, obs, runID)
	if postErr := obs.AfterRun(ctx, runID, out, err); postErr != nil {
		// Don't mask the run error
		if err == nil {
			out, err = nil, fmt.Errorf("after run: %w", postErr)
		}
	}
	return out, err
}

// ExecuteAsync runs Execute in a new goroutine. The returned channel delivers
// exactly one Result and is then closed.
func (p *Processor[S]) ExecuteAsync(ctx context.Context, input any) <-chan Result[any] {
	ch := make(chan Result[any], 1)
	go func() {
		defer close(ch)
		out, err := p.Execute(ctx, input)
		ch <- FromPair(out, err)
	}()
	return ch
}

func (p *Processor[S]) runServices(ctx context.Context, input any, obs Observer, runID string) (any, error) {
	current := input
	for i, svc := range p.services {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run canceled before stage %d: %w", i, err)
		}
		name := ServiceName(svc)
		stageCtx := context.WithValue(ctx, runInfoKey{}, RunInfo{RunID: runID, Pipeline: p.name, Stage: i, Service: name})
		if obs != nil {
			if err := obs.BeforeStage(stageCtx, runID, i, name, current); err != nil {
				return nil, fmt.Errorf("before stage %d: %w", i, err)
			}
		}
		start := time.Now()
		next, stageErr := callService(stageCtx, svc, current, p.shared)
		if obs != nil {
			if postErr := obs.AfterStage(stageCtx, runID, i, name, current, next, stageErr, time.Since(start)); postErr != nil && stageErr == nil {
				return nil, fmt.Errorf("after stage %d: %w", i, postErr)
			}
		}
		if stageErr != nil {
			return nil, &ServiceFailure{Stage: i, Service: name, Err: stageErr}
		}
		current = next
	}
	return current, nil
}

func callService[S any](ctx context.Context, svc Service[S], input any, shared *Shared[S]) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, newPanicError(r)
		}
	}()
	return svc.Call(ctx, input, shared)
}

// CheckTypes verifies that each service's declared output type is assignable
// to the next service's declared input type. Pairs where either side has no
// Signature, or where the output is an interface type, are not checked.
func (p *Processor[S]) CheckTypes() error {
	for i := 0; i+1 < len(p.services); i++ {
		from, ok := p.services[i].(Signature)
		if !ok {
			continue
		}
		to, ok := p.services[i+1].(Signature)
		if !ok {
			continue
		}
		out, in := from.OutputType(), to.InputType()
		if out.Kind() == reflect.Interface || out.AssignableTo(in) {
			continue
		}
		return fmt.Errorf("stage %d (%s) outputs %v but stage %d (%s) expects %v",
			i, ServiceName(p.services[i]), out, i+1, ServiceName(p.services[i+1]), in)
	}
	return nil
}
