package config

import (
	"fmt"
	"time"

	"github.com/dcshock/servicepipe/pipeline"
)

// BuildOptions configures how a processor is built from config.
type BuildOptions struct {
	// Observers resolves PipelineConfig.Observers. Required if any are listed.
	Observers *ObserverRegistry

	// Observer is added after the configured observers (e.g. a process-wide
	// metrics or log observer).
	Observer pipeline.Observer

	// DefaultTimeout applies to stages that don't set their own timeout.
	DefaultTimeout time.Duration

	// CheckTypes rejects pipelines whose adjacent services declare
	// incompatible types (see pipeline.Processor.CheckTypes).
	CheckTypes bool
}

// Build builds a processor from config and registry over shared. Service
// names in config must be registered. Each service is reported to observers
// under its config name.
func Build[S any](reg *Registry[S], cfg *PipelineConfig, shared *pipeline.Shared[S], opts *BuildOptions) (*pipeline.Processor[S], error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if opts == nil {
		opts = &BuildOptions{}
	}
	named := make([]pipeline.Service[S], 0, len(cfg.Stages))
	for i, ref := range cfg.Stages {
		if ref.Name == "" {
			return nil, fmt.Errorf("stage %d: name required", i)
		}
		svc, ok := reg.Get(ref.Name)
		if !ok {
			return nil, fmt.Errorf("stage %d: %q not in registry", i, ref.Name)
		}
		named = append(named, pipeline.Named(ref.Name, svc))
	}
	if opts.CheckTypes {
		if err := pipeline.New(shared, named).CheckTypes(); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", cfg.Name, err)
		}
	}
	services := make([]pipeline.Service[S], len(named))
	for i, svc := range named {
		timeout := cfg.Stages[i].Timeout.Duration()
		if timeout <= 0 {
			timeout = opts.DefaultTimeout
		}
		if timeout > 0 {
			svc = pipeline.WithTimeout(svc, timeout)
		}
		services[i] = svc
	}
	obs, err := BuildObserver(cfg, opts)
	if err != nil {
		return nil, err
	}
	return pipeline.New(shared, services, pipeline.WithName(cfg.Name), pipeline.WithObserver(obs)), nil
}

// BuildObserver returns a pipeline.Observer for the config's Observers list by looking up each name
// in BuildOptions.Observers, followed by BuildOptions.Observer, combined with pipeline.MultiObserver.
// Returns nil when there is nothing to observe. If any observer name is not registered, returns an error.
func BuildObserver(cfg *PipelineConfig, opts *BuildOptions) (pipeline.Observer, error) {
	var list []pipeline.Observer
	if cfg != nil && len(cfg.Observers) > 0 {
		if opts == nil || opts.Observers == nil {
			return nil, fmt.Errorf("pipeline %q lists observers but no observer registry is set", cfg.Name)
		}
		for i, name := range cfg.Observers {
			obs, ok := opts.Observers.Get(name)
			if !ok {
				return nil, fmt.Errorf("observer %d: %q not in registry", i, name)
			}
			list = append(list, obs)
		}
	}
	if opts != nil && opts.Observer != nil {
		list = append(list, opts.Observer)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return pipeline.MultiObserver(list...), nil
}

// BuildAll builds a processor for each entry in multi, all over the same
// shared context. Keys are pipeline names. If a pipeline config's Name is
// empty, the map key is used as the pipeline name.
func BuildAll[S any](reg *Registry[S], multi *MultiPipelineConfig, shared *pipeline.Shared[S], opts *BuildOptions) (map[string]*pipeline.Processor[S], error) {
	if multi == nil {
		return nil, fmt.Errorf("MultiPipelineConfig is nil")
	}
	out := make(map[string]*pipeline.Processor[S], len(multi.Pipelines))
	for name, cfg := range multi.Pipelines {
		if cfg.Name == "" {
			cfg.Name = name
		}
		p, err := Build(reg, &cfg, shared, opts)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
