package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Observer provides pre/post hooks for a run and for each stage, e.g. to log,
// record metrics, or persist run state. BeforeRun is called before any
// service runs. BeforeStage/AfterStage are called around each service call
// with the stage index and service name. AfterRun is called when the run
// finishes (success or error), including a run aborted by BeforeRun.
//
// An error from BeforeRun or BeforeStage aborts the run. An error from
// AfterStage or AfterRun fails an otherwise successful run and never masks a
// service error.
type Observer interface {
	BeforeRun(ctx context.Context, runID, name string, input any) error
	AfterRun(ctx context.Context, runID string, output any, err error) error
	BeforeStage(ctx context.Context, runID string, stage int, service string, input any) error
	AfterStage(ctx context.Context, runID string, stage int, service string, input, output any, stageErr error, d time.Duration) error
}

// NopObserver implements Observer with no-op hooks. Embed it to implement
// only some hooks.
type NopObserver struct{}

func (NopObserver) BeforeRun(context.Context, string, string, any) error {
	return nil
}

func (NopObserver) AfterRun(context.Context, string, any, error) error {
	return nil
}

func (NopObserver) BeforeStage(context.Context, string, int, string, any) error {
	return nil
}

func (NopObserver) AfterStage(context.Context, string, int, string, any, any, error, time.Duration) error {
	return nil
}

type multiObserver []Observer

// MultiObserver returns an Observer that calls each non-nil observer in
// order. Every observer sees every hook. A single error is returned as is;
// several are combined into a *multierror.Error with a one-line message.
func MultiObserver(observers ...Observer) Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

func (m multiObserver) BeforeRun(ctx context.Context, runID, name string, input any) error {
	var result *multierror.Error
	for _, o := range m {
		if err := o.BeforeRun(ctx, runID, name, input); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return combine(result)
}

func (m multiObserver) AfterRun(ctx context.Context, runID string, output any, err error) error {
	var result *multierror.Error
	for _, o := range m {
		if hookErr := o.AfterRun(ctx, runID, output, err); hookErr != nil {
			result = multierror.Append(result, hookErr)
		}
	}
	return combine(result)
}

func (m multiObserver) BeforeStage(ctx context.Context, runID string, stage int, service string, input any) error {
	var result *multierror.Error
	for _, o := range m {
		if err := o.BeforeStage(ctx, runID, stage, service, input); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return combine(result)
}

func (m multiObserver) AfterStage(ctx context.Context, runID string, stage int, service string, input, output any, stageErr error, d time.Duration) error {
	var result *multierror.Error
	for _, o := range m {
		if err := o.AfterStage(ctx, runID, stage, service, input, output, stageErr, d); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return combine(result)
}

func combine(result *multierror.Error) error {
	if result == nil {
		return nil
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	result.ErrorFormat = joinErrors
	return result
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
