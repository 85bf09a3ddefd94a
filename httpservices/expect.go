package httpservices

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dcshock/servicepipe/pipeline"
)

// Expect returns a service that runs the predicate on the input. If the predicate returns an error,
// the service returns that error and the run fails. Otherwise the input is passed through unchanged.
// Use after ParseJSON to verify the decoded result (e.g. check status field, required keys).
func Expect[S any](predicate func(any) error) pipeline.Service[S] {
	if predicate == nil {
		panic("httpservices.Expect: predicate must not be nil")
	}
	return pipeline.Named[S]("expect", pipeline.ServiceFunc[S](func(_ context.Context, input any, _ *pipeline.Shared[S]) (any, error) {
		if err := predicate(input); err != nil {
			return nil, fmt.Errorf("expect: %w", err)
		}
		return input, nil
	}))
}

// ExpectEqual returns a service that checks the input equals expected using reflect.DeepEqual.
// Works for primitives, slices, and maps (e.g. parsed JSON).
func ExpectEqual[S any](expected any) pipeline.Service[S] {
	return Expect[S](func(v any) error {
		if !reflect.DeepEqual(v, expected) {
			return fmt.Errorf("got %v, want %v", v, expected)
		}
		return nil
	})
}
