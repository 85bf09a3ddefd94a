package pipeline

import (
	"context"
	"fmt"
	"reflect"
)

// Service is one stage of a pipeline. Call receives the previous stage's
// output (or the run input for the first stage) and returns the input for the
// next stage. A Service may read and write shared during the call.
//
// Services must be safe for concurrent use: the same Service value is called
// by every run of the Processor that holds it.
type Service[S any] interface {
	Call(ctx context.Context, input any, shared *Shared[S]) (any, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc[S any] func(ctx context.Context, input any, shared *Shared[S]) (any, error)

// Call implements Service.
func (f ServiceFunc[S]) Call(ctx context.Context, input any, shared *Shared[S]) (any, error) {
	return f(ctx, input, shared)
}

// Namer is implemented by services that carry a name for errors, logs and
// observer hooks.
type Namer interface {
	Name() string
}

// Signature is implemented by services that declare their input and output
// types. Processor.CheckTypes uses it to verify adjacent stages.
type Signature interface {
	InputType() reflect.Type
	OutputType() reflect.Type
}

type named[S any] struct {
	Service[S]
	name string
}

func (n named[S]) Name() string { return n.name }

type namedSignature[S any] struct {
	named[S]
	Signature
}

// Named returns svc under the given name. A declared Signature is preserved.
func Named[S any](name string, svc Service[S]) Service[S] {
	n := named[S]{Service: svc, name: name}
	if sig, ok := svc.(Signature); ok {
		return namedSignature[S]{named: n, Signature: sig}
	}
	return n
}

// ServiceName returns the name of svc, or its Go type when it has none.
func ServiceName[S any](svc Service[S]) string {
	if n, ok := svc.(Namer); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("%T", svc)
}

type typed[S, In, Out any] struct {
	name string
	fn   func(context.Context, In, *Shared[S]) (Out, error)
}

// Typed returns a Service backed by a strongly typed function. The input is
// asserted to In; any other type fails the stage with a descriptive error.
// The returned Service declares its Signature.
func Typed[S, In, Out any](name string, fn func(ctx context.Context, in In, shared *Shared[S]) (Out, error)) Service[S] {
	return &typed[S, In, Out]{name: name, fn: fn}
}

func (t *typed[S, In, Out]) Call(ctx context.Context, input any, shared *Shared[S]) (any, error) {
	in, ok := input.(In)
	if !ok {
		if input != nil || !nillable(t.InputType()) {
			return nil, fmt.Errorf("%s: expected %v, got %T", t.name, t.InputType(), input)
		}
	}
	return t.fn(ctx, in, shared)
}

func (t *typed[S, In, Out]) Name() string             { return t.name }
func (t *typed[S, In, Out]) InputType() reflect.Type  { return reflect.TypeFor[In]() }
func (t *typed[S, In, Out]) OutputType() reflect.Type { return reflect.TypeFor[Out]() }

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
