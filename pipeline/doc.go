// Package pipeline runs an ordered sequence of services against a single
// input. A Processor holds the services and one Shared state; each run passes
// the input to the first service, feeds each service's output to the next,
// and returns the last output or the first failure. Services after a failing
// one are never called.
//
//	shared := pipeline.NewShared(pipeline.Values{"suffix": "A"})
//	p := pipeline.New(shared, []pipeline.Service[pipeline.Values]{
//	    parse,
//	    enrich,
//	    store,
//	}, pipeline.WithName("ingest"))
//	out, err := p.Execute(ctx, raw)
//
// # Shared state
//
// Shared is a reader/writer guarded container. Read returns the current
// value; Write replaces it; Update does read-modify-write under a single
// write lock. Any number of readers may hold the state at once, a writer
// holds it alone, and acquisition honours ctx cancellation. Values is a
// copy-on-write map suited as the state type; Get and Set read and write
// single keys.
//
// Writes are never rolled back: if stage 2 fails, whatever stages 0 and 1
// wrote stays visible to later runs. If an Update callback panics the state
// keeps its last committed value and the Shared remains usable.
//
// # Errors
//
// A failing service yields a *ServiceFailure carrying the stage index, the
// service name and the service's error unchanged. A panicking service yields
// a *ServiceFailure wrapping a *PanicError. Cancellation of ctx is checked
// before each stage; a run stopped that way returns an error wrapping
// ctx.Err(). There is no retry.
//
// # Observers
//
// Pass WithObserver (or RunOptions.Observer) to receive BeforeRun/AfterRun
// and BeforeStage/AfterStage hooks, e.g. for logging, metrics, or persisting
// run records. See package observer for implementations.
//
// # Types between stages
//
// Services exchange values as any. Typed, Transform and Lift adapt typed
// functions and declare their input and output types so CheckTypes can verify
// adjacent stages. Result is a success/failure value for pipelines where a
// single result type flows through every stage.
package pipeline
