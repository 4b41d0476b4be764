// Package engine implements call coordination for routemesh.
//
// The Engine resolves a path against the registry, runs the resulting call
// through the interceptor Pipeline and hands it to the Coordinator, which
// executes the handler exactly once under the caching and concurrency rules
// of the route and correlates deferred completions back to the caller.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│                 Engine (Dispatch)                       │
//	├─────────────────────────────────────────────────────────┤
//	│  Registry lookup ──▶ CallContext ──▶ Pipeline           │
//	│                          ▲              │ redirect /    │
//	│                          └──────────────┘ replace hops  │
//	├─────────────────────────────────────────────────────────┤
//	│                    Coordinator                          │
//	│  ┌────────────┐ ┌─────────────┐ ┌──────────────────┐    │
//	│  │ TTL Cache  │ │ Sync dedup/ │ │ Presentational   │    │
//	│  │            │ │ Async flight│ │ waiter table     │    │
//	│  └────────────┘ └─────────────┘ └──────────────────┘    │
//	├─────────────────────────────────────────────────────────┤
//	│  Sweeper: cancels stale calls, evicts expired entries   │
//	└─────────────────────────────────────────────────────────┘
//
// # Handler kinds
//
// Synchronous actions run on the dispatching goroutine. With concurrency
// control a second call with the same CallKey fails fast with
// DuplicateCallInProgress.
//
// Asynchronous actions run as a cancellable unit of work. With concurrency
// control later callers with the same CallKey coalesce onto the running
// execution and observe the same value or error.
//
// Presentational handlers run on the bridge's UI context. The content is
// shown and the call completes when the surface closes; its result is the
// value the surface closed with.
//
// # Usage
//
//	reg := registry.New()
//	_ = reg.Register(core.MustRoute("/calculate", core.SyncAction(calc)))
//
//	eng := engine.New(reg, func(o *engine.Options) { o.Logger = logger })
//	eng.Start(ctx)
//	defer eng.Close()
//
//	out := eng.Dispatch(ctx, "/calculate", core.Params{"a": 1.0, "b": 2.0, "operation": "add"})
//
// # Concurrency Model
//
// Registry and coordinator bookkeeping are guarded by mutexes; handler
// bodies, interceptors and bridge calls run outside any lock so that other
// calls may dispatch and complete while one is suspended. Cancellation is
// binding for bookkeeping: a cancelled call never resolves as a success.
package engine
