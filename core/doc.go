// Package core provides the data model and small interfaces shared by the
// routing engine:
//
//   - RouteDefinition and the closed Handler variant (presentational, sync, async)
//   - CallContext, CallID and CallKey for per-invocation identity
//   - Interceptor and Decision (continue / redirect / replace / reject)
//   - Outcome and the RouteError taxonomy
//   - PresentationBridge and SurfaceObserver, implemented by the UI layer
//
// Concrete behavior (registry, coordination, presentation) lives in sibling
// packages; core only depends on the standard library, uuid and x/text.
package core
