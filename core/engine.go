package core

import "context"

// Dispatcher runs calls by path.
//
// Implementations must:
//   - Resolve path case-insensitively against their registry
//   - Run the interceptor chain in registration order
//   - Return exactly one Outcome per call, never panic across the boundary
//
// intent, when given, forces the navigation intent of a presentational route.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string, params Params, intent ...NavigationIntent) Outcome
}

// RouteLister enumerates registered routes in a stable order.
type RouteLister interface {
	Routes() []*RouteDefinition
}
