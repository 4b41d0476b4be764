package core

import (
	"context"
	"sync"
)

// DefaultMaxRedirectDepth bounds nested redirect sub-calls.
const DefaultMaxRedirectDepth = 5

// DepthLimiter tracks the nesting depth of one redirect chain.
type DepthLimiter struct {
	max   int
	depth int
	mu    sync.Mutex
}

// NewDepthLimiter creates a limiter allowing max nested levels.
// If max <= 0, DefaultMaxRedirectDepth is used.
func NewDepthLimiter(max int) *DepthLimiter {
	if max <= 0 {
		max = DefaultMaxRedirectDepth
	}
	return &DepthLimiter{max: max}
}

// Enter increases the depth and returns a RedirectDepthExceeded error if the
// limit is exceeded. The depth is not changed on error.
func (dl *DepthLimiter) Enter() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.depth >= dl.max {
		return NewRedirectDepthExceeded(dl.max)
	}
	dl.depth++

	return nil
}

// Leave decreases the depth. Call it once for every successful Enter.
func (dl *DepthLimiter) Leave() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.depth > 0 {
		dl.depth--
	}
}

// Depth returns the current depth.
func (dl *DepthLimiter) Depth() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	return dl.depth
}

// Max returns the configured limit.
func (dl *DepthLimiter) Max() int { return dl.max }

type depthLimiterKey struct{}

// WithDepthLimiter returns a child context carrying dl.
func WithDepthLimiter(ctx context.Context, dl *DepthLimiter) context.Context {
	return context.WithValue(ctx, depthLimiterKey{}, dl)
}

// DepthLimiterFrom returns the limiter carried by ctx, if any.
func DepthLimiterFrom(ctx context.Context) (*DepthLimiter, bool) {
	dl, ok := ctx.Value(depthLimiterKey{}).(*DepthLimiter)
	return dl, ok
}
