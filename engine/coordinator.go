package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
)

type activeCall struct {
	cc      *core.CallContext
	cancel  context.CancelFunc
	tracked time.Time
}

// flight is one running async handler execution. Coalesced callers share it.
type flight struct {
	key    core.CallKey
	owner  core.CallID
	path   string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// Written before done is closed.
	value any
	err   error

	// Guarded by Coordinator.mu.
	waiters int
}

func newFlight(parent context.Context, cc *core.CallContext) *flight {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &flight{
		key:    cc.CallKey(),
		owner:  cc.ID(),
		path:   cc.Path(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// finish records the result and reports whether this call set it.
func (f *flight) finish(value any, err error) bool {
	won := false
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
		won = true
	})
	return won
}

// stop signals the work to stop and fails the flight with err.
func (f *flight) stop(err error) bool {
	f.cancel()
	return f.finish(nil, err)
}

// Coordinator executes resolved calls. It owns active-call tracking, the
// result cache, in-flight async executions and presentational waiters.
type Coordinator struct {
	mu           sync.Mutex
	active       map[string]*activeCall
	flights      map[core.CallKey]*flight
	flightByCall map[string]*flight
	syncKeys     map[core.CallKey]core.CallID
	bridge       core.PresentationBridge

	cache   *Cache
	waiters *waiterTable
	stats   *Stats
	config  Config
	logger  logging.Logger
	now     func() time.Time
}

// NewCoordinator creates a coordinator. A nil logger discards output.
func NewCoordinator(cfg Config, logger logging.Logger, now func() time.Time) *Coordinator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		active:       make(map[string]*activeCall),
		flights:      make(map[core.CallKey]*flight),
		flightByCall: make(map[string]*flight),
		syncKeys:     make(map[core.CallKey]core.CallID),
		cache:        NewCache(now),
		waiters:      newWaiterTable(now),
		stats:        &Stats{},
		config:       cfg,
		logger:       logger,
		now:          now,
	}
}

// SetBridge attaches the presentation bridge, replacing any previous one.
// The coordinator observes surface closes on the attached bridge.
func (c *Coordinator) SetBridge(b core.PresentationBridge) {
	c.mu.Lock()
	old := c.bridge
	c.bridge = b
	c.mu.Unlock()

	if old != nil {
		old.RemoveObserver(c)
	}
	if b != nil {
		b.AddObserver(c)
	}
}

// Bridge returns the attached bridge, or nil.
func (c *Coordinator) Bridge() core.PresentationBridge {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.bridge
}

// Track registers cc as active and returns a context that Cancel(cc.ID())
// cancels, plus the function that removes the registration.
func (c *Coordinator) Track(ctx context.Context, cc *core.CallContext) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.active[cc.ID().ID] = &activeCall{cc: cc, cancel: cancel, tracked: c.now()}
	c.mu.Unlock()

	return callCtx, func() {
		c.mu.Lock()
		if ac, ok := c.active[cc.ID().ID]; ok && ac.cc == cc {
			delete(c.active, cc.ID().ID)
		}
		c.mu.Unlock()
		cancel()
	}
}

// ActiveCalls returns the tracked calls ordered by creation time.
func (c *Coordinator) ActiveCalls() []*core.CallContext {
	c.mu.Lock()
	out := make([]*core.CallContext, 0, len(c.active))
	for _, ac := range c.active {
		out = append(out, ac.cc)
	}
	c.mu.Unlock()

	sortByCreation(out)

	return out
}

// Execute runs the handler of cc under the caching and concurrency rules of
// its route.
func (c *Coordinator) Execute(ctx context.Context, cc *core.CallContext) (any, error) {
	switch cc.Route().Kind() {
	case core.HandlerPresentational:
		return c.present(ctx, cc)
	case core.HandlerSync:
		return c.runSync(ctx, cc)
	case core.HandlerAsync:
		return c.runAsync(ctx, cc)
	default:
		return nil, &core.RouteError{Kind: core.KindHandlerNotImplemented, Detail: cc.Path()}
	}
}

func (c *Coordinator) cacheTTL(route *core.RouteDefinition) time.Duration {
	if route.CacheTTL > 0 {
		return route.CacheTTL
	}
	return c.config.DefaultCacheTTL
}

func (c *Coordinator) cached(cc *core.CallContext) (any, bool) {
	if !cc.Route().Caching {
		return nil, false
	}
	v, ok := c.cache.Get(cc.CallKey())
	if ok {
		c.stats.cacheHits.Inc()
		c.logger.Debug("cache hit", "path", cc.Path(), "call_id", cc.ID().ID)
	}
	return v, ok
}

func (c *Coordinator) runSync(ctx context.Context, cc *core.CallContext) (any, error) {
	fn, ok := cc.Route().Handler.Sync()
	if !ok {
		return nil, core.NewKindMismatch(cc.Path())
	}

	if v, ok := c.cached(cc); ok {
		return v, nil
	}

	key := cc.CallKey()
	if cc.Route().ConcurrencyControl {
		c.mu.Lock()
		_, busy := c.syncKeys[key]
		if _, flying := c.flights[key]; flying {
			busy = true
		}
		if busy {
			c.mu.Unlock()
			c.stats.duplicates.Inc()
			c.logger.Info("duplicate call rejected", "path", cc.Path(), "call_id", cc.ID().ID)
			return nil, core.NewDuplicateCall(cc.Path())
		}
		c.syncKeys[key] = cc.ID()
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			if id, ok := c.syncKeys[key]; ok && id.ID == cc.ID().ID {
				delete(c.syncKeys, key)
			}
			c.mu.Unlock()
		}()
	}

	v, err := safeSync(cc.Path(), fn, cc.MergedParams())
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, core.NewCancelled(cc.Path())
	}

	if cc.Route().Caching {
		c.cache.Set(key, v, c.cacheTTL(cc.Route()))
	}

	return v, nil
}

func (c *Coordinator) runAsync(ctx context.Context, cc *core.CallContext) (any, error) {
	fn, ok := cc.Route().Handler.Async()
	if !ok {
		return nil, core.NewKindMismatch(cc.Path())
	}

	if v, ok := c.cached(cc); ok {
		return v, nil
	}

	key := cc.CallKey()

	c.mu.Lock()
	if cc.Route().Caching {
		// A flight may have cached its result and left the table since
		// the check above.
		if v, ok := c.cache.Get(key); ok {
			c.mu.Unlock()
			c.stats.cacheHits.Inc()
			return v, nil
		}
	}
	if cc.Route().ConcurrencyControl {
		if f, ok := c.flights[key]; ok && f.ctx.Err() == nil {
			f.waiters++
			c.mu.Unlock()
			c.stats.coalesced.Inc()
			c.logger.Debug("coalescing with in-flight call", "path", cc.Path(), "call_id", cc.ID().ID, "owner", f.owner.ID)
			return c.await(ctx, f, cc)
		}
	}
	f := newFlight(ctx, cc)
	f.waiters = 1
	if cc.Route().ConcurrencyControl {
		c.flights[key] = f
	}
	c.flightByCall[cc.ID().ID] = f
	c.mu.Unlock()

	go c.fly(f, fn, cc)

	return c.await(ctx, f, cc)
}

func (c *Coordinator) fly(f *flight, fn core.AsyncFunc, cc *core.CallContext) {
	v, err := safeAsync(f.ctx, cc.Path(), fn, cc.MergedParams())
	if f.ctx.Err() != nil {
		v, err = nil, core.NewCancelled(cc.Path())
	}

	// Cache before leaving the flight table so that a caller arriving in
	// between either coalesces or hits the cache.
	if won := f.finish(v, err); won && err == nil && cc.Route().Caching {
		c.cache.Set(f.key, v, c.cacheTTL(cc.Route()))
	}

	c.mu.Lock()
	c.forget(f)
	c.mu.Unlock()

	f.cancel()
}

// forget removes f from the flight tables. c.mu must be held.
func (c *Coordinator) forget(f *flight) {
	if cur, ok := c.flights[f.key]; ok && cur == f {
		delete(c.flights, f.key)
	}
	if cur, ok := c.flightByCall[f.owner.ID]; ok && cur == f {
		delete(c.flightByCall, f.owner.ID)
	}
}

func (c *Coordinator) await(ctx context.Context, f *flight, cc *core.CallContext) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		c.mu.Lock()
		f.waiters--
		abandoned := f.waiters <= 0
		if abandoned {
			c.forget(f)
		}
		c.mu.Unlock()

		if abandoned {
			f.stop(core.NewCancelled(f.path))
		}
		return nil, core.NewCancelled(cc.Path())
	}
}

func (c *Coordinator) present(ctx context.Context, cc *core.CallContext) (any, error) {
	fn, ok := cc.Route().Handler.Presenter()
	if !ok {
		return nil, core.NewKindMismatch(cc.Path())
	}

	bridge := c.Bridge()
	if bridge == nil {
		return nil, core.ErrPresentationTargetNotSet
	}

	placeholder := placeholderHandle(cc.ID())
	w := c.waiters.register(placeholder, cc.ID(), cc.Path())

	var content core.Content
	err := bridge.RunOnUI(ctx, func() error {
		var err error
		content, err = safePresent(ctx, cc.Path(), fn, cc.MergedParams())
		return err
	})
	if err != nil {
		c.waiters.cancel(cc.ID())
		if core.KindOf(err) == 0 {
			if ctx.Err() != nil {
				return nil, core.NewCancelled(cc.Path())
			}
			err = core.NewHandlerFailed(cc.Path(), err)
		}
		return nil, err
	}

	handle, err := bridge.Show(ctx, content, cc.Intent())
	if err != nil {
		c.waiters.cancel(cc.ID())
		if ctx.Err() != nil {
			return nil, core.NewCancelled(cc.Path())
		}
		return nil, core.NewHandlerFailed(cc.Path(), fmt.Errorf("show: %w", err))
	}

	c.waiters.transfer(placeholder, handle)
	c.logger.Debug("surface shown", "path", cc.Path(), "call_id", cc.ID().ID, "handle", string(handle), "intent", cc.Intent().String())

	select {
	case r := <-w.done:
		return r.value, r.err
	case <-ctx.Done():
		c.waiters.cancel(cc.ID())
		return nil, core.NewCancelled(cc.Path())
	}
}

// Associate moves a pending completion from a placeholder handle to the
// final handle of the same surface.
func (c *Coordinator) Associate(placeholder, final core.SurfaceHandle) bool {
	return c.waiters.transfer(placeholder, final)
}

// SurfaceClosed resolves the call waiting on handle with result. It
// implements core.SurfaceObserver.
func (c *Coordinator) SurfaceClosed(handle core.SurfaceHandle, result any) {
	if !c.waiters.resolve(handle, result) {
		c.logger.Debug("close for unassociated surface parked", "handle", string(handle))
	}
}

// Cancel stops the call with id: its async work, its presentational waiter
// and its active registration. Cached results are kept.
func (c *Coordinator) Cancel(id core.CallID) bool {
	c.mu.Lock()
	ac, tracked := c.active[id.ID]
	if tracked {
		delete(c.active, id.ID)
	}
	f, flying := c.flightByCall[id.ID]
	if flying {
		c.forget(f)
	}
	c.mu.Unlock()

	waiting := c.waiters.cancel(id)

	if flying {
		f.stop(core.NewCancelled(f.path))
	}
	if tracked {
		ac.cancel()
	}

	if tracked || flying || waiting {
		c.stats.cancelled.Inc()
		c.logger.Info("call cancelled", "call_id", id.ID)
		return true
	}
	return false
}

// CancelAll cancels every tracked call and returns how many were cancelled.
func (c *Coordinator) CancelAll() int {
	c.mu.Lock()
	ids := make([]core.CallID, 0, len(c.active)+len(c.flightByCall))
	seen := make(map[string]struct{}, len(c.active))
	for _, ac := range c.active {
		ids = append(ids, ac.cc.ID())
		seen[ac.cc.ID().ID] = struct{}{}
	}
	for id, f := range c.flightByCall {
		if _, ok := seen[id]; !ok {
			ids = append(ids, f.owner)
		}
	}
	c.mu.Unlock()

	n := 0
	for _, id := range ids {
		if c.Cancel(id) {
			n++
		}
	}
	return n
}

// Sweep cancels active calls tracked for longer than maxAge, measured on the
// coordinator clock, and evicts expired cache entries and parked closes. It returns the number of cancelled calls and
// evicted entries.
func (c *Coordinator) Sweep(maxAge time.Duration) (cancelled, evicted int) {
	now := c.now()

	c.mu.Lock()
	stale := make([]core.CallID, 0)
	for _, ac := range c.active {
		if now.Sub(ac.tracked) > maxAge {
			stale = append(stale, ac.cc.ID())
		}
	}
	c.mu.Unlock()

	for _, id := range stale {
		if c.Cancel(id) {
			cancelled++
		}
	}

	evicted = c.cache.EvictExpired() + c.waiters.evictOrphans(maxAge)

	c.stats.swept.Add(int64(cancelled))
	c.stats.evicted.Add(int64(evicted))

	return cancelled, evicted
}

// Cache exposes the result cache.
func (c *Coordinator) Cache() *Cache { return c.cache }

// Counts returns the debug introspection counts.
func (c *Coordinator) Counts() (active, pending, inFlight, cached int) {
	c.mu.Lock()
	active = len(c.active)
	inFlight = len(c.flightByCall)
	c.mu.Unlock()

	return active, c.waiters.pending(), inFlight, c.cache.Len()
}

func safeSync(path string, fn core.SyncFunc, params core.Params) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewHandlerFailed(path, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err = fn(params)
	if err != nil {
		return nil, wrapHandlerErr(path, err)
	}
	return v, nil
}

func safeAsync(ctx context.Context, path string, fn core.AsyncFunc, params core.Params) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewHandlerFailed(path, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err = fn(ctx, params)
	if err != nil {
		return nil, wrapHandlerErr(path, err)
	}
	return v, nil
}

func safePresent(ctx context.Context, path string, fn core.PresentFunc, params core.Params) (content core.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewHandlerFailed(path, fmt.Errorf("panic: %v", r))
		}
	}()

	content, err = fn(ctx, params)
	if err != nil {
		return nil, wrapHandlerErr(path, err)
	}
	return content, nil
}

// wrapHandlerErr keeps RouteErrors raised by handlers and wraps anything else.
func wrapHandlerErr(path string, err error) error {
	if core.KindOf(err) != 0 {
		return err
	}
	return core.NewHandlerFailed(path, err)
}
