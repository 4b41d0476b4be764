package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// CallID identifies one logical call.
type CallID struct {
	ID        string
	CreatedAt time.Time
}

// NewCallID returns a fresh identity stamped with the current time.
func NewCallID() CallID {
	return CallID{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// IsZero reports whether the id is unset.
func (c CallID) IsZero() bool { return c.ID == "" }

func (c CallID) String() string {
	if len(c.ID) > 8 {
		return "call(" + c.ID[:8] + ")"
	}
	return "call(" + c.ID + ")"
}

// CallKey is the deterministic cache / dedup key for a (path, params) pair.
type CallKey string

// CanonicalPath folds path with Unicode case folding so that lookups and
// keys are case-insensitive.
func CanonicalPath(path string) string {
	// Casers are stateful; a fresh one per call keeps this safe for
	// concurrent use.
	return cases.Fold().String(path)
}

// NewCallKey digests the canonical path and the params. encoding/json sorts
// map keys, so insertion order does not affect the key.
func NewCallKey(path string, params Params) CallKey {
	h := sha256.New()
	h.Write([]byte(CanonicalPath(path)))
	h.Write([]byte{'?'})

	b, err := json.Marshal(params)
	if err != nil {
		// Values json cannot encode (funcs, channels) fall back to their Go syntax.
		b = []byte(fmt.Sprintf("%#v", map[string]any(params)))
	}
	h.Write(b)

	return CallKey(hex.EncodeToString(h.Sum(nil)))
}

// CallContext is the immutable record of one invocation. Use NewCallContext,
// DeriveRedirect or DeriveReplace to obtain one.
type CallContext struct {
	id     CallID
	origin CallID
	path   string
	params Params
	merged Params
	intent NavigationIntent
	route  *RouteDefinition
	key    CallKey
}

// NewCallContext builds a top-level context for route. params are the
// caller's parameters; override, if non-nil, forces the navigation intent of
// a presentational route.
func NewCallContext(route *RouteDefinition, params Params, override *NavigationIntent) *CallContext {
	return newCallContext(NewCallID(), CallID{}, route, params, route.ResolveIntent(override))
}

func newCallContext(id, origin CallID, route *RouteDefinition, params Params, intent NavigationIntent) *CallContext {
	raw := params.Clone()
	merged := route.MergedParams(raw)
	return &CallContext{
		id:     id,
		origin: origin,
		path:   route.Path,
		params: raw,
		merged: merged,
		intent: intent,
		route:  route,
		key:    NewCallKey(route.Path, merged),
	}
}

// DeriveRedirect builds the context of a redirect sub-call to target. The
// sub-call gets its own identity and records c as its origin. Parameters are
// target defaults overlaid with c's parameters; the intent is target's own
// when set, else c's.
func (c *CallContext) DeriveRedirect(target *RouteDefinition) *CallContext {
	return newCallContext(NewCallID(), c.id, target, c.params, c.derivedIntent(target))
}

// DeriveReplace builds the context of a replacement call to target. It is
// derived like a redirect but is dispatched as a full top-level call.
func (c *CallContext) DeriveReplace(target *RouteDefinition) *CallContext {
	return newCallContext(NewCallID(), c.id, target, c.params, c.derivedIntent(target))
}

func (c *CallContext) derivedIntent(target *RouteDefinition) NavigationIntent {
	if !target.IsPresentational() {
		return NavigationNone
	}
	if target.DefaultIntent != NavigationNone {
		return target.DefaultIntent
	}
	if c.intent != NavigationNone {
		return c.intent
	}
	return NavigationPush
}

// ID returns the call identity.
func (c *CallContext) ID() CallID { return c.id }

// Origin returns the identity of the call this one was derived from, or the
// zero CallID for a top-level call.
func (c *CallContext) Origin() CallID { return c.origin }

// Path returns the route path as registered.
func (c *CallContext) Path() string { return c.path }

// Params returns a copy of the caller's parameters.
func (c *CallContext) Params() Params { return c.params.Clone() }

// MergedParams returns a copy of the route defaults overlaid with the
// caller's parameters.
func (c *CallContext) MergedParams() Params { return c.merged.Clone() }

// Intent returns the resolved navigation intent.
func (c *CallContext) Intent() NavigationIntent { return c.intent }

// Route returns the owning definition.
func (c *CallContext) Route() *RouteDefinition { return c.route }

// CreatedAt returns the creation time of the call.
func (c *CallContext) CreatedAt() time.Time { return c.id.CreatedAt }

// CallKey returns the cache / dedup key of the call.
func (c *CallContext) CallKey() CallKey { return c.key }

// Age returns how long ago the call was created.
func (c *CallContext) Age() time.Duration { return time.Since(c.id.CreatedAt) }

// DebugInfo returns a loggable summary of the call.
func (c *CallContext) DebugInfo() map[string]any {
	info := map[string]any{
		"callId":     c.id.ID,
		"path":       c.path,
		"kind":       c.route.Kind().String(),
		"intent":     c.intent.String(),
		"params":     len(c.params),
		"createdAt":  c.id.CreatedAt.Format(time.RFC3339Nano),
		"callKey":    string(c.key),
		"caching":    c.route.Caching,
		"concurrent": c.route.ConcurrencyControl,
	}
	if !c.origin.IsZero() {
		info["originId"] = c.origin.ID
	}
	return info
}

func (c *CallContext) String() string {
	return fmt.Sprintf("CallContext(%s %s %s)", c.id, c.path, c.intent)
}
