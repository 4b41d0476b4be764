package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCallKey_OrderAndCaseInsensitive(t *testing.T) {
	a := Params{}
	a["x"] = 1
	a["y"] = "two"

	b := Params{}
	b["y"] = "two"
	b["x"] = 1

	assert.Equal(t, NewCallKey("/Calc", a), NewCallKey("/calc", b))
	assert.NotEqual(t, NewCallKey("/calc", a), NewCallKey("/calc", Params{"x": 2, "y": "two"}))
	assert.NotEqual(t, NewCallKey("/calc", a), NewCallKey("/other", a))
	assert.Len(t, string(NewCallKey("/calc", nil)), 64)
}

func TestNewCallKey_UnencodableValues(t *testing.T) {
	p := Params{"fn": func() {}}
	assert.NotPanics(t, func() { _ = NewCallKey("/x", p) })
}

func TestCallContext_Immutable(t *testing.T) {
	r := MustRoute("/x", SyncAction(noopSync), WithDefaultParams(func() Params { return Params{"d": 1} }))
	params := Params{"a": 1}

	cc := NewCallContext(r, params, nil)
	params["a"] = 2

	assert.Equal(t, 1, cc.Params()["a"])
	got := cc.Params()
	got["a"] = 3
	assert.Equal(t, 1, cc.Params()["a"])
	assert.Equal(t, Params{"a": 1, "d": 1}, cc.MergedParams())
	assert.Equal(t, NavigationNone, cc.Intent())
	assert.True(t, cc.Origin().IsZero())
	assert.Equal(t, NewCallKey("/x", Params{"a": 1, "d": 1}), cc.CallKey())
}

func TestCallContext_DeriveRedirect(t *testing.T) {
	origin := MustRoute("/profile", Presentational(noopPresent), WithNavigationIntent(NavigationPush))
	login := MustRoute("/login", Presentational(noopPresent),
		WithNavigationIntent(NavigationModal),
		WithDefaultParams(func() Params { return Params{"reason": "auth", "user": "guest"} }),
	)
	plain := MustRoute("/plain", Presentational(noopPresent))

	cc := NewCallContext(origin, Params{"user": "bob"}, nil)

	sub := cc.DeriveRedirect(login)
	require.NotNil(t, sub)
	assert.NotEqual(t, cc.ID(), sub.ID())
	assert.Equal(t, cc.ID(), sub.Origin())
	assert.Equal(t, "/login", sub.Path())
	assert.Equal(t, NavigationModal, sub.Intent())
	assert.Equal(t, Params{"reason": "auth", "user": "bob"}, sub.MergedParams())

	// Original stays untouched.
	assert.Equal(t, "/profile", cc.Path())
	assert.Equal(t, Params{"user": "bob"}, cc.Params())

	inherit := cc.DeriveReplace(plain)
	assert.Equal(t, NavigationPush, inherit.Intent())
	assert.Equal(t, cc.ID(), inherit.Origin())

	action := MustRoute("/act", SyncAction(noopSync))
	assert.Equal(t, NavigationNone, cc.DeriveReplace(action).Intent())
}

func TestCallContext_DebugInfo(t *testing.T) {
	r := MustRoute("/x", AsyncAction(noopAsync))
	cc := NewCallContext(r, Params{"a": 1}, nil)
	info := cc.DebugInfo()
	assert.Equal(t, "/x", info["path"])
	assert.Equal(t, "AsyncAction", info["kind"])
	assert.Equal(t, true, info["caching"])
	assert.NotContains(t, info, "originId")
}
