package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/routemesh/core"
)

type recorder struct {
	closed []core.SurfaceHandle
}

func (r *recorder) SurfaceClosed(h core.SurfaceHandle, _ any) { r.closed = append(r.closed, h) }

func TestMulticast_AddIsIdempotent(t *testing.T) {
	m := NewMulticast()
	r := &recorder{}

	m.Add(r)
	m.Add(r)
	m.Add(nil)

	assert.Equal(t, 1, m.Len())

	m.Notify("h1", nil)
	assert.Equal(t, []core.SurfaceHandle{"h1"}, r.closed)
}

func TestMulticast_Remove(t *testing.T) {
	m := NewMulticast()
	a, b := &recorder{}, &recorder{}
	m.Add(a)
	m.Add(b)

	assert.True(t, m.Remove(a))
	assert.False(t, m.Remove(a))

	m.Notify("h1", nil)
	assert.Empty(t, a.closed)
	assert.Len(t, b.closed, 1)
}

func TestMulticast_FuncObserverCannotBeRemoved(t *testing.T) {
	m := NewMulticast()
	calls := 0
	fn := core.SurfaceObserverFunc(func(core.SurfaceHandle, any) { calls++ })

	m.Add(fn)
	m.Add(fn)
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.Remove(fn))

	m.Notify("h", nil)
	assert.Equal(t, 2, calls)

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

type selfRemover struct {
	m     *Multicast
	calls int
}

func (s *selfRemover) SurfaceClosed(core.SurfaceHandle, any) {
	s.calls++
	s.m.Remove(s)
}

func TestMulticast_RemoveDuringNotify(t *testing.T) {
	m := NewMulticast()
	s := &selfRemover{m: m}
	r := &recorder{}
	m.Add(s)
	m.Add(r)

	m.Notify("h1", nil)
	m.Notify("h2", nil)

	assert.Equal(t, 1, s.calls)
	assert.Len(t, r.closed, 2)
}
