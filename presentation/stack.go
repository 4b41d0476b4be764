package presentation

import (
	"time"

	"github.com/hupe1980/routemesh/core"
)

// Surface is one presented piece of content.
type Surface struct {
	Handle  core.SurfaceHandle
	Content core.Content
	Intent  core.NavigationIntent
	ShownAt time.Time
}

// Modal reports whether the surface was presented modally.
func (s Surface) Modal() bool { return s.Intent == core.NavigationModal }

// Stack is the ordered list of presented surfaces, bottom first. It is not
// safe for concurrent use; StackBridge confines it to its UI goroutine.
type Stack struct {
	entries []Surface
}

// NewStack creates a new empty surface stack.
func NewStack() *Stack {
	return &Stack{entries: make([]Surface, 0)}
}

// Push adds a surface on top.
func (s *Stack) Push(surface Surface) {
	s.entries = append(s.entries, surface)
}

// Pop removes and returns the top surface. Returns nil if the stack is empty.
func (s *Stack) Pop() *Surface {
	if len(s.entries) == 0 {
		return nil
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return &top
}

// Peek returns the top surface without removing it, or nil.
func (s *Stack) Peek() *Surface {
	if len(s.entries) == 0 {
		return nil
	}
	top := s.entries[len(s.entries)-1]
	return &top
}

// Remove deletes the surface with handle and returns it, or nil.
func (s *Stack) Remove(handle core.SurfaceHandle) *Surface {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Handle == handle {
			removed := s.entries[i]
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return &removed
		}
	}
	return nil
}

// TopModal returns the handle of the topmost modal surface.
func (s *Stack) TopModal() (core.SurfaceHandle, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Modal() {
			return s.entries[i].Handle, true
		}
	}
	return "", false
}

// Drain removes every surface and returns them top first.
func (s *Stack) Drain() []Surface {
	out := make([]Surface, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i])
	}
	s.entries = s.entries[:0]
	return out
}

// Snapshot returns a copy of the entries, bottom first.
func (s *Stack) Snapshot() []Surface {
	out := make([]Surface, len(s.entries))
	copy(out, s.entries)
	return out
}

// IsEmpty returns true if the stack has no entries.
func (s *Stack) IsEmpty() bool { return len(s.entries) == 0 }

// Len returns the number of entries in the stack.
func (s *Stack) Len() int { return len(s.entries) }
