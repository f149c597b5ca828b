// Package protocols contains the Wayland protocol proxies this client speaks.
//
// The proxies are hand-written over wlturbo's transport: each one embeds
// wl.BaseProxy, sends requests through the shared context and decodes its own
// events in Dispatch. Only the interfaces needed for a toplevel window are
// implemented.
package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for the core compositor globals
const (
	CompositorInterface = "wl_compositor"
	SurfaceInterface    = "wl_surface"
)

// CompositorVersion is the highest wl_compositor version this client binds.
const CompositorVersion = 4

// Compositor represents the wl_compositor global, the surface factory
type Compositor struct {
	wl.BaseProxy
}

// NewCompositor creates a new compositor proxy
func NewCompositor(ctx *wl.Context) *Compositor {
	compositor := &Compositor{}
	compositor.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return compositor
}

// CreateSurface creates a new wl_surface
func (c *Compositor) CreateSurface() (*Surface, error) {
	surface := NewSurface(c.Context())

	// Opcode 0: create_surface
	const opcode = 0

	if err := c.Context().SendRequest(c, opcode, surface); err != nil {
		c.Context().Unregister(surface)
		return nil, err
	}

	return surface, nil
}

// Destroy destroys the compositor proxy (no destructor in the protocol)
func (c *Compositor) Destroy() error {
	c.Context().Unregister(c)
	return nil
}

// Dispatch handles incoming events (wl_compositor has no events)
func (c *Compositor) Dispatch(event *wl.Event) {}

// Surface represents a wl_surface, the presentation surface of the window
type Surface struct {
	wl.BaseProxy
	enterHandler func(output uint32)
	leaveHandler func(output uint32)
}

// NewSurface creates a new surface proxy
func NewSurface(ctx *wl.Context) *Surface {
	surface := &Surface{}
	surface.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	surface.SetID(id)
	ctx.Register(surface)
	return surface
}

// SetEnterHandler sets the handler for output enter events
func (s *Surface) SetEnterHandler(handler func(output uint32)) {
	s.enterHandler = handler
}

// SetLeaveHandler sets the handler for output leave events
func (s *Surface) SetLeaveHandler(handler func(output uint32)) {
	s.leaveHandler = handler
}

// Attach attaches a buffer to the surface
func (s *Surface) Attach(buffer *Buffer, x, y int32) error {
	// Opcode 1: attach
	const opcode = 1
	if buffer == nil {
		// A null buffer detaches; on the wire that is object id 0.
		return s.Context().SendRequest(s, opcode, uint32(0), x, y)
	}
	return s.Context().SendRequest(s, opcode, buffer, x, y)
}

// Damage marks a region of the surface as needing redraw
func (s *Surface) Damage(x, y, width, height int32) error {
	// Opcode 2: damage
	const opcode = 2
	return s.Context().SendRequest(s, opcode, x, y, width, height)
}

// Commit atomically applies all pending surface state
func (s *Surface) Commit() error {
	// Opcode 6: commit
	const opcode = 6
	return s.Context().SendRequest(s, opcode)
}

// Destroy destroys the surface
func (s *Surface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Dispatch handles incoming events
func (s *Surface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // enter
		if s.enterHandler != nil {
			s.enterHandler(event.Uint32())
		}
	case 1: // leave
		if s.leaveHandler != nil {
			s.leaveHandler(event.Uint32())
		}
	}
}
