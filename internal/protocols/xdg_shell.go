package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for xdg-shell
const (
	WmBaseInterface      = "xdg_wm_base"
	XdgSurfaceInterface  = "xdg_surface"
	XdgToplevelInterface = "xdg_toplevel"
)

// WmBaseVersion is the xdg_wm_base version this client binds.
const WmBaseVersion = 1

// WmBase represents the xdg_wm_base global, the window-management entry point.
// Liveness pings are answered from Dispatch, so the proxy is never observable
// without its ping handler.
type WmBase struct {
	wl.BaseProxy
	pingHandler func(serial uint32)
}

// NewWmBase creates a new wm base proxy
func NewWmBase(ctx *wl.Context) *WmBase {
	wmBase := &WmBase{}
	wmBase.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return wmBase
}

// SetPingHandler sets an observer for ping events. The pong is sent by
// Dispatch regardless; the handler is informational.
func (w *WmBase) SetPingHandler(handler func(serial uint32)) {
	w.pingHandler = handler
}

// GetXdgSurface wraps a wl_surface in an xdg_surface
func (w *WmBase) GetXdgSurface(surface *Surface) (*XdgSurface, error) {
	xdgSurface := NewXdgSurface(w.Context())

	// Opcode 2: get_xdg_surface
	const opcode = 2

	if err := w.Context().SendRequest(w, opcode, xdgSurface, surface); err != nil {
		w.Context().Unregister(xdgSurface)
		return nil, err
	}

	return xdgSurface, nil
}

// Pong answers a ping event
func (w *WmBase) Pong(serial uint32) error {
	// Opcode 3: pong
	const opcode = 3
	return w.Context().SendRequest(w, opcode, serial)
}

// Destroy destroys the wm base
func (w *WmBase) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := w.Context().SendRequest(w, opcode)
	w.Context().Unregister(w)
	return err
}

// Dispatch handles incoming events
func (w *WmBase) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // ping
		serial := event.Uint32()
		_ = w.Pong(serial)
		if w.pingHandler != nil {
			w.pingHandler(serial)
		}
	}
}

// XdgSurface represents an xdg_surface layered on a wl_surface
type XdgSurface struct {
	wl.BaseProxy
	configureHandler func(serial uint32)
}

// NewXdgSurface creates a new xdg surface proxy
func NewXdgSurface(ctx *wl.Context) *XdgSurface {
	xdgSurface := &XdgSurface{}
	xdgSurface.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	xdgSurface.SetID(id)
	ctx.Register(xdgSurface)
	return xdgSurface
}

// SetConfigureHandler sets the handler for configure events
func (x *XdgSurface) SetConfigureHandler(handler func(serial uint32)) {
	x.configureHandler = handler
}

// GetToplevel assigns the toplevel role to the xdg surface
func (x *XdgSurface) GetToplevel() (*XdgToplevel, error) {
	toplevel := NewXdgToplevel(x.Context())

	// Opcode 1: get_toplevel
	const opcode = 1

	if err := x.Context().SendRequest(x, opcode, toplevel); err != nil {
		x.Context().Unregister(toplevel)
		return nil, err
	}

	return toplevel, nil
}

// AckConfigure acknowledges a configure event by its serial
func (x *XdgSurface) AckConfigure(serial uint32) error {
	// Opcode 4: ack_configure
	const opcode = 4
	return x.Context().SendRequest(x, opcode, serial)
}

// Destroy destroys the xdg surface
func (x *XdgSurface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := x.Context().SendRequest(x, opcode)
	x.Context().Unregister(x)
	return err
}

// Dispatch handles incoming events
func (x *XdgSurface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		if x.configureHandler != nil {
			serial := event.Uint32()
			x.configureHandler(serial)
		}
	}
}

// XdgToplevel represents an xdg_toplevel, the actual window role
type XdgToplevel struct {
	wl.BaseProxy
	configureHandler func(width, height int32)
	closeHandler     func()
}

// NewXdgToplevel creates a new toplevel proxy
func NewXdgToplevel(ctx *wl.Context) *XdgToplevel {
	toplevel := &XdgToplevel{}
	toplevel.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	toplevel.SetID(id)
	ctx.Register(toplevel)
	return toplevel
}

// SetConfigureHandler sets the handler for configure events. The window-state
// array that follows the dimensions is not decoded.
func (t *XdgToplevel) SetConfigureHandler(handler func(width, height int32)) {
	t.configureHandler = handler
}

// SetCloseHandler sets the handler for close events
func (t *XdgToplevel) SetCloseHandler(handler func()) {
	t.closeHandler = handler
}

// SetTitle sets the window title
func (t *XdgToplevel) SetTitle(title string) error {
	// Opcode 2: set_title
	const opcode = 2
	return t.Context().SendRequest(t, opcode, title)
}

// SetAppID sets the application identifier
func (t *XdgToplevel) SetAppID(appID string) error {
	// Opcode 3: set_app_id
	const opcode = 3
	return t.Context().SendRequest(t, opcode, appID)
}

// SetMinSize sets the minimum window size
func (t *XdgToplevel) SetMinSize(width, height int32) error {
	// Opcode 8: set_min_size
	const opcode = 8
	return t.Context().SendRequest(t, opcode, width, height)
}

// Destroy destroys the toplevel
func (t *XdgToplevel) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := t.Context().SendRequest(t, opcode)
	t.Context().Unregister(t)
	return err
}

// Dispatch handles incoming events
func (t *XdgToplevel) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		if t.configureHandler != nil {
			width := event.Int32()
			height := event.Int32()
			// The states array is left in the event body undecoded.
			t.configureHandler(width, height)
		}
	case 1: // close
		if t.closeHandler != nil {
			t.closeHandler()
		}
	}
}
