package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for xdg-decoration
const (
	DecorationManagerInterface  = "zxdg_decoration_manager_v1"
	ToplevelDecorationInterface = "zxdg_toplevel_decoration_v1"
)

// DecorationManagerVersion is the zxdg_decoration_manager_v1 version this
// client binds.
const DecorationManagerVersion = 1

// Decoration modes as carried on the wire
const (
	DecorationModeClientSide uint32 = 1
	DecorationModeServerSide uint32 = 2
)

// DecorationManager represents the zxdg_decoration_manager_v1 global
type DecorationManager struct {
	wl.BaseProxy
}

// NewDecorationManager creates a new decoration manager proxy
func NewDecorationManager(ctx *wl.Context) *DecorationManager {
	manager := &DecorationManager{}
	manager.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return manager
}

// GetToplevelDecoration creates a decoration object for a toplevel
func (m *DecorationManager) GetToplevelDecoration(toplevel *XdgToplevel) (*ToplevelDecoration, error) {
	decoration := NewToplevelDecoration(m.Context())

	// Opcode 1: get_toplevel_decoration
	const opcode = 1

	if err := m.Context().SendRequest(m, opcode, decoration, toplevel); err != nil {
		m.Context().Unregister(decoration)
		return nil, err
	}

	return decoration, nil
}

// Destroy destroys the decoration manager
func (m *DecorationManager) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := m.Context().SendRequest(m, opcode)
	m.Context().Unregister(m)
	return err
}

// Dispatch handles incoming events (the manager has no events)
func (m *DecorationManager) Dispatch(event *wl.Event) {}

// ToplevelDecoration represents a zxdg_toplevel_decoration_v1 object
type ToplevelDecoration struct {
	wl.BaseProxy
	configureHandler func(mode uint32)
}

// NewToplevelDecoration creates a new toplevel decoration proxy
func NewToplevelDecoration(ctx *wl.Context) *ToplevelDecoration {
	decoration := &ToplevelDecoration{}
	decoration.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	decoration.SetID(id)
	ctx.Register(decoration)
	return decoration
}

// SetConfigureHandler sets the handler for configure events carrying the
// compositor's chosen mode
func (d *ToplevelDecoration) SetConfigureHandler(handler func(mode uint32)) {
	d.configureHandler = handler
}

// SetMode requests a decoration mode from the compositor
func (d *ToplevelDecoration) SetMode(mode uint32) error {
	// Opcode 1: set_mode
	const opcode = 1
	return d.Context().SendRequest(d, opcode, mode)
}

// UnsetMode lets the compositor pick the mode
func (d *ToplevelDecoration) UnsetMode() error {
	// Opcode 2: unset_mode
	const opcode = 2
	return d.Context().SendRequest(d, opcode)
}

// Destroy destroys the decoration object
func (d *ToplevelDecoration) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := d.Context().SendRequest(d, opcode)
	d.Context().Unregister(d)
	return err
}

// Dispatch handles incoming events
func (d *ToplevelDecoration) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		if d.configureHandler != nil {
			mode := event.Uint32()
			d.configureHandler(mode)
		}
	}
}
