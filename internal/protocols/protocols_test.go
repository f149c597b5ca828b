package protocols

import (
	"testing"

	"github.com/bnema/wlturbo/wl"
)

// Every protocol object must satisfy the proxy contract so it can be
// registered for event dispatch.
var (
	_ wl.Proxy = (*Compositor)(nil)
	_ wl.Proxy = (*Surface)(nil)
	_ wl.Proxy = (*Shm)(nil)
	_ wl.Proxy = (*ShmPool)(nil)
	_ wl.Proxy = (*Buffer)(nil)
	_ wl.Proxy = (*WmBase)(nil)
	_ wl.Proxy = (*XdgSurface)(nil)
	_ wl.Proxy = (*XdgToplevel)(nil)
	_ wl.Proxy = (*DecorationManager)(nil)
	_ wl.Proxy = (*ToplevelDecoration)(nil)
)

func TestPixelFormatValues(t *testing.T) {
	// wl_shm.format: the two mandatory formats have fixed wire values.
	if FormatARGB8888 != 0 {
		t.Errorf("Expected argb8888 = 0, got %d", FormatARGB8888)
	}
	if FormatXRGB8888 != 1 {
		t.Errorf("Expected xrgb8888 = 1, got %d", FormatXRGB8888)
	}
}

func TestDecorationModeValues(t *testing.T) {
	if DecorationModeClientSide != 1 {
		t.Errorf("Expected client_side = 1, got %d", DecorationModeClientSide)
	}
	if DecorationModeServerSide != 2 {
		t.Errorf("Expected server_side = 2, got %d", DecorationModeServerSide)
	}
}

func TestToplevelCloseDispatch(t *testing.T) {
	toplevel := &XdgToplevel{}

	closed := 0
	toplevel.SetCloseHandler(func() { closed++ })

	// close carries no payload
	toplevel.Dispatch(&wl.Event{Opcode: 1})
	if closed != 1 {
		t.Errorf("Expected close handler to run once, ran %d times", closed)
	}
}

func TestToplevelDispatchIgnoresUnknownOpcodes(t *testing.T) {
	toplevel := &XdgToplevel{}
	toplevel.SetCloseHandler(func() { t.Error("close handler should not run") })

	toplevel.Dispatch(&wl.Event{Opcode: 42})
}

func TestBufferReleaseDispatch(t *testing.T) {
	buffer := &Buffer{}

	released := 0
	buffer.SetReleaseHandler(func() { released++ })

	// release carries no payload
	buffer.Dispatch(&wl.Event{Opcode: 0})
	buffer.Dispatch(&wl.Event{Opcode: 0})
	if released != 2 {
		t.Errorf("Expected release handler to run twice, ran %d times", released)
	}
}

func TestBufferDispatchWithoutHandler(t *testing.T) {
	// A release with no handler installed must be a no-op.
	(&Buffer{}).Dispatch(&wl.Event{Opcode: 0})
}
