// Package wayland owns the display connection and the registry binder.
package wayland

import (
	"fmt"
	"sync"

	"github.com/bnema/glint/internal/logger"
	"github.com/bnema/glint/internal/protocols"
	"github.com/bnema/wlturbo/wl"
)

// Capabilities is the set of bound compositor globals. It is populated once
// during Connect and read-only afterwards. Compositor, WmBase and Shm are
// required; DecorationManager may be nil, which merely disables decoration
// negotiation.
type Capabilities struct {
	Compositor        *protocols.Compositor
	WmBase            *protocols.WmBase
	Shm               *protocols.Shm
	DecorationManager *protocols.DecorationManager

	// ShmFormats lists the pixel formats the compositor advertised, in
	// announcement order.
	ShmFormats []uint32
}

// Validate checks that every required capability was bound. The decoration
// manager is deliberately not checked.
func (c *Capabilities) Validate() error {
	if c.Compositor == nil {
		return fmt.Errorf("compositor does not advertise %s", protocols.CompositorInterface)
	}
	if c.WmBase == nil {
		return fmt.Errorf("compositor does not advertise %s", protocols.WmBaseInterface)
	}
	if c.Shm == nil {
		return fmt.Errorf("compositor does not advertise %s", protocols.ShmInterface)
	}
	return nil
}

// HasDecorationManager reports whether decoration negotiation is possible
func (c *Capabilities) HasDecorationManager() bool {
	return c.DecorationManager != nil
}

// Client manages the Wayland connection and the bound globals
type Client struct {
	display  *wl.Display
	registry *wl.Registry
	caps     Capabilities

	mu        sync.Mutex
	closeOnce sync.Once
}

// Connect opens the display connection using the library's default
// environment addressing, registers handlers for every recognized global so
// each capability is bound with its event handler already attached, performs
// one synchronization roundtrip and validates the result. A missing required
// capability or a failed connection is a fatal startup error for the caller.
func Connect() (*Client, error) {
	display, err := wl.Connect("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	c := &Client{
		display:  display,
		registry: display.Registry(),
	}
	ctx := display.Context()

	// Handlers must be in place before the first roundtrip so that globals
	// announced during it are bound immediately. Unrecognized interfaces are
	// simply never handled.
	c.registry.AddHandler(protocols.CompositorInterface, func(r *wl.Registry, name, version uint32) {
		compositor := protocols.NewCompositor(ctx)
		if err := r.Bind(name, protocols.CompositorInterface, min(version, protocols.CompositorVersion), compositor); err != nil {
			logger.Warnf("Failed to bind %s: %v", protocols.CompositorInterface, err)
			return
		}
		c.mu.Lock()
		c.caps.Compositor = compositor
		c.mu.Unlock()
	})

	c.registry.AddHandler(protocols.WmBaseInterface, func(r *wl.Registry, name, version uint32) {
		// The proxy pongs pings from its own Dispatch, so the handler is
		// attached the moment the bind request goes out.
		wmBase := protocols.NewWmBase(ctx)
		if err := r.Bind(name, protocols.WmBaseInterface, min(version, protocols.WmBaseVersion), wmBase); err != nil {
			logger.Warnf("Failed to bind %s: %v", protocols.WmBaseInterface, err)
			return
		}
		c.mu.Lock()
		c.caps.WmBase = wmBase
		c.mu.Unlock()
	})

	c.registry.AddHandler(protocols.ShmInterface, func(r *wl.Registry, name, version uint32) {
		shm := protocols.NewShm(ctx)
		shm.SetFormatHandler(func(format uint32) {
			c.mu.Lock()
			c.caps.ShmFormats = append(c.caps.ShmFormats, format)
			c.mu.Unlock()
		})
		if err := r.Bind(name, protocols.ShmInterface, min(version, protocols.ShmVersion), shm); err != nil {
			logger.Warnf("Failed to bind %s: %v", protocols.ShmInterface, err)
			return
		}
		c.mu.Lock()
		c.caps.Shm = shm
		c.mu.Unlock()
	})

	c.registry.AddHandler(protocols.DecorationManagerInterface, func(r *wl.Registry, name, version uint32) {
		manager := protocols.NewDecorationManager(ctx)
		if err := r.Bind(name, protocols.DecorationManagerInterface, min(version, protocols.DecorationManagerVersion), manager); err != nil {
			logger.Warnf("Failed to bind %s: %v", protocols.DecorationManagerInterface, err)
			return
		}
		c.mu.Lock()
		c.caps.DecorationManager = manager
		c.mu.Unlock()
	})

	// One full roundtrip lets the compositor announce its globals and the
	// handlers above bind them.
	if err := display.Roundtrip(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initial roundtrip failed: %w", err)
	}

	if err := c.caps.Validate(); err != nil {
		_ = c.Close()
		return nil, err
	}

	if !c.caps.HasDecorationManager() {
		logger.Debug("No decoration manager advertised, skipping decoration negotiation")
	}
	logger.Debugf("Bound globals, %d shm formats advertised", len(c.caps.ShmFormats))

	return c, nil
}

// Capabilities returns the bound capability set
func (c *Client) Capabilities() *Capabilities {
	return &c.caps
}

// Roundtrip performs a synchronous roundtrip with the compositor. Only safe
// before StartPump; afterwards the pump owns the socket reads.
func (c *Client) Roundtrip() error {
	return c.display.Roundtrip()
}

// StartPump reads and dispatches events on a background goroutine until the
// connection closes. Handlers must not interpret state themselves; they only
// hand events to their owner (see window.Session).
func (c *Client) StartPump() {
	go func() {
		for {
			if err := c.display.Dispatch(); err != nil {
				logger.Debugf("Event pump stopped: %v", err)
				return
			}
		}
	}()
}

// Close tears the display connection down. The display-level teardown runs
// exactly once no matter how often Close is called.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.display.Close()
	})
	return err
}
