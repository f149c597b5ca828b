// Package window implements the lifecycle of one toplevel window: creation,
// the configure/ack handshake, decoration-mode negotiation, resize
// propagation and close signaling.
package window

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/glint/internal/config"
	"github.com/bnema/glint/internal/logger"
	"github.com/bnema/glint/internal/protocols"
	"github.com/bnema/glint/internal/wayland"
)

// ConfigureState tracks the configure handshake. Transitions are monotonic:
// once Configured the session never reverts.
type ConfigureState int

const (
	StateUninitialized ConfigureState = iota
	StateAwaitingConfigure
	StateConfigured
)

func (s ConfigureState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingConfigure:
		return "awaiting-configure"
	case StateConfigured:
		return "configured"
	default:
		return "unknown"
	}
}

// DecorationMode is the negotiated window decoration responsibility
type DecorationMode int

const (
	// DecorationUnrequested means no decoration object exists
	DecorationUnrequested DecorationMode = iota
	// DecorationPending means a mode was requested and the compositor has
	// not answered yet
	DecorationPending
	// DecorationServerSide means the compositor draws the decorations
	DecorationServerSide
	// DecorationClientSide means decoration is the client's responsibility
	DecorationClientSide
)

func (m DecorationMode) String() string {
	switch m {
	case DecorationUnrequested:
		return "unrequested"
	case DecorationPending:
		return "pending"
	case DecorationServerSide:
		return "server-side"
	case DecorationClientSide:
		return "client-side"
	default:
		return "unknown"
	}
}

// Size is a window size in surface coordinates
type Size struct {
	Width  int32
	Height int32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// The session drives its protocol objects through narrow interfaces so the
// state machine can be exercised without a compositor.
type (
	surfaceObject interface {
		Commit() error
		Destroy() error
	}
	shellSurfaceObject interface {
		AckConfigure(serial uint32) error
		Destroy() error
	}
	toplevelObject interface {
		SetTitle(title string) error
		SetAppID(appID string) error
		Destroy() error
	}
	decorationObject interface {
		SetMode(mode uint32) error
		Destroy() error
	}
)

type eventKind int

const (
	evSurfaceConfigure eventKind = iota
	evToplevelConfigure
	evDecorationConfigure
	evCloseRequested
)

type sessionEvent struct {
	kind   eventKind
	serial uint32
	width  int32
	height int32
	mode   uint32
}

// Session owns one on-screen window. Protocol handlers only enqueue events;
// all state is applied by ProcessEvents on the caller's goroutine, so the
// frame loop always observes a consistent session between iterations.
type Session struct {
	caps *wayland.Capabilities
	cfg  config.WindowConfig

	native       *protocols.Surface
	surface      surfaceObject
	shellSurface shellSurfaceObject
	toplevel     toplevelObject
	decoration   decorationObject

	state          ConfigureState
	decorationMode DecorationMode
	size           Size
	closing        bool

	mu      sync.Mutex
	pending []sessionEvent
}

// NewSession prepares a session with the initial size from the configuration.
// No protocol objects exist until Create.
func NewSession(caps *wayland.Capabilities, cfg config.WindowConfig) *Session {
	return &Session{
		caps:  caps,
		cfg:   cfg,
		state: StateUninitialized,
		size:  Size{Width: int32(cfg.Width), Height: int32(cfg.Height)},
	}
}

// Create builds the window: surface, shell surface, toplevel, title and app
// id, and, when a decoration manager is bound, the decoration object with the
// configured mode request. The surface is committed and the session waits for
// the first configure.
func (s *Session) Create() error {
	if s.state != StateUninitialized {
		return fmt.Errorf("session already created (state %v)", s.state)
	}

	native, err := s.caps.Compositor.CreateSurface()
	if err != nil {
		return fmt.Errorf("failed to create surface: %w", err)
	}
	s.native = native
	s.surface = native

	shellSurface, err := s.caps.WmBase.GetXdgSurface(native)
	if err != nil {
		return fmt.Errorf("failed to create xdg surface: %w", err)
	}
	shellSurface.SetConfigureHandler(func(serial uint32) {
		s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: serial})
	})
	s.shellSurface = shellSurface

	toplevel, err := shellSurface.GetToplevel()
	if err != nil {
		return fmt.Errorf("failed to create toplevel: %w", err)
	}
	toplevel.SetConfigureHandler(func(width, height int32) {
		s.enqueue(sessionEvent{kind: evToplevelConfigure, width: width, height: height})
	})
	toplevel.SetCloseHandler(func() {
		s.enqueue(sessionEvent{kind: evCloseRequested})
	})
	s.toplevel = toplevel

	if err := toplevel.SetTitle(s.cfg.Title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	if err := toplevel.SetAppID(s.cfg.AppID); err != nil {
		return fmt.Errorf("failed to set app id: %w", err)
	}

	if s.caps.HasDecorationManager() {
		decoration, err := s.caps.DecorationManager.GetToplevelDecoration(toplevel)
		if err != nil {
			return fmt.Errorf("failed to create decoration object: %w", err)
		}
		decoration.SetConfigureHandler(func(mode uint32) {
			s.enqueue(sessionEvent{kind: evDecorationConfigure, mode: mode})
		})
		if err := decoration.SetMode(s.requestedDecorationMode()); err != nil {
			return fmt.Errorf("failed to request decoration mode: %w", err)
		}
		s.decoration = decoration
		s.decorationMode = DecorationPending
	}

	if err := s.surface.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}

	s.state = StateAwaitingConfigure
	logger.Debugf("Window created, awaiting first configure (initial size %v)", s.size)
	return nil
}

func (s *Session) requestedDecorationMode() uint32 {
	if s.cfg.Decorations == config.DecorationsClient {
		return protocols.DecorationModeClientSide
	}
	return protocols.DecorationModeServerSide
}

func (s *Session) enqueue(ev sessionEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
}

// ProcessEvents drains the pending queue, applies every event in arrival
// order and only then acknowledges the drained shell-surface configures, in
// order, so each acknowledgment reflects the fully updated state. Must only
// be called from the goroutine that owns the session.
func (s *Session) ProcessEvents() error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	var acks []uint32
	for _, ev := range batch {
		switch ev.kind {
		case evSurfaceConfigure:
			acks = append(acks, ev.serial)
		case evToplevelConfigure:
			s.applyToplevelConfigure(ev.width, ev.height)
		case evDecorationConfigure:
			s.applyDecorationMode(ev.mode)
		case evCloseRequested:
			s.applyCloseRequest()
		}
	}

	for _, serial := range acks {
		if s.shellSurface == nil {
			return fmt.Errorf("configure serial %d received without a shell surface", serial)
		}
		if err := s.shellSurface.AckConfigure(serial); err != nil {
			return fmt.Errorf("failed to ack configure %d: %w", serial, err)
		}
	}
	return nil
}

// applyToplevelConfigure applies a proposed size and completes the first
// configure. Non-positive dimensions keep the previous size; the transition
// to Configured happens either way.
func (s *Session) applyToplevelConfigure(width, height int32) {
	if width > 0 && height > 0 {
		s.size = Size{Width: width, Height: height}
	} else if width != 0 || height != 0 {
		logger.Warnf("Ignoring configure with non-positive size %dx%d", width, height)
	}
	if s.state == StateAwaitingConfigure {
		s.state = StateConfigured
		logger.Debugf("First configure complete, size %v", s.size)
	}
}

// applyDecorationMode records the compositor's chosen mode. Every possible
// wire value maps to server-side or client-side; unknown values fall back to
// client-side, the safe assumption.
func (s *Session) applyDecorationMode(mode uint32) {
	switch mode {
	case protocols.DecorationModeServerSide:
		s.decorationMode = DecorationServerSide
	case protocols.DecorationModeClientSide:
		s.decorationMode = DecorationClientSide
	default:
		logger.Warnf("Unknown decoration mode %d, assuming client-side", mode)
		s.decorationMode = DecorationClientSide
	}
	logger.Debugf("Decoration mode: %v", s.decorationMode)
}

// applyCloseRequest flips the closing flag. It is a request: the frame loop
// observes the flag and decides to stop.
func (s *Session) applyCloseRequest() {
	if s.closing {
		return
	}
	s.closing = true
	logger.Info("Close requested by compositor")
}

// WaitConfigured blocks until the first configure has been processed, or
// fails after the timeout. This is the one bounded startup wait; the steady
// state never blocks on protocol traffic.
func (s *Session) WaitConfigured(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := s.ProcessEvents(); err != nil {
			return err
		}
		if s.state == StateConfigured {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for first configure after %v", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// State returns the configure state
func (s *Session) State() ConfigureState {
	return s.state
}

// Configured reports whether the first configure completed
func (s *Session) Configured() bool {
	return s.state == StateConfigured
}

// Closing reports whether the compositor asked the window to close
func (s *Session) Closing() bool {
	return s.closing
}

// Size returns the current window size
func (s *Session) Size() Size {
	return s.size
}

// DecorationMode returns the negotiated decoration mode
func (s *Session) DecorationMode() DecorationMode {
	return s.decorationMode
}

// Surface returns the native presentation surface for the render binding
func (s *Session) Surface() *protocols.Surface {
	return s.native
}

// Destroy releases the protocol objects in reverse creation order:
// decoration, then toplevel, then shell surface, then surface. Absent
// objects are skipped; the order of the rest never changes.
func (s *Session) Destroy() error {
	var errs []error
	if s.decoration != nil {
		errs = append(errs, s.decoration.Destroy())
		s.decoration = nil
	}
	if s.toplevel != nil {
		errs = append(errs, s.toplevel.Destroy())
		s.toplevel = nil
	}
	if s.shellSurface != nil {
		errs = append(errs, s.shellSurface.Destroy())
		s.shellSurface = nil
	}
	if s.surface != nil {
		errs = append(errs, s.surface.Destroy())
		s.surface = nil
		s.native = nil
	}
	return errors.Join(errs...)
}
