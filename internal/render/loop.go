package render

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bnema/glint/internal/logger"
	"github.com/bnema/glint/internal/window"
)

// Color is a normalized rgba color, each channel in [0, 1]
type Color struct {
	R, G, B, A float64
}

// colorAt derives the frame color from the animation clock. The three
// channels are the same sine wave offset in phase, so the window cycles
// smoothly through the spectrum.
func colorAt(t float64) Color {
	return Color{
		R: 0.5*math.Sin(t) + 0.5,
		G: 0.5*math.Sin(t+2) + 0.5,
		B: 0.5*math.Sin(t+4) + 0.5,
		A: 1,
	}
}

// Session is the window state the loop consults each iteration
type Session interface {
	ProcessEvents() error
	Configured() bool
	Closing() bool
	Size() window.Size
}

// Target is where frames go
type Target interface {
	Size() window.Size
	Resize(size window.Size) error
	Render(c Color)
	Present() error
}

// Loop runs the frame cadence: advance the clock, draw, present, then drain
// protocol events, at a fixed interval. Drawing only starts once the window
// is configured, and the loop stops cooperatively when the window is asked
// to close or the context is canceled.
type Loop struct {
	session  Session
	target   Target
	clock    float64
	step     float64
	interval time.Duration
}

// NewLoop creates a frame loop at the given cadence
func NewLoop(session Session, target Target, fps int) *Loop {
	return &Loop{
		session:  session,
		target:   target,
		step:     1.0 / float64(fps),
		interval: time.Second / time.Duration(fps),
	}
}

// Run drives the loop until the window closes or the context is canceled.
// Both are normal shutdowns and return nil; only protocol failures are
// errors.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	logger.Debugf("Frame loop running at %v per frame", l.interval)
	for {
		if l.session.Closing() {
			logger.Info("Window closing, stopping frame loop")
			return nil
		}
		select {
		case <-ctx.Done():
			logger.Info("Interrupted, stopping frame loop")
			return nil
		default:
		}

		l.clock += l.step
		if err := l.frame(); err != nil {
			return err
		}

		if err := l.session.ProcessEvents(); err != nil {
			return fmt.Errorf("failed to process events: %w", err)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

// frame draws and presents one frame, if the window is ready for one
func (l *Loop) frame() error {
	if !l.session.Configured() {
		return nil
	}
	if size := l.session.Size(); size != l.target.Size() {
		if err := l.target.Resize(size); err != nil {
			return fmt.Errorf("failed to resize render target: %w", err)
		}
	}
	l.target.Render(colorAt(l.clock))
	if err := l.target.Present(); err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}
	return nil
}
