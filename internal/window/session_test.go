package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/glint/internal/config"
	"github.com/bnema/glint/internal/protocols"
)

type destroyRecorder struct {
	log   *[]string
	name  string
	err   error
	acks  []uint32
	onAck func(serial uint32)
}

func (r *destroyRecorder) Destroy() error {
	*r.log = append(*r.log, r.name)
	return r.err
}

func (r *destroyRecorder) Commit() error { return nil }

func (r *destroyRecorder) AckConfigure(serial uint32) error {
	r.acks = append(r.acks, serial)
	if r.onAck != nil {
		r.onAck(serial)
	}
	return nil
}

func (r *destroyRecorder) SetTitle(string) error { return nil }
func (r *destroyRecorder) SetAppID(string) error { return nil }
func (r *destroyRecorder) SetMode(uint32) error  { return nil }

func newTestSession() (*Session, *destroyRecorder, *[]string) {
	log := &[]string{}
	shell := &destroyRecorder{log: log, name: "shell-surface"}
	s := NewSession(nil, config.DefaultConfig.Window)
	s.surface = &destroyRecorder{log: log, name: "surface"}
	s.shellSurface = shell
	s.toplevel = &destroyRecorder{log: log, name: "toplevel"}
	s.state = StateAwaitingConfigure
	return s, shell, log
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession(nil, config.DefaultConfig.Window)
	assert.Equal(t, StateUninitialized, s.State())
	assert.False(t, s.Configured())
	assert.False(t, s.Closing())
	assert.Equal(t, DecorationUnrequested, s.DecorationMode())
	assert.Equal(t, Size{Width: 640, Height: 480}, s.Size())
}

func TestFirstConfigureTransition(t *testing.T) {
	s, _, _ := newTestSession()

	s.enqueue(sessionEvent{kind: evToplevelConfigure, width: 800, height: 600})
	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 1})
	require.NoError(t, s.ProcessEvents())

	assert.Equal(t, StateConfigured, s.State())
	assert.True(t, s.Configured())
	assert.Equal(t, Size{Width: 800, Height: 600}, s.Size())
}

func TestConfigureWithZeroSizeKeepsPreviousSize(t *testing.T) {
	s, _, _ := newTestSession()

	s.enqueue(sessionEvent{kind: evToplevelConfigure, width: 0, height: 0})
	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 1})
	require.NoError(t, s.ProcessEvents())

	// The window still becomes configured, it just keeps its own size.
	assert.Equal(t, StateConfigured, s.State())
	assert.Equal(t, Size{Width: 640, Height: 480}, s.Size())
}

func TestConfigureWithPartialSizeKeepsPreviousSize(t *testing.T) {
	tests := []struct {
		name   string
		width  int32
		height int32
	}{
		{"zero width", 0, 600},
		{"zero height", 800, 0},
		{"negative width", -1, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSession()
			s.applyToplevelConfigure(tt.width, tt.height)
			assert.Equal(t, Size{Width: 640, Height: 480}, s.Size())
			assert.Equal(t, StateConfigured, s.State())
		})
	}
}

func TestConfiguredStateIsMonotonic(t *testing.T) {
	s, _, _ := newTestSession()

	s.applyToplevelConfigure(800, 600)
	require.Equal(t, StateConfigured, s.State())

	// Later configures update the size but never regress the state.
	s.applyToplevelConfigure(1024, 768)
	assert.Equal(t, StateConfigured, s.State())
	assert.Equal(t, Size{Width: 1024, Height: 768}, s.Size())
}

func TestAcksFollowStateUpdates(t *testing.T) {
	s, shell, _ := newTestSession()

	var sizeAtAck Size
	shell.onAck = func(uint32) { sizeAtAck = s.Size() }

	// The proposed size arrives after the serial, the way a compositor
	// batch can interleave. The ack must still see the applied size.
	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 7})
	s.enqueue(sessionEvent{kind: evToplevelConfigure, width: 320, height: 240})
	require.NoError(t, s.ProcessEvents())

	assert.Equal(t, []uint32{7}, shell.acks)
	assert.Equal(t, Size{Width: 320, Height: 240}, sizeAtAck)
}

func TestAcksAreOrderedAndExactlyOnce(t *testing.T) {
	s, shell, _ := newTestSession()

	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 3})
	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 4})
	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 5})
	require.NoError(t, s.ProcessEvents())
	assert.Equal(t, []uint32{3, 4, 5}, shell.acks)

	// Nothing pending: a second drain must not re-acknowledge.
	require.NoError(t, s.ProcessEvents())
	assert.Equal(t, []uint32{3, 4, 5}, shell.acks)
}

func TestDecorationModeMapping(t *testing.T) {
	tests := []struct {
		name string
		mode uint32
		want DecorationMode
	}{
		{"server side", protocols.DecorationModeServerSide, DecorationServerSide},
		{"client side", protocols.DecorationModeClientSide, DecorationClientSide},
		{"unknown falls back to client side", 99, DecorationClientSide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSession()
			s.decorationMode = DecorationPending
			s.enqueue(sessionEvent{kind: evDecorationConfigure, mode: tt.mode})
			require.NoError(t, s.ProcessEvents())
			assert.Equal(t, tt.want, s.DecorationMode())
		})
	}
}

func TestResizeAndUnknownDecorationInOneBatch(t *testing.T) {
	s, shell, _ := newTestSession()
	s.decorationMode = DecorationPending

	s.enqueue(sessionEvent{kind: evToplevelConfigure, width: 1280, height: 720})
	s.enqueue(sessionEvent{kind: evDecorationConfigure, mode: 7})
	s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 11})
	require.NoError(t, s.ProcessEvents())

	assert.Equal(t, Size{Width: 1280, Height: 720}, s.Size())
	assert.Equal(t, DecorationClientSide, s.DecorationMode())
	assert.Equal(t, []uint32{11}, shell.acks)
}

func TestSizeFollowsLastPositiveConfigure(t *testing.T) {
	s, _, _ := newTestSession()

	for _, dims := range [][2]int32{{800, 600}, {0, 0}, {1024, 768}, {0, 500}} {
		s.applyToplevelConfigure(dims[0], dims[1])
	}
	assert.Equal(t, Size{Width: 1024, Height: 768}, s.Size())
}

func TestCloseRequestSetsFlagOnce(t *testing.T) {
	s, _, _ := newTestSession()
	require.False(t, s.Closing())

	s.enqueue(sessionEvent{kind: evCloseRequested})
	s.enqueue(sessionEvent{kind: evCloseRequested})
	require.NoError(t, s.ProcessEvents())

	assert.True(t, s.Closing())
	// The flag never clears.
	require.NoError(t, s.ProcessEvents())
	assert.True(t, s.Closing())
}

func TestDestroyOrder(t *testing.T) {
	s, _, log := newTestSession()
	s.decoration = &destroyRecorder{log: log, name: "decoration"}

	require.NoError(t, s.Destroy())
	assert.Equal(t, []string{"decoration", "toplevel", "shell-surface", "surface"}, *log)
}

func TestDestroySkipsAbsentDecoration(t *testing.T) {
	s, _, log := newTestSession()

	require.NoError(t, s.Destroy())
	assert.Equal(t, []string{"toplevel", "shell-surface", "surface"}, *log)
}

func TestDestroyContinuesPastErrors(t *testing.T) {
	s, _, log := newTestSession()
	wantErr := errors.New("toplevel destroy failed")
	s.toplevel = &destroyRecorder{log: log, name: "toplevel", err: wantErr}

	err := s.Destroy()
	assert.ErrorIs(t, err, wantErr)
	// The later objects are still torn down.
	assert.Equal(t, []string{"toplevel", "shell-surface", "surface"}, *log)
}

func TestWaitConfiguredTimesOut(t *testing.T) {
	s, _, _ := newTestSession()

	err := s.WaitConfigured(10 * time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestWaitConfiguredReturnsOnceConfigured(t *testing.T) {
	s, shell, _ := newTestSession()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.enqueue(sessionEvent{kind: evToplevelConfigure, width: 800, height: 600})
		s.enqueue(sessionEvent{kind: evSurfaceConfigure, serial: 1})
	}()

	require.NoError(t, s.WaitConfigured(time.Second))
	assert.True(t, s.Configured())
	assert.Equal(t, []uint32{1}, shell.acks)
}

func TestConfigureStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "awaiting-configure", StateAwaitingConfigure.String())
	assert.Equal(t, "configured", StateConfigured.String())
}
