// Package render draws frames into shared-memory buffers and presents them
// on a window surface at a fixed cadence.
package render

import (
	"fmt"
	"sync/atomic"
	"syscall"

	"github.com/bnema/wlturbo/wl"

	"github.com/bnema/glint/internal/logger"
	"github.com/bnema/glint/internal/protocols"
	"github.com/bnema/glint/internal/window"
)

const bytesPerPixel = 4

// presentSurface is the slice of the surface the binding needs
type presentSurface interface {
	Attach(buffer *protocols.Buffer, x, y int32) error
	Damage(x, y, width, height int32) error
	Commit() error
}

// Binding ties a window surface to a double-buffered shared-memory pool. One
// buffer is drawn into while the previous one may still be displayed;
// presenting swaps them.
type Binding struct {
	surface presentSurface
	shm     *protocols.Shm
	format  uint32

	fd       int
	data     []byte
	pool     *protocols.ShmPool
	poolSize int32

	size    window.Size
	stride  int32
	buffers [2]*protocols.Buffer
	current int

	// busy is written by release handlers on the dispatch pump goroutine
	// while Present reads and sets it on the loop goroutine.
	busy [2]atomic.Bool
}

// chooseFormat picks the first supported pixel format the compositor
// advertised. An empty list means the format events have not been delivered
// yet; argb8888 support is mandated, so it is the safe default.
func chooseFormat(formats []uint32) (uint32, error) {
	if len(formats) == 0 {
		return protocols.FormatARGB8888, nil
	}
	for _, f := range formats {
		switch f {
		case protocols.FormatARGB8888, protocols.FormatXRGB8888:
			return f, nil
		}
	}
	return 0, fmt.Errorf("no supported pixel format among %d advertised", len(formats))
}

func frameBytes(size window.Size) int32 {
	return size.Width * bytesPerPixel * size.Height
}

// NewBinding creates the shared-memory pool and both buffers for the given
// size. The size must come from a configured window; the binding never
// guesses dimensions.
func NewBinding(shm *protocols.Shm, surface *protocols.Surface, formats []uint32, size window.Size) (*Binding, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("cannot create binding with size %v", size)
	}

	format, err := chooseFormat(formats)
	if err != nil {
		return nil, err
	}

	b := &Binding{
		surface: surface,
		shm:     shm,
		format:  format,
		fd:      -1,
	}
	if err := b.allocate(size); err != nil {
		b.Destroy()
		return nil, err
	}

	logger.Debugf("Render binding created: %v, format %d, pool %d bytes", size, format, b.poolSize)
	return b, nil
}

// allocate sizes the backing file and pool for two frames and creates the
// buffers. On the first call the pool does not exist yet; later calls grow
// the existing file and pool in place.
func (b *Binding) allocate(size window.Size) error {
	stride := size.Width * bytesPerPixel
	frame := frameBytes(size)
	needed := frame * 2

	if b.fd < 0 {
		fd, err := wl.CreateAnonymousFile(int64(needed))
		if err != nil {
			return fmt.Errorf("failed to create shared memory file: %w", err)
		}
		data, err := wl.MapMemory(fd, int(needed))
		if err != nil {
			syscall.Close(fd)
			return fmt.Errorf("failed to map shared memory: %w", err)
		}
		pool, err := b.shm.CreatePool(fd, needed)
		if err != nil {
			wl.UnmapMemory(data)
			syscall.Close(fd)
			return fmt.Errorf("failed to create shm pool: %w", err)
		}
		b.fd = fd
		b.data = data
		b.pool = pool
		b.poolSize = needed
	} else if needed > b.poolSize {
		if err := syscall.Ftruncate(b.fd, int64(needed)); err != nil {
			return fmt.Errorf("failed to grow shared memory file: %w", err)
		}
		data, err := wl.MapMemory(b.fd, int(needed))
		if err != nil {
			return fmt.Errorf("failed to remap shared memory: %w", err)
		}
		wl.UnmapMemory(b.data)
		b.data = data
		if err := b.pool.Resize(needed); err != nil {
			return fmt.Errorf("failed to grow shm pool: %w", err)
		}
		b.poolSize = needed
	}

	for i := range b.buffers {
		if b.buffers[i] != nil {
			b.buffers[i].Destroy()
			b.buffers[i] = nil
		}
		buffer, err := b.pool.CreateBuffer(int32(i)*frame, size.Width, size.Height, stride, b.format)
		if err != nil {
			return fmt.Errorf("failed to create buffer %d: %w", i, err)
		}
		i := i
		buffer.SetReleaseHandler(func() {
			b.releaseBuffer(i)
		})
		b.buffers[i] = buffer
		b.busy[i].Store(false)
	}

	b.size = size
	b.stride = stride
	b.current = 0
	return nil
}

// Size returns the size the buffers were created for
func (b *Binding) Size() window.Size {
	return b.size
}

// Resize recreates the buffers for the new size, growing the pool only when
// two frames no longer fit. Same size is a no-op.
func (b *Binding) Resize(size window.Size) error {
	if size == b.size {
		return nil
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("cannot resize binding to %v", size)
	}
	logger.Debugf("Resizing render binding %v -> %v", b.size, size)
	return b.allocate(size)
}

// Render fills the back buffer with a solid color
func (b *Binding) Render(c Color) {
	frame := frameBytes(b.size)
	pixels := b.data[int32(b.current)*frame : (int32(b.current)+1)*frame]

	// argb8888 and xrgb8888 are little-endian: b, g, r, a in memory.
	var px [bytesPerPixel]byte
	px[0] = channelByte(c.B)
	px[1] = channelByte(c.G)
	px[2] = channelByte(c.R)
	px[3] = channelByte(c.A)

	for i := 0; i < len(pixels); i += bytesPerPixel {
		copy(pixels[i:], px[:])
	}
}

// Present attaches the back buffer, damages the full surface and commits,
// then swaps so the next Render draws into the released buffer.
// releaseBuffer is the buffer release handler. It runs on the dispatch pump
// goroutine, so it only touches the atomic flag.
func (b *Binding) releaseBuffer(i int) {
	b.busy[i].Store(false)
}

func (b *Binding) Present() error {
	if b.busy[b.current].Load() {
		// The compositor has not released this buffer yet. Attaching it
		// anyway is legal, the frame may just tear.
		logger.Debug("Presenting a buffer the compositor still holds")
	}
	if err := b.surface.Attach(b.buffers[b.current], 0, 0); err != nil {
		return fmt.Errorf("failed to attach buffer: %w", err)
	}
	if err := b.surface.Damage(0, 0, b.size.Width, b.size.Height); err != nil {
		return fmt.Errorf("failed to damage surface: %w", err)
	}
	if err := b.surface.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}
	b.busy[b.current].Store(true)
	b.current = 1 - b.current
	return nil
}

// Destroy releases buffers, then the pool, then the mapping and file. Safe
// to call on a partially constructed binding and idempotent.
func (b *Binding) Destroy() {
	for i, buffer := range b.buffers {
		if buffer != nil {
			buffer.Destroy()
			b.buffers[i] = nil
		}
	}
	if b.pool != nil {
		b.pool.Destroy()
		b.pool = nil
	}
	if b.data != nil {
		wl.UnmapMemory(b.data)
		b.data = nil
	}
	if b.fd >= 0 {
		syscall.Close(b.fd)
		b.fd = -1
	}
}

func channelByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v * 255)
	}
}
