package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for shared-memory buffers
const (
	ShmInterface     = "wl_shm"
	ShmPoolInterface = "wl_shm_pool"
	BufferInterface  = "wl_buffer"
)

// ShmVersion is the wl_shm version this client binds.
const ShmVersion = 1

// Pixel formats advertised by wl_shm. Only the two formats every compositor
// must support are of interest here.
const (
	FormatARGB8888 uint32 = 0
	FormatXRGB8888 uint32 = 1
)

// Shm represents the wl_shm global, the shared-memory buffer factory
type Shm struct {
	wl.BaseProxy
	formatHandler func(format uint32)
}

// NewShm creates a new shm proxy
func NewShm(ctx *wl.Context) *Shm {
	shm := &Shm{}
	shm.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return shm
}

// SetFormatHandler sets the handler for format events
func (s *Shm) SetFormatHandler(handler func(format uint32)) {
	s.formatHandler = handler
}

// CreatePool creates a shared-memory pool backed by fd
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	pool := NewShmPool(s.Context())

	// Opcode 0: create_pool
	const opcode = 0

	// The fd travels via SCM_RIGHTS only; the uintptr argument keeps it out
	// of the message body.
	if err := s.Context().SendRequestWithFDs(s, opcode, []int{fd}, pool, uintptr(fd), size); err != nil {
		s.Context().Unregister(pool)
		return nil, err
	}

	return pool, nil
}

// Destroy destroys the shm proxy (no destructor in version 1)
func (s *Shm) Destroy() error {
	s.Context().Unregister(s)
	return nil
}

// Dispatch handles incoming events
func (s *Shm) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // format
		if s.formatHandler != nil {
			s.formatHandler(event.Uint32())
		}
	}
}

// ShmPool represents a wl_shm_pool
type ShmPool struct {
	wl.BaseProxy
}

// NewShmPool creates a new shm pool proxy
func NewShmPool(ctx *wl.Context) *ShmPool {
	pool := &ShmPool{}
	pool.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	pool.SetID(id)
	ctx.Register(pool)
	return pool
}

// CreateBuffer creates a wl_buffer backed by a slice of the pool
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	buffer := NewBuffer(p.Context())

	// Opcode 0: create_buffer
	const opcode = 0

	if err := p.Context().SendRequest(p, opcode, buffer, offset, width, height, stride, format); err != nil {
		p.Context().Unregister(buffer)
		return nil, err
	}

	return buffer, nil
}

// Resize grows the pool to a new size. The protocol only permits growing.
func (p *ShmPool) Resize(size int32) error {
	// Opcode 2: resize
	const opcode = 2
	return p.Context().SendRequest(p, opcode, size)
}

// Destroy destroys the pool
func (p *ShmPool) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p)
	return err
}

// Dispatch handles incoming events (wl_shm_pool has no events)
func (p *ShmPool) Dispatch(event *wl.Event) {}

// Buffer represents a wl_buffer
type Buffer struct {
	wl.BaseProxy
	releaseHandler func()
}

// NewBuffer creates a new buffer proxy
func NewBuffer(ctx *wl.Context) *Buffer {
	buffer := &Buffer{}
	buffer.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	buffer.SetID(id)
	ctx.Register(buffer)
	return buffer
}

// SetReleaseHandler sets the handler for release events
func (b *Buffer) SetReleaseHandler(handler func()) {
	b.releaseHandler = handler
}

// Destroy destroys the buffer
func (b *Buffer) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := b.Context().SendRequest(b, opcode)
	b.Context().Unregister(b)
	return err
}

// Dispatch handles incoming events
func (b *Buffer) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // release
		if b.releaseHandler != nil {
			b.releaseHandler()
		}
	}
}
