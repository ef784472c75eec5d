package ir

import (
	"fmt"

	"github.com/pkg/errors"
)

// Pointer is an opaque handle to a runtime-owned buffer. The core never
// dereferences it; only a Runtime implementation knows what it means.
type Pointer struct {
	name  string
	bytes int
	// buf backs the CPU reference runtime. Other Runtime implementations
	// are free to leave it nil and stash their own handle elsewhere;
	// nothing in the core inspects it.
	buf []byte
}

// Bytes reports the size this pointer was allocated with.
func (p Pointer) Bytes() int { return p.bytes }

// String renders a short diagnostic descriptor, never the buffer contents.
func (p Pointer) String() string {
	return fmt.Sprintf("%s:%d", p.name, p.bytes)
}

// Runtime is the device collaborator the core consumes: it hands out raw
// buffers of N bytes on demand and reclaims them on release. Kernel
// execution and device-specific allocation strategy live entirely outside
// the core.
type Runtime interface {
	// Name is a human-readable device identifier (e.g. "cpu").
	Name() string
	// Alloc requests a zeroed buffer of exactly bytes length.
	Alloc(bytes int) (Pointer, error)
	// Dealloc releases a buffer previously returned by Alloc. Implementations
	// may treat a double-dealloc as a fatal error.
	Dealloc(Pointer) error
}

// CPURuntime is a reference Runtime backed by ordinary Go byte slices. It
// is the only Runtime the core exercises directly; any other device is an
// external collaborator satisfying the same interface.
type CPURuntime struct {
	live map[*byte]int
}

// NewCPURuntime constructs a CPURuntime.
func NewCPURuntime() *CPURuntime {
	return &CPURuntime{live: make(map[*byte]int)}
}

func (c *CPURuntime) Name() string { return "cpu" }

func (c *CPURuntime) Alloc(bytes int) (Pointer, error) {
	if bytes < 0 {
		return Pointer{}, errors.Wrapf(ErrOutOfMemory, "negative allocation size %d", bytes)
	}
	buf := make([]byte, bytes)
	if bytes > 0 {
		c.live[&buf[0]] = bytes
	}
	return Pointer{name: c.Name(), bytes: bytes, buf: buf}, nil
}

func (c *CPURuntime) Dealloc(p Pointer) error {
	if len(p.buf) == 0 {
		return nil
	}
	if _, ok := c.live[&p.buf[0]]; !ok {
		return errors.Wrapf(ErrDoubleFree, "CPURuntime.Dealloc: %d-byte buffer", p.bytes)
	}
	delete(c.live, &p.buf[0])
	return nil
}
