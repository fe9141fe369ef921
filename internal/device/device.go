// Package device presents a character-device-style contract over a
// ring.Ring and an assembler.Assembler: open/release/read/write/seek/
// seek-to-command, serialized by a single device-wide mutex.
package device

import (
	"sync"

	"github.com/aesd-project/aesdsocketd/internal/assembler"
	"github.com/aesd-project/aesdsocketd/internal/ring"
	"github.com/aesd-project/aesdsocketd/internal/xerrors"
)

// Whence selects the reference point for Seek, mirroring io.Seeker.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// Handle is a per-client logical file position. It requires no locking: it
// is owned by exactly one connection handler goroutine.
type Handle struct {
	pos int
}

// Device is the shared, mutex-guarded core. One Device is created at
// startup and shared by every connection handler.
type Device struct {
	mu   sync.Mutex
	ring *ring.Ring
	asm  *assembler.Assembler
}

// New returns a Device with the given ring capacity.
func New(ringCapacity int) *Device {
	return &Device{
		ring: ring.New(ringCapacity),
		asm:  assembler.New(),
	}
}

// Open returns a fresh handle positioned at offset 0. It makes no global
// state change.
func (d *Device) Open() *Handle {
	return &Handle{}
}

// Release discards per-handle state. It is a no-op beyond letting h be
// garbage collected; kept as an explicit operation to mirror the
// open/release contract of the device it emulates.
func (d *Device) Release(h *Handle) {
	_ = h
}

// Read copies min(len(dst), slot.size-intraOffset) bytes starting at h's
// logical position into dst, advances h's position, and returns the count.
// It returns (0, nil) at end-of-data. Reads never span slots in one call.
func (d *Device) Read(h *Handle, dst []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	blob, intraOffset, ok := d.ring.Find(h.pos)
	if !ok {
		return 0, nil
	}

	n := copy(dst, blob[intraOffset:])
	h.pos += n
	return n, nil
}

// Write hands src to the assembler. It always reports len(src) bytes
// consumed on success, even when they land entirely in the partial
// buffer. If the assembler completes a command, it is added to the ring
// and any evicted blob is dropped (Go's GC reclaims it; there is no
// explicit free step).
func (d *Device) Write(src []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	command, completed := d.asm.AcceptChunk(src)
	if completed {
		d.ring.Add(command)
	}
	return len(src), nil
}

// Seek computes a new logical position per whence, validates it against
// [0, totalSize], and — on success — stores it in h. On failure h is left
// unchanged and an xerrors.Invalid is returned.
func (d *Device) Seek(h *Handle, offset int, whence Whence) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := d.ring.TotalSize()

	var newPos int
	switch whence {
	case SeekSet:
		newPos = offset
	case SeekCur:
		newPos = h.pos + offset
	case SeekEnd:
		newPos = total + offset
	default:
		return 0, xerrors.Invalid{Op: "seek", Reason: "unknown whence"}
	}

	if newPos < 0 || newPos > total {
		return 0, xerrors.Invalid{Op: "seek", Reason: "position out of range"}
	}

	h.pos = newPos
	return newPos, nil
}

// SeekToCommand repositions h to the start of cmdOffset within the
// cmdIndex-th oldest live command. On validation failure h is left
// unchanged.
func (d *Device) SeekToCommand(h *Handle, cmdIndex, cmdOffset int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cmdIndex < 0 || cmdIndex >= d.ring.Count() {
		return xerrors.Invalid{Op: "seek_to_command", Reason: "command index out of range"}
	}

	blob, ok := d.ring.SlotAt(cmdIndex)
	if !ok || cmdOffset < 0 || cmdOffset >= len(blob) {
		return xerrors.Invalid{Op: "seek_to_command", Reason: "command offset out of range"}
	}

	pos := 0
	for i := 0; i < cmdIndex; i++ {
		prior, _ := d.ring.SlotAt(i)
		pos += len(prior)
	}
	h.pos = pos + cmdOffset
	return nil
}

// TotalSize returns the current virtual size of the history, for tests and
// for callers that need it without performing a read.
func (d *Device) TotalSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ring.TotalSize()
}

// Snapshot returns the entire current history concatenated in insertion
// order, starting fresh at logical position 0, without touching any
// handle's position. The connection handler does not call it: it echoes
// the history through Seek and Read.
func (d *Device) Snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, 0, d.ring.TotalSize())
	d.ring.Iter(func(blob []byte) {
		out = append(out, blob...)
	})
	return out
}

// ReadFrom returns every byte from logical position pos through
// end-of-data in a single call. The connection handler does not call it:
// its post-seek-to-command read-back streams through Read.
func (d *Device) ReadFrom(pos int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := d.ring.TotalSize()
	if pos >= total {
		return nil
	}

	out := make([]byte, 0, total-pos)
	acc := 0
	d.ring.Iter(func(blob []byte) {
		start := pos - acc
		if start < 0 {
			start = 0
		}
		if start < len(blob) {
			out = append(out, blob[start:]...)
		}
		acc += len(blob)
	})
	return out
}

// Close releases the assembler's partial buffer so an in-flight,
// never-terminated command doesn't outlive the device.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asm.Reset()
}
