// Package assembler coalesces partial byte chunks into newline-terminated
// commands.
//
// An Assembler holds at most one growable partial buffer. AcceptChunk
// never blocks and never retains the input slice: it always copies.
package assembler

import "bytes"

// Assembler accumulates bytes across chunks until a newline completes a
// command.
type Assembler struct {
	partial []byte
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{}
}

// AcceptChunk appends chunk to the partial buffer. If the combined buffer
// contains no newline, it is retained as the new partial buffer and ok is
// false. If it contains a newline, the entire combined buffer is returned
// as a completed command and the partial buffer is cleared, even if bytes
// follow the first newline: a combined buffer is always exactly one
// command.
func (a *Assembler) AcceptChunk(chunk []byte) (command []byte, ok bool) {
	combined := make([]byte, len(a.partial)+len(chunk))
	copy(combined, a.partial)
	copy(combined[len(a.partial):], chunk)

	if bytes.IndexByte(combined, '\n') < 0 {
		a.partial = combined
		return nil, false
	}

	a.partial = nil
	return combined, true
}

// Pending returns the bytes currently buffered without a terminating
// newline.
func (a *Assembler) Pending() []byte {
	return a.partial
}

// Reset discards the partial buffer. Device.Close calls it on device
// teardown so an in-flight, never-terminated command doesn't outlive the
// device.
func (a *Assembler) Reset() {
	a.partial = nil
}
