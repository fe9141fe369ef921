// Package server implements the per-connection read loop and the
// accept-loop supervisor that drives it.
package server

import (
	"bufio"
	"io"
	"net"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/aesd-project/aesdsocketd/internal/device"
)

// DefaultChunkSize is the maximum number of bytes read from the transport
// per receive call.
const DefaultChunkSize = 1024

var seekToPattern = regexp.MustCompile(`^AESDCHAR_IOCSEEKTO:(\d+),(\d+)\n$`)

// Handler runs the per-connection read loop over a shared Device.
type Handler struct {
	dev       *device.Device
	log       *zap.SugaredLogger
	chunkSize int
}

// NewHandler returns a Handler bound to dev, reading chunkSize bytes per
// transport receive call.
func NewHandler(dev *device.Device, log *zap.SugaredLogger, chunkSize int) *Handler {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Handler{dev: dev, log: log, chunkSize: chunkSize}
}

// Serve drives the read loop for one connection until the transport
// reaches EOF or returns an error. It never panics on client misbehavior.
func (h *Handler) Serve(conn net.Conn) {
	handle := h.dev.Open()
	defer h.dev.Release(handle)

	buf := make([]byte, h.chunkSize)
	r := bufio.NewReaderSize(conn, h.chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.handleChunk(conn, handle, buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				h.log.Debugw("transport read error", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}
	}
}

// handleChunk recognizes an in-band control command, or else coalesces
// the chunk into the write history and echoes it back when a command
// completes.
func (h *Handler) handleChunk(conn net.Conn, handle *device.Handle, chunk []byte) {
	if cmdIndex, cmdOffset, ok := parseSeekTo(chunk); ok {
		if err := h.dev.SeekToCommand(handle, cmdIndex, cmdOffset); err == nil {
			h.streamFrom(conn, handle)
			return
		}
		// Validation failure: fall through and treat the chunk as an
		// ordinary write.
	}

	h.writeAndMaybeEcho(conn, handle, chunk)
}

func (h *Handler) writeAndMaybeEcho(conn net.Conn, handle *device.Handle, chunk []byte) {
	completesCommand := containsNewline(chunk)

	if _, err := h.dev.Write(chunk); err != nil {
		h.log.Warnw("device write failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	if !completesCommand {
		return
	}

	if _, err := h.dev.Seek(handle, 0, device.SeekSet); err != nil {
		h.log.Warnw("device seek failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	h.streamFrom(conn, handle)
}

// streamFrom drains every byte from handle's current position through
// end-of-data to conn, one bounded slot-read at a time.
func (h *Handler) streamFrom(conn net.Conn, handle *device.Handle) {
	buf := make([]byte, h.chunkSize)
	for {
		n, err := h.dev.Read(handle, buf)
		if err != nil {
			h.log.Warnw("device read failed", "remote", conn.RemoteAddr(), "error", err)
			return
		}
		if n == 0 {
			return
		}
		if _, err := conn.Write(buf[:n]); err != nil {
			h.log.Debugw("transport write error", "remote", conn.RemoteAddr(), "error", err)
			return
		}
	}
}

func containsNewline(b []byte) bool {
	for _, c := range b {
		if c == '\n' {
			return true
		}
	}
	return false
}

// parseSeekTo recognizes the exact form
// "AESDCHAR_IOCSEEKTO:<cmd>,<off>\n", where <cmd> and <off> are decimal
// unsigned 32-bit integers and the chunk contains nothing else.
func parseSeekTo(chunk []byte) (cmdIndex, cmdOffset int, ok bool) {
	m := seekToPattern.FindSubmatch(chunk)
	if m == nil {
		return 0, 0, false
	}

	cmd, err := strconv.ParseUint(string(m[1]), 10, 32)
	if err != nil {
		return 0, 0, false
	}
	off, err := strconv.ParseUint(string(m[2]), 10, 32)
	if err != nil {
		return 0, 0, false
	}

	return int(cmd), int(off), true
}
