package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NoNewlineBuffers(t *testing.T) {
	a := New()

	cmd, ok := a.AcceptChunk([]byte("foo"))
	assert.False(t, ok)
	assert.Nil(t, cmd)
	assert.Equal(t, []byte("foo"), a.Pending())
}

func Test_NewlineCompletesCommand(t *testing.T) {
	a := New()

	a.AcceptChunk([]byte("foo"))
	cmd, ok := a.AcceptChunk([]byte("bar\n"))

	require.True(t, ok)
	assert.Equal(t, "foobar\n", string(cmd))
	assert.Nil(t, a.Pending())
}

// Test_WriteCoalescing verifies that any partition of a newline-terminated
// sequence into chunks produces the same completed command as feeding it
// as one chunk.
func Test_WriteCoalescing(t *testing.T) {
	whole := New()
	cmd, ok := whole.AcceptChunk([]byte("hello world\n"))
	require.True(t, ok)

	chunked := New()
	var got []byte
	for _, chunk := range [][]byte{[]byte("hel"), []byte("lo "), []byte("world\n")} {
		if c, ok := chunked.AcceptChunk(chunk); ok {
			got = c
		}
	}

	assert.Equal(t, string(cmd), string(got))
}

// Test_TrailingBytesAfterNewlineAreOneCommand pins the chosen Open
// Question resolution: bytes after the first newline in a combined
// buffer are part of the same command, not split off and retained.
func Test_TrailingBytesAfterNewlineAreOneCommand(t *testing.T) {
	a := New()
	cmd, ok := a.AcceptChunk([]byte("a\nb"))

	require.True(t, ok)
	assert.Equal(t, "a\nb", string(cmd))
	assert.Nil(t, a.Pending())
}

func Test_ResetClearsPartialBuffer(t *testing.T) {
	a := New()
	a.AcceptChunk([]byte("partial"))
	a.Reset()
	assert.Nil(t, a.Pending())
}
