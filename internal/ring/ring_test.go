package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EmptyRing(t *testing.T) {
	r := New(10)

	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.TotalSize())

	_, _, ok := r.Find(0)
	assert.False(t, ok)
}

func Test_AddBelowCapacityNeverEvicts(t *testing.T) {
	r := New(10)

	for i := 0; i < 5; i++ {
		_, evicted := r.Add([]byte("x"))
		assert.False(t, evicted)
	}

	assert.Equal(t, 5, r.Count())
	assert.Equal(t, 5, r.TotalSize())
}

// Test_EvictionExactness verifies that after N+k inserts into an empty
// ring, the live blobs are exactly the last N inserted and every evicted
// blob is returned exactly once.
func Test_EvictionExactness(t *testing.T) {
	r := New(10)
	k := 4

	var evictedCount int
	for i := 0; i < 10+k; i++ {
		blob := []byte{byte(i)}
		if _, evicted := r.Add(blob); evicted {
			evictedCount++
		}
	}

	require.Equal(t, k, evictedCount)
	require.Equal(t, 10, r.Count())

	for i := 0; i < 10; i++ {
		blob, ok := r.SlotAt(i)
		require.True(t, ok)
		assert.Equal(t, byte(k+i), blob[0])
	}
}

func Test_FindLinearOffsetLaw(t *testing.T) {
	r := New(10)
	r.Add([]byte("abc"))
	r.Add([]byte("de"))
	r.Add([]byte("f"))

	cases := []struct {
		offset       int
		wantBlob     string
		wantResidual int
	}{
		{0, "abc", 0},
		{2, "abc", 2},
		{3, "de", 0},
		{4, "de", 1},
		{5, "f", 0},
	}

	for _, c := range cases {
		blob, residual, ok := r.Find(c.offset)
		require.True(t, ok, "offset %d", c.offset)
		assert.Equal(t, c.wantBlob, string(blob))
		assert.Equal(t, c.wantResidual, residual)
		assert.Less(t, residual, len(blob))
	}

	_, _, ok := r.Find(r.TotalSize())
	assert.False(t, ok)
}

func Test_FindSkipsEmptyBlobs(t *testing.T) {
	r := New(10)
	r.Add([]byte(""))
	r.Add([]byte("x"))

	blob, residual, ok := r.Find(0)
	require.True(t, ok)
	assert.Equal(t, "x", string(blob))
	assert.Equal(t, 0, residual)
}

func Test_FindZeroOnEmptyRingIsNone(t *testing.T) {
	r := New(10)
	_, _, ok := r.Find(0)
	assert.False(t, ok)
}

func Test_FullRingInvariant(t *testing.T) {
	r := New(3)
	for i := 0; i < 3; i++ {
		r.Add([]byte{byte(i)})
	}
	assert.Equal(t, 3, r.Count())

	evicted, didEvict := r.Add([]byte{99})
	require.True(t, didEvict)
	assert.Equal(t, []byte{0}, evicted)
	assert.Equal(t, 3, r.Count())

	blob, ok := r.SlotAt(0)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, blob)
}
