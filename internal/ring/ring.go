// Package ring implements the fixed-capacity circular store of completed
// commands.
//
// A Ring owns every blob in its slots: Add hands back any blob it evicts so
// the caller can dispose of it deterministically, and no two slots ever
// reference the same blob. The Ring performs no locking of its own — the
// device core is the sole caller and holds the device mutex around every
// operation here.
package ring

// Ring is a bounded circular array of byte-slice blobs.
type Ring struct {
	slots [][]byte
	in    int // next-write slot index
	out   int // oldest-entry slot index
	full  bool
}

// New returns an empty ring with the given slot capacity. Capacity must be
// positive.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Ring{slots: make([][]byte, capacity)}
}

// Capacity returns the number of slots N.
func (r *Ring) Capacity() int {
	return len(r.slots)
}

// Count returns the number of live blobs currently stored.
func (r *Ring) Count() int {
	if r.full {
		return len(r.slots)
	}
	if r.in >= r.out {
		return r.in - r.out
	}
	return len(r.slots) - r.out + r.in
}

// Add stores blob at slot `in`. If the ring was full prior to the call,
// the blob previously occupying that slot is evicted and returned so the
// caller can dispose of it; the zero value (nil, false) is returned when
// nothing was evicted.
func (r *Ring) Add(blob []byte) (evicted []byte, didEvict bool) {
	n := len(r.slots)

	if r.full {
		evicted = r.slots[r.in]
		didEvict = true
		r.slots[r.in] = blob
		r.in = (r.in + 1) % n
		r.out = (r.out + 1) % n
		return evicted, didEvict
	}

	r.slots[r.in] = blob
	r.in = (r.in + 1) % n
	if r.in == r.out {
		r.full = true
	}
	return nil, false
}

// TotalSize returns the sum of all live slot lengths.
func (r *Ring) TotalSize() int {
	total := 0
	r.Iter(func(blob []byte) {
		total += len(blob)
	})
	return total
}

// Iter invokes fn once per live slot, in insertion order starting at the
// oldest entry.
func (r *Ring) Iter(fn func(blob []byte)) {
	n := len(r.slots)
	count := r.Count()
	idx := r.out
	for i := 0; i < count; i++ {
		fn(r.slots[idx])
		idx = (idx + 1) % n
	}
}

// SlotAt returns the blob that is the i-th oldest live command (0-indexed),
// and whether i was in range.
func (r *Ring) SlotAt(i int) ([]byte, bool) {
	if i < 0 || i >= r.Count() {
		return nil, false
	}
	idx := (r.out + i) % len(r.slots)
	return r.slots[idx], true
}

// Find walks from the oldest slot accumulating lengths until the
// cumulative length strictly exceeds targetOffset, returning the matching
// blob and the residual intra-blob offset. It returns ok=false (the
// end-of-data signal) if the walk exhausts all live slots, which also
// covers Find(0) on an empty ring and Find(TotalSize()).
func (r *Ring) Find(targetOffset int) (blob []byte, intraOffset int, ok bool) {
	n := len(r.slots)
	accumulated := 0
	idx := r.out

	for i, count := 0, r.Count(); i < count; i++ {
		slot := r.slots[idx]
		if targetOffset < accumulated+len(slot) {
			return slot, targetOffset - accumulated, true
		}
		accumulated += len(slot)
		idx = (idx + 1) % n
	}
	return nil, 0, false
}
