package rollsum

import (
	"fmt"
	"math/bits"
)

const (
	// DefaultBupWindowSize is the window size used by bup.
	DefaultBupWindowSize = 64
	// MaxBupWindowSize is the largest window NewBupWithWindow accepts.
	MaxBupWindowSize = 1 << 16
	// DefaultBupChunkBits is the number of low digest bits bup matches
	// at a split point, 8 KiB chunks on average.
	DefaultBupChunkBits = 13

	// librsync uses 31, it keeps a window of zeroes away from a zero sum.
	charOffset = 31
)

// Bup is the rolling checksum used by bup
// (https://github.com/bup/bup/blob/706e8d273/lib/bup/bupsplit.c),
// similar to the one of rsync.
//
// Only the low 16 bits of both sums reach the digest, so uint32
// wraparound does not change the result.
type Bup struct {
	s1, s2 uint32
	window []byte
	wofs   int
}

var _ RollingHash[uint32] = (*Bup)(nil)

// NewBup returns Bup engine with the default window.
func NewBup() *Bup {
	b := &Bup{window: make([]byte, DefaultBupWindowSize)}
	b.Reset()

	return b
}

// NewBupWithWindow returns Bup engine with a custom window size.
func NewBupWithWindow(size int) (*Bup, error) {
	if size <= 0 || size > MaxBupWindowSize {
		return nil, fmt.Errorf("%w: got %d, want (0, %d]", ErrInvalidWindowSize, size, MaxBupWindowSize)
	}

	b := &Bup{window: make([]byte, size)}
	b.Reset()

	return b, nil
}

// WindowSize returns the number of bytes the digest depends on.
func (b *Bup) WindowSize() int {
	return len(b.window)
}

// RollByte implements RollingHash interface.
func (b *Bup) RollByte(ch byte) {
	b.add(b.window[b.wofs], ch)
	b.window[b.wofs] = ch
	b.wofs = (b.wofs + 1) % len(b.window)
}

// Roll implements RollingHash interface.
func (b *Bup) Roll(buf []byte) {
	rollWindowed(b, len(b.window), buf)
}

// Digest implements RollingHash interface.
func (b *Bup) Digest() uint32 {
	return (b.s1 << 16) | (b.s2 & 0xffff)
}

// Reset implements RollingHash interface.
// The sums are set to the values reached after rolling a window of zeroes.
func (b *Bup) Reset() {
	w := uint32(len(b.window))

	b.s1 = w * charOffset
	b.s2 = w * (w - 1) * charOffset
	b.wofs = 0

	for i := range b.window {
		b.window[i] = 0
	}
}

// FindChunkEdgeCond implements RollingHash interface.
func (b *Bup) FindChunkEdgeCond(buf []byte, cond func(uint32) bool) (int, bool) {
	n, ok := b.findEdge(buf, cond)
	if ok {
		b.Reset()
	}

	return n, ok
}

// FindChunkEdge searches buf for a bup split point: a digest whose low chunkBits
// bits are all set. Along with the offset it returns CountBits of the digest at
// the edge, which bup uses to pick the level of the chunk in its fanout tree.
func (b *Bup) FindChunkEdge(buf []byte, chunkBits uint32) (n int, level uint32, ok bool) {
	n, ok = b.findEdge(buf, BupSplit(chunkBits))
	if !ok {
		return 0, 0, false
	}

	level = CountBits(chunkBits, b.Digest())
	b.Reset()

	return n, level, true
}

// findEdge rolls the first window of buf byte by byte to fill the window.
// After that the byte to drop is always inside buf, so the window itself
// is only written back once the loop stops.
func (b *Bup) findEdge(buf []byte, cond func(uint32) bool) (int, bool) {
	w := len(b.window)

	head := buf
	if len(head) > w {
		head = head[:w]
	}

	if n, ok := findEdge[uint32](b, head, cond); ok || len(buf) <= w {
		return n, ok
	}

	for i := w; i < len(buf); i++ {
		b.add(buf[i-w], buf[i])

		if cond(b.Digest()) {
			b.setWindow(buf[i+1-w : i+1])
			return i + 1, true
		}
	}

	b.setWindow(buf[len(buf)-w:])

	return 0, false
}

// setWindow replaces the window with last, oldest byte first.
func (b *Bup) setWindow(last []byte) {
	copy(b.window, last)
	b.wofs = 0
}

func (b *Bup) add(drop, add byte) {
	b.s1 += uint32(add) - uint32(drop)
	b.s2 += b.s1 - uint32(len(b.window))*(uint32(drop)+charOffset)
}

// BupSplit returns bup's split condition: the low chunkBits bits of the digest are all ones.
func BupSplit(chunkBits uint32) func(uint32) bool {
	mask := uint32(1)<<chunkBits - 1

	return func(d uint32) bool { return d&mask == mask }
}

// CountBits returns chunkBits plus the number of further consecutive one bits
// in the digest of a bup split point, that is a digest whose low chunkBits bits are set.
//
// The bit right above the matched ones is skipped before counting. Every other
// bupsplit implementation does so and the fanout levels must stay compatible,
// so do not "fix" it.
func CountBits(chunkBits, digest uint32) uint32 {
	rsum := digest >> chunkBits
	rsum >>= 1

	return chunkBits + uint32(bits.TrailingZeros32(^rsum))
}
