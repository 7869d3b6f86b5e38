package rollsum

import "math/bits"

// Masks for 8 KiB chunks from the FastCDC paper.
// Changing them breaks compatibility with every other implementation.
const (
	paperMaskShort uint64 = 0x0003590703530000
	paperMaskLong  uint64 = 0x0000d90003530000
)

const (
	minSizeShift = 2
	maxSizeShift = 3

	// LCG of PCG, used to spread mask bits.
	maskMul = 6364136223846793005
	maskInc = 1442695040888963407
)

// ChunkSizePolicy describes chunk sizes produced by FastCDC.
type ChunkSizePolicy struct {
	MinSize uint64
	AvgSize uint64
	MaxSize uint64

	// MaskShort is tested in [MinSize, AvgSize), it has more bits set
	// so that edges there are less likely.
	MaskShort uint64
	// MaskLong is tested in [AvgSize, MaxSize).
	MaskLong uint64
}

// FastCDC implements "FastCDC: a Fast and Efficient Content-Defined Chunking
// Approach for Data Deduplication" (Xia et al., USENIX ATC '16).
//
// Every chunk ended by ChunkEnd is at least MinSize and at most MaxSize bytes long.
// The tail of a stream is left for the caller.
type FastCDC struct {
	policy  ChunkSizePolicy
	gear    Gear
	current uint64
}

// NewFastCDC returns FastCDC chunker. Without options chunks are 8 KiB on average.
func NewFastCDC(opts ...Option) (*FastCDC, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &FastCDC{policy: newChunkSizePolicy(&cfg)}, nil
}

func newChunkSizePolicy(cfg *config) ChunkSizePolicy {
	p := ChunkSizePolicy{
		MinSize: 1 << (cfg.chunkBits - minSizeShift),
		AvgSize: 1 << cfg.chunkBits,
		MaxSize: 1 << (cfg.chunkBits + maxSizeShift),
	}

	if cfg.isDefault() {
		p.MaskShort, p.MaskLong = paperMaskShort, paperMaskLong
	} else {
		p.MaskShort, p.MaskLong = generateMasks(cfg.chunkBits, cfg.normLevel, cfg.seed)
	}

	return p
}

// generateMasks sets bits at pseudo-random positions until the long mask has
// chunkBits-level bits, then keeps going up to chunkBits+level bits for the short one.
func generateMasks(chunkBits, level uint32, seed uint64) (short, long uint64) {
	var mask uint64

	v := seed
	grow := func(ones uint32) {
		for uint32(bits.OnesCount64(mask)) < ones {
			v = v*maskMul + maskInc
			mask = bits.RotateLeft64(mask|1, int(v&0x3f))
		}
	}

	grow(chunkBits - level)
	long = mask

	grow(chunkBits + level)
	short = mask

	return short, long
}

// Policy returns chunk size policy.
func (c *FastCDC) Policy() ChunkSizePolicy {
	return c.policy
}

// CurrentChunkSize returns the number of bytes in the chunk which is not closed yet.
func (c *FastCDC) CurrentChunkSize() uint64 {
	return c.current
}

// Reset implements Chunker interface.
func (c *FastCDC) Reset() {
	c.gear.Reset()
	c.current = 0
}

// ForEachChunkEnd implements Chunker interface.
func (c *FastCDC) ForEachChunkEnd(buf []byte, fn func([]byte)) []byte {
	return forEachChunkEnd(c, buf, fn)
}

// ChunkEnd implements Chunker interface.
func (c *FastCDC) ChunkEnd(buf []byte) (int, bool) {
	p := &c.policy
	left := buf

	// No edge can be shorter than MinSize, just roll.
	if c.current < p.MinSize {
		n := min(p.MinSize-c.current, uint64(len(left)))
		c.gear.Roll(left[:n])
		c.current += n
		left = left[n:]
	}

	if c.current < p.AvgSize {
		if n, ok := c.scan(&left, p.AvgSize, p.MaskShort); ok {
			return len(buf) - len(left) + n, true
		}
	}

	if c.current < p.MaxSize {
		if n, ok := c.scan(&left, p.MaxSize, p.MaskLong); ok {
			return len(buf) - len(left) + n, true
		}
	}

	if c.current >= p.MaxSize {
		c.Reset()
		return len(buf) - len(left), true
	}

	return 0, false
}

// scan tests mask against bytes of *left until the chunk reaches limit.
// On a miss it advances *left past the scanned bytes.
func (c *FastCDC) scan(left *[]byte, limit, mask uint64) (int, bool) {
	n := min(limit-c.current, uint64(len(*left)))

	i, ok := c.gear.FindChunkEdgeCond((*left)[:n], func(d uint64) bool { return d&mask == 0 })
	if ok {
		c.current = 0
		return i, true
	}

	c.current += n
	*left = (*left)[n:]

	return 0, false
}
