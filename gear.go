package rollsum

// GearWindowSize is the effective window of Gear: after that many bytes
// the oldest byte is shifted out of the digest.
const GearWindowSize = 64

// Gear is the rolling hash used by FastCDC. There is no explicit window,
// every byte just shifts the previous ones one bit further.
type Gear struct {
	digest uint64
}

var _ RollingHash[uint64] = (*Gear)(nil)

// NewGear returns new Gear engine.
func NewGear() *Gear {
	return &Gear{}
}

// RollByte implements RollingHash interface.
func (g *Gear) RollByte(b byte) {
	g.digest = g.digest<<1 + gearTable[b]
}

// Roll implements RollingHash interface.
func (g *Gear) Roll(buf []byte) {
	rollWindowed(g, GearWindowSize, buf)
}

// Digest implements RollingHash interface.
func (g *Gear) Digest() uint64 {
	return g.digest
}

// Reset implements RollingHash interface.
func (g *Gear) Reset() {
	g.digest = 0
}

// FindChunkEdgeCond implements RollingHash interface.
func (g *Gear) FindChunkEdgeCond(buf []byte, cond func(uint64) bool) (int, bool) {
	n, ok := findEdge[uint64](g, buf, cond)
	if ok {
		g.Reset()
	}

	return n, ok
}
