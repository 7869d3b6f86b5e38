package rollsum

import (
	"fmt"

	"github.com/restic/chunker"
)

// DefaultPoly is the irreducible polynomial used by restic.
const DefaultPoly = Poly(0x3DA3358B4DC173)

const (
	rabinWindowSize = 64

	minPolyDeg = 9
	maxPolyDeg = 53
)

// Poly represents polynomial over GF(2).
type Poly uint64

type rabinTables struct {
	out [256]uint64
	mod [256]uint64
}

var defaultTables = calcTables(chunker.Pol(DefaultPoly))

// calcTables computes the tables for sliding a byte out of the window
// and for reducing modulo pol.
func calcTables(pol chunker.Pol) *rabinTables {
	t := new(rabinTables)

	// out[b] = Hash(b || 0 || ... || 0), window-1 zeroes.
	// Adding it to the digest cancels b at the oldest window position.
	for b := 0; b < 256; b++ {
		h := chunker.Pol(b)
		for i := 1; i < rabinWindowSize; i++ {
			h = (h << 8).Mod(pol)
		}

		t.out[b] = uint64(h)
	}

	// mod[b] = (b*x^k mod pol) | b*x^k for k = deg(pol): it clears the 8 bits
	// over the degree and adds their remainder in one xor.
	k := uint(pol.Deg())
	for b := 0; b < 256; b++ {
		p := chunker.Pol(b) << k
		t.mod[b] = uint64(p.Mod(pol) | p)
	}

	return t
}

// Rabin is a Rabin fingerprint of the last 64 bytes.
type Rabin struct {
	window [rabinWindowSize]byte
	wpos   int
	digest uint64

	shift  uint
	tables *rabinTables
}

var _ RollingHash[uint64] = (*Rabin)(nil)

// NewRabin returns Rabin engine over DefaultPoly.
func NewRabin() *Rabin {
	return &Rabin{
		shift:  uint(chunker.Pol(DefaultPoly).Deg() - 8),
		tables: defaultTables,
	}
}

// NewRabinWithPoly returns Rabin engine over p.
// p must be irreducible and have degree in [9, 53].
func NewRabinWithPoly(p Poly) (*Rabin, error) {
	if p == DefaultPoly {
		return NewRabin(), nil
	}

	pol := chunker.Pol(p)
	if deg := pol.Deg(); deg < minPolyDeg || deg > maxPolyDeg {
		return nil, fmt.Errorf("%w: %v has degree %d, want [%d, %d]", ErrInvalidPolynomial, pol, deg, minPolyDeg, maxPolyDeg)
	}

	if !pol.Irreducible() {
		return nil, fmt.Errorf("%w: %v is reducible", ErrInvalidPolynomial, pol)
	}

	return &Rabin{
		shift:  uint(pol.Deg() - 8),
		tables: calcTables(pol),
	}, nil
}

// RollByte implements RollingHash interface.
func (r *Rabin) RollByte(b byte) {
	out := r.window[r.wpos]
	r.window[r.wpos] = b
	r.digest ^= r.tables.out[out]
	r.wpos = (r.wpos + 1) % rabinWindowSize

	r.append(b)
}

func (r *Rabin) append(b byte) {
	index := r.digest >> r.shift
	r.digest <<= 8
	r.digest |= uint64(b)
	r.digest ^= r.tables.mod[index]
}

// Roll implements RollingHash interface.
func (r *Rabin) Roll(buf []byte) {
	rollWindowed(r, rabinWindowSize, buf)
}

// Digest implements RollingHash interface.
func (r *Rabin) Digest() uint64 {
	return r.digest
}

// Reset implements RollingHash interface.
// A window of zeroes has zero fingerprint.
func (r *Rabin) Reset() {
	r.window = [rabinWindowSize]byte{}
	r.wpos = 0
	r.digest = 0
}

// FindChunkEdgeCond implements RollingHash interface.
func (r *Rabin) FindChunkEdgeCond(buf []byte, cond func(uint64) bool) (int, bool) {
	n, ok := findEdge[uint64](r, buf, cond)
	if ok {
		r.Reset()
	}

	return n, ok
}
