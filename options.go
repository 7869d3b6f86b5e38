package rollsum

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindowSize is returned when a window size is out of range.
	ErrInvalidWindowSize = errors.New("window size out of range")

	// ErrInvalidChunkBits is returned when chunkBits is out of [MinChunkBits, MaxChunkBits].
	ErrInvalidChunkBits = errors.New("chunkBits out of range")

	// ErrInvalidNormLevel is returned when normalization level is not less than chunkBits.
	ErrInvalidNormLevel = errors.New("normalization level must be less than chunkBits")

	// ErrInvalidPolynomial is returned for a polynomial which is reducible
	// or has unsupported degree.
	ErrInvalidPolynomial = errors.New("invalid polynomial")
)

const (
	// DefaultChunkBits gives chunks of 8 KiB on average.
	DefaultChunkBits = 13

	// DefaultNormLevel is the normalization level of the FastCDC paper.
	DefaultNormLevel = 2

	// MinChunkBits is the smallest supported chunkBits.
	MinChunkBits = 4

	// MaxChunkBits is the largest supported chunkBits, max size stays below 2 GiB.
	MaxChunkBits = 27
)

// Option is a function that configures FastCDC.
type Option func(*config) error

type config struct {
	chunkBits uint32
	normLevel uint32
	seed      uint64
}

func defaultConfig() config {
	return config{
		chunkBits: DefaultChunkBits,
		normLevel: DefaultNormLevel,
	}
}

func (c *config) validate() error {
	if c.chunkBits < MinChunkBits || c.chunkBits > MaxChunkBits {
		return fmt.Errorf("%w: got %d, want [%d, %d]", ErrInvalidChunkBits, c.chunkBits, MinChunkBits, MaxChunkBits)
	}

	if c.normLevel >= c.chunkBits {
		return fmt.Errorf("%w: level %d, chunkBits %d", ErrInvalidNormLevel, c.normLevel, c.chunkBits)
	}

	return nil
}

// isDefault reports whether masks must be the published FastCDC constants.
func (c *config) isDefault() bool {
	return c.chunkBits == DefaultChunkBits && c.normLevel == DefaultNormLevel && c.seed == 0
}

// WithChunkBits sets the average chunk size to 2^bits.
// Minimal and maximal sizes are 2^(bits-2) and 2^(bits+3).
func WithChunkBits(bits uint32) Option {
	return func(c *config) error {
		if bits < MinChunkBits || bits > MaxChunkBits {
			return fmt.Errorf("%w: got %d", ErrInvalidChunkBits, bits)
		}

		c.chunkBits = bits

		return nil
	}
}

// WithNormalization sets the normalization level: how many bits the short mask
// has over chunkBits and the long mask has under it.
// Level 0 uses the same number of bits in both regions.
func WithNormalization(level uint32) Option {
	return func(c *config) error {
		c.normLevel = level

		return nil
	}
}

// WithMaskSeed sets the seed of the mask generator.
// Any non-zero seed gives masks different from the published ones.
func WithMaskSeed(seed uint64) Option {
	return func(c *config) error {
		c.seed = seed

		return nil
	}
}
