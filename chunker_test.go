package rollsum

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var chunkerImpls = []struct {
	name string
	new  func() Chunker
}{
	{"bup", func() Chunker {
		return NewRollingHashChunker[uint32](NewBup(), 1<<10-1)
	}},
	{"bup small window", func() Chunker {
		b, _ := NewBupWithWindow(7)
		return NewRollingHashChunker[uint32](b, 1<<6-1)
	}},
	{"gear", func() Chunker {
		return NewRollingHashChunker[uint64](NewGear(), 1<<10-1)
	}},
	{"rabin", func() Chunker {
		return NewRollingHashChunker[uint64](NewRabin(), 1<<10-1)
	}},
	{"fastcdc", func() Chunker {
		c, _ := NewFastCDC()
		return c
	}},
	{"fastcdc small", func() Chunker {
		c, _ := NewFastCDC(WithChunkBits(MinChunkBits), WithNormalization(1))
		return c
	}},
}

func TestChunker_ForEachChunkEnd(t *testing.T) {
	buf := getRandom(1, 512*KiB)

	for _, impl := range chunkerImpls {
		t.Run(impl.name, func(t *testing.T) {
			var result []byte
			var count int

			tail := impl.new().ForEachChunkEnd(buf, func(chunk []byte) {
				require.NotEmpty(t, chunk)

				result = append(result, chunk...)
				count++
			})

			require.NotZero(t, count)
			require.Equal(t, buf, append(result, tail...))
		})
	}
}

func TestChunker_Resume(t *testing.T) {
	buf := getRandom(2, 256*KiB)

	for _, impl := range chunkerImpls {
		t.Run(impl.name, func(t *testing.T) {
			whole := boundaries(impl.new(), buf, func() int { return len(buf) })
			require.NotEmpty(t, whole)

			rnd := rand.New(rand.NewSource(3))
			pieces := boundaries(impl.new(), buf, func() int { return rnd.Intn(100) + 1 })
			require.Equal(t, whole, pieces)

			bytewise := boundaries(impl.new(), buf, func() int { return 1 })
			require.Equal(t, whole, bytewise)
		})
	}
}

func TestChunker_Reset(t *testing.T) {
	buf := getRandom(3, 128*KiB)

	for _, impl := range chunkerImpls {
		t.Run(impl.name, func(t *testing.T) {
			c := impl.new()
			c.ForEachChunkEnd(getRandom(4, 1000), func([]byte) {})
			c.Reset()

			fresh := boundaries(impl.new(), buf, func() int { return len(buf) })
			require.Equal(t, fresh, boundaries(c, buf, func() int { return len(buf) }))
		})
	}
}

func TestRollingHashChunker_ZeroMask(t *testing.T) {
	c := NewRollingHashChunker[uint64](NewGear(), 0)

	for i := 0; i < 10; i++ {
		n, ok := c.ChunkEnd([]byte{byte(i), 1, 2})
		require.True(t, ok)
		require.Equal(t, 1, n)
	}

	_, ok := c.ChunkEnd(nil)
	require.False(t, ok)
}

func TestEngines(t *testing.T) {
	t.Run("bup", func(t *testing.T) {
		testEngine[uint32](t, func() RollingHash[uint32] { return NewBup() })
	})
	t.Run("bup window 1", func(t *testing.T) {
		testEngine[uint32](t, func() RollingHash[uint32] {
			b, err := NewBupWithWindow(1)
			require.NoError(t, err)
			return b
		})
	})
	t.Run("bup window 100", func(t *testing.T) {
		testEngine[uint32](t, func() RollingHash[uint32] {
			b, err := NewBupWithWindow(100)
			require.NoError(t, err)
			return b
		})
	})
	t.Run("gear", func(t *testing.T) {
		testEngine[uint64](t, func() RollingHash[uint64] { return NewGear() })
	})
	t.Run("rabin", func(t *testing.T) {
		testEngine[uint64](t, func() RollingHash[uint64] { return NewRabin() })
	})
}

func testEngine[D Digest](t *testing.T, newEngine func() RollingHash[D]) {
	t.Run("roll byte same as roll", func(t *testing.T) {
		data := getRandom(1, 1024)
		e1 := newEngine()
		e2 := newEngine()

		for i, b := range data {
			e1.RollByte(b)

			e2.Reset()
			e2.Roll(data[:i+1])
			require.Equal(t, e1.Digest(), e2.Digest(), "after %d bytes", i+1)

			e3 := newEngine()
			e3.Roll(data[:i+1])
			require.Equal(t, e1.Digest(), e3.Digest(), "after %d bytes", i+1)
		}
	})

	t.Run("reset", func(t *testing.T) {
		e := newEngine()
		e.Roll(getRandom(2, 333))
		e.Reset()
		require.Equal(t, newEngine().Digest(), e.Digest())

		data := getRandom(3, 200)
		e.Roll(data)

		fresh := newEngine()
		fresh.Roll(data)
		require.Equal(t, fresh.Digest(), e.Digest())
	})

	t.Run("empty", func(t *testing.T) {
		e := newEngine()
		e.Roll(getRandom(4, 10))
		d := e.Digest()

		e.Roll(nil)
		_, ok := e.FindChunkEdgeCond(nil, func(D) bool { return true })
		require.False(t, ok)
		require.Equal(t, d, e.Digest())
	})

	t.Run("first byte edge", func(t *testing.T) {
		n, ok := newEngine().FindChunkEdgeCond([]byte{42}, func(D) bool { return true })
		require.True(t, ok)
		require.Equal(t, 1, n)
	})

	// 0x0f mostly finds edges within the first window,
	// 0x3ff finds them far behind it.
	for _, mask := range []D{0x0f, 0x3ff} {
		testChunkEdge(t, newEngine, mask)
	}
}

func testChunkEdge[D Digest](t *testing.T, newEngine func() RollingHash[D], mask D) {
	cond := func(d D) bool { return d&mask == mask }

	e1 := newEngine()
	remaining := getRandom(5, 512*KiB)

	for {
		n, ok := e1.FindChunkEdgeCond(remaining, cond)
		if !ok {
			break
		}

		require.NotZero(t, n)
		require.Equal(t, newEngine().Digest(), e1.Digest(), "engine must be reset on edge")

		e2 := newEngine()
		for j := 0; j < n; j++ {
			e2.RollByte(remaining[j])
			if cond(e2.Digest()) != (j == n-1) {
				t.Fatalf("mask %#x: condition at byte %d of chunk %d", mask, j, n)
			}
		}

		remaining = remaining[n:]
	}

	// No edges in the rest, the state must be kept.
	e2 := newEngine()
	for _, b := range remaining {
		e2.RollByte(b)
		require.False(t, cond(e2.Digest()))
	}

	require.Equal(t, e2.Digest(), e1.Digest())

	// The window must still be intact.
	for _, b := range getRandom(6, 300) {
		e1.RollByte(b)
		e2.RollByte(b)
		require.Equal(t, e2.Digest(), e1.Digest())
	}
}

// boundaries feeds c with data in slices of step() bytes
// and returns absolute offsets of all found chunk ends.
func boundaries(c Chunker, data []byte, step func() int) []int {
	var res []int

	for pos := 0; pos < len(data); {
		piece := data[pos:min(pos+step(), len(data))]

		for consumed := 0; ; {
			n, ok := c.ChunkEnd(piece[consumed:])
			if !ok {
				break
			}

			consumed += n
			res = append(res, pos+consumed)
		}

		pos += len(piece)
	}

	return res
}

func getRandom(seed int64, count int) []byte {
	buf := make([]byte, count+3)
	rnd := rand.New(rand.NewSource(seed))

	for i := 0; i < count; i += 4 {
		binary.LittleEndian.PutUint32(buf[i:], rnd.Uint32())
	}

	return buf[:count]
}

// splitmix64 returns the next output of the splitmix64 generator.
func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15

	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}

// pseudoRandom returns count bytes of splitmix64 output, little-endian.
// Unlike getRandom it is easy to reproduce outside of Go.
func pseudoRandom(seed uint64, count int) []byte {
	var buf bytes.Buffer

	for buf.Len() < count {
		_ = binary.Write(&buf, binary.LittleEndian, splitmix64(&seed))
	}

	return buf.Bytes()[:count]
}
