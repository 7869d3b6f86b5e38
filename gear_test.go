package rollsum

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGear_Table(t *testing.T) {
	var state uint64
	for i := range gearTable {
		require.Equal(t, splitmix64(&state), gearTable[i], "index %d", i)
	}
}

func TestGear_WindowSize(t *testing.T) {
	ones := NewGear()
	ones.Roll(bytes.Repeat([]byte{1}, 1024))

	zeros := NewGear()
	zeros.Roll(make([]byte, 1024))

	for i := 1; i <= GearWindowSize; i++ {
		ones.RollByte(0)
		zeros.RollByte(0)

		if i < GearWindowSize {
			require.NotEqual(t, zeros.Digest(), ones.Digest(), "after %d bytes", i)
		} else {
			require.Equal(t, zeros.Digest(), ones.Digest())
		}
	}
}

func TestGear_Digest(t *testing.T) {
	g := NewGear()
	for _, b := range []byte("hello, world") {
		g.RollByte(b)
	}

	require.Equal(t, uint64(0xaf58caa08732cdb0), g.Digest())

	g.Reset()
	require.Zero(t, g.Digest())

	g.RollByte(0)
	require.Equal(t, gearTable[0], g.Digest())
}
