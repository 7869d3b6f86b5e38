package rollsum

import "io"

// lazyBuf reads data from the provided reader in portions of len(buf) bytes.
// After the first error the reader is never used again.
type lazyBuf struct {
	r   io.Reader
	buf []byte
	pos int
	end int
	err error
}

// unread returns the bytes of the current portion which are not consumed yet.
func (b *lazyBuf) unread() []byte {
	return b.buf[b.pos:b.end]
}

// update reads the next portion and returns true if some data was read.
// A short last portion ends with io.EOF, not io.ErrUnexpectedEOF.
func (b *lazyBuf) update() bool {
	b.pos = 0
	b.end = 0

	if b.err != nil {
		return false
	}

	b.end, b.err = io.ReadFull(b.r, b.buf)

	if b.err == io.ErrUnexpectedEOF {
		b.err = io.EOF
	}

	return b.end != 0
}

func (b *lazyBuf) reset(r io.Reader) {
	b.r = r
	b.pos = 0
	b.end = 0
	b.err = nil
}
