package rollsum

import "io"

// DefaultBufferSize is the size of the read buffer of Splitter.
const DefaultBufferSize = 2 * MiB

// Chunk is a piece of a stream returned by Splitter.
type Chunk struct {
	// Offset is the position of the first chunk byte in the stream.
	Offset uint64
	// Data contains chunk's contents.
	Data []byte
}

// Splitter reads a stream and cuts it into chunks with a Chunker.
// The end of the stream always ends the last chunk.
type Splitter struct {
	c      Chunker
	lb     lazyBuf
	offset uint64
}

// NewSplitter returns Splitter reading from r.
func NewSplitter(r io.Reader, c Chunker) *Splitter {
	return NewSplitterWithBuffer(r, c, make([]byte, DefaultBufferSize))
}

// NewSplitterWithBuffer returns Splitter which uses buf for reading from r.
// buf must not be empty.
func NewSplitterWithBuffer(r io.Reader, c Chunker, buf []byte) *Splitter {
	if len(buf) == 0 {
		panic("rollsum: empty read buffer")
	}

	c.Reset()

	return &Splitter{
		c:  c,
		lb: lazyBuf{r: r, buf: buf},
	}
}

// Reset makes Splitter read a new stream from r.
func (s *Splitter) Reset(r io.Reader) {
	s.c.Reset()
	s.lb.reset(r)
	s.offset = 0
}

// Next returns the next chunk. Chunk contents are appended to buf[:0],
// which may be nil. io.EOF is returned after the last chunk.
// On any other error the current chunk is dropped and the error is
// returned by every later call.
func (s *Splitter) Next(buf []byte) (Chunk, error) {
	buf = buf[:0]

	for {
		if s.lb.pos == s.lb.end && !s.lb.update() {
			if s.lb.err == io.EOF && len(buf) != 0 {
				s.c.Reset()
				return s.chunk(buf), nil
			}

			return Chunk{}, s.lb.err
		}

		data := s.lb.unread()

		n, ok := s.c.ChunkEnd(data)
		if !ok {
			n = len(data)
		}

		buf = append(buf, data[:n]...)
		s.lb.pos += n

		if ok {
			return s.chunk(buf), nil
		}
	}
}

func (s *Splitter) chunk(buf []byte) Chunk {
	c := Chunk{
		Offset: s.offset,
		Data:   buf,
	}
	s.offset += uint64(len(buf))

	return c
}
