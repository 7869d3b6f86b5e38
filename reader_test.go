package rollsum

import (
	"bytes"
	"errors"
	"io"
)

var errRead = errors.New("error on read")

// strictReader records whether it was read after returning an error.
// Splitter must never do so.
type strictReader struct {
	r   io.Reader
	err error

	UsedAfterError bool
}

func newStrictReader(r io.Reader) *strictReader {
	return &strictReader{r: r}
}

// Read implements io.Reader interface.
func (r *strictReader) Read(p []byte) (int, error) {
	if r.err != nil {
		r.UsedAfterError = true
	}

	n, err := r.r.Read(p)
	r.err = err

	return n, err
}

// failingReader returns the first limit bytes of data and errRead after them.
type failingReader struct {
	data []byte
}

func newFailingReader(limit int, data []byte) *failingReader {
	return &failingReader{
		data: data[:min(limit, len(data))],
	}
}

// Read implements io.Reader interface.
func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, errRead
	}

	n := copy(p, r.data)
	r.data = r.data[n:]

	return n, nil
}

func newStrictReaderFromBuf(buf []byte) *strictReader {
	return newStrictReader(bytes.NewReader(buf))
}
