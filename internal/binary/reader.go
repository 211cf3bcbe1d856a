// Package binary provides low-level positioned reads of SIF payload data.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrShortRead is returned when fewer bytes than requested are available.
var ErrShortRead = errors.New("short read")

// ErrTooLarge is returned when a read size cannot be represented in bytes.
var ErrTooLarge = errors.New("read size overflows")

// Float32Size is the width of one payload sample in bytes.
const Float32Size = 4

// Reader provides positioned reads over an io.ReaderAt. SIF payloads are
// always little-endian, so the byte order is fixed at construction.
type Reader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	pos   int64
}

// NewReader creates a little-endian reader positioned at offset 0.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{
		r:     r,
		order: binary.LittleEndian,
	}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{
		r:     r.r,
		order: r.order,
		pos:   offset,
	}
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if r.pos < 0 {
		return nil, fmt.Errorf("negative offset %d", r.pos)
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes at offset %d", ErrShortRead, got, n, r.pos)
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadFloat32s reads n consecutive float32 values in one read.
func (r *Reader) ReadFloat32s(n int) ([]float32, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > math.MaxInt/Float32Size {
		return nil, fmt.Errorf("%w: %d samples", ErrTooLarge, n)
	}
	buf, err := r.ReadBytes(n * Float32Size)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	DecodeFloat32s(out, buf, r.order)
	return out, nil
}

// DecodeFloat32s decodes len(dst) values from src. src must hold at least
// 4*len(dst) bytes.
func DecodeFloat32s(dst []float32, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = math.Float32frombits(order.Uint32(src[i*Float32Size:]))
	}
}

// seekReaderAt adapts an io.ReadSeeker to io.ReaderAt. It is not safe for
// concurrent use; each payload read owns its own handle.
type seekReaderAt struct {
	rs io.ReadSeeker
}

func (s seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.rs, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// AsReaderAt returns r as an io.ReaderAt, wrapping seekable readers that do
// not implement ReadAt themselves. ok is false when r supports neither.
func AsReaderAt(r io.Reader) (ra io.ReaderAt, ok bool) {
	if ra, ok := r.(io.ReaderAt); ok {
		return ra, true
	}
	if rs, ok := r.(io.ReadSeeker); ok {
		return seekReaderAt{rs: rs}, true
	}
	return nil, false
}
