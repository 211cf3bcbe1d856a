package sif

import (
	"fmt"
	"io"
	"slices"

	"github.com/robert-malhotra/go-sif/internal/binary"
	"github.com/robert-malhotra/go-sif/internal/header"
)

// File is a parsed SIF file. It keeps no open handle: every payload read
// opens the file again and closes it before returning, so a File may be
// shared between goroutines.
type File struct {
	path   string
	opts   *options
	header *FileHeader
}

// Open parses the header of the SIF file at path.
func Open(path string, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	f, err := o.open(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &IOError{Path: path, Op: "stat", Err: err}
	}

	hdr, err := parseHeader(path, f, info.Size())
	if err != nil {
		return nil, err
	}

	return &File{
		path:   path,
		opts:   o,
		header: hdr,
	}, nil
}

// ParseHeader decodes a header from r for a file of the given total size.
// It is the in-memory counterpart of Open for callers that already hold the
// file contents; name identifies the source in errors and may be empty.
func ParseHeader(name string, r io.Reader, size int64) (*FileHeader, error) {
	return parseHeader(name, r, size)
}

func parseHeader(path string, r io.Reader, size int64) (*FileHeader, error) {
	hdr, err := header.Read(r)
	if err != nil {
		return nil, classify(path, "read header", err)
	}
	if err := hdr.LocatePayload(size); err != nil {
		return nil, classify(path, "read header", err)
	}
	return hdr, nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Header returns a copy of the decoded header.
func (f *File) Header() FileHeader {
	h := *f.header
	h.WavelengthCoefficients = slices.Clone(h.WavelengthCoefficients)
	h.WavelengthAxis = slices.Clone(h.WavelengthAxis)
	return h
}

// Width returns the frame width in pixels.
func (f *File) Width() int {
	return f.header.Width
}

// Height returns the frame height in pixels.
func (f *File) Height() int {
	return f.header.Height
}

// NumFrames returns the number of frames in the stack.
func (f *File) NumFrames() int {
	return f.header.StackSize
}

// ReadFrame reads frame index from disk. Indexes past the end of the stack
// are not rejected up front; they fail with ErrShortRead when the file runs
// out of bytes.
func (f *File) ReadFrame(index int) (*Frame, error) {
	if index < 0 {
		return nil, &IOError{Path: f.path, Op: "read frame", Err: fmt.Errorf("%w: %d", ErrFrameIndex, index)}
	}
	h := f.header
	offset := h.PayloadOffset + int64(index)*h.FrameSize()

	data, err := f.readFloat32s("read frame", offset, int(h.FrameSize()/binary.Float32Size))
	if err != nil {
		return nil, err
	}
	return &Frame{Width: h.Width, Height: h.Height, Data: data}, nil
}

// ReadAll reads the whole stack in one pass.
func (f *File) ReadAll() (*Stack, error) {
	h := f.header
	// DataSize is bounded by the file size, so the sample count cannot wrap.
	data, err := f.readFloat32s("read stack", h.PayloadOffset, int(h.DataSize/binary.Float32Size))
	if err != nil {
		return nil, err
	}
	return &Stack{Frames: h.StackSize, Width: h.Width, Height: h.Height, Data: data}, nil
}

// readFloat32s opens the file, reads n samples at offset and closes it.
func (f *File) readFloat32s(op string, offset int64, n int) ([]float32, error) {
	fh, err := f.opts.open(f.path)
	if err != nil {
		return nil, &IOError{Path: f.path, Op: "open", Err: err}
	}
	defer fh.Close()

	ra, ok := binary.AsReaderAt(fh)
	if !ok {
		return nil, &IOError{Path: f.path, Op: op, Err: ErrNotSeekable}
	}

	data, err := binary.NewReader(ra).At(offset).ReadFloat32s(n)
	if err != nil {
		return nil, &IOError{Path: f.path, Op: op, Err: err}
	}
	return data, nil
}
