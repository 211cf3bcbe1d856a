package header

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// Signature is the exact content of the first header line.
const Signature = "Andor Technology Multi-Channel File"

// DefaultLength is the header length in lines before any sub-record is seen.
const DefaultLength = 32

const (
	subRecordPrefix  = "65539 "
	subRecordSize    = 17
	subRecordTrailer = 12

	pixelNumberPrefix = "Pixel number"
	spooledMarker     = "Spooled"

	stackRecordTokens    = 6
	geometryRecordTokens = 7

	// trailerSize is the number of bytes after the last frame.
	trailerSize = 8
	sampleSize  = 4
)

// Crop is the sensor readout region in raw, unbinned sensor coordinates.
type Crop struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Header contains everything decoded from a SIF header.
type Header struct {
	OriginalFilename string
	Model            string
	CaptureDate      time.Time

	Temperature        float64 // degrees Celsius
	ExposureTime       float64 // seconds
	CycleTime          float64 // seconds
	ReadoutRate        float64 // MHz
	EMGain             float64
	VerticalShiftSpeed float64
	PreAmpGain         float64
	Accumulations      int

	CenterWavelength float64 // nm
	Grating          float64
	GratingBlaze     float64

	// WavelengthCoefficients holds the calibration polynomial, highest
	// degree first.
	WavelengthCoefficients []float64

	Crop       Crop
	XBin, YBin int
	XRes, YRes int
	StackSize  int

	// Width and Height are the frame dimensions derived by Geometry.
	Width, Height int

	// Lines is the number of header lines consumed.
	Lines   int
	Spooled bool

	// Set by LocatePayload.
	FileSize      int64
	DataSize      int64
	PayloadOffset int64

	// WavelengthAxis is the calibration evaluated at every raw pixel from
	// Crop.Left to Crop.Right inclusive.
	WavelengthAxis []float64
}

// parser is the mutable state of one header read.
type parser struct {
	h      *Header
	line   int
	length int // expected header length, may shrink when a sub-record is seen
	spool  int
}

// Read parses a SIF header from r. It consumes exactly Header.Lines lines
// from r; r may be positioned anywhere after that on return. The returned
// header has no payload location until LocatePayload is called.
func Read(r io.Reader) (*Header, error) {
	br := bufio.NewReader(r)
	p := &parser{
		h:      &Header{},
		length: DefaultLength,
	}

	for ; p.line < p.length+p.spool; p.line++ {
		raw, err := br.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading header line %d: %w", p.line, err)
			}
			if len(raw) == 0 {
				return nil, lineError(p.line, "header", ErrTruncated)
			}
		}
		if err := p.consume(bytes.TrimSpace(raw)); err != nil {
			return nil, err
		}
	}
	p.h.Lines = p.line

	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.h, nil
}

// consume handles one stripped line at index p.line.
func (p *parser) consume(line []byte) error {
	h := p.h
	i := p.line

	switch i {
	case 0:
		if string(line) != Signature {
			return lineError(i, "signature", ErrNotSIF)
		}
	case acquisitionLine, spectrometerLine:
		if err := p.decodeFields(line); err != nil {
			return err
		}
	case modelLine:
		h.Model = string(line)
	case filenameLine:
		h.OriginalFilename = string(line)
	case spoolLine:
		tokens := strings.Fields(string(line))
		if len(tokens) >= 1 && tokens[0] == spooledMarker {
			p.spool = 1
			h.Spooled = true
		}
	case coefficientLine:
		if err := p.decodeCoefficients(line); err != nil {
			return err
		}
	}

	if i > spoolLine && i < p.length-subRecordTrailer &&
		len(line) == subRecordSize && bytes.HasPrefix(line, []byte(subRecordPrefix)) {
		p.length = i + subRecordTrailer
	}

	switch i {
	case p.length - 2:
		return p.decodeStackRecord(line)
	case p.length - 1:
		return p.decodeGeometryRecord(line)
	}
	return nil
}

func (p *parser) decodeFields(line []byte) error {
	entries, minTokens := fieldsFor(p.line)
	tokens := strings.Fields(string(line))
	if len(tokens) < minTokens {
		return lineError(p.line, entries[0].name,
			fmt.Errorf("%w: %d tokens, need %d", ErrMalformedRecord, len(tokens), minTokens))
	}
	for _, f := range entries {
		if err := f.decode(p.h, tokens[f.token]); err != nil {
			return lineError(p.line, f.name, err)
		}
	}
	return nil
}

func (p *parser) decodeCoefficients(line []byte) error {
	tokens := strings.Fields(string(line))
	if len(tokens) == 0 {
		return lineError(p.line, "wavelength_coefficients", ErrMissingCoefficients)
	}
	coeffs := make([]float64, len(tokens))
	for k, tok := range tokens {
		v, err := parseFloat(tok)
		if err != nil {
			return lineError(p.line, "wavelength_coefficients", err)
		}
		// The file lists the constant term first.
		coeffs[len(tokens)-1-k] = v
	}
	p.h.WavelengthCoefficients = coeffs
	return nil
}

func (p *parser) decodeStackRecord(line []byte) error {
	line = bytes.TrimPrefix(line, []byte(pixelNumberPrefix))
	tokens := strings.Fields(string(line))
	if len(tokens) < stackRecordTokens {
		return lineError(p.line, "stacksize", ErrMalformedRecord)
	}
	dst := []*int{&p.h.YRes, &p.h.XRes, nil, &p.h.StackSize}
	for k, d := range dst {
		if d == nil {
			continue
		}
		v, err := parseInt(tokens[2+k])
		if err != nil {
			return lineError(p.line, "stacksize", err)
		}
		*d = v
	}
	return nil
}

func (p *parser) decodeGeometryRecord(line []byte) error {
	tokens := strings.Fields(string(line))
	if len(tokens) < geometryRecordTokens {
		return lineError(p.line, "geometry", ErrMalformedRecord)
	}
	h := p.h
	dst := []*int{&h.Crop.Left, &h.Crop.Top, &h.Crop.Right, &h.Crop.Bottom, &h.XBin, &h.YBin}
	for k, d := range dst {
		v, err := parseInt(tokens[1+k])
		if err != nil {
			return lineError(p.line, "geometry", err)
		}
		*d = v
	}
	return nil
}

// finish validates the decoded header and computes derived fields.
func (p *parser) finish() error {
	h := p.h
	stackLine, geomLine := p.length-2, p.length-1

	if h.WavelengthCoefficients == nil {
		return lineError(coefficientLine, "wavelength_coefficients", ErrMissingCoefficients)
	}
	if h.StackSize < 1 {
		return lineError(stackLine, "stacksize",
			fmt.Errorf("%w: stack size %d", ErrInvalidGeometry, h.StackSize))
	}

	w, ht, err := Geometry(h.Crop, h.XBin, h.YBin)
	if err != nil {
		return lineError(geomLine, "geometry", err)
	}
	h.Width, h.Height = w, ht

	// The axis has one entry per raw pixel, so the crop must fit the sensor.
	if span, res := h.Crop.Right-h.Crop.Left+1, max(h.XRes, h.YRes); span > res {
		return lineError(geomLine, "geometry",
			fmt.Errorf("%w: crop spans %d pixels, sensor has %d", ErrInvalidGeometry, span, res))
	}
	h.WavelengthAxis = WavelengthAxis(h.WavelengthCoefficients, h.Crop.Left, h.Crop.Right)
	return nil
}

// Geometry derives frame width and height from the readout region and bin
// factors. The width is divided by ybin and the height by xbin; files in the
// wild decode correctly only with this pairing.
func Geometry(c Crop, xbin, ybin int) (width, height int, err error) {
	if xbin < 1 || ybin < 1 {
		return 0, 0, fmt.Errorf("%w: binning %dx%d", ErrInvalidGeometry, xbin, ybin)
	}
	w := c.Right - c.Left + 1
	width = (w - w%xbin) / ybin
	ht := c.Top - c.Bottom + 1
	height = (ht - ht%ybin) / xbin
	if width < 1 || height < 1 {
		return 0, 0, fmt.Errorf("%w: %dx%d frame from crop %+v", ErrInvalidGeometry, width, height, c)
	}
	if int64(width) > math.MaxInt64/sampleSize/int64(height) {
		return 0, 0, fmt.Errorf("%w: %dx%d frame overflows", ErrInvalidGeometry, width, height)
	}
	return width, height, nil
}

// FrameSize returns the byte size of one frame.
func (h *Header) FrameSize() int64 {
	return int64(h.Width) * int64(h.Height) * sampleSize
}

// LocatePayload records the file size and derives where the frame data
// starts. The payload sits immediately before an 8-byte trailer.
func (h *Header) LocatePayload(fileSize int64) error {
	frame := h.FrameSize()
	// Compare by division; the product may not fit in an int64.
	if frame <= 0 || fileSize < trailerSize || int64(h.StackSize) > (fileSize-trailerSize)/frame {
		return &Error{Line: -1, Field: "payload_offset",
			Err: fmt.Errorf("%w: %d frame(s) of %d bytes in a %d byte file", ErrNegativeOffset, h.StackSize, frame, fileSize)}
	}
	dataSize := frame * int64(h.StackSize)
	offset := fileSize - dataSize - trailerSize
	h.FileSize = fileSize
	h.DataSize = dataSize
	h.PayloadOffset = offset
	return nil
}

// Polyval evaluates a polynomial with coefficients ordered highest degree
// first.
func Polyval(coeffs []float64, x float64) float64 {
	var y float64
	for _, c := range coeffs {
		y = y*x + c
	}
	return y
}

// WavelengthAxis evaluates coeffs at every pixel index in [left, right].
func WavelengthAxis(coeffs []float64, left, right int) []float64 {
	if right < left {
		return nil
	}
	axis := make([]float64, right-left+1)
	for k := range axis {
		axis[k] = Polyval(coeffs, float64(left+k))
	}
	return axis
}
