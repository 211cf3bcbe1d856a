// Package testutil builds synthetic SIF files for tests.
//
// Files are laid out the way the acquisition software writes them: a line
// oriented header, an optional gap, little-endian float32 frames and an
// 8-byte trailer.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Signature is the first line of every SIF file.
const Signature = "Andor Technology Multi-Channel File"

// Builder describes a synthetic SIF file. The zero value is not useful; start
// from NewBuilder.
type Builder struct {
	Signature        string
	Model            string
	OriginalFilename string

	Epoch              int64
	Temperature        float64
	ExposureTime       float64
	CycleTime          float64
	Accumulations      int
	ReadoutPeriod      float64 // seconds per pixel
	EMGain             float64
	VerticalShiftSpeed float64
	PreAmpGain         float64

	CenterWavelength float64
	Grating          float64
	GratingBlaze     float64

	// Coefficients is written verbatim as line 19, constant term first.
	Coefficients string

	Spooled bool
	// SubRecordAt places a 17-byte "65539 " sub-record on that line when > 0.
	SubRecordAt int

	XRes, YRes int
	Left, Top  int
	Right      int
	Bottom     int
	XBin, YBin int
	StackSize  int

	// StackLine and GeometryLine override the generated records when set.
	StackLine    string
	GeometryLine string

	// Gap is written between the header and the first frame.
	Gap []byte
	// TruncatePayload drops this many bytes from the end of the file.
	TruncatePayload int
}

// NewBuilder returns a 51x51, three frame file with no sub-record.
func NewBuilder() *Builder {
	return &Builder{
		Signature:          Signature,
		Model:              "DU420_BVF",
		OriginalFilename:   `C:\Data\sample.sif`,
		Epoch:              1510923600,
		Temperature:        -60,
		ExposureTime:       0.5,
		CycleTime:          0.75,
		Accumulations:      3,
		ReadoutPeriod:      1e-6,
		EMGain:             2,
		VerticalShiftSpeed: 16.25,
		PreAmpGain:         1,
		CenterWavelength:   500,
		Grating:            1200,
		GratingBlaze:       500,
		Coefficients:       "1.0 2.0 3.0",
		XRes:               1024,
		YRes:               255,
		Left:               0,
		Top:                50,
		Right:              50,
		Bottom:             0,
		XBin:               1,
		YBin:               1,
		StackSize:          3,
		Gap:                []byte("gap\n"),
	}
}

// HeaderLength returns the expected header length before the spool line.
func (b *Builder) HeaderLength() int {
	if b.SubRecordAt > 0 {
		return b.SubRecordAt + 12
	}
	return 32
}

// Dims returns the frame dimensions the reader is expected to derive.
func (b *Builder) Dims() (width, height int) {
	w := b.Right - b.Left + 1
	ht := b.Top - b.Bottom + 1
	return (w - w%b.XBin) / b.YBin, (ht - ht%b.YBin) / b.XBin
}

// Sample is the value stored at (frame, row, col).
func (b *Builder) Sample(frame, row, col int) float32 {
	return float32(frame*100000+row*100+col) + 0.25
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// HeaderLines returns every header line without terminators.
func (b *Builder) HeaderLines() []string {
	length := b.HeaderLength()
	total := length
	if b.Spooled {
		total++
	}
	lines := make([]string, total)
	for i := range lines {
		lines[i] = "0 0"
	}

	acq := make([]string, 46)
	for i := range acq {
		acq[i] = "0"
	}
	acq[4] = strconv.FormatInt(b.Epoch, 10)
	acq[5] = ftoa(b.Temperature)
	acq[12] = ftoa(b.ExposureTime)
	acq[13] = ftoa(b.CycleTime)
	acq[15] = strconv.Itoa(b.Accumulations)
	acq[18] = ftoa(b.ReadoutPeriod)
	acq[21] = ftoa(b.EMGain)
	acq[41] = ftoa(b.VerticalShiftSpeed)
	acq[43] = ftoa(b.PreAmpGain)

	lines[0] = b.Signature
	lines[1] = "65538 1"
	lines[2] = "65547 " + strings.Join(acq[1:], " ")
	lines[3] = b.Model
	lines[5] = b.OriginalFilename
	lines[7] = "65539 Live"
	if b.Spooled {
		lines[7] = "Spooled 1"
	}
	lines[9] = fmt.Sprintf("65540 0 0 %s 0 0 %s %s 1 0", ftoa(b.CenterWavelength), ftoa(b.Grating), ftoa(b.GratingBlaze))
	lines[19] = b.Coefficients
	if b.SubRecordAt > 0 {
		lines[b.SubRecordAt] = "65539 1 2 3 4 5 6"
	}

	stack := b.StackLine
	if stack == "" {
		stack = fmt.Sprintf("Pixel number65541 1 %d %d 1 %d 1 0 0", b.YRes, b.XRes, b.StackSize)
	}
	geom := b.GeometryLine
	if geom == "" {
		geom = fmt.Sprintf("65538 %d %d %d %d %d %d 0 0", b.Left, b.Top, b.Right, b.Bottom, b.XBin, b.YBin)
	}
	lines[length-2] = stack
	lines[length-1] = geom
	return lines
}

// Bytes renders the complete file.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range b.HeaderLines() {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	buf.Write(b.Gap)

	width, height := b.Dims()
	for k := 0; k < b.StackSize; k++ {
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				binary.Write(&buf, binary.LittleEndian, b.Sample(k, row, col))
			}
		}
	}
	buf.Write(make([]byte, 8))

	out := buf.Bytes()
	if b.TruncatePayload > 0 && b.TruncatePayload <= len(out) {
		out = out[:len(out)-b.TruncatePayload]
	}
	return out
}

// WriteFile writes the file into a per-test temporary directory and returns
// its path.
func (b *Builder) WriteFile(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
