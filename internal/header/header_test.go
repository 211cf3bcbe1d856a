package header

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-sif/internal/testutil"
)

func readBuilder(t *testing.T, b *testutil.Builder) (*Header, error) {
	t.Helper()
	return Read(bytes.NewReader(b.Bytes()))
}

// countingReader records how many bytes were pulled from the source.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestReadDefaults(t *testing.T) {
	b := testutil.NewBuilder()
	h, err := readBuilder(t, b)
	require.NoError(t, err)

	assert.Equal(t, DefaultLength, h.Lines)
	assert.False(t, h.Spooled)
	assert.Equal(t, "DU420_BVF", h.Model)
	assert.Equal(t, `C:\Data\sample.sif`, h.OriginalFilename)
	assert.Equal(t, time.Unix(1510923600, 0).UTC(), h.CaptureDate)
	assert.Equal(t, -60.0, h.Temperature)
	assert.Equal(t, 0.5, h.ExposureTime)
	assert.Equal(t, 0.75, h.CycleTime)
	assert.Equal(t, 3, h.Accumulations)
	assert.InDelta(t, 1.0, h.ReadoutRate, 1e-12)
	assert.Equal(t, 2.0, h.EMGain)
	assert.Equal(t, 16.25, h.VerticalShiftSpeed)
	assert.Equal(t, 1.0, h.PreAmpGain)
	assert.Equal(t, 500.0, h.CenterWavelength)
	assert.Equal(t, 1200.0, h.Grating)
	assert.Equal(t, 500.0, h.GratingBlaze)
	assert.Equal(t, []float64{3, 2, 1}, h.WavelengthCoefficients)
	assert.Equal(t, Crop{Left: 0, Top: 50, Right: 50, Bottom: 0}, h.Crop)
	assert.Equal(t, 1, h.XBin)
	assert.Equal(t, 1, h.YBin)
	assert.Equal(t, 1024, h.XRes)
	assert.Equal(t, 255, h.YRes)
	assert.Equal(t, 3, h.StackSize)
	assert.Equal(t, 51, h.Width)
	assert.Equal(t, 51, h.Height)
	assert.Len(t, h.WavelengthAxis, 51)
}

func TestReadConsumesOnlyHeader(t *testing.T) {
	b := testutil.NewBuilder()
	data := b.Bytes()

	h, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	var headerBytes int
	for _, l := range b.HeaderLines() {
		headerBytes += len(l) + 1
	}
	assert.Equal(t, 32, h.Lines)
	assert.Less(t, headerBytes, len(data))
}

func TestReadSpooled(t *testing.T) {
	plain := testutil.NewBuilder()
	spooled := testutil.NewBuilder()
	spooled.Spooled = true

	hp, err := readBuilder(t, plain)
	require.NoError(t, err)
	hs, err := readBuilder(t, spooled)
	require.NoError(t, err)

	assert.True(t, hs.Spooled)
	assert.Equal(t, hp.Lines+1, hs.Lines)
	assert.Equal(t, hp.StackSize, hs.StackSize)
	assert.Equal(t, hp.Crop, hs.Crop)
}

func TestReadSpooledNeedsExtraLine(t *testing.T) {
	b := testutil.NewBuilder()
	b.Spooled = true
	lines := b.HeaderLines()
	src := strings.Join(lines[:len(lines)-1], "\n") + "\n"

	_, err := Read(strings.NewReader(src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated), "got %v", err)
}

func TestReadSubRecordMovesRecords(t *testing.T) {
	b := testutil.NewBuilder()
	b.SubRecordAt = 12
	b.StackSize = 2

	h, err := readBuilder(t, b)
	require.NoError(t, err)
	assert.Equal(t, 24, h.Lines)
	assert.Equal(t, 2, h.StackSize)
	assert.Equal(t, 51, h.Width)
	assert.Equal(t, []float64{3, 2, 1}, h.WavelengthCoefficients)
}

func TestReadFirstSubRecordLowersThreshold(t *testing.T) {
	b := testutil.NewBuilder()
	b.SubRecordAt = 11
	lines := b.HeaderLines()
	stack, geom := lines[len(lines)-2], lines[len(lines)-1]

	// Line 8 moves the end of the header to line 20, so the sub-record on
	// line 11 is past the threshold and ignored. Line 19 then carries both
	// the coefficients and the geometry record.
	lines[8] = "65539 a b c d e f"
	lines = lines[:20]
	lines[18] = stack
	lines[19] = geom

	h, err := Read(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, h.Lines)
	assert.Equal(t, Crop{Left: 0, Top: 50, Right: 50, Bottom: 0}, h.Crop)
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 50, 50, 0, 65538}, h.WavelengthCoefficients)
}

func TestReadSubRecordRequiresExactShape(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too long", "65539 1 2 3 4 5 67"},
		{"too short", "65539 1 2 3 4 5"},
		{"wrong prefix", "65538 1 2 3 4 5 6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBuilder()
			lines := b.HeaderLines()
			lines[12] = tt.line

			h, err := Read(strings.NewReader(strings.Join(lines, "\n") + "\n"))
			require.NoError(t, err)
			assert.Equal(t, DefaultLength, h.Lines)
		})
	}
}

func TestReadSubRecordTrimmed(t *testing.T) {
	b := testutil.NewBuilder()
	b.SubRecordAt = 10
	lines := b.HeaderLines()
	lines[10] = "  " + lines[10] + " \r"

	h, err := Read(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	assert.Equal(t, 22, h.Lines)
}

func TestReadNotSIF(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"text", "This is not a SIF file\n"},
		{"prefix", "Andor Technology Multi-Channel\n"},
		{"hdf5", "\x89HDF\r\n\x1a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Read(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Nil(t, h)
		})
	}

	h, err := Read(strings.NewReader("Andor Technology Multi-Channel File v2\n"))
	assert.Nil(t, h)
	assert.True(t, errors.Is(err, ErrNotSIF), "got %v", err)
	var herr *Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 0, herr.Line)
	assert.Equal(t, "signature", herr.Field)
}

func TestReadStopsAtSignature(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("bad\n" + strings.Repeat("x", 1<<20))}
	_, err := Read(cr)
	require.True(t, errors.Is(err, ErrNotSIF))
	assert.Less(t, cr.n, 1<<20, "parser must not drain the stream after a bad signature")
}

func TestReadSignatureWithCRLF(t *testing.T) {
	b := testutil.NewBuilder()
	src := strings.Join(b.HeaderLines(), "\r\n") + "\r\n"
	h, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "DU420_BVF", h.Model)
}

func TestReadMalformedRecords(t *testing.T) {
	tests := []struct {
		name  string
		stack string
		geom  string
		line  int
		field string
	}{
		{"stack too short", "Pixel number65541 1 255 1024 1", "", 30, "stacksize"},
		{"stack without prefix too short", "1 2 3", "", 30, "stacksize"},
		{"geometry too short", "", "65538 0 50 50 0 1", 31, "geometry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBuilder()
			b.StackLine = tt.stack
			b.GeometryLine = tt.geom

			h, err := readBuilder(t, b)
			assert.Nil(t, h)
			require.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)

			var herr *Error
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, tt.line, herr.Line)
			assert.Equal(t, tt.field, herr.Field)
		})
	}
}

func TestReadStackRecordWithoutPrefix(t *testing.T) {
	b := testutil.NewBuilder()
	b.StackLine = "65541 1 255 1024 1 7 1 0 0"
	b.StackSize = 7

	h, err := readBuilder(t, b)
	require.NoError(t, err)
	assert.Equal(t, 7, h.StackSize)
	assert.Equal(t, 255, h.YRes)
	assert.Equal(t, 1024, h.XRes)
}

func TestReadShortFixedRecords(t *testing.T) {
	tests := []struct {
		name  string
		line  int
		value string
		field string
	}{
		{"acquisition", 2, "65547 1 2 3", "capture_date"},
		{"spectrometer", 9, "65540 0 0 500", "center_wavelength"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := testutil.NewBuilder().HeaderLines()
			lines[tt.line] = tt.value

			_, err := Read(strings.NewReader(strings.Join(lines, "\n") + "\n"))
			require.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)
			var herr *Error
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, tt.line, herr.Line)
			assert.Equal(t, tt.field, herr.Field)
		})
	}
}

func TestReadInvalidNumbers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *testutil.Builder)
		field  string
	}{
		{"zero readout", func(b *testutil.Builder) { b.ReadoutPeriod = 0 }, "readout_rate"},
		{"coefficient", func(b *testutil.Builder) { b.Coefficients = "1.0 x 3.0" }, "wavelength_coefficients"},
		{"stacksize", func(b *testutil.Builder) { b.StackLine = "65541 1 255 1024 1 three" }, "stacksize"},
		{"geometry", func(b *testutil.Builder) { b.GeometryLine = "65538 0 fifty 50 0 1 1" }, "geometry"},
		{"blaze", func(b *testutil.Builder) { b.GratingBlaze = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBuilder()
			tt.mutate(b)
			_, err := readBuilder(t, b)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, ErrInvalidNumber), "got %v", err)
			var herr *Error
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, tt.field, herr.Field)
		})
	}
}

func TestReadMissingCoefficients(t *testing.T) {
	b := testutil.NewBuilder()
	b.Coefficients = "   "
	_, err := readBuilder(t, b)
	assert.True(t, errors.Is(err, ErrMissingCoefficients), "got %v", err)
}

func TestReadInvalidGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *testutil.Builder)
	}{
		{"zero xbin", func(b *testutil.Builder) { b.GeometryLine = "65538 0 50 50 0 0 1" }},
		{"zero ybin", func(b *testutil.Builder) { b.GeometryLine = "65538 0 50 50 0 1 0" }},
		{"inverted crop", func(b *testutil.Builder) { b.GeometryLine = "65538 50 50 0 0 1 1" }},
		{"zero stack", func(b *testutil.Builder) { b.StackLine = "65541 1 255 1024 1 0" }},
		// Bins as wide as the crop reduce it to a single pixel.
		{"crop wider than sensor", func(b *testutil.Builder) {
			b.GeometryLine = "65538 0 999999999999 1000000000000 0 1000000000000 1000000000000"
		}},
		{"crop wider than reported resolution", func(b *testutil.Builder) {
			b.StackLine = "Pixel number65541 1 20 30 1 3 1 0 0"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBuilder()
			tt.mutate(b)
			h, err := readBuilder(t, b)
			assert.Nil(t, h)
			assert.True(t, errors.Is(err, ErrInvalidGeometry), "got %v", err)
		})
	}
}

func TestReadTruncated(t *testing.T) {
	lines := testutil.NewBuilder().HeaderLines()
	for _, n := range []int{1, 2, 10, 31} {
		src := strings.Join(lines[:n], "\n") + "\n"
		_, err := Read(strings.NewReader(src))
		assert.True(t, errors.Is(err, ErrTruncated), "%d lines: got %v", n, err)
	}
}

func TestReadLastLineWithoutNewline(t *testing.T) {
	lines := testutil.NewBuilder().HeaderLines()
	h, err := Read(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 51, h.Width)
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestReadPropagatesIOErrors(t *testing.T) {
	boom := errors.New("device unplugged")
	_, err := Read(failingReader{err: boom})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	var herr *Error
	assert.False(t, errors.As(err, &herr))
}

func TestReadFractionalCaptureDate(t *testing.T) {
	lines := testutil.NewBuilder().HeaderLines()
	tokens := strings.Fields(lines[2])
	tokens[4] = "1510923600.5"
	lines[2] = strings.Join(tokens, " ")

	h, err := Read(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1510923600, 5e8).UTC(), h.CaptureDate)
}

func TestLocatePayload(t *testing.T) {
	b := testutil.NewBuilder()
	data := b.Bytes()
	h, err := readBuilder(t, b)
	require.NoError(t, err)

	require.NoError(t, h.LocatePayload(int64(len(data))))
	assert.Equal(t, int64(len(data)), h.FileSize)
	assert.Equal(t, int64(51*51*4*3), h.DataSize)
	assert.Equal(t, h.FileSize, h.DataSize+8+h.PayloadOffset)

	var headerBytes int64
	for _, l := range b.HeaderLines() {
		headerBytes += int64(len(l) + 1)
	}
	assert.Equal(t, headerBytes+int64(len(b.Gap)), h.PayloadOffset)
}

func TestLocatePayloadTooSmall(t *testing.T) {
	h, err := readBuilder(t, testutil.NewBuilder())
	require.NoError(t, err)

	err = h.LocatePayload(100)
	require.True(t, errors.Is(err, ErrNegativeOffset), "got %v", err)
	assert.Zero(t, h.PayloadOffset)
	assert.Zero(t, h.FileSize)

	var herr *Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, -1, herr.Line)
	assert.NotContains(t, herr.Error(), "line")
}

func TestLocatePayloadOverflow(t *testing.T) {
	// A 1x1 frame is 4 bytes; each stack size makes the byte count wrap.
	tests := []struct {
		name  string
		stack string
	}{
		{"wraps to zero", "4611686018427387904"},
		{"wraps to one frame", "4611686018427387905"},
		{"wraps negative", "9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBuilder()
			b.Left, b.Top, b.Right, b.Bottom = 0, 0, 0, 0
			b.StackLine = "Pixel number65541 1 255 1024 1 " + tt.stack + " 1 0 0"
			data := b.Bytes()

			h, err := readBuilder(t, b)
			require.NoError(t, err)
			require.Equal(t, 1, h.Width)
			require.Equal(t, 1, h.Height)

			err = h.LocatePayload(int64(len(data)))
			require.True(t, errors.Is(err, ErrNegativeOffset), "got %v", err)
			assert.Zero(t, h.DataSize)
			assert.Zero(t, h.PayloadOffset)
		})
	}
}

func TestLocatePayloadBelowTrailer(t *testing.T) {
	h, err := readBuilder(t, testutil.NewBuilder())
	require.NoError(t, err)
	assert.True(t, errors.Is(h.LocatePayload(3), ErrNegativeOffset))
}

func TestStringListsProperties(t *testing.T) {
	b := testutil.NewBuilder()
	h, err := readBuilder(t, b)
	require.NoError(t, err)
	require.NoError(t, h.LocatePayload(int64(len(b.Bytes()))))

	s := h.String()
	for _, want := range []string{"Camera Model:", "DU420_BVF", "Stacksize:", "Offset to Image Data:", "2017-11-17T13:00:00Z"} {
		assert.Contains(t, s, want)
	}
}
