package header

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// decoder stores one token into the header.
type decoder func(h *Header, tok string) error

// field maps a token position on a fixed header line to a Header field.
// Positions were taken from files written by the acquisition software; there
// is no published description of these records.
type field struct {
	line   int
	name   string
	token  int
	decode decoder
}

const (
	acquisitionLine  = 2
	modelLine        = 3
	filenameLine     = 5
	spoolLine        = 7
	spectrometerLine = 9
	coefficientLine  = 19
)

var fields = []field{
	{acquisitionLine, "capture_date", 4, decodeCaptureDate},
	{acquisitionLine, "temperature", 5, floatInto(func(h *Header) *float64 { return &h.Temperature })},
	{acquisitionLine, "exposure_time", 12, floatInto(func(h *Header) *float64 { return &h.ExposureTime })},
	{acquisitionLine, "cycle_time", 13, floatInto(func(h *Header) *float64 { return &h.CycleTime })},
	{acquisitionLine, "accumulations", 15, intInto(func(h *Header) *int { return &h.Accumulations })},
	{acquisitionLine, "readout_rate", 18, decodeReadoutRate},
	{acquisitionLine, "em_gain", 21, floatInto(func(h *Header) *float64 { return &h.EMGain })},
	{acquisitionLine, "vertical_shift_speed", 41, floatInto(func(h *Header) *float64 { return &h.VerticalShiftSpeed })},
	{acquisitionLine, "pre_amp_gain", 43, floatInto(func(h *Header) *float64 { return &h.PreAmpGain })},

	{spectrometerLine, "center_wavelength", 3, floatInto(func(h *Header) *float64 { return &h.CenterWavelength })},
	{spectrometerLine, "grating", 6, floatInto(func(h *Header) *float64 { return &h.Grating })},
	{spectrometerLine, "grating_blaze", 7, floatInto(func(h *Header) *float64 { return &h.GratingBlaze })},
}

// fieldsFor returns the table entries for a line and the token count the
// line must have to satisfy all of them.
func fieldsFor(line int) (out []field, minTokens int) {
	for _, f := range fields {
		if f.line != line {
			continue
		}
		out = append(out, f)
		if f.token+1 > minTokens {
			minTokens = f.token + 1
		}
	}
	return out, minTokens
}

func parseFloat(tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	return v, nil
}

func parseInt(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	return v, nil
}

func floatInto(dst func(*Header) *float64) decoder {
	return func(h *Header, tok string) error {
		v, err := parseFloat(tok)
		if err != nil {
			return err
		}
		*dst(h) = v
		return nil
	}
}

func intInto(dst func(*Header) *int) decoder {
	return func(h *Header, tok string) error {
		v, err := parseInt(tok)
		if err != nil {
			return err
		}
		*dst(h) = v
		return nil
	}
}

// decodeCaptureDate reads Unix epoch seconds.
func decodeCaptureDate(h *Header, tok string) error {
	v, err := parseFloat(tok)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %q is not a timestamp", ErrInvalidNumber, tok)
	}
	sec, frac := math.Modf(v)
	h.CaptureDate = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return nil
}

// decodeReadoutRate converts the per-pixel readout period in seconds to MHz.
func decodeReadoutRate(h *Header, tok string) error {
	v, err := parseFloat(tok)
	if err != nil {
		return err
	}
	if v == 0 {
		return fmt.Errorf("%w: zero readout period", ErrInvalidNumber)
	}
	h.ReadoutRate = 1 / v / 1e6
	return nil
}
