// Package header parses the text header of Andor SIF files.
//
// A SIF file starts with a block of newline-terminated text lines followed by
// raw little-endian float32 frame data. The header carries no length field;
// instead the reader walks lines by index and recognizes records by position.
//
// # Line Layout
//
// The supported file family uses the following fixed lines (zero-based):
//
//   - 0: the signature "Andor Technology Multi-Channel File"
//   - 2: dense acquisition record (temperature, capture date, exposure,
//     cycle time, accumulations, readout period, gains, shift speed)
//   - 3: camera model
//   - 5: original filename
//   - 7: "Spooled" marker; spooled files carry one extra line
//   - 9: spectrometer record (center wavelength, grating, blaze)
//   - 19: wavelength calibration coefficients, lowest degree first
//
// The last two lines of the header carry the stack size and the readout
// region. The header is nominally 32 lines long, but a 17-byte sub-record
// starting with "65539 " moves the end of the header to 12 lines after it.
//
// # Derived Geometry
//
// [Geometry] computes frame dimensions from the crop rectangle and binning.
// The horizontal dimension is divided by the vertical bin factor and vice
// versa; files written by the acquisition software are read correctly only
// with this pairing, so it is kept as is.
//
// # Key Types and Functions
//
//   - [Header]: all decoded fields
//   - [Read]: runs the line state machine over a stream
//   - [Header.LocatePayload]: derives payload size and offset from the file size
//   - [Polyval], [WavelengthAxis]: calibration polynomial evaluation
//
// # Errors
//
// All failures are reported as [*Error], which names the offending line and
// field and wraps one of [ErrNotSIF], [ErrMalformedRecord], [ErrInvalidNumber],
// [ErrMissingCoefficients], [ErrTruncated], [ErrInvalidGeometry] or
// [ErrNegativeOffset].
package header
