package header

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// String renders the header as an aligned property listing.
func (h *Header) String() string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	row := func(name, format string, args ...any) {
		fmt.Fprintf(tw, "%s:\t"+format+"\n", append([]any{name}, args...)...)
	}

	row("Original Filename", "%s", h.OriginalFilename)
	row("Camera Model", "%s", h.Model)
	row("Capture Date", "%s", h.CaptureDate.Format(time.RFC3339))
	row("Temperature", "%g deg. C", h.Temperature)
	row("Exposure Time", "%f s", h.ExposureTime)
	row("Cycle Time", "%f s", h.CycleTime)
	row("Accumulations", "%d", h.Accumulations)
	row("Pixel Readout Rate", "%f MHz", h.ReadoutRate)
	row("Horizontal Camera Resolution", "%d", h.XRes)
	row("Vertical Camera Resolution", "%d", h.YRes)
	row("Image Width", "%d", h.Width)
	row("Image Height", "%d", h.Height)
	row("Horizontal Binning", "%d", h.XBin)
	row("Vertical Binning", "%d", h.YBin)
	row("EM Gain Level", "%f", h.EMGain)
	row("Vertical Shift Speed", "%f s", h.VerticalShiftSpeed)
	row("Pre-Amplifier Gain", "%f", h.PreAmpGain)
	row("Center Wavelength", "%f nm", h.CenterWavelength)
	row("Grating", "%g", h.Grating)
	row("Grating Blaze", "%g", h.GratingBlaze)
	row("Stacksize", "%d", h.StackSize)
	row("Filesize", "%d", h.FileSize)
	row("Offset to Image Data", "%d", h.PayloadOffset)
	tw.Flush()
	return sb.String()
}
