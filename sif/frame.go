package sif

// Frame is one image or spectrum, stored row-major.
type Frame struct {
	Width  int
	Height int
	Data   []float32
}

// At returns the sample at row, col.
func (f *Frame) At(row, col int) float32 {
	return f.Data[row*f.Width+col]
}

// Row returns row as a slice sharing the frame's storage.
func (f *Frame) Row(row int) []float32 {
	start := row * f.Width
	return f.Data[start : start+f.Width : start+f.Width]
}

// Rows returns a [Height][Width] view of the frame. The rows share the
// frame's storage.
func (f *Frame) Rows() [][]float32 {
	rows := make([][]float32, f.Height)
	for r := range rows {
		rows[r] = f.Row(r)
	}
	return rows
}

// Stack is every frame of a file, stored frame-major then row-major.
type Stack struct {
	Frames int
	Width  int
	Height int
	Data   []float32
}

// Frame returns frame k as a Frame sharing the stack's storage.
func (s *Stack) Frame(k int) *Frame {
	n := s.Width * s.Height
	start := k * n
	return &Frame{
		Width:  s.Width,
		Height: s.Height,
		Data:   s.Data[start : start+n : start+n],
	}
}

// At returns the sample at frame k, row, col.
func (s *Stack) At(k, row, col int) float32 {
	return s.Data[(k*s.Height+row)*s.Width+col]
}
