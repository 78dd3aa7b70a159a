package models

import "time"

// Frame is a decoded color image in BGR order, three bytes per pixel, rows
// packed without padding. Frames are treated as immutable once produced;
// use Clone before handing one to another goroutine that may keep it.
type Frame struct {
	Width     int
	Height    int
	Pix       []byte
	Sequence  uint64
	Timestamp time.Time
	// Processed marks the frame published as the outcome of an analysis
	// cycle, as opposed to a raw camera frame with the same sequence.
	Processed bool
}

// NewFrame allocates a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}
}

// Empty reports whether the frame carries no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Width:     f.Width,
		Height:    f.Height,
		Pix:       pix,
		Sequence:  f.Sequence,
		Timestamp: f.Timestamp,
		Processed: f.Processed,
	}
}

// At returns the B, G and R samples of a pixel.
func (f *Frame) At(x, y int) (b, g, r byte) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the B, G and R samples of a pixel.
func (f *Frame) Set(x, y int, b, g, r byte) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
}

// Newer reports whether f should replace a frame already delivered with
// sequence last. The processed frame of a sequence replaces its raw frame.
func (f *Frame) Newer(last uint64, lastProcessed bool) bool {
	if f == nil {
		return false
	}
	if f.Sequence != last {
		return true
	}
	return f.Processed && !lastProcessed
}
