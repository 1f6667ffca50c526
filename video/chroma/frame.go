package chroma

import (
	"errors"
)

var (
	// ErrNotReady is returned by a Source that has not produced a frame yet.
	ErrNotReady = errors.New("source not ready")

	// ErrSizeMismatch is returned when two buffers that must share a resolution
	// do not.
	ErrSizeMismatch = errors.New("frame size mismatch")
)

// Source presents frames on demand. The returned frame is a snapshot of
// whatever the source currently shows; callers must not modify it.
type Source interface {
	Frame() (*Frame, error)
}

// Frame is a row-major RGBA pixel buffer, 4 bytes per pixel.
type Frame struct {
	Width, Height int
	Pix           []byte
}

func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Valid reports whether f is non-empty and its buffer matches its dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*4
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	n := &Frame{Width: f.Width, Height: f.Height, Pix: make([]byte, len(f.Pix))}
	copy(n.Pix, f.Pix)
	return n
}

// Draw stretches src over the whole of f using nearest-neighbour sampling.
// Aspect ratio is not preserved.
func (f *Frame) Draw(src *Frame) error {
	if !src.Valid() {
		return ErrNotReady
	}
	if src.Width == f.Width && src.Height == f.Height {
		copy(f.Pix, src.Pix)
		return nil
	}
	rowStride := f.Width * 4
	srcStride := src.Width * 4
	for y := 0; y < f.Height; y++ {
		sy := y * src.Height / f.Height
		row := f.Pix[y*rowStride : (y+1)*rowStride]
		srow := src.Pix[sy*srcStride : (sy+1)*srcStride]
		for x := 0; x < f.Width; x++ {
			sx := (x * src.Width / f.Width) * 4
			copy(row[x*4:x*4+4], srow[sx:sx+4])
		}
	}
	return nil
}
