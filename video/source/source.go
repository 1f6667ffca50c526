package source

import (
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"chromakey/video/chroma"
)

// latest holds the most recent decoded frame. Publishing replaces the frame;
// readers get the same immutable frame until the next publish.
type latest struct {
	f *chroma.Frame
	l sync.Mutex
}

func (s *latest) put(f *chroma.Frame) {
	s.l.Lock()
	defer s.l.Unlock()
	s.f = f
}

func (s *latest) get() (*chroma.Frame, error) {
	s.l.Lock()
	defer s.l.Unlock()
	if s.f == nil {
		return nil, chroma.ErrNotReady
	}
	return s.f, nil
}

// converter turns OpenCV BGR mats into RGBA frames.
type converter struct {
	rgba gocv.Mat
}

func newConverter() *converter {
	return &converter{rgba: gocv.NewMat()}
}

func (c *converter) frame(m gocv.Mat) (*chroma.Frame, error) {
	if m.Empty() {
		return nil, chroma.ErrNotReady
	}
	switch m.Channels() {
	case 4:
		gocv.CvtColor(m, &c.rgba, gocv.ColorBGRAToRGBA)
	case 1:
		// Gray has equal channels, so BGRA and RGBA coincide.
		gocv.CvtColor(m, &c.rgba, gocv.ColorGrayToBGRA)
	default:
		gocv.CvtColor(m, &c.rgba, gocv.ColorBGRToRGBA)
	}
	f := &chroma.Frame{
		Width:  c.rgba.Cols(),
		Height: c.rgba.Rows(),
		Pix:    c.rgba.ToBytes(),
	}
	if !f.Valid() {
		return nil, fmt.Errorf("unexpected %dx%d frame with %d bytes", f.Width, f.Height, len(f.Pix))
	}
	return f, nil
}

func (c *converter) Close() {
	c.rgba.Close()
}

// openCapture opens a device index ("0", "1", ...) or a file/stream URI.
func openCapture(uri string) (*gocv.VideoCapture, error) {
	var dev interface{} = uri
	if id, err := strconv.Atoi(uri); err == nil {
		dev = id
	}
	vc, err := gocv.OpenVideoCapture(dev)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("unable to open %q", uri)
	}
	return vc, nil
}
