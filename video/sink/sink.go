package sink

import (
	"image"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"chromakey/video/chroma"
)

// Sink defines a display surface for composited output, such as a browser
// stream, a window or a video file.
type Sink interface {
	// Present shows a frame. The caller keeps ownership of the frame and may
	// overwrite it once Present returns.
	Present(f *chroma.Frame) error

	// Close should be called to finalize the Sink.
	Close()
}

// Multi presents every frame to each of its sinks in order. A failing sink
// does not stop the others; the first error is returned.
type Multi []Sink

func (m Multi) Present(f *chroma.Frame) error {
	var first error
	for _, s := range m {
		if err := s.Present(f); err != nil {
			if first == nil {
				first = err
			} else {
				log.Errorf("Additional sink failure: %v", err)
			}
		}
	}
	return first
}

func (m Multi) Close() {
	for _, s := range m {
		s.Close()
	}
}

// toBGR converts an RGBA frame into dst as an OpenCV BGR mat.
func toBGR(f *chroma.Frame, dst *gocv.Mat) error {
	rgba, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC4, f.Pix)
	if err != nil {
		return err
	}
	defer rgba.Close()
	gocv.CvtColor(rgba, dst, gocv.ColorRGBAToBGR)
	return nil
}

// Lazy defers creating a sink until the first frame arrives, for sinks that
// need the output resolution.
type Lazy struct {
	New func(size image.Point) (Sink, error)

	s   Sink
	err error
}

func (l *Lazy) Present(f *chroma.Frame) error {
	if l.s == nil && l.err == nil {
		l.s, l.err = l.New(image.Point{X: f.Width, Y: f.Height})
		if l.err != nil {
			log.Errorf("Failed to create sink, disabling it: %v", l.err)
			return l.err
		}
	}
	if l.s == nil {
		// Creation failed earlier and was reported then.
		return nil
	}
	return l.s.Present(f)
}

func (l *Lazy) Close() {
	if l.s != nil {
		l.s.Close()
	}
}
