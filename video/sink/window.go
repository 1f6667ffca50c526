package sink

import (
	"gocv.io/x/gocv"

	"chromakey/video/chroma"
)

// Window shows the output in a local OpenCV window.
type Window struct {
	window  *gocv.Window
	bgr     gocv.Mat
	sizeSet bool
}

func NewWindow(name string) *Window {
	return &Window{
		window: gocv.NewWindow(name),
		bgr:    gocv.NewMat(),
	}
}

func (w *Window) Present(f *chroma.Frame) error {
	if err := toBGR(f, &w.bgr); err != nil {
		return err
	}
	if !w.sizeSet {
		w.window.ResizeWindow(f.Width, f.Height)
		w.sizeSet = true
	}
	w.window.IMShow(w.bgr)
	w.window.WaitKey(1)
	return nil
}

func (w *Window) Close() {
	w.window.Close()
	w.bgr.Close()
}
