package source

import (
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"chromakey/util"
	"chromakey/video/chroma"
)

// Capture is a live camera feed. The device is opened in the background;
// Size reports chroma.ErrNotReady until the first frame has been read.
type Capture struct {
	URI string

	frames latest
	ready  *util.Ready

	size image.Point
	err  error
	l    sync.Mutex

	close chan chan bool
}

// NewCapture starts acquiring the device at uri.
func NewCapture(uri string) *Capture {
	c := &Capture{
		URI:   uri,
		ready: util.NewReady(),
		close: make(chan chan bool),
	}
	go c.loop()
	return c
}

func (c *Capture) fail(err error) {
	c.l.Lock()
	defer c.l.Unlock()
	c.err = err
}

func (c *Capture) loop() {
	clog := log.WithField("capture", c.URI)

	vc, err := openCapture(c.URI)
	if err != nil {
		clog.Errorf("Failed to open capture: %v", err)
		c.fail(err)
		done := <-c.close
		done <- true
		return
	}
	defer vc.Close()
	clog.Infof("Capture opened, reported %vx%v at %v fps",
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight), vc.Get(gocv.VideoCaptureFPS))

	mat := gocv.NewMat()
	defer mat.Close()
	conv := newConverter()
	defer conv.Close()

	for {
		select {
		case done := <-c.close:
			done <- true
			return
		default:
		}

		if ok := vc.Read(&mat); !ok || mat.Empty() {
			clog.Debug("Read failure.")
			time.Sleep(10 * time.Millisecond)
			continue
		}
		f, err := conv.frame(mat)
		if err != nil {
			clog.Warnf("Dropping capture frame: %v", err)
			continue
		}
		c.frames.put(f)

		if !c.ready.IsSet() {
			c.l.Lock()
			c.size = image.Point{X: f.Width, Y: f.Height}
			c.l.Unlock()
			c.ready.Set()
			clog.Infof("Capture ready at %dx%d", f.Width, f.Height)
		}
	}
}

// Size implements render.Capture.
func (c *Capture) Size() (image.Point, error) {
	c.l.Lock()
	defer c.l.Unlock()
	if c.err != nil {
		return image.Point{}, c.err
	}
	if !c.ready.IsSet() {
		return image.Point{}, chroma.ErrNotReady
	}
	return c.size, nil
}

// Ready returns a channel closed once the capture resolution is known.
func (c *Capture) Ready() <-chan struct{} {
	return c.ready.Done()
}

// Frame returns the most recent camera frame.
func (c *Capture) Frame() (*chroma.Frame, error) {
	return c.frames.get()
}

// Close stops reading and releases the device.
func (c *Capture) Close() {
	done := make(chan bool)
	c.close <- done
	<-done
}
