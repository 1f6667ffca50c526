package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"chromakey/video/chroma"
	"chromakey/video/layer"
)

// State of the render loop.
type State int

const (
	// Idle until the capture device reports its resolution.
	Idle State = iota
	// Running ticks steadily.
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Capture is the live camera feed.
type Capture interface {
	chroma.Source

	// Size returns the capture resolution, or chroma.ErrNotReady while the
	// device has not reported it yet. Any other error is fatal.
	Size() (image.Point, error)
}

// Display receives the composited output once per tick. The frame is only
// valid for the duration of the call.
type Display interface {
	Present(f *chroma.Frame) error
}

// Loop draws the capture frame and keys every enabled layer over it, once
// per tick.
type Loop struct {
	capture Capture
	layers  *layer.Set
	display Display

	state State
	out   *chroma.Frame
	comps [layer.Count]*chroma.Compositor

	// Layers whose source is currently failing, to log once per streak.
	failing [layer.Count]bool
}

func NewLoop(capture Capture, layers *layer.Set, display Display) *Loop {
	stateGauge.Set(float64(Idle))
	return &Loop{
		capture: capture,
		layers:  layers,
		display: display,
	}
}

func (l *Loop) State() State {
	return l.state
}

// Output returns the output buffer, or nil while Idle.
func (l *Loop) Output() *chroma.Frame {
	return l.out
}

// start sizes every buffer for the session.
func (l *Loop) start(size image.Point) {
	l.out = chroma.NewFrame(size.X, size.Y)
	for _, id := range layer.IDs() {
		l.comps[id] = chroma.NewCompositor(size.X, size.Y)
	}
	l.state = Running
	stateGauge.Set(float64(Running))
	log.Infof("Render loop running at %dx%d", size.X, size.Y)
}

// Tick runs one capture-draw-composite-present cycle. It returns an error
// only when the capture source failed for good.
func (l *Loop) Tick() error {
	if l.state == Idle {
		size, err := l.capture.Size()
		if errors.Is(err, chroma.ErrNotReady) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("capture unavailable: %w", err)
		}
		if size.X <= 0 || size.Y <= 0 {
			return nil
		}
		l.start(size)
	}

	start := time.Now()

	raw, err := l.capture.Frame()
	if err == nil {
		err = l.out.Draw(raw)
	}
	if err != nil {
		captureErrors.Inc()
		log.Debugf("Skipping tick, no capture frame: %v", err)
		return nil
	}

	for _, ly := range l.layers.Snapshot() {
		l.composite(ly)
	}

	if err := l.display.Present(l.out); err != nil {
		presentErrors.Inc()
		log.Errorf("Failed to present frame: %v", err)
	}

	ticksTotal.Inc()
	tickDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (l *Loop) composite(ly layer.Layer) {
	clog := log.WithField("layer", ly.ID)

	var src *chroma.Frame
	var err error
	if ly.Source == nil {
		err = chroma.ErrNotReady
	} else {
		src, err = ly.Source.Frame()
	}
	if err != nil {
		overlayErrors.WithLabelValues(ly.ID.String()).Inc()
		if !l.failing[ly.ID] {
			clog.Warnf("Overlay has no frame, keying stale buffer: %v", err)
			l.failing[ly.ID] = true
		}
		src = nil
	} else if l.failing[ly.ID] {
		clog.Info("Overlay recovered")
		l.failing[ly.ID] = false
	}

	n, err := l.comps[ly.ID].Apply(l.out, src, ly.Window)
	if err != nil {
		clog.Errorf("Compositing failed: %v", err)
		return
	}
	pixelsReplaced.WithLabelValues(ly.ID.String()).Add(float64(n))
}

// Run ticks on every beat of sched until ctx is cancelled, which returns nil,
// or the capture fails for good.
func (l *Loop) Run(ctx context.Context, sched Scheduler) error {
	for {
		if err := sched.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				log.Infof("Render loop stopped")
				return nil
			}
			return err
		}
		if err := l.Tick(); err != nil {
			return err
		}
	}
}
