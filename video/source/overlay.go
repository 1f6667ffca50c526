package source

import (
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pillash/mp4util"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"chromakey/video/chroma"
)

const (
	defaultFPS = 30

	// Editors and copies emit bursts of events; wait for the file to settle.
	reloadDelay = time.Second / 10
)

// frameInterval converts a reported clip frame rate to a tick interval,
// falling back to defaultFPS when the container reports nonsense.
func frameInterval(fps float64) time.Duration {
	if math.IsNaN(fps) || fps <= 0 || fps > 240 {
		fps = defaultFPS
	}
	return time.Duration(float64(time.Second) / fps)
}

// Overlay plays a video file in a loop at its native frame rate. It starts
// playing immediately, pauses on Play(false) and restarts from the first
// frame on Play(true). Replacing the file on disk reloads it.
type Overlay struct {
	Path string

	frames latest

	play chan bool
	quit chan struct{}
	done chan struct{}
}

func NewOverlay(path string) *Overlay {
	o := &Overlay{
		Path: path,
		play: make(chan bool),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go o.loop()
	return o
}

// Frame returns the frame the overlay currently shows, or chroma.ErrNotReady
// before the first frame has been decoded.
func (o *Overlay) Frame() (*chroma.Frame, error) {
	return o.frames.get()
}

// Play implements layer.Player.
func (o *Overlay) Play(playing bool) {
	select {
	case o.play <- playing:
	case <-o.done:
	}
}

func (o *Overlay) Close() {
	close(o.quit)
	<-o.done
}

func (o *Overlay) open(clog *log.Entry) (*gocv.VideoCapture, error) {
	if strings.EqualFold(filepath.Ext(o.Path), ".mp4") {
		if d, err := mp4util.Duration(o.Path); err != nil {
			clog.Debugf("Unable to read mp4 duration: %v", err)
		} else {
			clog.Infof("Overlay clip is %ds long", d)
		}
	}
	vc, err := gocv.VideoCaptureFile(o.Path)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func (o *Overlay) watch(clog *log.Entry) *fsnotify.Watcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		clog.Warnf("File watching disabled: %v", err)
		return nil
	}
	// Watch the directory so atomic replaces (rename over) are seen.
	if err := w.Add(filepath.Dir(o.Path)); err != nil {
		clog.Warnf("File watching disabled: %v", err)
		w.Close()
		return nil
	}
	return w
}

func (o *Overlay) loop() {
	defer close(o.done)
	clog := log.WithField("overlay", o.Path)

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if w := o.watch(clog); w != nil {
		defer w.Close()
		events, watchErrs = w.Events, w.Errors
	}

	mat := gocv.NewMat()
	defer mat.Close()
	conv := newConverter()
	defer conv.Close()

	ticker := time.NewTicker(frameInterval(defaultFPS))
	defer ticker.Stop()

	var vc *gocv.VideoCapture
	defer func() {
		if vc != nil {
			vc.Close()
		}
	}()
	reopen := func() {
		if vc != nil {
			vc.Close()
			vc = nil
		}
		v, err := o.open(clog)
		if err != nil {
			clog.Warnf("Failed to open overlay: %v", err)
			return
		}
		vc = v
		ticker.Reset(frameInterval(vc.Get(gocv.VideoCaptureFPS)))
		clog.Info("Overlay opened")
	}
	reopen()

	playing := true
	failing := false
	var reload <-chan time.Time
	target := filepath.Clean(o.Path)

	for {
		var tick <-chan time.Time
		if playing && vc != nil {
			tick = ticker.C
		}

		select {
		case <-o.quit:
			return

		case p := <-o.play:
			if p && !playing && vc != nil {
				vc.Set(gocv.VideoCapturePosFrames, 0)
			}
			playing = p
			clog.Debugf("Overlay playing=%v", playing)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload = time.After(reloadDelay)
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			clog.Warnf("Error watching overlay file: %v", err)

		case <-reload:
			reload = nil
			clog.Info("Overlay file changed, reloading")
			reopen()

		case <-tick:
			if ok := vc.Read(&mat); !ok || mat.Empty() {
				// End of clip; loop back to the start.
				vc.Set(gocv.VideoCapturePosFrames, 0)
				if ok := vc.Read(&mat); !ok || mat.Empty() {
					if !failing {
						clog.Warn("Overlay produced no frame")
						failing = true
					}
					continue
				}
			}
			f, err := conv.frame(mat)
			if err != nil {
				clog.Warnf("Dropping overlay frame: %v", err)
				continue
			}
			failing = false
			o.frames.put(f)
		}
	}
}
