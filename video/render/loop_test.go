package render

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromakey/video/chroma"
	"chromakey/video/layer"
)

type fakeCapture struct {
	size    image.Point
	sizeErr error
	frame   *chroma.Frame
}

func (c *fakeCapture) Size() (image.Point, error) { return c.size, c.sizeErr }
func (c *fakeCapture) Frame() (*chroma.Frame, error) {
	if c.frame == nil {
		return nil, chroma.ErrNotReady
	}
	return c.frame, nil
}

type fakeSource struct {
	frame *chroma.Frame
	err   error
	calls int
}

func (s *fakeSource) Frame() (*chroma.Frame, error) {
	s.calls++
	return s.frame, s.err
}

type fakeDisplay struct {
	frames [][]byte
}

func (d *fakeDisplay) Present(f *chroma.Frame) error {
	d.frames = append(d.frames, append([]byte(nil), f.Pix...))
	return nil
}

func (d *fakeDisplay) last() []byte {
	return d.frames[len(d.frames)-1]
}

// twoPixel is a 2x1 capture frame of pure red then pure green.
func twoPixel() *chroma.Frame {
	return &chroma.Frame{Width: 2, Height: 1, Pix: []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
	}}
}

func newLoop(t *testing.T, capture *fakeCapture, layers ...layer.Layer) (*Loop, *layer.Set, *fakeDisplay) {
	set, err := layer.NewSet(layers...)
	require.NoError(t, err)
	d := &fakeDisplay{}
	return NewLoop(capture, set, d), set, d
}

func TestLoopStaysIdleUntilSizeKnown(t *testing.T) {
	c := &fakeCapture{sizeErr: chroma.ErrNotReady}
	l, _, d := newLoop(t, c)

	require.NoError(t, l.Tick())
	assert.Equal(t, Idle, l.State())
	assert.Nil(t, l.Output())
	assert.Empty(t, d.frames)

	c.sizeErr = nil
	c.size = image.Point{X: 2, Y: 1}
	c.frame = twoPixel()
	require.NoError(t, l.Tick())
	assert.Equal(t, Running, l.State())
	assert.Len(t, d.frames, 1)
}

func TestLoopCaptureFailureIsFatal(t *testing.T) {
	denied := errors.New("permission denied")
	l, _, d := newLoop(t, &fakeCapture{sizeErr: denied})

	err := l.Tick()
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, Idle, l.State())
	assert.Empty(t, d.frames)
}

func TestLoopRunReturnsFatalError(t *testing.T) {
	denied := errors.New("no device")
	l, _, _ := newLoop(t, &fakeCapture{sizeErr: denied})
	err := l.Run(context.Background(), &countScheduler{n: 10})
	assert.ErrorIs(t, err, denied)
}

func TestLoopEndToEnd(t *testing.T) {
	red := &fakeSource{frame: &chroma.Frame{Width: 2, Height: 1, Pix: []byte{
		9, 9, 9, 255,
		8, 8, 8, 255,
	}}}
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}, frame: twoPixel()}
	l, _, d := newLoop(t, c, layer.Layer{ID: layer.Red, Source: red, Window: layer.Red.DefaultWindow(), Enabled: true})

	require.NoError(t, l.Tick())
	assert.Equal(t, []byte{9, 9, 9, 255, 0, 255, 0, 255}, d.last())
}

func TestLoopDisabledLayerNeverSampled(t *testing.T) {
	red := &fakeSource{frame: &chroma.Frame{Width: 2, Height: 1, Pix: make([]byte, 8)}}
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}, frame: twoPixel()}
	l, _, d := newLoop(t, c, layer.Layer{ID: layer.Red, Source: red, Window: layer.Red.DefaultWindow()})

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Tick())
	}
	assert.Zero(t, red.calls)
	assert.Equal(t, twoPixel().Pix, d.last())
}

func TestLoopLaterLayerWins(t *testing.T) {
	// Both layers key the same pixel; B's window also accepts A's sample.
	w := chroma.Window{HMin: 0, HMax: 359, SMin: 0, SMax: 1, VMin: 0, VMax: 1}
	a := &fakeSource{frame: &chroma.Frame{Width: 1, Height: 1, Pix: []byte{1, 1, 1, 255}}}
	b := &fakeSource{frame: &chroma.Frame{Width: 1, Height: 1, Pix: []byte{2, 2, 2, 255}}}
	c := &fakeCapture{size: image.Point{X: 1, Y: 1}, frame: &chroma.Frame{Width: 1, Height: 1, Pix: []byte{255, 0, 0, 255}}}
	l, _, d := newLoop(t, c,
		layer.Layer{ID: layer.Blue, Source: a, Window: w, Enabled: true},
		layer.Layer{ID: layer.Green, Source: b, Window: w, Enabled: true},
	)

	require.NoError(t, l.Tick())
	assert.Equal(t, []byte{2, 2, 2, 255}, d.last())
}

func TestLoopToggleTakesEffectNextTick(t *testing.T) {
	red := &fakeSource{frame: &chroma.Frame{Width: 2, Height: 1, Pix: []byte{9, 9, 9, 255, 8, 8, 8, 255}}}
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}, frame: twoPixel()}
	l, set, d := newLoop(t, c, layer.Layer{ID: layer.Red, Source: red, Window: layer.Red.DefaultWindow()})

	require.NoError(t, l.Tick())
	assert.Equal(t, twoPixel().Pix, d.last())

	require.NoError(t, set.SetEnabled(layer.Red, true))
	require.NoError(t, l.Tick())
	assert.Equal(t, []byte{9, 9, 9, 255, 0, 255, 0, 255}, d.last())

	require.NoError(t, set.SetEnabled(layer.Red, false))
	require.NoError(t, l.Tick())
	assert.Equal(t, twoPixel().Pix, d.last())
}

func TestLoopOverlayFailureIsNotFatal(t *testing.T) {
	red := &fakeSource{err: errors.New("decode error")}
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}, frame: twoPixel()}
	l, _, d := newLoop(t, c, layer.Layer{ID: layer.Red, Source: red, Window: layer.Red.DefaultWindow(), Enabled: true})

	require.NoError(t, l.Tick())
	// The overlay buffer is still blank, so the red pixel becomes transparent black.
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 255, 0, 255}, d.last())

	red.err = nil
	red.frame = &chroma.Frame{Width: 2, Height: 1, Pix: []byte{5, 5, 5, 255, 5, 5, 5, 255}}
	require.NoError(t, l.Tick())
	assert.Equal(t, []byte{5, 5, 5, 255, 0, 255, 0, 255}, d.last())

	red.err = chroma.ErrNotReady
	red.frame = nil
	require.NoError(t, l.Tick())
	assert.Equal(t, []byte{5, 5, 5, 255, 0, 255, 0, 255}, d.last(), "stale overlay reused")
}

func TestLoopSkipsTickWithoutCaptureFrame(t *testing.T) {
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}}
	l, _, d := newLoop(t, c)

	require.NoError(t, l.Tick())
	assert.Equal(t, Running, l.State())
	assert.Empty(t, d.frames)
}

func TestLoopStretchesCaptureToOutput(t *testing.T) {
	c := &fakeCapture{size: image.Point{X: 2, Y: 2}, frame: &chroma.Frame{Width: 1, Height: 1, Pix: []byte{7, 7, 7, 255}}}
	l, _, d := newLoop(t, c)

	require.NoError(t, l.Tick())
	assert.Equal(t, []byte{7, 7, 7, 255, 7, 7, 7, 255, 7, 7, 7, 255, 7, 7, 7, 255}, d.last())
}

func TestLoopDeterministic(t *testing.T) {
	green := &fakeSource{frame: &chroma.Frame{Width: 2, Height: 1, Pix: []byte{1, 2, 3, 255, 4, 5, 6, 255}}}
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}, frame: twoPixel()}
	l, _, d := newLoop(t, c, layer.Layer{ID: layer.Green, Source: green, Window: layer.Green.DefaultWindow(), Enabled: true})

	require.NoError(t, l.Tick())
	require.NoError(t, l.Tick())
	require.Len(t, d.frames, 2)
	assert.Equal(t, d.frames[0], d.frames[1])
	assert.Equal(t, []byte{255, 0, 0, 255, 4, 5, 6, 255}, d.frames[0])
}

// countScheduler allows n ticks, then reports cancellation.
type countScheduler struct {
	n      int
	cancel context.CancelFunc
}

func (s *countScheduler) Wait(ctx context.Context) error {
	if s.n == 0 {
		if s.cancel != nil {
			s.cancel()
		}
		return context.Canceled
	}
	s.n--
	return nil
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	c := &fakeCapture{size: image.Point{X: 2, Y: 1}, frame: twoPixel()}
	l, _, d := newLoop(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Run(ctx, &countScheduler{n: 3, cancel: cancel}))
	assert.Len(t, d.frames, 3)
}

func TestTickerWaitHonoursContext(t *testing.T) {
	tk := NewTicker(1)
	defer tk.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tk.Wait(ctx), context.Canceled)
}
