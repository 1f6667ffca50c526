package chroma

import (
	"fmt"
)

// Compositor keys one overlay into an output buffer. It keeps the last good
// overlay sample so a source that stalls keeps showing its previous frame.
type Compositor struct {
	overlay *Frame
}

// NewCompositor creates a Compositor for an output of the given resolution.
func NewCompositor(width, height int) *Compositor {
	return &Compositor{
		overlay: NewFrame(width, height),
	}
}

// Overlay returns the compositor's overlay buffer.
func (c *Compositor) Overlay() *Frame {
	return c.overlay
}

// Apply resamples src into the overlay buffer, then replaces every pixel of
// out whose current color matches w with the overlay pixel at the same index.
// A nil or invalid src leaves the previous overlay sample in place. It returns
// the number of pixels replaced.
func (c *Compositor) Apply(out, src *Frame, w Window) (int, error) {
	if out.Width != c.overlay.Width || out.Height != c.overlay.Height {
		return 0, fmt.Errorf("%w: output %dx%d, overlay %dx%d", ErrSizeMismatch,
			out.Width, out.Height, c.overlay.Width, c.overlay.Height)
	}
	if src.Valid() {
		if err := c.overlay.Draw(src); err != nil {
			return 0, err
		}
	}

	bg, ov := out.Pix, c.overlay.Pix
	n := 0
	for i := 0; i+3 < len(bg); i += 4 {
		if w.Match(bg[i], bg[i+1], bg[i+2]) {
			bg[i] = ov[i]
			bg[i+1] = ov[i+1]
			bg[i+2] = ov[i+2]
			bg[i+3] = ov[i+3]
			n++
		}
	}
	return n, nil
}
