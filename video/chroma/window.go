package chroma

import (
	"fmt"
)

// Window is an HSV threshold window. A pixel matches when its hue, saturation
// and value all fall inside the inclusive bounds. When HMin > HMax the hue
// range wraps through 0 degrees, e.g. 340..20 for red.
type Window struct {
	HMin float64 `json:"hMin"`
	HMax float64 `json:"hMax"`
	SMin float64 `json:"sMin"`
	SMax float64 `json:"sMax"`
	VMin float64 `json:"vMin"`
	VMax float64 `json:"vMax"`
}

// Wraps reports whether the hue range passes through 0 degrees.
func (w Window) Wraps() bool {
	return w.HMin > w.HMax
}

// Contains reports whether c falls inside the window.
func (w Window) Contains(c HSV) bool {
	var inHue bool
	if w.HMin <= w.HMax {
		inHue = c.H >= w.HMin && c.H <= w.HMax
	} else {
		inHue = c.H >= w.HMin || c.H <= w.HMax
	}
	return inHue &&
		c.S >= w.SMin && c.S <= w.SMax &&
		c.V >= w.VMin && c.V <= w.VMax
}

// Match classifies an 8-bit RGB pixel against the window.
func (w Window) Match(r, g, b uint8) bool {
	return w.Contains(RGBToHSV(float64(r)/255, float64(g)/255, float64(b)/255))
}

// Validate checks that every bound lies in its domain. The comparisons are
// written so NaN fails them.
func (w Window) Validate() error {
	hue := func(name string, v float64) error {
		if !(v >= 0 && v < 360) {
			return fmt.Errorf("%s %v outside [0,360)", name, v)
		}
		return nil
	}
	unit := func(name string, v float64) error {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%s %v outside [0,1]", name, v)
		}
		return nil
	}
	for _, err := range []error{
		hue("hMin", w.HMin),
		hue("hMax", w.HMax),
		unit("sMin", w.SMin),
		unit("sMax", w.SMax),
		unit("vMin", w.VMin),
		unit("vMax", w.VMax),
	} {
		if err != nil {
			return err
		}
	}
	if w.SMin > w.SMax {
		return fmt.Errorf("sMin %v greater than sMax %v", w.SMin, w.SMax)
	}
	if w.VMin > w.VMax {
		return fmt.Errorf("vMin %v greater than vMax %v", w.VMin, w.VMax)
	}
	return nil
}
