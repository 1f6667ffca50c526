package chroma

// HSV is a color in hue/saturation/value form. H is in degrees [0, 360), S and
// V are in [0, 1].
type HSV struct {
	H, S, V float64
}

// RGBToHSV converts a normalized RGB triple (each component in [0, 1]) to HSV.
// Achromatic input yields a hue of 0.
func RGBToHSV(r, g, b float64) HSV {
	hi, lo := r, r
	if g > hi {
		hi = g
	}
	if b > hi {
		hi = b
	}
	if g < lo {
		lo = g
	}
	if b < lo {
		lo = b
	}
	d := hi - lo

	c := HSV{V: hi}
	if hi > 0 {
		c.S = d / hi
	}
	if d == 0 {
		return c
	}

	var sector float64
	switch hi {
	case r:
		sector = (g - b) / d
		if g < b {
			sector += 6
		}
	case g:
		sector = (b-r)/d + 2
	default:
		sector = (r-g)/d + 4
	}
	c.H = sector * 60
	if c.H >= 360 {
		c.H -= 360
	}
	if c.H < 0 {
		c.H += 360
	}
	return c
}
