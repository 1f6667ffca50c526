package chroma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	testRed   = Window{HMin: 340, HMax: 20, SMin: 0.4, SMax: 1, VMin: 0.3, VMax: 1}
	testGreen = Window{HMin: 70, HMax: 170, SMin: 0.4, SMax: 1, VMin: 0.3, VMax: 1}
)

func TestWindowContainsHueWrap(t *testing.T) {
	assert.True(t, testRed.Wraps())
	for _, h := range []float64{0, 350, 10, 340, 20} {
		assert.True(t, testRed.Contains(HSV{H: h, S: 1, V: 1}), "hue %v", h)
	}
	for _, h := range []float64{180, 21, 339, 90} {
		assert.False(t, testRed.Contains(HSV{H: h, S: 1, V: 1}), "hue %v", h)
	}
}

func TestWindowContainsNoWrap(t *testing.T) {
	assert.False(t, testGreen.Wraps())
	assert.True(t, testGreen.Contains(HSV{H: 100, S: 1, V: 1}))
	assert.True(t, testGreen.Contains(HSV{H: 70, S: 0.4, V: 0.3}))
	assert.False(t, testGreen.Contains(HSV{H: 200, S: 1, V: 1}))
	assert.False(t, testGreen.Contains(HSV{H: 69.9, S: 1, V: 1}))
}

func TestWindowContainsSaturationAndValue(t *testing.T) {
	assert.False(t, testGreen.Contains(HSV{H: 100, S: 0.39, V: 1}))
	assert.False(t, testGreen.Contains(HSV{H: 100, S: 1, V: 0.29}))
}

func TestWindowMatch(t *testing.T) {
	tests := []struct {
		name    string
		w       Window
		r, g, b uint8
		want    bool
	}{
		{"pure red in red", testRed, 255, 0, 0, true},
		{"pinkish red in red", testRed, 230, 20, 60, true},
		{"pure green in red", testRed, 0, 255, 0, false},
		{"pure green in green", testGreen, 0, 255, 0, true},
		{"dark green too dark", testGreen, 0, 60, 0, false},
		{"gray never matches", testRed, 128, 128, 128, false},
		{"black never matches", testRed, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.Match(tt.r, tt.g, tt.b))
		})
	}
}

func TestWindowValidate(t *testing.T) {
	assert.NoError(t, testRed.Validate())
	assert.NoError(t, testGreen.Validate())

	bad := map[string]Window{
		"hue 360":      {HMin: 360, HMax: 20, SMax: 1, VMax: 1},
		"negative hue": {HMin: -1, HMax: 20, SMax: 1, VMax: 1},
		"sat above 1":  {HMax: 20, SMax: 1.5, VMax: 1},
		"val below 0":  {HMax: 20, SMax: 1, VMin: -0.1, VMax: 1},
		"sat inverted": {HMax: 20, SMin: 0.8, SMax: 0.2, VMax: 1},
		"val inverted": {HMax: 20, SMax: 1, VMin: 0.9, VMax: 0.1},
		"nan":          {HMin: math.NaN(), HMax: 20, SMax: 1, VMax: 1},
	}
	for name, w := range bad {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, w.Validate())
		})
	}
}
