package config

import (
	"path/filepath"

	"chromakey/video/chroma"
	"chromakey/video/layer"
)

type Config struct {
	// Capture is a device index such as "0", or a file or stream URI.
	Capture string `json:"capture"`

	// FPS is the render rate.
	FPS int `json:"fps"`

	// Port hosts the web frontend, display stream and toggle API.
	Port int `json:"port"`

	// OverlayDir resolves relative layer sources.
	OverlayDir string `json:"overlayDir"`

	// Layers in compositing order; later layers win over earlier ones.
	Layers []LayerConfig `json:"layers"`
}

type LayerConfig struct {
	ID layer.ID `json:"name"`

	// Source is the overlay video file. Defaults to "<name>.mp4".
	Source string `json:"source"`

	// Threshold overrides the built-in window for this layer.
	Threshold *chroma.Window `json:"threshold,omitempty"`

	// Enabled is the flag the layer starts with.
	Enabled bool `json:"enabled"`
}

// Window returns the layer's effective threshold window.
func (l LayerConfig) Window() chroma.Window {
	if l.Threshold != nil {
		return *l.Threshold
	}
	return l.ID.DefaultWindow()
}

// SourcePath returns the layer's overlay path, resolved against dir.
func (l LayerConfig) SourcePath(dir string) string {
	src := l.Source
	if src == "" {
		src = l.ID.String() + ".mp4"
	}
	if filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(dir, src)
}

// Default returns the built-in configuration: camera 0 and the four colour
// layers, all disabled.
func Default() *Config {
	c := &Config{
		Capture:    "0",
		FPS:        30,
		Port:       8080,
		OverlayDir: "overlays",
	}
	for _, id := range layer.IDs() {
		c.Layers = append(c.Layers, LayerConfig{ID: id})
	}
	return c
}
