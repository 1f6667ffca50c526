package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
)

func configFromFile(path string) (*Config, error) {
	config := Default()
	config.Layers = nil
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	p.DisallowUnknownFields()
	if err := p.Decode(config); err != nil {
		return nil, fmt.Errorf("parsing %v: %w", path, err)
	}
	if config.Layers == nil {
		config.Layers = Default().Layers
	}
	return config, nil
}

// Load reads the configuration at path, or the defaults when path is empty,
// and validates it. The result is not reloaded; the layers are fixed for
// the life of the process.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		var err error
		if config, err = configFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}

// Validate rejects configurations that would misclassify pixels or cannot
// run at all.
func (c *Config) Validate() error {
	if c.Capture == "" {
		return fmt.Errorf("no capture device configured")
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	seen := make(map[string]bool)
	for _, l := range c.Layers {
		if !l.ID.Valid() {
			return fmt.Errorf("invalid layer id %d", int(l.ID))
		}
		name := l.ID.String()
		if seen[name] {
			return fmt.Errorf("layer %v configured twice", name)
		}
		seen[name] = true
		if err := l.Window().Validate(); err != nil {
			return fmt.Errorf("layer %v threshold: %w", name, err)
		}
	}
	return nil
}
