package layer

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"chromakey/video/chroma"
)

var ErrUnknownLayer = errors.New("unknown layer")

// Layer is one toggleable overlay: a video source keyed in wherever the
// output matches Window.
type Layer struct {
	ID      ID
	Source  chroma.Source
	Window  chroma.Window
	Enabled bool
}

// Player is implemented by sources that can pause while their layer is off.
type Player interface {
	Play(playing bool)
}

// Listener is notified after a layer's enabled flag changes.
type Listener interface {
	LayerChanged(l Layer)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(l Layer)

func (f ListenerFunc) LayerChanged(l Layer) { f(l) }

// Set holds every layer in a fixed order. Only the enabled flags change after
// construction.
type Set struct {
	layers    []Layer
	listeners []Listener

	l sync.Mutex
}

// NewSet creates a Set iterating layers in the given order. Each ID may appear
// at most once.
func NewSet(layers ...Layer) (*Set, error) {
	var seen [Count]bool
	for _, l := range layers {
		if !l.ID.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, int(l.ID))
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("layer %v configured twice", l.ID)
		}
		seen[l.ID] = true
	}
	s := &Set{
		layers: make([]Layer, len(layers)),
	}
	copy(s.layers, layers)
	return s, nil
}

// AddListener registers a listener for enable/disable changes.
func (s *Set) AddListener(l Listener) {
	s.l.Lock()
	defer s.l.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Set) find(id ID) int {
	for i := range s.layers {
		if s.layers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Set) IsEnabled(id ID) bool {
	s.l.Lock()
	defer s.l.Unlock()
	if i := s.find(id); i >= 0 {
		return s.layers[i].Enabled
	}
	return false
}

// SetEnabled sets the enabled flag of a layer. The change is visible from the
// next Snapshot on.
func (s *Set) SetEnabled(id ID, enabled bool) error {
	_, err := s.update(id, func(bool) bool { return enabled })
	return err
}

// Toggle flips the enabled flag of a layer and returns the new value.
func (s *Set) Toggle(id ID) (bool, error) {
	return s.update(id, func(cur bool) bool { return !cur })
}

func (s *Set) update(id ID, next func(cur bool) bool) (bool, error) {
	s.l.Lock()
	i := s.find(id)
	if i < 0 {
		s.l.Unlock()
		return false, fmt.Errorf("%w: %v", ErrUnknownLayer, id)
	}
	enabled := next(s.layers[i].Enabled)
	changed := s.layers[i].Enabled != enabled
	s.layers[i].Enabled = enabled
	l := s.layers[i]
	listeners := append([]Listener(nil), s.listeners...)
	s.l.Unlock()

	if !changed {
		return enabled, nil
	}
	log.WithField("layer", id).Infof("Layer enabled=%v", enabled)
	if p, ok := l.Source.(Player); ok {
		p.Play(enabled)
	}
	for _, ln := range listeners {
		ln.LayerChanged(l)
	}
	return enabled, nil
}

// Snapshot returns copies of the enabled layers in configuration order.
func (s *Set) Snapshot() []Layer {
	s.l.Lock()
	defer s.l.Unlock()
	var out []Layer
	for _, l := range s.layers {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}

// ForEachEnabledInOrder calls fn for each layer of one snapshot.
func (s *Set) ForEachEnabledInOrder(fn func(l Layer)) {
	for _, l := range s.Snapshot() {
		fn(l)
	}
}

// States returns copies of every layer, enabled or not, in order.
func (s *Set) States() []Layer {
	s.l.Lock()
	defer s.l.Unlock()
	return append([]Layer(nil), s.layers...)
}

func (s *Set) Len() int {
	return len(s.layers)
}
