package util

import (
	"sync"
)

// Ready is a one-shot signal. It starts unset, and once Set it stays set.
type Ready struct {
	set  bool
	done chan struct{}
	l    sync.Mutex
}

func NewReady() *Ready {
	return &Ready{
		done: make(chan struct{}),
	}
}

// Set fires the signal. Later calls do nothing.
func (r *Ready) Set() {
	r.l.Lock()
	defer r.l.Unlock()
	if !r.set {
		r.set = true
		close(r.done)
	}
}

// IsSet reports whether Set has been called.
func (r *Ready) IsSet() bool {
	r.l.Lock()
	defer r.l.Unlock()
	return r.set
}

// Done returns a channel closed once the signal fires.
func (r *Ready) Done() <-chan struct{} {
	return r.done
}
