package render

import (
	"context"
	"time"
)

// Scheduler paces the render loop. Wait blocks until the next tick is due or
// ctx is done.
type Scheduler interface {
	Wait(ctx context.Context) error
}

// Ticker is a Scheduler firing at a fixed rate.
type Ticker struct {
	t *time.Ticker
}

func NewTicker(fps int) *Ticker {
	if fps <= 0 {
		fps = 30
	}
	return &Ticker{t: time.NewTicker(time.Second / time.Duration(fps))}
}

func (t *Ticker) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.t.C:
		return nil
	}
}

func (t *Ticker) Stop() {
	t.t.Stop()
}
