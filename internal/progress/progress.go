// Package progress drives the simulated upload indicator.
//
// The value produced here is an animation only. It loops while a request is
// pending and carries no information about how far the server has come.
package progress

import (
	"sync"
	"time"
)

const (
	DefaultPeriod = 300 * time.Millisecond
	DefaultStep   = 5

	// Complete is reserved for the finished state; the animation never emits it.
	Complete = 100
)

type Options struct {
	Period time.Duration
	Step   int

	// Ticks replaces the internal ticker when set.
	Ticks <-chan time.Time
}

// Advance returns the value following current, wrapping to 0 once the next
// step would reach Complete.
func Advance(current, step int) int {
	if step <= 0 {
		step = DefaultStep
	}
	if current >= Complete-step {
		return 0
	}
	return current + step
}

type Animation struct {
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu    sync.Mutex
	value int
}

// Start begins a new animation at 0. onTick runs on the animation goroutine
// for every new value.
func Start(opts Options, onTick func(int)) *Animation {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}

	a := &Animation{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	ticks := opts.Ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(opts.Period)
		ticks = ticker.C
	}

	go func() {
		defer close(a.doneCh)
		if ticker != nil {
			defer ticker.Stop()
		}

		for {
			select {
			case <-a.stopCh:
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				// stop wins over a tick that raced with it
				select {
				case <-a.stopCh:
					return
				default:
				}

				a.mu.Lock()
				a.value = Advance(a.value, opts.Step)
				v := a.value
				a.mu.Unlock()

				if onTick != nil {
					onTick(v)
				}
			}
		}
	}()

	return a
}

func (a *Animation) Value() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

// Stop halts the animation and waits for its goroutine to exit, so no onTick
// call can follow. It returns the last animated value.
func (a *Animation) Stop() int {
	a.once.Do(func() {
		close(a.stopCh)
	})
	<-a.doneCh
	return a.Value()
}
