package obstacle

import (
	"context"
	"sync"
)

// Flag tells foreground motion that the watchdog currently owns the motors.
type Flag struct {
	lock    sync.Mutex
	active  bool
	skip    int
	cleared chan struct{}
}

func NewFlag() *Flag {
	cleared := make(chan struct{})
	close(cleared)
	return &Flag{cleared: cleared}
}

// Raise marks avoidance as active and sets the number of watchdog checks to skip
// once it is cleared.  Blocks while a foreground write is in progress under Hold.
func (f *Flag) Raise(skip int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.active {
		f.active = true
		f.cleared = make(chan struct{})
	}
	f.skip = skip
}

func (f *Flag) Clear() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.active {
		f.active = false
		close(f.cleared)
	}
}

func (f *Flag) Active() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.active
}

// ConsumeSkip uses up one pending skip, if there is one.
func (f *Flag) ConsumeSkip() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.skip > 0 {
		f.skip--
		return true
	}
	return false
}

// Wait blocks until the flag is clear or ctx is done.
func (f *Flag) Wait(ctx context.Context) error {
	f.lock.Lock()
	active, cleared := f.active, f.cleared
	f.lock.Unlock()
	if !active {
		return nil
	}
	select {
	case <-cleared:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hold waits for the flag to be clear then runs fn with the flag locked, so the
// watchdog can't take over half way through a motor command.
func (f *Flag) Hold(ctx context.Context, fn func() error) error {
	for {
		f.lock.Lock()
		if !f.active {
			defer f.lock.Unlock()
			return fn()
		}
		cleared := f.cleared
		f.lock.Unlock()

		select {
		case <-cleared:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
