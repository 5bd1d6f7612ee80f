// Package periodic runs an action on a fixed interval, rescheduling itself only after
// each run completes so the action can never overlap with itself.
package periodic

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type Task struct {
	clock    clock.Clock
	interval time.Duration
	action   func()

	lock     sync.Mutex
	running  bool
	inFlight bool
	timer    *clock.Timer
	// Incremented every time a firing is scheduled; firings carrying an older
	// generation were cancelled and are dropped.
	generation uint64
}

// New returns a stopped task.  Call Start to schedule the first run.
func New(clk clock.Clock, interval time.Duration, action func()) *Task {
	if clk == nil {
		clk = clock.New()
	}
	return &Task{
		clock:    clk,
		interval: interval,
		action:   action,
	}
}

// Start schedules the action to run once after the interval.  It is a no-op if the
// task is already running.  If called from inside the action, the next run is
// scheduled when the action returns.
func (t *Task) Start() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.running {
		return
	}
	t.running = true
	if !t.inFlight {
		t.scheduleLocked()
	}
}

// Stop cancels the next scheduled run.  An action that is already executing is
// allowed to finish.
func (t *Task) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.running = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.generation++
}

func (t *Task) IsRunning() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.running
}

func (t *Task) Interval() time.Duration {
	return t.interval
}

func (t *Task) scheduleLocked() {
	t.generation++
	gen := t.generation
	t.timer = t.clock.AfterFunc(t.interval, func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.lock.Lock()
	if gen != t.generation || !t.running || t.inFlight {
		t.lock.Unlock()
		return
	}
	t.timer = nil
	t.inFlight = true
	t.lock.Unlock()

	defer func() {
		t.lock.Lock()
		defer t.lock.Unlock()
		t.inFlight = false
		if t.running && t.timer == nil {
			t.scheduleLocked()
		}
	}()
	t.action()
}
