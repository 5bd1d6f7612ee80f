package pose

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/Celinna/mobile-robotics/pkg/periodic"
)

// Source is an external localizer.  ok is false when the robot could not be seen.
type Source interface {
	Locate() (p Pose, ok bool, err error)
}

// Tracker polls a Source on a fixed interval and keeps a Store up to date.  Polls
// never overlap, whether scheduled or explicit.
type Tracker struct {
	source Source
	store  *Store
	task   *periodic.Task
	logger *zap.SugaredLogger

	lock    sync.Mutex
	stopped bool

	OnUpdate func(Pose)
}

func NewTracker(clk clock.Clock, interval time.Duration, source Source, store *Store, logger *zap.SugaredLogger) *Tracker {
	t := &Tracker{
		source: source,
		store:  store,
		logger: logger,
	}
	t.task = periodic.New(clk, interval, t.scheduledPoll)
	return t
}

func (t *Tracker) Start() {
	t.lock.Lock()
	t.stopped = false
	t.lock.Unlock()
	t.task.Start()
}

// Stop cancels scheduled polls.  It waits for a poll in progress, so the source can
// be closed once it returns.
func (t *Tracker) Stop() {
	t.task.Stop()
	t.lock.Lock()
	defer t.lock.Unlock()
	t.stopped = true
}

func (t *Tracker) scheduledPoll() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.stopped {
		return
	}
	t.pollLocked()
}

// Poll asks the source once and applies the result.  Errors count as "not seen".
func (t *Tracker) Poll() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.pollLocked()
}

func (t *Tracker) pollLocked() bool {
	p, ok, err := t.source.Locate()
	if err != nil {
		t.logger.Warnw("localizer failed, keeping last pose", "error", err)
		return false
	}
	if !t.store.Apply(p, ok) {
		t.logger.Debug("robot not visible, keeping last pose")
		return false
	}
	t.logger.Debugw("pose updated", "pose", p)
	if t.OnUpdate != nil {
		t.OnUpdate(p)
	}
	return true
}
