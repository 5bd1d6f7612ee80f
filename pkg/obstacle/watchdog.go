package obstacle

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/Celinna/mobile-robotics/pkg/periodic"
)

type State int

const (
	Stopped State = iota
	Watching
	Avoiding
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Watching:
		return "watching"
	case Avoiding:
		return "avoiding"
	}
	return "unknown"
}

// Avoider takes over the motors until the obstacle is cleared.  It must leave the
// motors stopped when it returns.
type Avoider interface {
	Avoid(ctx context.Context) error
}

type Observer interface {
	AvoidanceStarted(prox []int)
	AvoidanceFinished(err error)
}

type Config struct {
	Interval time.Duration
	// Checks to skip after each avoidance.
	SkipAfterAvoidance int
}

type Watchdog struct {
	sensor  Sensor
	flag    *Flag
	avoider Avoider
	cfg     Config
	task    *periodic.Task
	logger  *zap.SugaredLogger

	lock      sync.Mutex
	state     State
	watching  bool
	stops     int
	cancel    context.CancelFunc
	observers []Observer
}

func NewWatchdog(clk clock.Clock, sensor Sensor, flag *Flag, avoider Avoider, cfg Config, logger *zap.SugaredLogger) *Watchdog {
	w := &Watchdog{
		sensor:  sensor,
		flag:    flag,
		avoider: avoider,
		cfg:     cfg,
		logger:  logger,
	}
	w.task = periodic.New(clk, cfg.Interval, w.Check)
	return w
}

func (w *Watchdog) AddObserver(o Observer) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.observers = append(w.observers, o)
}

func (w *Watchdog) Start() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.watching = true
	if w.state == Stopped {
		w.state = Watching
	}
	w.task.Start()
	w.logger.Debugw("watchdog: watching", "interval", w.task.Interval())
}

// Stop cancels future checks and aborts an avoidance in progress.
func (w *Watchdog) Stop() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.watching = false
	w.stops++
	w.task.Stop()
	if w.cancel != nil {
		w.cancel()
	}
	if w.state == Watching {
		w.state = Stopped
	}
}

func (w *Watchdog) State() State {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.state
}

// SawObstacle is the side-effect free form of Check.
func (w *Watchdog) SawObstacle() (bool, error) {
	return w.sensor.SawObstacle()
}

// Check is the periodic action.  If an obstacle is seen it stops its own schedule,
// raises the flag, runs the avoider to completion, then clears the flag and resumes.
// A Stop that lands while the sensors are being read wins: no avoidance is started.
func (w *Watchdog) Check() {
	w.lock.Lock()
	stops := w.stops
	w.lock.Unlock()

	if w.flag.ConsumeSkip() {
		w.logger.Debug("watchdog: skipping check")
		return
	}
	prox, err := w.sensor.Read()
	if err != nil {
		w.logger.Warnw("watchdog: failed to read proximity sensors", "error", err)
		return
	}
	if !Detect(prox, w.sensor.Threshold()) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.lock.Lock()
	if w.stops != stops {
		w.lock.Unlock()
		w.logger.Debug("watchdog: stopped during check, not avoiding")
		return
	}
	w.task.Stop()
	w.state = Avoiding
	w.cancel = cancel
	observers := append([]Observer(nil), w.observers...)
	w.lock.Unlock()

	w.flag.Raise(w.cfg.SkipAfterAvoidance)
	w.logger.Infow("watchdog: obstacle, avoiding", "prox", prox)
	for _, o := range observers {
		o.AvoidanceStarted(prox)
	}

	err = w.avoider.Avoid(ctx)
	if err != nil {
		w.logger.Warnw("watchdog: avoidance ended badly", "error", err)
	} else {
		w.logger.Info("watchdog: obstacle cleared")
	}

	w.flag.Clear()
	for _, o := range observers {
		o.AvoidanceFinished(err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	w.cancel = nil
	if w.watching {
		w.state = Watching
		w.task.Start()
	} else {
		w.state = Stopped
	}
}
