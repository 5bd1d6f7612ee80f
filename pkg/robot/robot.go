// Package robot drives a Thymio to target coordinates with open-loop turns and
// straight moves, while a watchdog takes over the motors whenever an obstacle gets
// too close.
package robot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Celinna/mobile-robotics/pkg/angle"
	"github.com/Celinna/mobile-robotics/pkg/avoidance"
	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
	"github.com/Celinna/mobile-robotics/pkg/obstacle"
	"github.com/Celinna/mobile-robotics/pkg/pose"
	"github.com/Celinna/mobile-robotics/pkg/transport"
	"github.com/Celinna/mobile-robotics/pkg/tunable"
)

type Outcome int

const (
	// AlreadyThere: the target was the current position, nothing was done.
	AlreadyThere Outcome = iota
	Arrived
	// Interrupted: an avoidance took over part way; the position is unknown until
	// the next localization.
	Interrupted
)

func (o Outcome) String() string {
	switch o {
	case AlreadyThere:
		return "already there"
	case Arrived:
		return "arrived"
	case Interrupted:
		return "interrupted"
	}
	return "unknown"
}

type Observer interface {
	obstacle.Observer
	MoveStarted(from pose.Pose, to r2.Point)
	TargetReached(p pose.Pose)
}

type Robot struct {
	model    *motionmodel.Model
	t        transport.Interface
	motors   transport.Motors
	store    *pose.Store
	flag     *obstacle.Flag
	watchdog *obstacle.Watchdog

	tunables  *tunable.Tunables
	speed     *tunable.Tunable
	threshold *tunable.Tunable

	clock     clock.Clock
	logger    *zap.SugaredLogger
	observers []Observer
	waitSlice time.Duration

	// Incremented at the start of every avoidance.
	avoidances atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

func New(t transport.Interface, cfg Config, opts ...Option) (*Robot, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}

	model, err := motionmodel.New(cfg.Calibration)
	if err != nil {
		return nil, errors.Wrap(err, "bad calibration")
	}
	if cfg.WaitSlice <= 0 {
		return nil, errors.Errorf("wait slice must be positive, not %v", cfg.WaitSlice)
	}
	if cfg.Speed == 0 {
		cfg.Speed = cfg.Calibration.NominalSpeed
	}

	r := &Robot{
		model:     model,
		t:         t,
		motors:    transport.Motors{T: t},
		store:     pose.NewStore(cfg.InitialPose),
		flag:      obstacle.NewFlag(),
		tunables:  tunable.New(o.logger),
		clock:     o.clock,
		logger:    o.logger,
		observers: o.observers,
		waitSlice: cfg.WaitSlice,
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.speed = r.tunables.Create("speed", cfg.Speed, 1, motionmodel.MaxSpeed)
	r.threshold = r.tunables.Create("wall-threshold", cfg.WallThreshold, 0, 10000)

	sensor := obstacle.Sensor{T: t, Threshold: r.threshold.Get}
	avoider := avoidance.New(r.motors, sensor, o.clock, cfg.Avoidance, o.logger.Named("avoidance"))
	r.watchdog = obstacle.NewWatchdog(o.clock, sensor, r.flag, avoider, cfg.Watchdog, o.logger.Named("watchdog"))
	r.watchdog.AddObserver(avoidanceCounter{&r.avoidances})
	for _, obs := range o.observers {
		r.watchdog.AddObserver(obs)
	}
	return r, nil
}

type avoidanceCounter struct {
	n *atomic.Int64
}

func (c avoidanceCounter) AvoidanceStarted([]int) { c.n.Add(1) }
func (c avoidanceCounter) AvoidanceFinished(error) {}

func (r *Robot) Model() *motionmodel.Model {
	return r.model
}

func (r *Robot) Tunables() *tunable.Tunables {
	return r.tunables
}

func (r *Robot) Watchdog() *obstacle.Watchdog {
	return r.watchdog
}

func (r *Robot) Position() pose.Pose {
	return r.store.Get()
}

func (r *Robot) SetPosition(p pose.Pose) {
	r.store.Set(p)
}

// ApplyLocalization takes a result from the external localizer.  Returns false if
// the robot wasn't seen, in which case the previous pose is kept.
func (r *Robot) ApplyLocalization(p pose.Pose, ok bool) bool {
	return r.store.Apply(p, ok)
}

// Store is shared with a pose.Tracker when the localizer runs on its own schedule.
func (r *Robot) Store() *pose.Store {
	return r.store
}

func (r *Robot) Speed() int {
	return r.speed.Get()
}

func (r *Robot) SetSpeed(speed int) {
	r.speed.Set(speed)
}

// MeasuredSpeed reads back the wheel speeds, in mm/s.
func (r *Robot) MeasuredSpeed() (left, right float64, err error) {
	l, errL := r.t.GetVar(transport.LeftSpeed)
	rr, errR := r.t.GetVar(transport.RightSpeed)
	if err := multierr.Combine(errL, errR); err != nil {
		return 0, 0, errors.Wrap(err, "failed to read wheel speeds")
	}
	left = r.model.LinearSpeed(motionmodel.DecodeSpeed(l.First()))
	right = r.model.LinearSpeed(motionmodel.DecodeSpeed(rr.First()))
	return left, right, nil
}

// Move sets the wheel speeds.  While an avoidance has the motors it waits for it to
// finish first.
func (r *Robot) Move(left, right int) error {
	r.logger.Debugw("move", "left", left, "right", right)
	return r.flag.Hold(r.ctx, func() error {
		return r.motors.Move(left, right)
	})
}

func (r *Robot) Stop() error {
	return r.Move(0, 0)
}

// SawObstacle checks the sensors once without reacting to what it sees.
func (r *Robot) SawObstacle() (bool, error) {
	return r.watchdog.SawObstacle()
}

// Start starts the obstacle watchdog.
func (r *Robot) Start() {
	r.watchdog.Start()
}

// Close stops the watchdog (aborting any avoidance) and the motors.
func (r *Robot) Close() error {
	r.cancel()
	r.watchdog.Stop()
	return errors.Wrap(r.motors.Stop(), "failed to stop motors")
}

// Turn spins on the spot by angleDeg (positive is counter-clockwise).  Returns false,
// having done nothing, for a zero angle.  The turn is timed with a single sleep and
// is not cut short by avoidance.
func (r *Robot) Turn(ctx context.Context, angleDeg float64) (bool, error) {
	plan := r.model.PlanTurn(angleDeg, r.Speed())
	if plan.NoOp {
		return false, nil
	}
	start := r.clock.Now()
	r.logger.Debugw("turn", "angle", angleDeg, "duration", plan.Duration)

	if err := r.Move(plan.Command.Left, plan.Command.Right); err != nil {
		return false, err
	}
	if err := r.sleep(ctx, plan.Duration); err != nil {
		return false, multierr.Append(err, r.motors.Stop())
	}
	if err := r.Stop(); err != nil {
		return true, err
	}
	r.logger.Debugw("turn done", "took", r.clock.Since(start))
	return true, nil
}

// GoStraight drives distanceMM (negative is backwards).  It checks for avoidance
// every WaitSlice; if one takes over, the rest of the move is abandoned and
// GoStraight returns once the avoidance has finished, reporting the interruption.
func (r *Robot) GoStraight(ctx context.Context, distanceMM float64) (interrupted bool, err error) {
	plan := r.model.PlanStraight(distanceMM, r.Speed())
	if plan.NoOp {
		return false, nil
	}
	start := r.clock.Now()
	before := r.avoidances.Load()
	r.logger.Debugw("straight", "distance", distanceMM, "duration", plan.Duration)

	if err := r.Move(plan.Command.Left, plan.Command.Right); err != nil {
		return false, err
	}

	for remaining := plan.Duration; remaining > 0; {
		if r.flag.Active() || r.avoidances.Load() != before {
			interrupted = true
			break
		}
		slice := r.waitSlice
		if remaining < slice {
			slice = remaining
		}
		if err := r.sleep(ctx, slice); err != nil {
			return false, multierr.Append(err, r.motors.Stop())
		}
		remaining -= slice
	}

	if interrupted {
		r.logger.Debug("straight interrupted, waiting for avoidance")
		if err := r.flag.Wait(ctx); err != nil {
			return true, multierr.Append(err, r.motors.Stop())
		}
		return true, nil
	}
	if err := r.Stop(); err != nil {
		return false, err
	}
	r.logger.Debugw("straight done", "took", r.clock.Since(start))
	return r.avoidances.Load() != before, nil
}

// MoveToTarget turns towards target and drives straight to it.
func (r *Robot) MoveToTarget(ctx context.Context, target r2.Point) (Outcome, error) {
	cur := r.store.Get()
	from := r2.Point{X: cur.X, Y: cur.Y}
	if target == from {
		return AlreadyThere, nil
	}

	distance := target.Sub(from).Norm()
	pathAngle := angle.Bearing(cur.X, cur.Y, target.X, target.Y)
	turn := angle.Turn(cur.Angle, pathAngle.Float())
	r.logger.Infow("moving to target",
		"from", cur, "to", target, "distance", distance, "path_angle", pathAngle.Float(), "turn", turn.Float())
	for _, o := range r.observers {
		o.MoveStarted(cur, target)
	}

	before := r.avoidances.Load()
	if _, err := r.Turn(ctx, turn.Float()); err != nil {
		return Interrupted, err
	}
	if r.avoidances.Load() != before {
		// The heading is unknown after an avoidance, so don't drive blind.
		r.logger.Info("turn towards target interrupted by avoidance")
		return Interrupted, nil
	}
	interrupted, err := r.GoStraight(ctx, distance)
	if err != nil {
		return Interrupted, err
	}
	if interrupted || r.avoidances.Load() != before {
		r.logger.Info("move to target interrupted by avoidance")
		return Interrupted, nil
	}

	reached := pose.Pose{X: target.X, Y: target.Y, Angle: pathAngle.Float()}
	r.store.Set(reached)
	for _, o := range r.observers {
		o.TargetReached(reached)
	}
	return Arrived, nil
}

func (r *Robot) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := r.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return errors.New("robot closed")
	}
}
