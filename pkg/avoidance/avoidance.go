// Package avoidance steers the robot around an obstacle, keeping it on the robot's
// left, until the way ahead has been clear for long enough.
package avoidance

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotCleared is returned when the obstacle is still there after MaxIterations steps.
var ErrNotCleared = errors.New("obstacle not cleared")

type State int

const (
	Forward State = iota
	Turning
)

func (s State) String() string {
	if s == Turning {
		return "turning"
	}
	return "forward"
}

type Motors interface {
	Move(left, right int) error
	Stop() error
}

type Detector interface {
	SawObstacle() (bool, error)
}

type Config struct {
	Speed int `yaml:"speed"`
	// How long each command runs before the sensors are checked again.
	TurnRight time.Duration `yaml:"turn_right"`
	Forward   time.Duration `yaml:"forward"`
	Sweep     time.Duration `yaml:"sweep"`
	// Consecutive-ish clear readings needed to finish.
	ClearIterations int `yaml:"clear_iterations"`
	// Limit on steps, where a step is one command or TurnRight's worth of turning
	// with the obstacle still in view.  Zero means no limit.
	MaxIterations int `yaml:"max_iterations"`
}

func DefaultConfig() Config {
	return Config{
		Speed:           100,
		TurnRight:       100 * time.Millisecond,
		Forward:         500 * time.Millisecond,
		Sweep:           150 * time.Millisecond,
		ClearIterations: 15,
		MaxIterations:   400,
	}
}

type Behavior struct {
	motors   Motors
	detector Detector
	clock    clock.Clock
	cfg      Config
	logger   *zap.SugaredLogger
}

func New(motors Motors, detector Detector, clk clock.Clock, cfg Config, logger *zap.SugaredLogger) *Behavior {
	if clk == nil {
		clk = clock.New()
	}
	return &Behavior{
		motors:   motors,
		detector: detector,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

// Avoid drives forward, turns right away from anything it sees and sweeps back left
// when it sees nothing, until ClearIterations clear readings have accumulated.  The
// motors are always stopped on return.
func (b *Behavior) Avoid(ctx context.Context) (err error) {
	defer func() {
		if stopErr := b.motors.Stop(); stopErr != nil && err == nil {
			err = errors.Wrap(stopErr, "failed to stop after avoidance")
		}
	}()

	s := b.cfg.Speed
	state := Forward
	if err := b.motors.Move(s, s); err != nil {
		return err
	}

	clearCount, steps := 0, 0
	lastStep := b.clock.Now()
	for clearCount < b.cfg.ClearIterations {
		if b.cfg.MaxIterations > 0 && steps >= b.cfg.MaxIterations {
			return errors.Wrapf(ErrNotCleared, "after %d steps", steps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		saw, err := b.detector.SawObstacle()
		if err != nil {
			return errors.Wrap(err, "failed to read proximity sensors")
		}

		var cmd [2]int
		var wait time.Duration
		switch {
		case saw && state == Forward:
			cmd, wait = [2]int{s, -s}, b.cfg.TurnRight
			clearCount = 0
			state = Turning
		case saw:
			// Already turning right; keep going.
			if now := b.clock.Now(); now.Sub(lastStep) >= b.cfg.TurnRight {
				steps++
				lastStep = now
			}
			continue
		case state == Turning:
			cmd, wait = [2]int{s, s}, b.cfg.Forward
			clearCount++
			state = Forward
		default:
			cmd, wait = [2]int{-s, s}, b.cfg.Sweep
			clearCount++
			state = Turning
		}
		steps++
		b.logger.Debugw("avoidance", "saw", saw, "state", state, "clear", clearCount, "step", steps)
		if err := b.motors.Move(cmd[0], cmd[1]); err != nil {
			return err
		}
		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
		lastStep = b.clock.Now()
	}
	return nil
}

func (b *Behavior) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := b.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
