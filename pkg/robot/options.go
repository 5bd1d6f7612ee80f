package robot

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/Celinna/mobile-robotics/pkg/avoidance"
	"github.com/Celinna/mobile-robotics/pkg/chassis"
	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
	"github.com/Celinna/mobile-robotics/pkg/obstacle"
	"github.com/Celinna/mobile-robotics/pkg/pose"
)

type Config struct {
	Calibration motionmodel.Calibration
	// Speed setting for motion primitives; zero means the calibration's nominal speed.
	Speed int
	// Proximity reading above which a front sensor counts as seeing an obstacle.
	WallThreshold int
	Watchdog      obstacle.Config
	Avoidance     avoidance.Config
	// Granularity at which straight moves notice an avoidance taking over.
	WaitSlice   time.Duration
	InitialPose pose.Pose
}

func DefaultConfig() Config {
	return Config{
		Calibration:   chassis.Thymio(),
		WallThreshold: 500,
		Watchdog: obstacle.Config{
			Interval:           400 * time.Millisecond,
			SkipAfterAvoidance: 2,
		},
		Avoidance: avoidance.DefaultConfig(),
		WaitSlice: 100 * time.Millisecond,
	}
}

type Option func(*options)

type options struct {
	clock     clock.Clock
	logger    *zap.SugaredLogger
	observers []Observer
}

func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers an observer; may be given more than once.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}
