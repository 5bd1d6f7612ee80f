// Package config loads the controller's YAML configuration.  Files only need to
// mention the settings they change; everything else keeps its default.
package config

import (
	"os"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
	"periph.io/x/periph/conn/physic"

	"github.com/Celinna/mobile-robotics/pkg/avoidance"
	"github.com/Celinna/mobile-robotics/pkg/chassis"
	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
	"github.com/Celinna/mobile-robotics/pkg/obstacle"
	"github.com/Celinna/mobile-robotics/pkg/pose"
	"github.com/Celinna/mobile-robotics/pkg/robot"
)

const (
	TransportSim       = "sim"
	TransportAsebaHTTP = "asebahttp"
)

type Config struct {
	Robot     Robot            `yaml:"robot"`
	Watchdog  Watchdog         `yaml:"watchdog"`
	Avoidance avoidance.Config `yaml:"avoidance"`
	Transport Transport        `yaml:"transport"`
	Camera    Camera           `yaml:"camera"`
	Log       Log              `yaml:"log"`
	Trace     Trace            `yaml:"trace"`
	Sounds    Sounds           `yaml:"sounds"`
	Waypoints []Point          `yaml:"waypoints"`
}

type Robot struct {
	WheelSeparationMM float64       `yaml:"wheel_separation_mm"`
	NominalSpeed      int           `yaml:"nominal_speed"`
	LinearFactor      float64       `yaml:"linear_factor"`
	Speed             int           `yaml:"speed"`
	WallThreshold     int           `yaml:"wall_threshold"`
	WaitSlice         time.Duration `yaml:"wait_slice"`
	InitialPose       Pose          `yaml:"initial_pose"`
}

type Watchdog struct {
	Interval           time.Duration `yaml:"interval"`
	SkipAfterAvoidance int           `yaml:"skip_after_avoidance"`
}

type Transport struct {
	Kind    string        `yaml:"kind"`
	URL     string        `yaml:"url"`
	Node    string        `yaml:"node"`
	Timeout time.Duration `yaml:"timeout"`
	// If set, the asebahttp bridge is started by the controller.
	Launch       bool     `yaml:"launch"`
	BridgeBinary string   `yaml:"bridge_binary"`
	BridgeArgs   []string `yaml:"bridge_args"`
}

type Camera struct {
	Enabled bool `yaml:"enabled"`
	Device  int  `yaml:"device"`
	// Pixel coordinates of the map corners in the raw camera image: top-left,
	// top-right, bottom-right, bottom-left.
	MapCorners   [4][2]float64 `yaml:"map_corners"`
	MapWidthMM   float64       `yaml:"map_width_mm"`
	MapHeightMM  float64       `yaml:"map_height_mm"`
	MapWidthPx   int           `yaml:"map_width_px"`
	MapHeightPx  int           `yaml:"map_height_px"`
	PollInterval time.Duration `yaml:"poll_interval"`
	GoalTemplate string        `yaml:"goal_template"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Trace struct {
	Path string `yaml:"path"`
}

type Sounds struct {
	Obstacle string `yaml:"obstacle"`
	Arrived  string `yaml:"arrived"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Pose struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Angle float64 `yaml:"angle"`
}

func Default() Config {
	return Config{
		Robot: Robot{
			WheelSeparationMM: float64(chassis.WheelSeparation) / float64(physic.MilliMetre),
			NominalSpeed:      chassis.NominalSpeed,
			LinearFactor:      chassis.SpeedToMMPerS,
			WallThreshold:     500,
			WaitSlice:         100 * time.Millisecond,
		},
		Watchdog: Watchdog{
			Interval:           400 * time.Millisecond,
			SkipAfterAvoidance: 2,
		},
		Avoidance: avoidance.DefaultConfig(),
		Transport: Transport{
			Kind:         TransportSim,
			URL:          "http://localhost:3000",
			Timeout:      2 * time.Second,
			BridgeBinary: "asebahttp",
			BridgeArgs:   []string{"--autoconnect"},
		},
		Camera: Camera{
			MapWidthMM:   1188,
			MapHeightMM:  840,
			MapWidthPx:   1188,
			MapHeightPx:  840,
			PollInterval: time.Second,
		},
		Log: Log{
			Level:       "info",
			Development: true,
		},
	}
}

// Load overlays the YAML file at path onto the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, cfg.Validate()
}

// WriteInUse records the configuration actually being used.
func (c Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0666), "failed to write config in use")
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			err = multierr.Append(err, errors.Errorf(format, args...))
		}
	}
	check(c.Robot.WheelSeparationMM > 0, "robot.wheel_separation_mm must be positive")
	check(c.Robot.LinearFactor > 0, "robot.linear_factor must be positive")
	check(c.Robot.NominalSpeed > 0 && c.Robot.NominalSpeed <= motionmodel.MaxSpeed,
		"robot.nominal_speed must be in (0, %d]", motionmodel.MaxSpeed)
	check(c.Robot.Speed >= 0 && c.Robot.Speed <= motionmodel.MaxSpeed,
		"robot.speed must be in [0, %d]", motionmodel.MaxSpeed)
	check(c.Robot.WallThreshold >= 0, "robot.wall_threshold must not be negative")
	check(c.Robot.WaitSlice > 0, "robot.wait_slice must be positive")
	check(c.Watchdog.Interval > 0, "watchdog.interval must be positive")
	check(c.Watchdog.SkipAfterAvoidance >= 0, "watchdog.skip_after_avoidance must not be negative")
	check(c.Avoidance.Speed > 0 && c.Avoidance.Speed <= motionmodel.MaxSpeed,
		"avoidance.speed must be in (0, %d]", motionmodel.MaxSpeed)
	check(c.Avoidance.ClearIterations > 0, "avoidance.clear_iterations must be positive")
	check(c.Avoidance.MaxIterations >= 0, "avoidance.max_iterations must not be negative")
	check(c.Transport.Kind == TransportSim || c.Transport.Kind == TransportAsebaHTTP,
		"transport.kind must be %q or %q, not %q", TransportSim, TransportAsebaHTTP, c.Transport.Kind)
	if c.Camera.Enabled {
		check(c.Camera.MapWidthMM > 0 && c.Camera.MapHeightMM > 0, "camera map size must be positive")
		check(c.Camera.MapWidthPx > 0 && c.Camera.MapHeightPx > 0, "camera map image size must be positive")
		check(c.Camera.PollInterval > 0, "camera.poll_interval must be positive")
	}
	return err
}

// RobotConfig converts to the motion controller's configuration.
func (c Config) RobotConfig() robot.Config {
	return robot.Config{
		Calibration: motionmodel.Calibration{
			WheelSeparation: physic.Distance(c.Robot.WheelSeparationMM * float64(physic.MilliMetre)),
			NominalSpeed:    c.Robot.NominalSpeed,
			LinearFactor:    c.Robot.LinearFactor,
		},
		Speed:         c.Robot.Speed,
		WallThreshold: c.Robot.WallThreshold,
		Watchdog: obstacle.Config{
			Interval:           c.Watchdog.Interval,
			SkipAfterAvoidance: c.Watchdog.SkipAfterAvoidance,
		},
		Avoidance:   c.Avoidance,
		WaitSlice:   c.Robot.WaitSlice,
		InitialPose: pose.Pose(c.Robot.InitialPose),
	}
}

func (c Config) Targets() []r2.Point {
	targets := make([]r2.Point, len(c.Waypoints))
	for i, p := range c.Waypoints {
		targets[i] = r2.Point{X: p.X, Y: p.Y}
	}
	return targets
}
