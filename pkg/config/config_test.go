package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"
	"go.viam.com/test"
	"periph.io/x/periph/conn/physic"

	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thymio.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	test.That(t, Default().Validate(), test.ShouldBeNil)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
robot:
  speed: 150
  wall_threshold: 800
  initial_pose: {x: 100, y: 200, angle: 90}
watchdog:
  interval: 250ms
avoidance:
  forward: 1s
transport:
  kind: asebahttp
  url: http://thymio.local:3000
waypoints:
  - {x: 100, y: 0}
  - {x: 100, y: 300}
`)
	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.Robot.Speed, test.ShouldEqual, 150)
	test.That(t, cfg.Robot.WallThreshold, test.ShouldEqual, 800)
	test.That(t, cfg.Watchdog.Interval, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.Avoidance.Forward, test.ShouldEqual, time.Second)
	test.That(t, cfg.Transport.Kind, test.ShouldEqual, TransportAsebaHTTP)

	// Untouched settings keep their defaults.
	test.That(t, cfg.Robot.LinearFactor, test.ShouldEqual, 0.31573)
	test.That(t, cfg.Watchdog.SkipAfterAvoidance, test.ShouldEqual, 2)
	test.That(t, cfg.Avoidance.ClearIterations, test.ShouldEqual, 15)
	test.That(t, cfg.Avoidance.Sweep, test.ShouldEqual, 150*time.Millisecond)

	test.That(t, cfg.Targets(), test.ShouldResemble, []r2.Point{{X: 100, Y: 0}, {X: 100, Y: 300}})

	rc := cfg.RobotConfig()
	test.That(t, rc.Calibration.WheelSeparation, test.ShouldEqual, 95*physic.MilliMetre)
	test.That(t, rc.Speed, test.ShouldEqual, 150)
	test.That(t, rc.InitialPose.Angle, test.ShouldEqual, 90.0)
	test.That(t, rc.Watchdog.Interval, test.ShouldEqual, 250*time.Millisecond)
	_, err = motionmodel.New(rc.Calibration)
	test.That(t, err, test.ShouldBeNil)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "robot:\n  sped: 100\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sped")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Robot.LinearFactor = 0
	cfg.Watchdog.Interval = 0
	cfg.Transport.Kind = "serial"
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 3)
	test.That(t, err.Error(), test.ShouldContainSubstring, "serial")
}

func TestWriteInUse(t *testing.T) {
	cfg := Default()
	cfg.Robot.Speed = 120
	cfg.Waypoints = []Point{{X: 1, Y: 2}}
	path := filepath.Join(t.TempDir(), "in-use.yaml")
	test.That(t, cfg.WriteInUse(path), test.ShouldBeNil)

	loaded, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded, test.ShouldResemble, cfg)
}
