// Package motionmodel converts distances and turns into open-loop wheel speed
// commands and the time they must run for.
//
// The model is a straight linear fit measured on the robot: a commanded speed s
// moves each wheel at s*LinearFactor mm/s.  The turning rate follows from the wheel
// separation, so it is always derived and never calibrated on its own.
package motionmodel

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/physic"
)

// Speeds above this (in either direction) can't be represented by the decode
// heuristic below.
const MaxSpeed = 9999

// Calibration is fixed for the life of a controller.
type Calibration struct {
	// Distance between the two wheel contact points.
	WheelSeparation physic.Distance
	// Default speed setting, in the robot's own units.
	NominalSpeed int
	// mm/s per unit of commanded speed.
	LinearFactor float64
}

// Command is a pair of signed wheel speeds.
type Command struct {
	Left, Right int
}

// Plan is the command for one motion primitive and how long it must run.  A NoOp
// plan must not be issued and the caller should not wait at all.
type Plan struct {
	Command  Command
	Duration time.Duration
	NoOp     bool
}

type Model struct {
	cal           Calibration
	angularFactor float64
}

func New(cal Calibration) (*Model, error) {
	if cal.WheelSeparation <= 0 {
		return nil, errors.Errorf("wheel separation must be positive, not %v", cal.WheelSeparation)
	}
	if cal.LinearFactor <= 0 {
		return nil, errors.Errorf("linear factor must be positive, not %v", cal.LinearFactor)
	}
	if cal.NominalSpeed <= 0 || cal.NominalSpeed > MaxSpeed {
		return nil, errors.Errorf("nominal speed must be in (0, %d], not %d", MaxSpeed, cal.NominalSpeed)
	}
	return &Model{
		cal:           cal,
		angularFactor: 2 * cal.LinearFactor / wheelSeparationMM(cal.WheelSeparation) * 180 / math.Pi,
	}, nil
}

func wheelSeparationMM(d physic.Distance) float64 {
	return float64(d) / float64(physic.MilliMetre)
}

func (m *Model) Calibration() Calibration {
	return m.cal
}

// LinearFactor is mm/s per unit of commanded speed.
func (m *Model) LinearFactor() float64 {
	return m.cal.LinearFactor
}

// AngularFactor is degrees/s per unit of commanded speed when spinning on the spot.
func (m *Model) AngularFactor() float64 {
	return m.angularFactor
}

// PlanStraight plans a straight move; negative distances drive backwards.
func (m *Model) PlanStraight(distanceMM float64, speed int) Plan {
	if distanceMM == 0 || speed <= 0 {
		return Plan{NoOp: true}
	}
	cmd := Command{Left: speed, Right: speed}
	if distanceMM < 0 {
		cmd = Command{Left: -speed, Right: -speed}
	}
	return Plan{
		Command:  cmd,
		Duration: seconds(math.Abs(distanceMM) / (float64(speed) * m.cal.LinearFactor)),
	}
}

// PlanTurn plans a spin on the spot; positive angles turn left (counter-clockwise).
func (m *Model) PlanTurn(angleDeg float64, speed int) Plan {
	if angleDeg == 0 || speed <= 0 {
		return Plan{NoOp: true}
	}
	cmd := Command{Left: -speed, Right: speed}
	if angleDeg < 0 {
		cmd = Command{Left: speed, Right: -speed}
	}
	return Plan{
		Command:  cmd,
		Duration: seconds(math.Abs(angleDeg) / (float64(speed) * m.angularFactor)),
	}
}

// LinearSpeed converts a decoded wheel speed reading into mm/s.
func (m *Model) LinearSpeed(reading int) float64 {
	return float64(reading) * m.cal.LinearFactor
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// EncodeSpeed packs a signed speed into the 16-bit two's-complement form the
// robot's variables use.
func EncodeSpeed(v int) uint16 {
	if v < 0 {
		v += 1 << 16
	}
	return uint16(v)
}

// DecodeSpeed undoes EncodeSpeed for a raw reading.  Anything above MaxSpeed is
// taken to be negative; this is a threshold rather than a sign-bit check, which is
// good enough because real readings never get near 10000 in either direction.
func DecodeSpeed(raw int) int {
	if raw > MaxSpeed {
		return raw - 1<<16
	}
	return raw
}

// FitLinearFactor works out the linear factor from a calibration run: the robot drove
// straight at speed for d and covered distanceMM.
func FitLinearFactor(distanceMM float64, speed int, d time.Duration) (float64, error) {
	if speed == 0 || d <= 0 {
		return 0, errors.Errorf("can't fit a run at speed %d for %v", speed, d)
	}
	return math.Abs(distanceMM) / (math.Abs(float64(speed)) * d.Seconds()), nil
}

// FitWheelSeparation works out the effective wheel separation from a spin on the
// spot: at speed for d the robot turned angleDeg.
func FitWheelSeparation(angleDeg float64, speed int, d time.Duration, linearFactor float64) (physic.Distance, error) {
	if angleDeg == 0 || speed == 0 || d <= 0 {
		return 0, errors.Errorf("can't fit a spin of %v degrees at speed %d for %v", angleDeg, speed, d)
	}
	wheelMM := math.Abs(float64(speed)) * linearFactor * d.Seconds()
	sepMM := 2 * wheelMM / (math.Abs(angleDeg) * math.Pi / 180)
	return physic.Distance(sepMM * float64(physic.MilliMetre)), nil
}
