package motionmodel

import (
	"math"
	"testing"
	"time"

	"go.viam.com/test"
	"periph.io/x/periph/conn/physic"
)

var thymio = Calibration{
	WheelSeparation: 95 * physic.MilliMetre,
	NominalSpeed:    100,
	LinearFactor:    0.31573,
}

func newModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(thymio)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func expectedDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func TestAngularFactorIsDerived(t *testing.T) {
	m := newModel(t)
	expected := 2 * 0.31573 / 95 * 180 / math.Pi
	test.That(t, m.AngularFactor(), test.ShouldAlmostEqual, expected, 1e-12)
	test.That(t, m.AngularFactor(), test.ShouldAlmostEqual, 0.38084, 1e-4)
}

func TestNewRejectsBadCalibration(t *testing.T) {
	bad := []Calibration{
		{WheelSeparation: 0, NominalSpeed: 100, LinearFactor: 0.3},
		{WheelSeparation: 95 * physic.MilliMetre, NominalSpeed: 100, LinearFactor: 0},
		{WheelSeparation: 95 * physic.MilliMetre, NominalSpeed: 0, LinearFactor: 0.3},
		{WheelSeparation: 95 * physic.MilliMetre, NominalSpeed: MaxSpeed + 1, LinearFactor: 0.3},
	}
	for _, cal := range bad {
		_, err := New(cal)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestPlanStraight(t *testing.T) {
	m := newModel(t)
	for _, d := range []float64{1, 100, 250.5, 1000} {
		p := m.PlanStraight(d, 100)
		test.That(t, p.NoOp, test.ShouldBeFalse)
		test.That(t, p.Command, test.ShouldResemble, Command{Left: 100, Right: 100})
		test.That(t, p.Duration, test.ShouldEqual, expectedDuration(d/(100*0.31573)))

		p = m.PlanStraight(-d, 100)
		test.That(t, p.Command, test.ShouldResemble, Command{Left: -100, Right: -100})
		test.That(t, p.Duration, test.ShouldEqual, expectedDuration(d/(100*0.31573)))
	}

	p := m.PlanStraight(100, 200)
	test.That(t, p.Command, test.ShouldResemble, Command{Left: 200, Right: 200})
	test.That(t, p.Duration, test.ShouldEqual, expectedDuration(100/(200*0.31573)))
}

func TestPlanStraightZeroIsNoOp(t *testing.T) {
	m := newModel(t)
	p := m.PlanStraight(0, 100)
	test.That(t, p.NoOp, test.ShouldBeTrue)
	test.That(t, p.Duration, test.ShouldEqual, 0)
}

func TestPlanTurn(t *testing.T) {
	m := newModel(t)

	p := m.PlanTurn(90, 100)
	test.That(t, p.NoOp, test.ShouldBeFalse)
	test.That(t, p.Command, test.ShouldResemble, Command{Left: -100, Right: 100})
	test.That(t, p.Duration, test.ShouldEqual, expectedDuration(90/(100*m.AngularFactor())))

	p = m.PlanTurn(-45, 100)
	test.That(t, p.Command, test.ShouldResemble, Command{Left: 100, Right: -100})
	test.That(t, p.Duration, test.ShouldEqual, expectedDuration(45/(100*m.AngularFactor())))

	p = m.PlanTurn(0, 100)
	test.That(t, p.NoOp, test.ShouldBeTrue)
	test.That(t, p.Command, test.ShouldResemble, Command{})
}

func TestSpeedEncodingRoundTrip(t *testing.T) {
	for v := -MaxSpeed; v <= -1; v++ {
		raw := EncodeSpeed(v)
		test.That(t, int(raw), test.ShouldBeGreaterThan, MaxSpeed)
		test.That(t, DecodeSpeed(int(raw)), test.ShouldEqual, v)
	}
	for v := 0; v <= MaxSpeed; v++ {
		test.That(t, EncodeSpeed(v), test.ShouldEqual, uint16(v))
		test.That(t, DecodeSpeed(v), test.ShouldEqual, v)
	}
	test.That(t, EncodeSpeed(-100), test.ShouldEqual, uint16(65436))
	test.That(t, EncodeSpeed(-1), test.ShouldEqual, uint16(65535))
}

func TestLinearSpeed(t *testing.T) {
	m := newModel(t)
	test.That(t, m.LinearSpeed(100), test.ShouldAlmostEqual, 31.573, 1e-9)
	test.That(t, m.LinearSpeed(DecodeSpeed(65436)), test.ShouldAlmostEqual, -31.573, 1e-9)
}

func TestFitCalibration(t *testing.T) {
	lf, err := FitLinearFactor(631.46, 100, 20*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lf, test.ShouldAlmostEqual, 0.31573, 1e-9)

	_, err = FitLinearFactor(100, 0, time.Second)
	test.That(t, err, test.ShouldNotBeNil)

	// A spin that matches the derived angular factor gives back the separation.
	m, err := New(Calibration{WheelSeparation: 95 * physic.MilliMetre, NominalSpeed: 100, LinearFactor: 0.31573})
	test.That(t, err, test.ShouldBeNil)
	plan := m.PlanTurn(360, 100)
	sep, err := FitWheelSeparation(360, 100, plan.Duration, 0.31573)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(sep)/float64(physic.MilliMetre), test.ShouldAlmostEqual, 95, 1e-3)

	_, err = FitWheelSeparation(0, 100, time.Second, 0.31573)
	test.That(t, err, test.ShouldNotBeNil)
}
