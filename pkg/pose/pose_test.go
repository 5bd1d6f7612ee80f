package pose

import (
	"testing"

	"go.viam.com/test"
)

func TestStoreApplyIgnoresAbsentPoses(t *testing.T) {
	s := NewStore(Pose{X: 1, Y: 2, Angle: 3})
	test.That(t, s.Get(), test.ShouldResemble, Pose{X: 1, Y: 2, Angle: 3})

	test.That(t, s.Apply(Pose{}, false), test.ShouldBeFalse)
	test.That(t, s.Get(), test.ShouldResemble, Pose{X: 1, Y: 2, Angle: 3})

	test.That(t, s.Apply(Pose{X: 10, Y: 20, Angle: -90}, true), test.ShouldBeTrue)
	test.That(t, s.Get(), test.ShouldResemble, Pose{X: 10, Y: 20, Angle: -90})

	s.Set(Pose{})
	test.That(t, s.Get(), test.ShouldResemble, Pose{})
}

func TestFromMarkerCorners(t *testing.T) {
	// Marker square in the image with its front edge towards the top of the image.
	facingUp := [4][2]float64{{10, 10}, {30, 10}, {30, 30}, {10, 30}}
	p := FromMarkerCorners(facingUp, 100, 2, 2)
	test.That(t, p.X, test.ShouldEqual, 40.0)
	test.That(t, p.Y, test.ShouldEqual, 160.0)
	test.That(t, p.Angle, test.ShouldAlmostEqual, 90, 1e-9)

	facingRight := [4][2]float64{{30, 10}, {30, 30}, {10, 30}, {10, 10}}
	p = FromMarkerCorners(facingRight, 100, 2, 2)
	test.That(t, p.Angle, test.ShouldAlmostEqual, 0, 1e-9)

	facingLeft := [4][2]float64{{10, 30}, {10, 10}, {30, 10}, {30, 30}}
	p = FromMarkerCorners(facingLeft, 100, 2, 2)
	test.That(t, p.Angle, test.ShouldAlmostEqual, 180, 1e-9)

	facingDown := [4][2]float64{{30, 30}, {10, 30}, {10, 10}, {30, 10}}
	p = FromMarkerCorners(facingDown, 100, 1, 1)
	test.That(t, p.Angle, test.ShouldAlmostEqual, -90, 1e-9)
	test.That(t, p.X, test.ShouldEqual, 20.0)
	test.That(t, p.Y, test.ShouldEqual, 80.0)
}
