// Package transport is the boundary between the controller and the robot: named
// variables that can be written with a single 16-bit value or read as a snapshot.
package transport

import "time"

const (
	LeftTarget  = "motor.left.target"
	RightTarget = "motor.right.target"
	LeftSpeed   = "motor.left.speed"
	RightSpeed  = "motor.right.speed"
	// Seven values: five front sensors, left to right, then the two rear ones.
	ProxHorizontal = "prox.horizontal"
)

// NumProxHorizontal is the number of values in a prox.horizontal reading.
const NumProxHorizontal = 7

// Reading is a point-in-time snapshot of one variable.  It must not be assumed to be
// fresh; CaptureTime says when the robot reported it.
type Reading struct {
	CaptureTime time.Time
	Values      []int
}

// First returns the first value, or 0 for an empty reading.
func (r Reading) First() int {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[0]
}

type Interface interface {
	SetVar(name string, value uint16) error
	GetVar(name string) (Reading, error)
}
