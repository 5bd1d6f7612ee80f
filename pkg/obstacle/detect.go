// Package obstacle watches the proximity sensors and hands the motors over to an
// avoidance behaviour when something gets too close.
package obstacle

import (
	"golang.org/x/exp/slices"

	"github.com/Celinna/mobile-robotics/pkg/transport"
)

// NumRear is the number of rear-facing sensors at the end of a prox.horizontal
// reading.  They are ignored.
const NumRear = 2

// Detect reports whether any front-facing reading is strictly above threshold.
func Detect(prox []int, threshold int) bool {
	if len(prox) <= NumRear {
		return false
	}
	return slices.ContainsFunc(prox[:len(prox)-NumRear], func(v int) bool {
		return v > threshold
	})
}

// Sensor reads the proximity sensors and applies a threshold that may change at any
// time.
type Sensor struct {
	T         transport.Interface
	Threshold func() int
}

func (s Sensor) Read() ([]int, error) {
	r, err := s.T.GetVar(transport.ProxHorizontal)
	if err != nil {
		return nil, err
	}
	return r.Values, nil
}

// SawObstacle is a pure query: it reads once and has no other side effects.
func (s Sensor) SawObstacle() (bool, error) {
	prox, err := s.Read()
	if err != nil {
		return false, err
	}
	return Detect(prox, s.Threshold()), nil
}
