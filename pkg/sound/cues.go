package sound

import (
	"github.com/golang/geo/r2"

	"github.com/Celinna/mobile-robotics/pkg/pose"
)

// Cues is a robot observer that plays a sound when an obstacle is seen and when a
// target is reached.  Empty paths are silent.  Cues never block the robot: if the
// player is busy the cue is dropped.
type Cues struct {
	Sounds   chan<- string
	Obstacle string
	Arrived  string
}

func (c Cues) play(path string) {
	if path == "" || c.Sounds == nil {
		return
	}
	select {
	case c.Sounds <- path:
	default:
	}
}

func (c Cues) MoveStarted(pose.Pose, r2.Point) {}

func (c Cues) TargetReached(pose.Pose) {
	c.play(c.Arrived)
}

func (c Cues) AvoidanceStarted([]int) {
	c.play(c.Obstacle)
}

func (c Cues) AvoidanceFinished(error) {}
