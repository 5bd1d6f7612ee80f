// Package pose holds the robot's best-known absolute position and heading.
package pose

import (
	"fmt"
	"math"
	"sync"

	"github.com/Celinna/mobile-robotics/pkg/angle"
)

// Pose is a position in map millimetres and a heading in degrees, counter-clockwise
// from the map's +x axis.
type Pose struct {
	X, Y  float64
	Angle float64
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f°)", p.X, p.Y, p.Angle)
}

// Store is shared between the controller and whatever localises the robot.  Poses
// are only ever replaced wholesale.
type Store struct {
	lock sync.Mutex
	pose Pose
}

func NewStore(initial Pose) *Store {
	return &Store{pose: initial}
}

func (s *Store) Get() Pose {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pose
}

func (s *Store) Set(p Pose) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pose = p
}

// Apply stores a localizer result.  Absent results (ok == false) leave the previous
// pose in place.  Returns whether the pose was updated.
func (s *Store) Apply(p Pose, ok bool) bool {
	if !ok {
		return false
	}
	s.Set(p)
	return true
}

// FromMarkerCorners works out the robot pose from the four corners of its marker,
// as pixel coordinates in the top-down map image (top-left, top-right,
// bottom-right, bottom-left, relative to the marker).  The image y axis points
// down, the map's points up.  The front of the robot is the marker's top edge.
func FromMarkerCorners(corners [4][2]float64, imageHeight, mmPerPixelX, mmPerPixelY float64) Pose {
	var cx, cy float64
	for _, c := range corners {
		cx += c[0]
		cy += c[1]
	}
	cx /= 4
	cy /= 4

	// Vector from the middle of the back edge to the middle of the front edge.
	fx := (corners[0][0]+corners[1][0])/2 - (corners[2][0]+corners[3][0])/2
	fy := (corners[0][1]+corners[1][1])/2 - (corners[2][1]+corners[3][1])/2
	heading := math.Atan2(-fy, fx)

	return Pose{
		X:     math.Round(cx * mmPerPixelX),
		Y:     math.Round((imageHeight - cy) * mmPerPixelY),
		Angle: angle.FromFloat(angle.Degrees(heading)).Float(),
	}
}
