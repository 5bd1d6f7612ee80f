// Package chassis has the measured constants of the Thymio II.
package chassis

import (
	"periph.io/x/periph/conn/physic"

	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
)

const (
	WheelSeparation = 95 * physic.MilliMetre

	// Speed setting the robot drives at unless told otherwise.
	NominalSpeed = 100
	// mm/s per unit of speed setting, from the straight-line calibration runs.
	SpeedToMMPerS = 0.31573
)

// Thymio is the calibration of a stock Thymio II on a smooth floor.
func Thymio() motionmodel.Calibration {
	return motionmodel.Calibration{
		WheelSeparation: WheelSeparation,
		NominalSpeed:    NominalSpeed,
		LinearFactor:    SpeedToMMPerS,
	}
}
