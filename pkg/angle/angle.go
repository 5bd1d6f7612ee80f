// Package angle does heading arithmetic in degrees.
package angle

import "math"

// PlusMinus180 is a heading or turn in degrees, stored in the range (-180, 180].
// All operations clamp their output into range.
type PlusMinus180 struct {
	float64
}

func (a PlusMinus180) Add(b PlusMinus180) PlusMinus180 {
	return FromFloat(a.float64 + b.float64)
}

func (a PlusMinus180) Sub(b PlusMinus180) PlusMinus180 {
	return FromFloat(a.float64 - b.float64)
}

// Float returns the angle in degrees, range (-180, 180].
func (a PlusMinus180) Float() float64 {
	return a.float64
}

// FromFloat converts a float of any magnitude to a PlusMinus180 by calculating
// f mod 360 and shifting into range.
func FromFloat(f float64) PlusMinus180 {
	d := math.Mod(f, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return PlusMinus180{d}
}

// Bearing returns the direction of travel from (fromX, fromY) to (toX, toY),
// measured counter-clockwise from the +x axis.
func Bearing(fromX, fromY, toX, toY float64) PlusMinus180 {
	return FromFloat(Degrees(math.Atan2(toY-fromY, toX-fromX)))
}

// Turn returns the relative turn needed to face bearing when currently facing
// heading.  Positive is a left (counter-clockwise) turn.  The result is always the
// short way round.
func Turn(heading, bearing float64) PlusMinus180 {
	return FromFloat(bearing - heading)
}

// LiteralWrap is the wrap the first Thymio scripts used: (turn+360) mod 360, applied
// only when |turn| > 180.  It can leave results above 180 (e.g. -190 -> 170 but
// 350 -> 350).  Kept for comparison; Turn is what the controller uses.
func LiteralWrap(turn float64) float64 {
	if math.Abs(turn) > 180 {
		return math.Mod(turn+360, 360)
	}
	return turn
}

func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
