package vision

import (
	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"github.com/Celinna/mobile-robotics/pkg/pose"
)

type Localizer struct {
	detector gocv.ArucoDetector
}

// NewLocalizer looks for markers from the 4x4_50 dictionary.
func NewLocalizer() *Localizer {
	return &Localizer{
		detector: gocv.NewArucoDetectorWithParams(
			gocv.GetPredefinedDictionary(gocv.ArucoDict4x4_50),
			gocv.NewArucoDetectorParameters(),
		),
	}
}

// Locate finds the first marker in a top-down grayscale image.  ok is false if
// there isn't one.
func (l *Localizer) Locate(top gocv.Mat, mmPerPxX, mmPerPxY float64) (p pose.Pose, ok bool) {
	corners, ids, _ := l.detector.DetectMarkers(top)
	if len(ids) == 0 || len(corners) == 0 || len(corners[0]) != 4 {
		return pose.Pose{}, false
	}
	var c [4][2]float64
	for i, pt := range corners[0] {
		c[i] = [2]float64{float64(pt.X), float64(pt.Y)}
	}
	return pose.FromMarkerCorners(c, float64(top.Rows()), mmPerPxX, mmPerPxY), true
}

func (l *Localizer) Close() error {
	return l.detector.Close()
}

// MatchGoal finds template in a top-down grayscale image and returns the centre of
// the best match in map millimetres (y up).
func MatchGoal(top, template gocv.Mat, mmPerPxX, mmPerPxY float64) r2.Point {
	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(top, template, &result, gocv.TmSqdiffNormed, mask)
	// Squared difference: the best match is the minimum.
	_, _, minLoc, _ := gocv.MinMaxLoc(result)
	return goalFromMatch(minLoc.X, minLoc.Y, template.Cols(), template.Rows(), top.Rows(), mmPerPxX, mmPerPxY)
}

func goalFromMatch(x, y, w, h, imageHeight int, mmPerPxX, mmPerPxY float64) r2.Point {
	cx := float64(x) + float64(w)/2
	cy := float64(y) + float64(h)/2
	return r2.Point{
		X: cx * mmPerPxX,
		Y: (float64(imageHeight) - cy) * mmPerPxY,
	}
}
