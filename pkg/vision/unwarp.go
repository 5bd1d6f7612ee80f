// Package vision localises the robot from an overhead camera: the map is unwarped
// to a top-down view, the robot's ArUco marker gives its pose and the goal is found
// by template matching.
package vision

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Unwarper maps the quadrilateral the map occupies in the camera image to a
// rectangular top-down image.
type Unwarper struct {
	transform gocv.Mat
	size      image.Point
	mmPerPxX  float64
	mmPerPxY  float64
}

// NewUnwarper takes the map corners in camera pixels (top-left, top-right,
// bottom-right, bottom-left), the size of the top-down image to produce and the
// real size of the map.
func NewUnwarper(corners [4][2]float64, widthPx, heightPx int, widthMM, heightMM float64) (*Unwarper, error) {
	if widthPx <= 0 || heightPx <= 0 || widthMM <= 0 || heightMM <= 0 {
		return nil, errors.Errorf("bad map size %dx%dpx, %.0fx%.0fmm", widthPx, heightPx, widthMM, heightMM)
	}
	var src []gocv.Point2f
	for _, c := range corners {
		src = append(src, gocv.Point2f{X: float32(c[0]), Y: float32(c[1])})
	}
	w, h := float32(widthPx-1), float32(heightPx-1)
	dst := []gocv.Point2f{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}

	srcV := gocv.NewPoint2fVectorFromPoints(src)
	defer srcV.Close()
	dstV := gocv.NewPoint2fVectorFromPoints(dst)
	defer dstV.Close()

	return &Unwarper{
		transform: gocv.GetPerspectiveTransform2f(srcV, dstV),
		size:      image.Point{X: widthPx, Y: heightPx},
		mmPerPxX:  widthMM / float64(widthPx),
		mmPerPxY:  heightMM / float64(heightPx),
	}, nil
}

// Unwarp returns a new top-down image; the caller must close it.
func (u *Unwarper) Unwarp(img gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.WarpPerspective(img, &out, u.transform, u.size)
	return out
}

func (u *Unwarper) Size() image.Point {
	return u.size
}

// MMPerPixel is the scale of the top-down image.
func (u *Unwarper) MMPerPixel() (x, y float64) {
	return u.mmPerPxX, u.mmPerPxY
}

func (u *Unwarper) Close() error {
	return u.transform.Close()
}
