package vision

import (
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/Celinna/mobile-robotics/pkg/pose"
)

// Camera is a pose.Source backed by a webcam looking down on the map.
type Camera struct {
	lock      sync.Mutex
	capture   *gocv.VideoCapture
	unwarper  *Unwarper
	localizer *Localizer
}

func OpenCamera(device int, unwarper *Unwarper) (*Camera, error) {
	capture, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening video capture device %d", device)
	}
	return &Camera{
		capture:   capture,
		unwarper:  unwarper,
		localizer: NewLocalizer(),
	}, nil
}

var _ pose.Source = (*Camera)(nil)

// topDown grabs a frame and returns it unwarped and in grayscale.
func (c *Camera) topDown() (gocv.Mat, error) {
	img := gocv.NewMat()
	defer img.Close()
	if ok := c.capture.Read(&img); !ok || img.Empty() {
		return gocv.Mat{}, errors.New("cannot read picture from camera")
	}
	warped := c.unwarper.Unwarp(img)
	defer warped.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(warped, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

func (c *Camera) Locate() (pose.Pose, bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	gray, err := c.topDown()
	if err != nil {
		return pose.Pose{}, false, err
	}
	defer gray.Close()
	sx, sy := c.unwarper.MMPerPixel()
	p, ok := c.localizer.Locate(gray, sx, sy)
	return p, ok, nil
}

// FindGoal matches the template image file against the current frame.
func (c *Camera) FindGoal(templatePath string) (r2.Point, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	template := gocv.IMRead(templatePath, gocv.IMReadGrayScale)
	defer template.Close()
	if template.Empty() {
		return r2.Point{}, errors.Errorf("failed to read goal template %s", templatePath)
	}
	gray, err := c.topDown()
	if err != nil {
		return r2.Point{}, err
	}
	defer gray.Close()
	sx, sy := c.unwarper.MMPerPixel()
	return MatchGoal(gray, template, sx, sy), nil
}

func (c *Camera) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return multierr.Combine(c.capture.Close(), c.localizer.Close(), c.unwarper.Close())
}
