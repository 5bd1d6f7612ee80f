// Package trace records where the robot went during a run and draws it as a map.
package trace

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/Celinna/mobile-robotics/pkg/pose"
)

type Kind int

const (
	MoveStarted Kind = iota
	TargetReached
	AvoidanceStarted
	AvoidanceFinished
	Localized
)

type Event struct {
	Time   time.Time
	Kind   Kind
	Pose   pose.Pose
	Target r2.Point
	Err    error
}

// Recorder is a robot observer.  Avoidance events are placed at the last known pose.
type Recorder struct {
	clock clock.Clock

	lock   sync.Mutex
	last   pose.Pose
	events []Event
}

func NewRecorder(clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{clock: clk}
}

func (r *Recorder) add(e Event) {
	r.lock.Lock()
	defer r.lock.Unlock()
	e.Time = r.clock.Now()
	if e.Kind == AvoidanceStarted || e.Kind == AvoidanceFinished {
		e.Pose = r.last
	} else {
		r.last = e.Pose
	}
	r.events = append(r.events, e)
}

func (r *Recorder) MoveStarted(from pose.Pose, to r2.Point) {
	r.add(Event{Kind: MoveStarted, Pose: from, Target: to})
}

func (r *Recorder) TargetReached(p pose.Pose) {
	r.add(Event{Kind: TargetReached, Pose: p})
}

func (r *Recorder) AvoidanceStarted([]int) {
	r.add(Event{Kind: AvoidanceStarted})
}

func (r *Recorder) AvoidanceFinished(err error) {
	r.add(Event{Kind: AvoidanceFinished, Err: err})
}

// Localized can be hooked up to a pose.Tracker's OnUpdate.
func (r *Recorder) Localized(p pose.Pose) {
	r.add(Event{Kind: Localized, Pose: p})
}

func (r *Recorder) Events() []Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Event(nil), r.events...)
}

// Draw renders the run onto a map of the given size, at pxPerMM.
func (r *Recorder) Draw(widthMM, heightMM, pxPerMM float64) *gg.Context {
	events := r.Events()
	w, h := int(widthMM*pxPerMM), int(heightMM*pxPerMM)
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Map coordinates have y up.
	dc.Translate(0, float64(h))
	dc.Scale(pxPerMM, -pxPerMM)

	dc.SetLineWidth(2 / pxPerMM)
	for _, e := range events {
		switch e.Kind {
		case MoveStarted:
			dc.SetRGBA(0, 0, 1, 0.6)
			dc.DrawLine(e.Pose.X, e.Pose.Y, e.Target.X, e.Target.Y)
			dc.Stroke()
		case TargetReached:
			dc.SetRGB(0, 0.7, 0)
			dc.DrawCircle(e.Pose.X, e.Pose.Y, 15)
			dc.Fill()
		case Localized:
			dc.SetRGBA(0.3, 0.3, 0.3, 0.8)
			dc.DrawCircle(e.Pose.X, e.Pose.Y, 5)
			dc.Fill()
		case AvoidanceStarted:
			dc.Push()
			dc.Translate(e.Pose.X, e.Pose.Y)
			drawWarning(dc)
			dc.Pop()
		}
	}
	return dc
}

// Render draws the run and saves it as a PNG.
func (r *Recorder) Render(path string, widthMM, heightMM, pxPerMM float64) error {
	return errors.Wrapf(r.Draw(widthMM, heightMM, pxPerMM).SavePNG(path), "failed to save trace to %s", path)
}

func drawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 25, 0)
	dc.Fill()
}
