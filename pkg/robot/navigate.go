package robot

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Attempts at each waypoint before giving up on it.
const maxAttempts = 3

// Navigate visits each target in turn.  After an avoidance the robot no longer knows
// where it is, so it asks relocalise to update the pose (it returns false if it
// couldn't) and tries the same target again.  Returns nil on shutdown.
func (r *Robot) Navigate(ctx context.Context, targets []r2.Point, relocalise func() bool) error {
	for i, target := range targets {
		for attempt := 1; ; attempt++ {
			if ctx.Err() != nil {
				return nil
			}
			outcome, err := r.MoveToTarget(ctx, target)
			if err != nil {
				if ctx.Err() != nil {
					r.logger.Info("shut down mid-move")
					return nil
				}
				return errors.Wrapf(err, "failed to move to waypoint %d", i)
			}
			r.logger.Infow("waypoint", "index", i, "target", target, "outcome", outcome, "pose", r.Position())
			if outcome != Interrupted {
				break
			}
			if relocalise == nil || !relocalise() {
				r.logger.Warnw("couldn't relocalise after avoidance", "pose", r.Position())
			}
			if attempt >= maxAttempts {
				r.logger.Warnw("giving up on waypoint", "index", i, "attempts", attempt)
				break
			}
		}
	}
	r.logger.Info("all waypoints done")
	return nil
}
