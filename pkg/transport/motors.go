package transport

import (
	"go.uber.org/multierr"

	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
)

// Motors writes wheel targets directly, with no regard for who else is driving.
type Motors struct {
	T Interface
}

// Move sets the left then the right wheel target.  Both writes are always attempted.
func (m Motors) Move(left, right int) error {
	return multierr.Combine(
		m.T.SetVar(LeftTarget, motionmodel.EncodeSpeed(left)),
		m.T.SetVar(RightTarget, motionmodel.EncodeSpeed(right)),
	)
}

func (m Motors) Stop() error {
	return m.Move(0, 0)
}
