// Package sim is an in-memory stand-in for a Thymio.  It records every variable
// write, reports wheel speeds equal to the last targets and serves proximity frames
// from a script.
package sim

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
	"github.com/Celinna/mobile-robotics/pkg/transport"
)

// Write is one recorded SetVar call.
type Write struct {
	Time  time.Time
	Name  string
	Value uint16
}

type Thymio struct {
	clock  clock.Clock
	logger *zap.SugaredLogger

	lock     sync.Mutex
	vars     map[string]int
	writes   []Write
	prox     []int
	script   [][]int
	proxFunc func() []int
	errs     map[string]error
	proxRead int
}

func New(clk clock.Clock, logger *zap.SugaredLogger) *Thymio {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Thymio{
		clock:  clk,
		logger: logger,
		vars:   map[string]int{},
		prox:   make([]int, transport.NumProxHorizontal),
		errs:   map[string]error{},
	}
}

var _ transport.Interface = (*Thymio)(nil)

func (s *Thymio) SetVar(name string, value uint16) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.errs[name]; err != nil {
		return err
	}
	s.logger.Debugw("sim: set", "name", name, "value", value)
	s.vars[name] = int(value)
	s.writes = append(s.writes, Write{Time: s.clock.Now(), Name: name, Value: value})
	return nil
}

func (s *Thymio) GetVar(name string) (transport.Reading, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.errs[name]; err != nil {
		return transport.Reading{}, err
	}
	r := transport.Reading{CaptureTime: s.clock.Now()}
	switch name {
	case transport.ProxHorizontal:
		r.Values = s.nextProxLocked()
	case transport.LeftSpeed:
		r.Values = []int{s.vars[transport.LeftTarget]}
	case transport.RightSpeed:
		r.Values = []int{s.vars[transport.RightTarget]}
	default:
		v, ok := s.vars[name]
		if !ok {
			return transport.Reading{}, errors.Errorf("sim: unknown variable %q", name)
		}
		r.Values = []int{v}
	}
	return r, nil
}

func (s *Thymio) nextProxLocked() []int {
	s.proxRead++
	if s.proxFunc != nil {
		return append([]int(nil), s.proxFunc()...)
	}
	if len(s.script) > 0 {
		s.prox = s.script[0]
		s.script = s.script[1:]
	}
	return append([]int(nil), s.prox...)
}

// SetProx sets the frame returned by every proximity read once the script runs out.
func (s *Thymio) SetProx(frame []int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.prox = append([]int(nil), frame...)
}

// Script queues frames to be returned by successive proximity reads.  The last frame
// served stays in place afterwards.
func (s *Thymio) Script(frames ...[]int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.script = append(s.script, frames...)
}

// SetProxFunc overrides the script; f is called on every proximity read.
func (s *Thymio) SetProxFunc(f func() []int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.proxFunc = f
}

// ProxReads returns how many proximity reads have been served.
func (s *Thymio) ProxReads() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.proxRead
}

// Fail makes reads and writes of the named variable return err; nil clears it.
func (s *Thymio) Fail(name string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err == nil {
		delete(s.errs, name)
		return
	}
	s.errs[name] = err
}

func (s *Thymio) Writes() []Write {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Write(nil), s.writes...)
}

func (s *Thymio) ResetWrites() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.writes = nil
}

// Commands pairs up left/right target writes into decoded motor commands, in the
// order they were issued.
func (s *Thymio) Commands() []motionmodel.Command {
	var cmds []motionmodel.Command
	var left *int
	for _, w := range s.Writes() {
		v := motionmodel.DecodeSpeed(int(w.Value))
		switch w.Name {
		case transport.LeftTarget:
			left = &v
		case transport.RightTarget:
			if left == nil {
				continue
			}
			cmds = append(cmds, motionmodel.Command{Left: *left, Right: v})
			left = nil
		}
	}
	return cmds
}

// Motors returns the current (decoded) wheel targets.
func (s *Thymio) Motors() motionmodel.Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return motionmodel.Command{
		Left:  motionmodel.DecodeSpeed(s.vars[transport.LeftTarget]),
		Right: motionmodel.DecodeSpeed(s.vars[transport.RightTarget]),
	}
}
