// Package tunable holds integer settings that can be adjusted while the robot runs.
package tunable

import (
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

type Tunable struct {
	Name string
	// Inclusive bounds; Min == Max means unbounded.
	Min, Max int64

	value  int64
	logger *zap.SugaredLogger
}

func (t *Tunable) Add(delta int) {
	for {
		old := atomic.LoadInt64(&t.value)
		newV := t.clamp(old + int64(delta))
		if atomic.CompareAndSwapInt64(&t.value, old, newV) {
			t.logger.Infow("tunable", "name", t.Name, "value", newV)
			return
		}
	}
}

func (t *Tunable) Set(v int) {
	newV := t.clamp(int64(v))
	atomic.StoreInt64(&t.value, newV)
	t.logger.Infow("tunable", "name", t.Name, "value", newV)
}

func (t *Tunable) Get() int {
	return int(atomic.LoadInt64(&t.value))
}

func (t *Tunable) clamp(v int64) int64 {
	if t.Min == t.Max {
		return v
	}
	return clamp(v, t.Min, t.Max)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type Tunables struct {
	All      []*Tunable
	selected int
	logger   *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Tunables {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Tunables{logger: logger}
}

// Create adds a tunable bounded to [min, max].
func (t *Tunables) Create(name string, value, min, max int) *Tunable {
	if t.logger == nil {
		t.logger = zap.NewNop().Sugar()
	}
	newTunable := &Tunable{
		Name:   name,
		Min:    int64(min),
		Max:    int64(max),
		logger: t.logger,
	}
	newTunable.value = newTunable.clamp(int64(value))
	t.All = append(t.All, newTunable)
	return newTunable
}

func (t *Tunables) Lookup(name string) *Tunable {
	for _, tun := range t.All {
		if tun.Name == name {
			return tun
		}
	}
	return nil
}

func (t *Tunables) SelectNext() {
	t.selected++
	if t.selected >= len(t.All) {
		t.selected = 0
	}
	t.logger.Infow("tunable selected", "name", t.Current().Name, "value", t.Current().Get())
}

func (t *Tunables) SelectPrev() {
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.All) - 1
	}
	t.logger.Infow("tunable selected", "name", t.Current().Name, "value", t.Current().Get())
}

func (t *Tunables) Current() *Tunable {
	return t.All[t.selected]
}
