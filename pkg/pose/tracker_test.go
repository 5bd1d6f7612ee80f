package pose

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
)

type result struct {
	pose Pose
	ok   bool
	err  error
}

type scriptedSource struct {
	lock    sync.Mutex
	results []result
}

func (s *scriptedSource) Locate() (Pose, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.results) == 0 {
		return Pose{}, false, nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.pose, r.ok, r.err
}

func TestTrackerPoll(t *testing.T) {
	src := &scriptedSource{results: []result{
		{pose: Pose{X: 100, Y: 50, Angle: 45}, ok: true},
		{ok: false},
		{err: errors.New("camera unplugged")},
		{pose: Pose{X: 120, Y: 60, Angle: 40}, ok: true},
	}}
	store := NewStore(Pose{})
	var updates []Pose
	tr := NewTracker(clock.NewMock(), time.Second, src, store, zaptest.NewLogger(t).Sugar())
	tr.OnUpdate = func(p Pose) { updates = append(updates, p) }

	test.That(t, tr.Poll(), test.ShouldBeTrue)
	test.That(t, store.Get(), test.ShouldResemble, Pose{X: 100, Y: 50, Angle: 45})

	test.That(t, tr.Poll(), test.ShouldBeFalse)
	test.That(t, store.Get(), test.ShouldResemble, Pose{X: 100, Y: 50, Angle: 45})

	test.That(t, tr.Poll(), test.ShouldBeFalse)
	test.That(t, store.Get(), test.ShouldResemble, Pose{X: 100, Y: 50, Angle: 45})

	test.That(t, tr.Poll(), test.ShouldBeTrue)
	test.That(t, store.Get(), test.ShouldResemble, Pose{X: 120, Y: 60, Angle: 40})
	test.That(t, updates, test.ShouldHaveLength, 2)
}

func TestTrackerRunsPeriodically(t *testing.T) {
	mock := clock.NewMock()
	src := &scriptedSource{results: []result{{pose: Pose{X: 7, Y: 8, Angle: 9}, ok: true}}}
	store := NewStore(Pose{})
	updated := make(chan Pose, 1)
	tr := NewTracker(mock, time.Second, src, store, zaptest.NewLogger(t).Sugar())
	tr.OnUpdate = func(p Pose) { updated <- p }
	tr.Start()
	defer tr.Stop()

	for i := 0; i < 100; i++ {
		mock.Add(time.Second)
		select {
		case p := <-updated:
			test.That(t, p, test.ShouldResemble, Pose{X: 7, Y: 8, Angle: 9})
			test.That(t, store.Get(), test.ShouldResemble, p)
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Fatal("tracker never polled")
}

type blockingSource struct {
	lock    sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSource) Locate() (Pose, bool, error) {
	s.lock.Lock()
	s.calls++
	first := s.calls == 1
	s.lock.Unlock()
	if first {
		close(s.entered)
		<-s.release
	}
	return Pose{X: 1, Y: 2}, true, nil
}

func (s *blockingSource) Calls() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls
}

func TestTrackerStopWaitsForPoll(t *testing.T) {
	mock := clock.NewMock()
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	tr := NewTracker(mock, time.Second, src, NewStore(Pose{}), zaptest.NewLogger(t).Sugar())
	tr.Start()

	func() {
		for i := 0; i < 100; i++ {
			mock.Add(time.Second)
			select {
			case <-src.entered:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		t.Fatal("tracker never polled")
	}()

	stopped := make(chan struct{})
	go func() {
		tr.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a poll was in progress")
	case <-time.After(20 * time.Millisecond):
	}
	close(src.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop never returned")
	}

	mock.Add(5 * time.Second)
	time.Sleep(10 * time.Millisecond)
	test.That(t, src.Calls(), test.ShouldEqual, 1)
}
