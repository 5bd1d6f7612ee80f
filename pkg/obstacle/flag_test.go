package obstacle

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestFlagWaitBlocksUntilCleared(t *testing.T) {
	f := NewFlag()
	test.That(t, f.Active(), test.ShouldBeFalse)
	test.That(t, f.Wait(context.Background()), test.ShouldBeNil)

	f.Raise(2)
	test.That(t, f.Active(), test.ShouldBeTrue)

	done := make(chan error, 1)
	go func() { done <- f.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while the flag was raised")
	case <-time.After(20 * time.Millisecond):
	}

	f.Clear()
	select {
	case err := <-done:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(time.Second):
		t.Fatal("Wait didn't return after Clear")
	}
}

func TestFlagWaitHonoursContext(t *testing.T) {
	f := NewFlag()
	f.Raise(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, f.Wait(ctx), test.ShouldEqual, context.Canceled)
	test.That(t, f.Hold(ctx, func() error { return nil }), test.ShouldEqual, context.Canceled)
}

func TestFlagSkips(t *testing.T) {
	f := NewFlag()
	test.That(t, f.ConsumeSkip(), test.ShouldBeFalse)
	f.Raise(2)
	f.Clear()
	test.That(t, f.ConsumeSkip(), test.ShouldBeTrue)
	test.That(t, f.ConsumeSkip(), test.ShouldBeTrue)
	test.That(t, f.ConsumeSkip(), test.ShouldBeFalse)
}

func TestFlagHoldWaitsForClear(t *testing.T) {
	f := NewFlag()
	f.Raise(0)

	ran := make(chan struct{})
	go func() {
		_ = f.Hold(context.Background(), func() error {
			close(ran)
			return nil
		})
	}()

	select {
	case <-ran:
		t.Fatal("Hold ran while the flag was raised")
	case <-time.After(20 * time.Millisecond):
	}
	f.Clear()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("Hold never ran")
	}
}

func TestFlagRaiseWaitsForHold(t *testing.T) {
	f := NewFlag()
	inHold := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.Hold(context.Background(), func() error {
			close(inHold)
			<-release
			return nil
		})
	}()
	<-inHold

	raised := make(chan struct{})
	go func() {
		f.Raise(1)
		close(raised)
	}()
	select {
	case <-raised:
		t.Fatal("Raise didn't wait for the foreground write")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-raised
	test.That(t, f.Active(), test.ShouldBeTrue)
}
