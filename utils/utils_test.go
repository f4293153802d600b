package utils

import (
	"context"
	"math"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, Clamp(5, 0, 10), test.ShouldEqual, 5.0)
	test.That(t, Clamp(-1, 0, 10), test.ShouldEqual, 0.0)
	test.That(t, Clamp(11, 0, 10), test.ShouldEqual, 10.0)
	// Reversed bounds are tolerated.
	test.That(t, Clamp(11, 10, 0), test.ShouldEqual, 10.0)

	test.That(t, ClampInt(-3, 0, 640), test.ShouldEqual, 0)
	test.That(t, ClampInt(700, 0, 640), test.ShouldEqual, 640)
	test.That(t, ClampInt(320, 0, 640), test.ShouldEqual, 320)
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(1.5), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
}

func TestStoppableWorkers(t *testing.T) {
	var ran atomic.Int32
	blocking := func(ctx context.Context) {
		<-ctx.Done()
		ran.Inc()
	}
	workers := NewStoppableWorkers(blocking, blocking)
	test.That(t, workers.AddWorkers(blocking), test.ShouldBeTrue)
	test.That(t, workers.Context().Err(), test.ShouldBeNil)

	workers.Stop()
	test.That(t, ran.Load(), test.ShouldEqual, int32(3))
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	// Nothing starts after Stop.
	test.That(t, workers.AddWorkers(blocking), test.ShouldBeFalse)
	test.That(t, ran.Load(), test.ShouldEqual, int32(3))
}
