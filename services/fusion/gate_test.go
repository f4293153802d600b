package fusion

import (
	"sync"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestGate(t *testing.T) {
	var g Gate
	test.That(t, g.Busy(), test.ShouldBeFalse)
	test.That(t, g.TryAcquire(), test.ShouldBeTrue)
	test.That(t, g.Busy(), test.ShouldBeTrue)
	test.That(t, g.TryAcquire(), test.ShouldBeFalse)
	g.Release()
	test.That(t, g.Busy(), test.ShouldBeFalse)
	test.That(t, g.TryAcquire(), test.ShouldBeTrue)
}

func TestGateConcurrentAcquire(t *testing.T) {
	var g Gate
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire() {
				winners.Inc()
			}
		}()
	}
	close(start)
	wg.Wait()
	test.That(t, winners.Load(), test.ShouldEqual, int32(1))
}

func TestStateString(t *testing.T) {
	test.That(t, StateIdle.String(), test.ShouldEqual, "idle")
	test.That(t, StateAdmitted.String(), test.ShouldEqual, "admitted")
	test.That(t, StateInferring.String(), test.ShouldEqual, "inferring")
	test.That(t, StateCalibrating.String(), test.ShouldEqual, "calibrating")
	test.That(t, StatePublished.String(), test.ShouldEqual, "published")
	test.That(t, State(42).String(), test.ShouldEqual, "unknown")
}

func TestLatencyWindow(t *testing.T) {
	w := newLatencyWindow()
	test.That(t, w.summary(), test.ShouldResemble, LatencySummary{})

	for i := 1; i <= 3; i++ {
		w.add(secondsToDuration(float64(i) / 1000))
	}
	s := w.summary()
	test.That(t, s.Samples, test.ShouldEqual, 3)
	test.That(t, s.Mean, test.ShouldEqual, secondsToDuration(0.002))
	test.That(t, s.Max, test.ShouldEqual, secondsToDuration(0.003))
	test.That(t, s.Last, test.ShouldEqual, secondsToDuration(0.003))

	// the window keeps only the most recent samples
	for i := 0; i < latencyWindowSize; i++ {
		w.add(secondsToDuration(0.01))
	}
	s = w.summary()
	test.That(t, s.Samples, test.ShouldEqual, latencyWindowSize)
	test.That(t, s.Max, test.ShouldEqual, secondsToDuration(0.01))
	test.That(t, s.Mean, test.ShouldEqual, secondsToDuration(0.01))
}
