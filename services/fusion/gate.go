package fusion

import "go.uber.org/atomic"

// Gate admits at most one frame into the inference path at a time. Frames that arrive while it
// is held are dropped, never queued.
type Gate struct {
	busy atomic.Bool
}

// TryAcquire takes the gate and reports true only if it was free.
func (g *Gate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the gate for the next frame.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// Busy reports whether a cycle currently holds the gate.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
