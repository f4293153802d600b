package fusion

// State is the position of the orchestrator within a fusion cycle.
type State int32

// Cycle states, in the order a cycle moves through them.
const (
	StateIdle State = iota
	StateAdmitted
	StateInferring
	StateCalibrating
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAdmitted:
		return "admitted"
	case StateInferring:
		return "inferring"
	case StateCalibrating:
		return "calibrating"
	case StatePublished:
		return "published"
	}
	return "unknown"
}
