package interview

// State is the orchestrator's position in the ask/listen/save cycle.
type State int

const (
	StateIdle State = iota
	StateAsking
	StateListening
	StateSaving
	StateScoring
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAsking:
		return "asking"
	case StateListening:
		return "listening"
	case StateSaving:
		return "saving"
	case StateScoring:
		return "scoring"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Decision is the interactive answer to a failed or empty capture.
type Decision int

const (
	// Retry re-enters listening for the same question.
	Retry Decision = iota
	// Skip substitutes the fallback answer and advances.
	Skip
	// Abort ends the whole interview.
	Abort
)
