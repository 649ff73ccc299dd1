package discovery

import "sportmatch/models"

// Phase is the state of a session, derived from its batch, cursor, busy flag
// and last error
type Phase int

const (
	// PhaseEmpty: no candidates, either before the first fetch or after a
	// fetch returned none.
	PhaseEmpty Phase = iota
	// PhaseReady: a current candidate is waiting for a decision.
	PhaseReady
	// PhaseBusy: a refill or decision is in flight.
	PhaseBusy
	// PhaseExhausted: every candidate of a non-empty batch was decided.
	PhaseExhausted
	// PhaseErrored: the last operation failed. Not terminal.
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "Empty"
	case PhaseReady:
		return "Ready"
	case PhaseBusy:
		return "Busy"
	case PhaseExhausted:
		return "Exhausted"
	case PhaseErrored:
		return "Errored"
	}
	return "Unknown"
}

// transitions lists the allowed phase changes. Reset and DismissError may move
// any phase back to a resting phase and are listed explicitly.
var transitions = map[Phase][]Phase{
	PhaseEmpty:     {PhaseBusy},
	PhaseReady:     {PhaseBusy, PhaseEmpty},
	PhaseExhausted: {PhaseBusy, PhaseEmpty},
	PhaseErrored:   {PhaseBusy, PhaseEmpty, PhaseReady, PhaseExhausted},
	PhaseBusy:      {PhaseEmpty, PhaseReady, PhaseExhausted, PhaseErrored},
}

// Allowed reports whether a session may move from one phase to another.
// Staying in the same phase is always allowed.
func Allowed(from, to Phase) bool {
	if from == to {
		return true
	}
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// State is a snapshot of a session for the presentation layer
type State struct {
	Phase       Phase
	Current     *models.Candidate // nil when there is no candidate to decide on
	Cursor      int
	BatchSize   int
	Remaining   int  // Candidates left including Current
	Busy        bool // An operation is in flight
	Exhausted   bool // A non-empty batch was fully decided, call Refill
	Loaded      bool // At least one fetch succeeded
	Err         string
	Invalidated bool // Credential rejected, re-authentication required
	Closed      bool
}

func derivePhase(batchLen, cursor int, busy bool, lastError string) Phase {
	switch {
	case busy:
		return PhaseBusy
	case lastError != "":
		return PhaseErrored
	case cursor < batchLen:
		return PhaseReady
	case batchLen > 0:
		return PhaseExhausted
	}
	return PhaseEmpty
}
