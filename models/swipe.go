package models

// Decision is a like or dislike issued against a candidate
type Decision string

// DecisionFor maps the liked flag onto a Decision
func DecisionFor(liked bool) Decision {
	if liked {
		return DecisionLike
	}
	return DecisionDislike
}

// Liked reports whether the decision is a like
func (d Decision) Liked() bool {
	return d == DecisionLike
}

// SwipeResult is the backend acknowledgement for a recorded decision
type SwipeResult struct {
	Status      string `json:"status"`                 // success
	Message     string `json:"message,omitempty"`      // Human readable outcome
	Match       bool   `json:"match"`                  // True when both parties liked each other
	MatchedName string `json:"matched_name,omitempty"` // Display name of the matched candidate, optional
}
