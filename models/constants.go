package models

// Decision types sent to the backend's swipe endpoint
const (
	DecisionLike    Decision = "like"
	DecisionDislike Decision = "dislike"
)

// Swipe statuses reported by the backend
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SuggestionRadiusKM is the search radius the backend applies to suggestions
const SuggestionRadiusKM = 250.0

// MaxSuggestions caps the number of candidates returned in a single batch
const MaxSuggestions = 200
