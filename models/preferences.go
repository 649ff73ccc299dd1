package models

// Preferences are the discovery filters applied by GET /suggestions.
// A nil field disables that filter.
type Preferences struct {
	PreferredSportType *string `json:"preferred_sport_type"`
	PreferredMinAge    *int    `json:"preferred_min_age"` // Exclusive bounds 0 and 100
	PreferredMaxAge    *int    `json:"preferred_max_age"`
}

// ReportRequest is the body of POST /report_user
type ReportRequest struct {
	ReportedID CandidateID `json:"reported_id"`
	Reason     string      `json:"reason"`
}

// StatusMessage is the acknowledgement returned by the preference and
// moderation endpoints
type StatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
