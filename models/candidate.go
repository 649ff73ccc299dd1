package models

// CandidateID identifies a profile across batches
type CandidateID int64

// Candidate is one profile available for a swipe decision
type Candidate struct {
	ID          CandidateID `json:"id"`                   // Stable identity
	Name        string      `json:"name"`                 // Display name
	Age         int         `json:"age"`                  // Age in years
	Bio         string      `json:"bio,omitempty"`        // Optional biography
	SportType   string      `json:"sport_type,omitempty"` // Primary sport
	AvgDistance float64     `json:"avg_distance,omitempty"`
	Lat         float64     `json:"lat,omitempty"`
	Lng         float64     `json:"lng,omitempty"`
	Photos      []string    `json:"photos,omitempty"`      // Photo URLs or storage keys
	DistanceKM  *float64    `json:"distance_km,omitempty"` // Distance from the viewer, when known
	Locality    string      `json:"locality,omitempty"`    // Town or area label
}

// Suggestions is the envelope returned by GET /suggestions
type Suggestions struct {
	Suggestions []Candidate `json:"suggestions"`
}
