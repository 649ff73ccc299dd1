package models

// Match is a mutual like as listed by GET /matches
type Match struct {
	ID       CandidateID `json:"id"`
	Name     string      `json:"name"`
	Age      int         `json:"age"`
	PhotoURL *string     `json:"photo_url"`
}

// Matches is the envelope returned by GET /matches
type Matches struct {
	Matches []Match `json:"matches"`
}
