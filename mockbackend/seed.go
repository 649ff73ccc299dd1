package mockbackend

import (
	"fmt"

	"sportmatch/models"
)

// DemoPassword is the password of every seeded account
const DemoPassword = "Sportief123!"

// Seed fills s with a small demo community around Amsterdam. The first user,
// "demo", has already been liked by Sofia so liking her back yields a match.
func Seed(s *Store) error {
	photo := "https://images.example.com/sofia.jpg"
	users := []User{
		{Username: "demo", Candidate: models.Candidate{Name: "Demo", Age: 30, SportType: "running", AvgDistance: 10, Lat: 52.3676, Lng: 4.9041, Locality: "Amsterdam"}},
		{Username: "sofia", PhotoURL: &photo, Candidate: models.Candidate{Name: "Sofia", Age: 28, Bio: "Trail runs on Sunday morning", SportType: "running", AvgDistance: 12, Lat: 52.3792, Lng: 4.9003, Locality: "Amsterdam", Photos: []string{photo}}},
		{Username: "bram", Candidate: models.Candidate{Name: "Bram", Age: 34, Bio: "Looking for a cycling buddy", SportType: "cycling", AvgDistance: 60, Lat: 52.0907, Lng: 5.1214, Locality: "Utrecht", Photos: []string{"profiles/bram/1.jpg"}}},
		{Username: "chloe", Candidate: models.Candidate{Name: "Chloe", Age: 25, SportType: "tennis", AvgDistance: 0, Lat: 52.1601, Lng: 4.4970, Locality: "Leiden"}},
		{Username: "daan", Candidate: models.Candidate{Name: "Daan", Age: 41, Bio: "Marathon in April", SportType: "running", AvgDistance: 35, Lat: 51.9244, Lng: 4.4777, Locality: "Rotterdam"}},
		{Username: "lena", Candidate: models.Candidate{Name: "Lena", Age: 33, SportType: "swimming", AvgDistance: 3, Lat: 48.8566, Lng: 2.3522, Locality: "Paris"}},
	}

	ids := make(map[string]models.CandidateID, len(users))
	for _, u := range users {
		id, err := s.AddUser(u, DemoPassword)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", u.Username, err)
		}
		ids[u.Username] = id
	}

	if _, err := s.Swipe(ids["sofia"], ids["demo"], true); err != nil {
		return fmt.Errorf("failed to seed swipe: %w", err)
	}
	return nil
}
