package mockbackend

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sportmatch/models"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.HashCost = bcrypt.MinCost
	require.NoError(t, Seed(s))
	return s
}

func mustUser(t *testing.T, s *Store, name string) User {
	t.Helper()
	u, err := s.UserByName(name)
	require.NoError(t, err)
	return u
}

func candidateNames(cs []models.Candidate) []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return names
}

func TestAuthenticate(t *testing.T) {
	s := newSeededStore(t)

	u, err := s.Authenticate("demo", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "Demo", u.Name)
	assert.NotEqual(t, DemoPassword, string(u.PasswordHash))

	_, err = s.Authenticate("demo", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("nobody", DemoPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.AddUser(User{Username: "demo"}, "x")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestSuggestionsNearestFirst(t *testing.T) {
	s := newSeededStore(t)
	demo := mustUser(t, s, "demo")

	suggestions, err := s.Suggestions(demo.ID)
	require.NoError(t, err)

	// Lena lives in Paris, outside the search radius.
	assert.Equal(t, []string{"Sofia", "Bram", "Chloe", "Daan"}, candidateNames(suggestions))
	for _, c := range suggestions {
		require.NotNil(t, c.DistanceKM)
		assert.LessOrEqual(t, *c.DistanceKM, models.SuggestionRadiusKM)
		assert.InDelta(t, math.Round(*c.DistanceKM*100), *c.DistanceKM*100, 1e-6, "distance rounded to 2 decimals")
	}
}

func TestSuggestionsFilters(t *testing.T) {
	s := newSeededStore(t)
	demo := mustUser(t, s, "demo")
	bram := mustUser(t, s, "bram")
	chloe := mustUser(t, s, "chloe")
	daan := mustUser(t, s, "daan")

	_, err := s.Swipe(demo.ID, bram.ID, false)
	require.NoError(t, err)
	_, err = s.Block(chloe.ID, demo.ID)
	require.NoError(t, err)

	suggestions, err := s.Suggestions(demo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sofia", "Daan"}, candidateNames(suggestions), "swiped and blocked users are hidden")

	require.NoError(t, s.SetPreferences(demo.ID, "running", 35, 50))
	suggestions, err = s.Suggestions(demo.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, daan.ID, suggestions[0].ID)

	_, err = s.Suggestions(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSuggestionsCapped(t *testing.T) {
	s := NewStore()
	s.HashCost = bcrypt.MinCost
	viewer, err := s.AddUser(User{Username: "viewer", Candidate: models.Candidate{Name: "Viewer", Lat: 52.37, Lng: 4.90}}, "pw")
	require.NoError(t, err)
	for i := 0; i < models.MaxSuggestions+5; i++ {
		_, err := s.AddUser(User{
			Username:  fmt.Sprintf("user%d", i),
			Candidate: models.Candidate{Name: fmt.Sprintf("User %d", i), Lat: 52.37 + float64(i)/1000, Lng: 4.90},
		}, "pw")
		require.NoError(t, err)
	}

	suggestions, err := s.Suggestions(viewer)
	require.NoError(t, err)
	require.Len(t, suggestions, models.MaxSuggestions)
	assert.Equal(t, "User 0", suggestions[0].Name)
}

func TestSwipe(t *testing.T) {
	s := newSeededStore(t)
	demo := mustUser(t, s, "demo")
	sofia := mustUser(t, s, "sofia")
	bram := mustUser(t, s, "bram")

	result, err := s.Swipe(demo.ID, bram.ID, true)
	require.NoError(t, err)
	assert.Equal(t, &models.SwipeResult{Status: models.StatusSuccess, Message: msgSwipeRecorded}, result)

	result, err = s.Swipe(demo.ID, sofia.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, msgMatch, result.Message)
	assert.Equal(t, "Sofia", result.MatchedName)

	_, err = s.Swipe(demo.ID, demo.ID, true)
	assert.ErrorIs(t, err, ErrSelfAction)
	_, err = s.Swipe(demo.ID, 999, true)
	assert.ErrorIs(t, err, ErrUserNotFound)

	matches, err := s.Matches(demo.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, sofia.ID, matches[0].ID)
	require.NotNil(t, matches[0].PhotoURL)

	// Overwriting the like with a dislike removes the match.
	_, err = s.Swipe(demo.ID, sofia.ID, false)
	require.NoError(t, err)
	matches, err = s.Matches(demo.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBlock(t *testing.T) {
	s := newSeededStore(t)
	demo := mustUser(t, s, "demo")
	bram := mustUser(t, s, "bram")

	created, err := s.Block(demo.ID, bram.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Block(demo.ID, bram.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.Block(demo.ID, demo.ID)
	assert.ErrorIs(t, err, ErrSelfAction)
}

func TestFailNextQueues(t *testing.T) {
	s := NewStore()
	s.FailNext("/suggestions", 503)
	s.FailNext("/suggestions", 401)

	status, ok := s.takeFault("/suggestions")
	assert.True(t, ok)
	assert.Equal(t, 503, status)
	status, ok = s.takeFault("/suggestions")
	assert.True(t, ok)
	assert.Equal(t, 401, status)
	_, ok = s.takeFault("/suggestions")
	assert.False(t, ok)
}
