package mockbackend

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sportmatch/models"
	"sportmatch/utils"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSelfAction         = errors.New("cannot act on own profile")
)

// User is a backend account. The embedded Candidate is what other users see.
type User struct {
	models.Candidate
	Username     string
	PasswordHash []byte
	PhotoURL     *string

	PreferredSport string
	MinAge         int
	MaxAge         int
}

// Report is a complaint filed by one user about another
type Report struct {
	Reporter models.CandidateID
	Reported models.CandidateID
	Reason   string
	At       time.Time
}

type pairKey struct {
	from models.CandidateID
	to   models.CandidateID
}

// Store keeps users, swipes and blocks in memory
type Store struct {
	// HashCost is the bcrypt cost used by AddUser
	HashCost int

	mu      sync.Mutex
	users   map[models.CandidateID]*User
	byName  map[string]models.CandidateID
	swipes  map[pairKey]bool
	blocks  map[pairKey]struct{}
	reports []Report
	faults  map[string][]int
	nextID  models.CandidateID
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		HashCost: bcrypt.DefaultCost,
		users:    make(map[models.CandidateID]*User),
		byName:   make(map[string]models.CandidateID),
		swipes:   make(map[pairKey]bool),
		blocks:   make(map[pairKey]struct{}),
		faults:   make(map[string][]int),
		nextID:   1,
	}
}

// AddUser hashes password and stores u under a fresh id
func (s *Store) AddUser(u User, password string) (models.CandidateID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[u.Username]; ok {
		return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Username)
	}
	u.ID = s.nextID
	s.nextID++
	u.PasswordHash = hash
	s.users[u.ID] = &u
	s.byName[u.Username] = u.ID
	return u.ID, nil
}

// Authenticate checks the password of username
func (s *Store) Authenticate(username, password string) (User, error) {
	s.mu.Lock()
	id, ok := s.byName[username]
	var u User
	if ok {
		u = *s.users[id]
	}
	s.mu.Unlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UserByName returns a copy of the user called username
func (s *Store) UserByName(username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return *s.users[id], nil
}

// SetPreferences updates the discovery filters of a user. Zero values disable
// a filter.
func (s *Store) SetPreferences(id models.CandidateID, sport string, minAge, maxAge int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	u.PreferredSport = sport
	u.MinAge = minAge
	u.MaxAge = maxAge
	return nil
}

// Block hides both users from each other's suggestions. Blocking twice is not
// an error; the returned bool reports whether the block is new.
func (s *Store) Block(blocker, blocked models.CandidateID) (bool, error) {
	if blocker == blocked {
		return false, ErrSelfAction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[blocked]; !ok {
		return false, fmt.Errorf("%w: %d", ErrUserNotFound, blocked)
	}
	key := pairKey{from: blocker, to: blocked}
	if _, ok := s.blocks[key]; ok {
		return false, nil
	}
	s.blocks[key] = struct{}{}
	return true, nil
}

// Report files a complaint by reporter about reported. Reports do not affect
// suggestions.
func (s *Store) Report(reporter, reported models.CandidateID, reason string) error {
	if reporter == reported {
		return ErrSelfAction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[reported]; !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, reported)
	}
	s.reports = append(s.reports, Report{Reporter: reporter, Reported: reported, Reason: reason, At: time.Now().UTC()})
	return nil
}

// Reports returns every report filed against reported
func (s *Store) Reports(reported models.CandidateID) []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Report
	for _, r := range s.reports {
		if r.Reported == reported {
			out = append(out, r)
		}
	}
	return out
}

// Suggestions lists the users id has not swiped on yet, nearest first.
// Blocked users in either direction and users outside the preferences are
// left out, as are users further than models.SuggestionRadiusKM.
func (s *Store) Suggestions(id models.CandidateID) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}

	suggestions := []models.Candidate{}
	for otherID, other := range s.users {
		if otherID == id || s.blockedLocked(id, otherID) {
			continue
		}
		if _, swiped := s.swipes[pairKey{from: id, to: otherID}]; swiped {
			continue
		}
		if me.PreferredSport != "" && other.SportType != me.PreferredSport {
			continue
		}
		if me.MinAge > 0 && other.Age < me.MinAge {
			continue
		}
		if me.MaxAge > 0 && other.Age > me.MaxAge {
			continue
		}

		distance := utils.CalculateDistance(me.Lat, me.Lng, other.Lat, other.Lng)
		if distance > models.SuggestionRadiusKM {
			continue
		}
		c := other.Candidate
		c.Photos = append([]string(nil), other.Photos...)
		rounded := utils.RoundTo(distance, 2)
		c.DistanceKM = &rounded
		suggestions = append(suggestions, c)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if *suggestions[i].DistanceKM == *suggestions[j].DistanceKM {
			return suggestions[i].ID < suggestions[j].ID
		}
		return *suggestions[i].DistanceKM < *suggestions[j].DistanceKM
	})
	if len(suggestions) > models.MaxSuggestions {
		suggestions = suggestions[:models.MaxSuggestions]
	}
	return suggestions, nil
}

// Swipe records (or overwrites) the decision of swiper on swipee. A like is a
// match when swipee already liked swiper.
func (s *Store) Swipe(swiper, swipee models.CandidateID, liked bool) (*models.SwipeResult, error) {
	if swiper == swipee {
		return nil, ErrSelfAction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	other, ok := s.users[swipee]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, swipee)
	}
	s.swipes[pairKey{from: swiper, to: swipee}] = liked

	result := &models.SwipeResult{Status: models.StatusSuccess, Message: msgSwipeRecorded}
	if liked && s.swipes[pairKey{from: swipee, to: swiper}] {
		result.Match = true
		result.Message = msgMatch
		result.MatchedName = other.Name
	}
	return result, nil
}

// Matches lists the users that id liked and that liked id back, ordered by id
func (s *Store) Matches(id models.CandidateID) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}

	matches := []models.Match{}
	for key, liked := range s.swipes {
		if key.from != id || !liked || !s.swipes[pairKey{from: key.to, to: id}] {
			continue
		}
		other := s.users[key.to]
		matches = append(matches, models.Match{
			ID:       other.ID,
			Name:     other.Name,
			Age:      other.Age,
			PhotoURL: other.PhotoURL,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

// FailNext makes the next request for path fail with status. Calls queue up.
func (s *Store) FailNext(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], status)
}

func (s *Store) takeFault(path string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.faults[path]
	if len(queue) == 0 {
		return 0, false
	}
	s.faults[path] = queue[1:]
	return queue[0], true
}

func (s *Store) blockedLocked(a, b models.CandidateID) bool {
	if _, ok := s.blocks[pairKey{from: a, to: b}]; ok {
		return true
	}
	_, ok := s.blocks[pairKey{from: b, to: a}]
	return ok
}
