package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sportmatch/models"
)

// ErrUserIDRequired is returned by PreferencesService.Update when the own
// account id is unknown
var ErrUserIDRequired = errors.New("own user id is not configured")

// PreferencesService updates the discovery filters of the logged in user
type PreferencesService struct {
	API    *APIService
	UserID models.CandidateID
}

// Update replaces the discovery filters. The next batch fetched reflects them.
func (ps *PreferencesService) Update(ctx context.Context, prefs models.Preferences) (string, error) {
	if ps.UserID <= 0 {
		return "", ErrUserIDRequired
	}
	path := "/users/" + strconv.FormatInt(int64(ps.UserID), 10) + "/preferences"

	var ack models.StatusMessage
	if err := ps.API.PostJSON(ctx, path, prefs, &ack); err != nil {
		return "", fmt.Errorf("failed to update preferences: %w", err)
	}
	ps.API.Logger.Info("Preferences updated", "userId", ps.UserID)
	return ack.Message, nil
}
