package services

import (
	"context"
	"fmt"

	"sportmatch/models"
)

// MatchService lists the user's mutual matches
type MatchService struct {
	API *APIService
}

// ListMatches fetches every mutual match of the logged in user
func (ms *MatchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	var resp models.Matches
	if err := ms.API.GetJSON(ctx, "/matches", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	return resp.Matches, nil
}
