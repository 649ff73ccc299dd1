package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"sportmatch/logging"
	"sportmatch/models"
)

// DiscoveryService lists candidates and records swipe decisions.
// It is the backend consumed by discovery.Session.
type DiscoveryService struct {
	API *APIService
}

// ListCandidates fetches the next batch of candidates in backend order
func (ds *DiscoveryService) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	var resp models.Suggestions
	if err := ds.API.GetJSON(ctx, "/suggestions", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []models.Candidate{}
	}

	ds.API.Logger.V(logging.VERBOSE).Info("Fetched suggestions", "count", len(resp.Suggestions))
	return resp.Suggestions, nil
}

// RecordDecision sends a like or dislike for the candidate with the given id
func (ds *DiscoveryService) RecordDecision(ctx context.Context, id models.CandidateID, liked bool) (*models.SwipeResult, error) {
	path := "/swipe/" + strconv.FormatInt(int64(id), 10)
	query := url.Values{"liked": {strconv.FormatBool(liked)}}

	var result models.SwipeResult
	if err := ds.API.Do(ctx, http.MethodPost, path, query, nil, "", &result); err != nil {
		return nil, fmt.Errorf("failed to record %s for %d: %w", models.DecisionFor(liked), id, err)
	}

	ds.API.Logger.V(logging.VERBOSE).Info("Recorded decision", "candidateId", id, "liked", liked, "match", result.Match)
	return &result, nil
}
