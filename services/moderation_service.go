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

// ModerationService blocks and reports other users
type ModerationService struct {
	API *APIService
}

// BlockUser hides id from the caller's suggestions and the caller from id's.
// Blocking twice succeeds; the returned message tells the cases apart.
func (ms *ModerationService) BlockUser(ctx context.Context, id models.CandidateID) (string, error) {
	query := url.Values{"user_to_block_id": {strconv.FormatInt(int64(id), 10)}}

	var ack models.StatusMessage
	if err := ms.API.Do(ctx, http.MethodPost, "/block_user", query, nil, "", &ack); err != nil {
		return "", fmt.Errorf("failed to block %d: %w", id, err)
	}
	ms.API.Logger.V(logging.VERBOSE).Info("Blocked user", "candidateId", id)
	return ack.Message, nil
}

// ReportUser flags id for review with a free text reason
func (ms *ModerationService) ReportUser(ctx context.Context, id models.CandidateID, reason string) (string, error) {
	var ack models.StatusMessage
	if err := ms.API.PostJSON(ctx, "/report_user", models.ReportRequest{ReportedID: id, Reason: reason}, &ack); err != nil {
		return "", fmt.Errorf("failed to report %d: %w", id, err)
	}
	ms.API.Logger.V(logging.VERBOSE).Info("Reported user", "candidateId", id)
	return ack.Message, nil
}
