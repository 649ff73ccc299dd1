package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"sportmatch/logging"
)

// RequestIDHeader carries a per request uuid so client and backend logs line up
const RequestIDHeader = "X-Request-ID"

// APIService is the HTTP transport shared by the backend services.
// It attaches the bearer credential and turns non-2xx responses into *APIError.
type APIService struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     logr.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized []func()
}

// NewAPIService creates an APIService for the backend at baseURL
func NewAPIService(baseURL string, timeout time.Duration, logger logr.Logger) *APIService {
	return &APIService{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger.WithName("api"),
	}
}

// SetToken replaces the bearer credential attached to every request
func (api *APIService) SetToken(token string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.token = token
}

// Token returns the current bearer credential
func (api *APIService) Token() string {
	api.mu.RLock()
	defer api.mu.RUnlock()
	return api.token
}

// OnUnauthorized registers fn to run whenever the backend rejects the
// credential. The credential is cleared before fn runs.
func (api *APIService) OnUnauthorized(fn func()) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.onUnauthorized = append(api.onUnauthorized, fn)
}

func (api *APIService) invalidate() {
	api.mu.Lock()
	api.token = ""
	hooks := make([]func(), len(api.onUnauthorized))
	copy(hooks, api.onUnauthorized)
	api.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// GetJSON issues an authenticated GET and decodes the JSON response into out
func (api *APIService) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return api.Do(ctx, http.MethodGet, path, query, nil, "", out)
}

// PostForm issues a form encoded POST and decodes the JSON response into out
func (api *APIService) PostForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	return api.Do(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

// PostJSON issues a POST with in encoded as JSON and decodes the JSON response
// into out
func (api *APIService) PostJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}
	return api.Do(ctx, http.MethodPost, path, nil, bytes.NewReader(body), "application/json", out)
}

// Do sends a request to the backend. A nil out discards the response body.
func (api *APIService) Do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	endpoint := api.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token := api.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger := api.Logger.WithValues("method", method, "path", path, "requestId", requestID)
	logger.V(logging.DEBUG).Info("Sending request")

	start := time.Now()
	resp, err := api.HTTPClient.Do(req)
	if err != nil {
		logger.V(logging.VERBOSE).Info("Request failed", "error", err.Error())
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.V(logging.DEBUG).Info("Received response", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(method, path, resp)
		// A 401 without a credential is a failed login, not an expired session.
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			apiErr.invalidated = true
			logger.Info("Credential rejected, invalidating session")
			api.invalidate()
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
