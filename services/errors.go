package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrSessionInvalidated is matched by errors.Is when the backend rejected the
// bearer credential. The user has to log in again, retrying will not help.
var ErrSessionInvalidated = errors.New("session invalidated, please log in again")

// IsSessionInvalidated reports whether err forces the user to log in again
func IsSessionInvalidated(err error) bool {
	return errors.Is(err, ErrSessionInvalidated)
}

// APIError is a non-2xx response from the backend
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string // Human readable message from the backend

	invalidated bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Detail, e.StatusCode)
}

// Is makes errors.Is(err, ErrSessionInvalidated) hold for rejected credentials
func (e *APIError) Is(target error) bool {
	return target == ErrSessionInvalidated && e.invalidated
}

// SessionInvalidated reports whether the error forces re-authentication
func (e *APIError) SessionInvalidated() bool {
	return e.invalidated
}

// Temporary reports whether retrying the same request may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}

// newAPIError reads the backend's {"detail": ...} body. FastAPI style
// validation errors carry a list of {"msg": ...} objects instead of a string.
func newAPIError(method, path string, resp *http.Response) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Detail:     http.StatusText(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail != "" {
		apiErr.Detail = detail
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			apiErr.Detail = strings.Join(msgs, "; ")
		}
	}
	return apiErr
}
