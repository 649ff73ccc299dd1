package mockbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"sportmatch/logging"
	"sportmatch/models"
)

// Response texts of the production backend
const (
	msgMatch               = "Match!"
	msgSwipeRecorded       = "Swipe geregistreerd."
	msgBlocked             = "Gebruiker succesvol geblokkeerd."
	msgAlreadyBlocked      = "Gebruiker was al geblokkeerd."
	msgReported            = "Gebruiker succesvol gerapporteerd."
	msgPreferencesUpdated  = "Voorkeuren succesvol bijgewerkt."
	detailBadCredentials   = "Incorrecte gebruikersnaam of wachtwoord"
	detailInvalidToken     = "Ongeldige of verlopen token."
	detailNotAuthenticated = "Not authenticated"
	detailUnknownUser      = "Gebruiker niet gevonden of gedeactiveerd."
	detailUserNotFound     = "Gebruiker niet gevonden"
	detailSelfSwipe        = "Je kunt niet op je eigen profiel swipen."
	detailSelfBlock        = "Je kunt jezelf niet blokkeren."
	detailSelfReport       = "Je kunt jezelf niet rapporteren."
	detailForbiddenPrefs   = "Geen toestemming om deze voorkeuren bij te werken."
	detailInternal         = "Interne serverfout"
)

// requestIDHeader is the correlation header set by the client
const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// Controller serves the backend endpoints from a Store
type Controller struct {
	Store  *Store
	Tokens *TokenIssuer
	Logger logr.Logger
}

// NewController creates a Controller
func NewController(store *Store, tokens *TokenIssuer, logger logr.Logger) *Controller {
	return &Controller{Store: store, Tokens: tokens, Logger: logger.WithName("mockbackend")}
}

// Health reports that the server is up
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Login exchanges an OAuth2 password form for a bearer token
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	var missing []validationIssue
	if username == "" {
		missing = append(missing, missingField("username"))
	}
	if password == "" {
		missing = append(missing, missingField("password"))
	}
	if len(missing) > 0 {
		writeValidationError(w, locBody, missing...)
		return
	}

	user, err := c.Store.Authenticate(username, password)
	if err != nil {
		c.log(r).V(logging.VERBOSE).Info("Login rejected", "username", username)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, detailBadCredentials)
		return
	}

	token, err := c.Tokens.Issue(user.Username)
	if err != nil {
		c.log(r).Error(err, "Failed to issue token", "username", username)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	c.log(r).Info("✅ User logged in", "userId", user.ID)
	writeJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: "bearer"})
}

// GetSuggestions returns the candidate batch for the caller
func (c *Controller) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	suggestions, err := c.Store.Suggestions(user.ID)
	if err != nil {
		c.internalError(w, r, err, "Failed to build suggestions")
		return
	}

	c.log(r).V(logging.VERBOSE).Info("Suggestions generated", "userId", user.ID, "count", len(suggestions))
	writeJSON(w, http.StatusOK, models.Suggestions{Suggestions: suggestions})
}

// Swipe records a like or dislike on the swipee in the path
func (c *Controller) Swipe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	swipee, err := strconv.ParseInt(mux.Vars(r)["swipeeId"], 10, 64)
	if err != nil {
		writeValidationError(w, locPath, invalidField("swipee_id", "value is not a valid integer"))
		return
	}
	liked, err := strconv.ParseBool(r.URL.Query().Get("liked"))
	if err != nil {
		writeValidationError(w, locQuery, invalidField("liked", "value could not be parsed to a boolean"))
		return
	}

	result, err := c.Store.Swipe(user.ID, models.CandidateID(swipee), liked)
	switch {
	case errors.Is(err, ErrSelfAction):
		writeError(w, http.StatusBadRequest, detailSelfSwipe)
		return
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, detailUserNotFound)
		return
	case err != nil:
		c.internalError(w, r, err, "Failed to record swipe")
		return
	}

	if result.Match {
		c.log(r).Info("💘 New match", "userId", user.ID, "swipeeId", swipee)
	} else {
		c.log(r).V(logging.VERBOSE).Info("Swipe recorded", "userId", user.ID, "swipeeId", swipee, "liked", liked)
	}
	writeJSON(w, http.StatusOK, result)
}

// GetMatches lists the caller's mutual matches
func (c *Controller) GetMatches(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	matches, err := c.Store.Matches(user.ID)
	if err != nil {
		c.internalError(w, r, err, "Failed to list matches")
		return
	}
	writeJSON(w, http.StatusOK, models.Matches{Matches: matches})
}

// BlockUser hides the user in the user_to_block_id query parameter
func (c *Controller) BlockUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	raw := r.URL.Query().Get("user_to_block_id")
	if raw == "" {
		writeValidationError(w, locQuery, missingField("user_to_block_id"))
		return
	}
	blocked, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeValidationError(w, locQuery, invalidField("user_to_block_id", "value is not a valid integer"))
		return
	}

	created, err := c.Store.Block(user.ID, models.CandidateID(blocked))
	switch {
	case errors.Is(err, ErrSelfAction):
		writeError(w, http.StatusBadRequest, detailSelfBlock)
		return
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, detailUserNotFound)
		return
	case err != nil:
		c.internalError(w, r, err, "Failed to block user")
		return
	}

	message := msgBlocked
	if !created {
		message = msgAlreadyBlocked
	}
	writeJSON(w, http.StatusOK, models.StatusMessage{Status: models.StatusSuccess, Message: message})
}

// ReportUser files a complaint about the user in the JSON body
func (c *Controller) ReportUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req struct {
		ReportedID *models.CandidateID `json:"reported_id"`
		Reason     *string             `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, locBody, invalidField("body", "JSON decode error"))
		return
	}
	var missing []validationIssue
	if req.ReportedID == nil {
		missing = append(missing, missingField("reported_id"))
	}
	if req.Reason == nil {
		missing = append(missing, missingField("reason"))
	}
	if len(missing) > 0 {
		writeValidationError(w, locBody, missing...)
		return
	}

	err := c.Store.Report(user.ID, *req.ReportedID, *req.Reason)
	switch {
	case errors.Is(err, ErrSelfAction):
		writeError(w, http.StatusBadRequest, detailSelfReport)
		return
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, detailUserNotFound)
		return
	case err != nil:
		c.internalError(w, r, err, "Failed to report user")
		return
	}

	c.log(r).Info("🚩 User reported", "userId", user.ID, "reportedId", *req.ReportedID)
	writeJSON(w, http.StatusOK, models.StatusMessage{Status: models.StatusSuccess, Message: msgReported})
}

// UpdatePreferences replaces the discovery filters of the user in the path.
// Callers may only change their own preferences.
func (c *Controller) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	id, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		writeValidationError(w, locPath, invalidField("user_id", "value is not a valid integer"))
		return
	}
	if models.CandidateID(id) != user.ID {
		writeError(w, http.StatusForbidden, detailForbiddenPrefs)
		return
	}

	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeValidationError(w, locBody, invalidField("body", "JSON decode error"))
		return
	}
	var invalid []validationIssue
	if !validAge(prefs.PreferredMinAge) {
		invalid = append(invalid, invalidField("preferred_min_age", msgAgeRange))
	}
	if !validAge(prefs.PreferredMaxAge) {
		invalid = append(invalid, invalidField("preferred_max_age", msgAgeRange))
	}
	if len(invalid) > 0 {
		writeValidationError(w, locBody, invalid...)
		return
	}

	var sport string
	var minAge, maxAge int
	if prefs.PreferredSportType != nil {
		sport = *prefs.PreferredSportType
	}
	if prefs.PreferredMinAge != nil {
		minAge = *prefs.PreferredMinAge
	}
	if prefs.PreferredMaxAge != nil {
		maxAge = *prefs.PreferredMaxAge
	}
	if err := c.Store.SetPreferences(user.ID, sport, minAge, maxAge); err != nil {
		c.internalError(w, r, err, "Failed to update preferences")
		return
	}

	c.log(r).Info("Preferences updated", "userId", user.ID, "sport", sport, "minAge", minAge, "maxAge", maxAge)
	writeJSON(w, http.StatusOK, models.StatusMessage{Status: models.StatusSuccess, Message: msgPreferencesUpdated})
}

// RequireAuth resolves the bearer token to a user before calling next
func (c *Controller) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}

		username, err := c.Tokens.Verify(token)
		if err != nil {
			c.log(r).V(logging.VERBOSE).Info("Rejected token", "error", err.Error())
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, detailInvalidToken)
			return
		}

		user, err := c.Store.UserByName(username)
		if err != nil {
			writeError(w, http.StatusUnauthorized, detailUnknownUser)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

// RequestLogger attaches a logger carrying the caller's request id to the
// request context
func (c *Controller) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := c.Logger.WithValues("method", r.Method, "path", r.URL.Path)
		if id := r.Header.Get(requestIDHeader); id != "" {
			logger = logger.WithValues("requestId", id)
		}
		logger.V(logging.TRACE).Info("Request received")
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), logger)))
	})
}

// InjectFaults fails requests queued with Store.FailNext
func (c *Controller) InjectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, ok := c.Store.takeFault(r.URL.Path); ok {
			c.log(r).V(logging.DEBUG).Info("Injecting fault", "path", r.URL.Path, "status", status)
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *Controller) log(r *http.Request) logr.Logger {
	return logging.FromContext(r.Context(), c.Logger)
}

func (c *Controller) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	c.log(r).Error(err, msg)
	writeError(w, http.StatusInternalServerError, detailInternal)
}

func currentUser(ctx context.Context) User {
	user, _ := ctx.Value(ctxKey{}).(User)
	return user
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

// Locations reported in validation errors
const (
	locBody  = "body"
	locPath  = "path"
	locQuery = "query"
)

const msgAgeRange = "value must be greater than 0 and less than 100"

// validAge accepts an unset age or one strictly between 0 and 100
func validAge(age *int) bool {
	return age == nil || (*age > 0 && *age < 100)
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missingField(field string) validationIssue {
	return validationIssue{Loc: []string{"", field}, Msg: "field required: " + field, Type: "missing"}
}

func invalidField(field, msg string) validationIssue {
	return validationIssue{Loc: []string{"", field}, Msg: msg, Type: "value_error"}
}

// writeValidationError mirrors the 422 body of the production backend, a list
// of {"loc", "msg", "type"} objects with loc set to [location, field]
func writeValidationError(w http.ResponseWriter, location string, issues ...validationIssue) {
	for i := range issues {
		issues[i].Loc[0] = location
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": issues})
}
