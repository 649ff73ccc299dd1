package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"sportmatch/models"
)

// AuthService performs the password login against POST /token
type AuthService struct {
	API *APIService
}

// Login exchanges username and password for a bearer token and installs it on
// the APIService
func (as *AuthService) Login(ctx context.Context, username, password string) (*models.Token, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}

	var token models.Token
	if err := as.API.PostForm(ctx, "/token", form, &token); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("failed to log in: backend returned an empty token")
	}

	as.API.SetToken(token.AccessToken)
	as.API.Logger.Info("Logged in", "username", username)
	return &token, nil
}

// Logout drops the bearer credential
func (as *AuthService) Logout() {
	as.API.SetToken("")
}
