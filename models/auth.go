package models

// Token is the bearer credential returned by POST /token
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ErrorResponse is the error body the backend sends with non-2xx responses
type ErrorResponse struct {
	Detail string `json:"detail"`
}
