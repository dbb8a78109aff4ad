package authsdk

import (
	"context"
	"net/http"
	"time"
)

// Session carries one access token. It is immutable and safe for concurrent
// use.
type Session struct {
	client      *Client
	accessToken string
	expiresAt   time.Time
}

func (s *Session) AccessToken() string { return s.accessToken }

// ExpiresAt is the zero time when the lifetime is unknown.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// Me returns the account the token was issued to.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/users/me", s.accessToken, nil, "")
	if err != nil {
		return nil, err
	}

	var u User
	if err := decodeJSON(resp, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}

// Items lists the items owned by the current user.
func (s *Session) Items(ctx context.Context) ([]Item, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/users/me/items", s.accessToken, nil, "")
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := decodeJSON(resp, &items, http.StatusOK); err != nil {
		return nil, err
	}
	return items, nil
}
