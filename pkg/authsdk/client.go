package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/bearer/pkg/jwtx"
)

// Client talks to the unauthenticated endpoints and opens Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Token exchanges a username and password for an access token.
func (c *Client) Token(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.do(ctx, http.MethodPost, "/token", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Login is Token followed by NewSession.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	tok, err := c.Token(ctx, username, password)
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if tok.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return &Session{client: c, accessToken: tok.AccessToken, expiresAt: expiresAt}, nil
}

// NewSession wraps a token obtained elsewhere.
func (c *Client) NewSession(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

func (c *Client) Liveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

func (c *Client) Readiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil, "")
	if err != nil {
		return nil, err
	}

	var h HealthResponse
	if err := decodeJSON(resp, &h, http.StatusOK); err != nil {
		return nil, err
	}
	return &h, nil
}

// JWKS fetches the public keys. The set is empty when the service signs
// with an HMAC algorithm.
func (c *Client) JWKS(ctx context.Context) (*jwtx.JWKS, error) {
	resp, err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, "")
	if err != nil {
		return nil, err
	}

	var set jwtx.JWKS
	if err := decodeJSON(resp, &set, http.StatusOK); err != nil {
		return nil, err
	}
	return &set, nil
}
