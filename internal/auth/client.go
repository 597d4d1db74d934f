package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"

	"movienote/internal/types"
)

// Client talks to the hosted auth service's token endpoints. It implements
// session.AuthClient.
type Client struct {
	domain     string
	clientID   string
	middleware *Middleware
	http       *http.Client
}

func NewClient(domain, clientID string, middleware *Middleware) *Client {
	return &Client{
		domain:     domain,
		clientID:   clientID,
		middleware: middleware,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ValidateToken checks an existing token locally against the service's
// signing keys and returns the session it represents.
func (c *Client) ValidateToken(ctx context.Context, token string) (*types.Session, error) {
	raw, err := c.middleware.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w: %v", types.ErrUnauthenticated, err)
	}

	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type: %w", types.ErrUnauthenticated)
	}

	sess := &types.Session{
		Subject:   claims.RegisteredClaims.Subject,
		Token:     token,
		ExpiresAt: time.Unix(claims.RegisteredClaims.Expiry, 0),
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		sess.Email = custom.Email
		sess.Name = custom.Name
	}
	return sess, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// SignIn exchanges credentials for a token via the resource-owner password
// grant, then validates the token to build the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.clientID)
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://"+c.domain+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w: %v", types.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d: %w", resp.StatusCode, types.ErrRemoteUnavailable)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return c.ValidateToken(ctx, token.AccessToken)
}

// Revoke invalidates a token remotely.
func (c *Client) Revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://"+c.domain+"/oauth/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w: %v", types.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke request failed with status %d: %w", resp.StatusCode, types.ErrRemoteUnavailable)
	}
	return nil
}
