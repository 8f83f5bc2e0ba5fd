package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
)

const (
	defaultAuthBaseURL = "https://github.com"
	defaultAPIBaseURL  = "https://api.github.com"

	responseBodyReadLimit int64 = 1024
)

// Client implements the GitHub OAuth web flow and the user lookup
// that backs session creation.
type Client struct {
	httpClient   *http.Client
	authBaseURL  string
	apiBaseURL   string
	clientID     string
	clientSecret string
	callbackURL  string
	scopes       []string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAuthBaseURL overrides the OAuth authorize/token base URL.
func WithAuthBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.authBaseURL = trimmed
		}
	}
}

// WithAPIBaseURL overrides the REST API base URL.
func WithAPIBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.apiBaseURL = trimmed
		}
	}
}

// NewClient builds the GitHub OAuth client from app credentials.
func NewClient(cfg config.GitHubConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("github client credentials are required")
	}
	if strings.TrimSpace(cfg.CallbackURL) == "" {
		return nil, fmt.Errorf("github callback URL is required")
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		authBaseURL:  defaultAuthBaseURL,
		apiBaseURL:   defaultAPIBaseURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		callbackURL:  strings.TrimSpace(cfg.CallbackURL),
		scopes:       cfg.ScopeList(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// AuthorizeURL builds the redirect target that starts the OAuth flow.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.callbackURL)
	q.Set("scope", strings.Join(c.scopes, " "))
	if state != "" {
		q.Set("state", state)
	}
	return fmt.Sprintf("%s/login/oauth/authorize?%s", strings.TrimRight(c.authBaseURL, "/"), q.Encode())
}

// ExchangeCode trades the callback code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "github client not configured")
	}
	if strings.TrimSpace(code) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.callbackURL)

	tokenURL := fmt.Sprintf("%s/login/oauth/access_token", strings.TrimRight(c.authBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute token request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "token request failed")
	}

	var apiResp struct {
		AccessToken      string `json:"access_token"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}

	// GitHub reports exchange failures with 200 + error payload.
	if apiResp.Error != "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("github rejected the code: %s", apiResp.Error))
	}
	if apiResp.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "github returned an empty access token")
	}
	return apiResp.AccessToken, nil
}

// User is the subset of the GitHub profile kept in the session.
type User struct {
	ID    int64
	Login string
	Name  string
}

// FetchUser loads the authenticated user's profile.
func (c *Client) FetchUser(ctx context.Context, token string) (*User, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "github client not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "github access token is required")
	}

	userURL := fmt.Sprintf("%s/user", strings.TrimRight(c.apiBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build user request")
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute user request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "github token rejected")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "user request failed")
	}

	var apiResp struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode user response")
	}

	return &User{ID: apiResp.ID, Login: apiResp.Login, Name: apiResp.Name}, nil
}
