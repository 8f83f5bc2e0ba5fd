package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.github.com"
	gistDescription            = "Datos de Finanzas Personales"
	acceptHeader               = "application/vnd.github.v3+json"
	responseBodyReadLimit int64 = 1024
)

// Client wraps the GitHub Gists API used as the remote ledger store.
// The OAuth token is passed per call: one client serves every session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	filename   string
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

// WithBaseURL overrides the GitHub API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the gist client for the given data filename.
func NewClient(filename string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(filename)
	if trimmed == "" {
		return nil, fmt.Errorf("gist filename is required")
	}

	client := &Client{
		filename:   trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Gist is the subset of the GitHub gist payload the service uses.
type Gist struct {
	ID        string
	HTMLURL   string
	UpdatedAt time.Time
}

// Create stores the content in a new private gist.
func (c *Client) Create(ctx context.Context, token string, content json.RawMessage) (*Gist, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gist client not configured")
	}
	body, err := c.gistPayload(content, true)
	if err != nil {
		return nil, err
	}
	return c.writeGist(ctx, token, http.MethodPost, c.buildURL("gists"), body)
}

// Update overwrites the data file in an existing gist.
func (c *Client) Update(ctx context.Context, token, gistID string, content json.RawMessage) (*Gist, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gist client not configured")
	}
	trimmed := strings.TrimSpace(gistID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gist ID is required")
	}
	body, err := c.gistPayload(content, false)
	if err != nil {
		return nil, err
	}
	return c.writeGist(ctx, token, http.MethodPatch, c.gistURL(trimmed), body)
}

// Fetch returns the data file content from the gist. Files over the API
// inline limit come back truncated, so those are re-read from the raw URL.
func (c *Client) Fetch(ctx context.Context, token, gistID string) (json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gist client not configured")
	}
	trimmed := strings.TrimSpace(gistID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gist ID is required")
	}

	resp, err := c.do(ctx, token, http.MethodGet, c.gistURL(trimmed), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, "fetch gist"); err != nil {
		return nil, err
	}

	var apiResp struct {
		Files map[string]struct {
			Content   string `json:"content"`
			Truncated bool   `json:"truncated"`
			RawURL    string `json:"raw_url"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gist response")
	}

	file, ok := apiResp.Files[c.filename]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("gist has no %q file", c.filename))
	}
	if file.Truncated && file.RawURL != "" {
		return c.fetchRaw(ctx, token, file.RawURL)
	}
	return json.RawMessage(file.Content), nil
}

func (c *Client) fetchRaw(ctx context.Context, token, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build raw gist request")
	}
	req.Header.Set("Authorization", "token "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute raw gist request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("raw gist fetch failed with status %d", resp.StatusCode))
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read raw gist body")
	}
	return json.RawMessage(content), nil
}

func (c *Client) writeGist(ctx context.Context, token, method, url string, body []byte) (*Gist, error) {
	resp, err := c.do(ctx, token, method, url, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, "write gist"); err != nil {
		return nil, err
	}

	var apiResp struct {
		ID        string    `json:"id"`
		HTMLURL   string    `json:"html_url"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gist response")
	}
	return &Gist{ID: apiResp.ID, HTMLURL: apiResp.HTMLURL, UpdatedAt: apiResp.UpdatedAt}, nil
}

func (c *Client) do(ctx context.Context, token, method, url string, body []byte) (*http.Response, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "github access token is required")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gist request")
	}

	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", acceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gist request")
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response, action string) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, action+" rejected by github")
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, "gist not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, action+" failed")
	}
}

// gistPayload builds the create/update body with the data file indented
// so the gist stays readable in the GitHub UI.
func (c *Client) gistPayload(content json.RawMessage, create bool) ([]byte, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, content, "", "  "); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "gist content is not valid JSON")
	}

	payload := map[string]any{
		"description": gistDescription,
		"files": map[string]any{
			c.filename: map[string]string{"content": pretty.String()},
		},
	}
	if create {
		payload["public"] = false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal gist payload")
	}
	return body, nil
}

func (c *Client) gistURL(gistID string) string {
	return c.buildURL("gists/" + url.PathEscape(gistID))
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
