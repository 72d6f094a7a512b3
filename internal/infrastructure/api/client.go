// Package api implements the typed client for the exam-platform backend:
// the auth and profile endpoints behind ports.AuthAPI, and the
// request-authenticating transport that injects credentials and reacts to
// their rejection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Options tunes the client. Zero values pick sensible defaults.
type Options struct {
	// TenantID is sent as the tenant header with every request.
	TenantID string
	// Timeout bounds each request end-to-end.
	Timeout time.Duration
	// Base is the underlying transport, http.DefaultTransport when nil.
	Base http.RoundTripper
}

// Client talks to the backend API. It implements ports.AuthAPI.
type Client struct {
	baseURL   string
	http      *http.Client
	transport *AuthTransport
}

var _ ports.AuthAPI = (*Client)(nil)

// NewClient builds a client rooted at baseURL (including the API prefix,
// e.g. http://host:8080/api/v1). The store supplies the bearer credential
// per request and absorbs the clear on rejection.
func NewClient(baseURL string, store ports.CredentialStore, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := NewAuthTransport(opts.Base, store, opts.TenantID)
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      &http.Client{Timeout: timeout, Transport: transport},
		transport: transport,
	}
}

// SetUnauthorizedHook forwards to the transport; see
// AuthTransport.SetUnauthorizedHook.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.transport.SetUnauthorizedHook(fn)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (c *Client) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, &domain.APIError{Status: http.StatusOK, Message: "malformed login response"}
	}
	return out.Token, out.User, nil
}

func (c *Client) Register(ctx context.Context, in domain.RegisterInput) error {
	return c.do(ctx, http.MethodPost, "/auth/register", in, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) FetchProfile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPut, "/user/profile", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/user/password", changePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}, nil)
}

// envelope is the backend's uniform response wrapper. Endpoints that skip
// the wrapper are handled by falling back to the raw body.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized {
		return errors.Join(domain.ErrUnauthorized, &domain.APIError{Status: resp.StatusCode, Message: env.Message})
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &domain.APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}

	payload := raw
	if len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
