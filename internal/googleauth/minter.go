package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	jwtBearerGrantType    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	maxTokenResponseBytes = 1 << 20
)

// Minter exchanges signed service-account assertions for access tokens.
// Every call to Mint signs a new assertion and performs one exchange.
type Minter struct {
	client   *http.Client
	tokenURL string
	scope    string
	now      func() time.Time
}

// Option configures the Minter during construction.
type Option func(*Minter)

// WithTokenURL overrides the OAuth token endpoint. The assertion audience
// follows the endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(m *Minter) {
		if tokenURL = strings.TrimSpace(tokenURL); tokenURL != "" {
			m.tokenURL = tokenURL
		}
	}
}

// WithScope overrides the requested OAuth scope.
func WithScope(scope string) Option {
	return func(m *Minter) {
		m.scope = scope
	}
}

// WithClock overrides the time source used for iat/exp and token expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Minter) {
		m.now = now
	}
}

// NewMinter constructs a Minter. A nil client means http.DefaultClient.
func NewMinter(client *http.Client, opts ...Option) *Minter {
	if client == nil {
		client = http.DefaultClient
	}

	m := &Minter{
		client:   client,
		tokenURL: google.JWTTokenURL,
		scope:    SpreadsheetsScope,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Mint signs a fresh assertion for cred and exchanges it for an access token.
func (m *Minter) Mint(ctx context.Context, cred Credential) (*oauth2.Token, error) {
	assertion, err := NewAssertion(cred, m.scope, m.tokenURL, m.now())
	if err != nil {
		return nil, err
	}
	return m.exchange(ctx, assertion)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (m *Minter) exchange(ctx context.Context, assertion string) (*oauth2.Token, error) {
	body := "grant_type=" + jwtBearerGrantType + "&assertion=" + assertion

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &AuthExchangeError{Err: fmt.Errorf("call token endpoint: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, &AuthExchangeError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthExchangeError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var payload tokenResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &AuthExchangeError{StatusCode: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("decode token response: %w", err)}
	}
	if payload.AccessToken == "" {
		return nil, &AuthExchangeError{StatusCode: resp.StatusCode, Body: string(raw), Err: errMissingAccessToken}
	}

	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if payload.ExpiresIn > 0 {
		token.Expiry = m.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	return token, nil
}
