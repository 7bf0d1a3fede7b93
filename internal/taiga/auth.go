package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// TokenProvider caches a Taiga auth token. Concurrent callers that find the
// cache empty share one in-flight login.
type TokenProvider struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
	group singleflight.Group

	logins int64 // guarded by mu
}

// NewTokenProvider creates a provider that logs in against baseURL.
func NewTokenProvider(baseURL, username, password string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *TokenProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenProvider{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// Token returns the cached token, logging in first if there is none.
// Login failures are returned as *types.AuthError.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if token := p.cached(); token != "" {
		return token, nil
	}

	// the login runs detached from any single caller so one canceled
	// request does not fail the others waiting on it
	ch := p.group.DoChan("token", func() (any, error) {
		if token := p.cached(); token != "" {
			return token, nil
		}
		loginCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		token, err := p.login(loginCtx)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.token = token
		p.logins++
		p.mu.Unlock()
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token so the next Token call logs in again.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" {
		p.logger.Info("discarding cached Taiga token")
	}
	p.token = ""
}

// Logins returns how many successful logins the provider has performed.
func (p *TokenProvider) Logins() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logins
}

func (p *TokenProvider) cached() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

type authRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AuthToken string `json:"auth_token"`
}

func (p *TokenProvider) login(ctx context.Context) (string, error) {
	if p.username == "" || p.password == "" {
		return "", &types.AuthError{Err: fmt.Errorf("TAIGA_USERNAME and TAIGA_PASSWORD must be set")}
	}
	p.logger.Info("requesting new Taiga auth token")

	encoded, err := json.Marshal(authRequest{Type: "normal", Username: p.username, Password: p.password})
	if err != nil {
		return "", fmt.Errorf("taiga: encoding auth request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("taiga: creating auth request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", &types.AuthError{Err: &types.NetworkError{Op: "POST /auth", Err: err}}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return "", &types.AuthError{Err: &types.NetworkError{Op: "POST /auth", Err: err}}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", &types.AuthError{Err: parseAPIError(response.StatusCode, http.MethodPost, "/auth", body)}
	}

	var parsed authResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &types.AuthError{Err: fmt.Errorf("decoding auth response: %w", err)}
	}
	if parsed.AuthToken == "" {
		return "", &types.AuthError{Err: fmt.Errorf("auth response has no auth_token")}
	}
	p.logger.Info("Taiga auth token acquired")
	return parsed.AuthToken, nil
}
