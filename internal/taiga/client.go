package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// DefaultBaseURL is the base URL for the hosted Taiga API.
const DefaultBaseURL = "https://api.taiga.io/api/v1"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Config holds configuration for creating a Taiga API Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to DefaultBaseURL.
	BaseURL string

	// ProjectSlug identifies the project all stories are filed in.
	ProjectSlug string

	// Username and Password are used for "normal" login.
	Username string
	Password string

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration

	// CreateStoryTimeout bounds story creation, which Taiga can be slow
	// to acknowledge. Defaults to 300s.
	CreateStoryTimeout time.Duration

	// RateLimit is the sustained request rate in requests per second.
	// Zero or negative disables pacing.
	RateLimit float64

	// Burst is the limiter's bucket size. Defaults to 1.
	Burst int

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Client is a typed Taiga REST API client with token authentication and
// client-side pacing.
type Client struct {
	baseURL            string
	projectSlug        string
	httpClient         *http.Client
	tokens             *TokenProvider
	limiter            *rate.Limiter
	timeout            time.Duration
	createStoryTimeout time.Duration
	logger             *zap.Logger

	projectMu sync.Mutex
	projectID int64
}

// NewClient creates a Taiga API client from the given configuration.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		return nil, fmt.Errorf("taiga: base URL must be http(s) (got %q)", baseURL)
	}
	if strings.TrimSpace(config.ProjectSlug) == "" {
		return nil, fmt.Errorf("taiga: project slug is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	createStoryTimeout := config.CreateStoryTimeout
	if createStoryTimeout <= 0 {
		createStoryTimeout = 300 * time.Second
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:            baseURL,
		projectSlug:        config.ProjectSlug,
		httpClient:         httpClient,
		tokens:             NewTokenProvider(baseURL, config.Username, config.Password, httpClient, timeout, logger.Named("auth")),
		limiter:            rate.NewLimiter(limit, burst),
		timeout:            timeout,
		createStoryTimeout: createStoryTimeout,
		logger:             logger,
	}, nil
}

// Tokens exposes the client's token provider.
func (client *Client) Tokens() *TokenProvider {
	return client.tokens
}

// do executes an authenticated request and decodes a 2xx JSON body into
// result (which may be nil). Transport failures become *types.NetworkError;
// 401 and 403 become *types.AuthError wrapping the *APIError; other non-2xx
// responses return the *APIError.
func (client *Client) do(ctx context.Context, method, path string, requestBody, result any, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = client.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("taiga: waiting for rate limiter: %w", err)
	}

	token, err := client.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("taiga: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("taiga: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		request.Header.Set("x-disable-pagination", "True")
	}

	op := method + " " + path
	start := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		return &types.NetworkError{Op: op, Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return &types.NetworkError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}

	client.logger.Debug("taiga request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", response.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		apiError := parseAPIError(response.StatusCode, method, path, body)
		switch response.StatusCode {
		case http.StatusUnauthorized:
			client.tokens.Invalidate()
			return &types.AuthError{Err: apiError}
		case http.StatusForbidden:
			return &types.AuthError{Err: apiError}
		}
		return apiError
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("taiga: decoding %s response: %w", op, err)
		}
	}
	return nil
}

// get is a convenience method for GET requests.
func (client *Client) get(ctx context.Context, path string, result any) error {
	return client.do(ctx, http.MethodGet, path, nil, result, 0)
}

// post is a convenience method for POST requests.
func (client *Client) post(ctx context.Context, path string, requestBody, result any, timeout time.Duration) error {
	return client.do(ctx, http.MethodPost, path, requestBody, result, timeout)
}
