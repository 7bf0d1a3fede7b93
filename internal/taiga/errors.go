package taiga

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the Taiga API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Method and Path identify the failed request.
	Method string
	Path   string

	// Message is Taiga's "_error_message" or "detail" field, or the raw
	// body when neither is present.
	Message string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("taiga: %s %s: HTTP %d: %s", err.Method, err.Path, err.StatusCode, err.Message)
}

// IsNotFound reports whether err is a Taiga 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// IsUnauthorized reports whether err is a Taiga 401 response.
func IsUnauthorized(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 401
}

// IsRateLimited reports whether err is a Taiga 429 throttling response.
func IsRateLimited(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 429
}

// parseAPIError builds an APIError from a response body.
func parseAPIError(statusCode int, method, path string, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode, Method: method, Path: path}

	var parsed struct {
		ErrorMessage string `json:"_error_message"`
		Detail       string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.ErrorMessage != "":
			apiError.Message = parsed.ErrorMessage
		case parsed.Detail != "":
			apiError.Message = parsed.Detail
		}
	}
	if apiError.Message == "" {
		message := strings.TrimSpace(string(body))
		if len(message) > 512 {
			message = message[:512] + "..."
		}
		apiError.Message = message
	}
	return apiError
}
