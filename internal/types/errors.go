package types

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a backend project that is not set up to accept
// new items (for example, no statuses). Fatal for the current request.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// AuthError reports a failure to authenticate against the backend.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError reports a transport-level failure talking to the backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GenerationError reports a failure of the text-generation service.
// Call sites recover from it locally; it never reaches the pipeline boundary.
type GenerationError struct {
	Operation string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Operation, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsAuthError reports whether err wraps an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsGenerationError reports whether err wraps a GenerationError.
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
