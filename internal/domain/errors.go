package domain

import (
	"errors"
	"fmt"
)

// Callers match on these messages, so they are kept verbatim.
var (
	// ErrUnauthorized indicates that the provider rejected the access token.
	ErrUnauthorized = errors.New("Unauthorized: Invalid access token.") //nolint:staticcheck // ST1005
	// ErrNetwork indicates that no response was received from the provider.
	ErrNetwork = errors.New("Network Error: Could not connect to the server.") //nolint:staticcheck // ST1005
	// ErrUnexpected replaces errors that carry no message.
	ErrUnexpected = errors.New("An unexpected error occurred.") //nolint:staticcheck // ST1005
)

// StatusError is returned when the provider answers with a non-2xx status
// other than 401.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// NormalizeError applies the generic rule of the fetch error taxonomy: an
// error without a message becomes ErrUnexpected, anything else is returned
// unchanged.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if err.Error() == "" {
		return ErrUnexpected
	}
	return err
}
