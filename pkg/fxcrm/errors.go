package fxcrm

import (
	"errors"
	"fmt"
)

// AuthError is returned when a corp access token cannot be obtained, either
// because the auth endpoint was unreachable or because it answered with a
// nonzero errorCode.
type AuthError struct {
	// Envelope is set when the endpoint answered with an envelope.
	Envelope *Envelope
	// Err is the underlying failure, if any.
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err == nil && e.Envelope != nil {
		return fmt.Sprintf("corp access token request failed: %s (errorCode: %d)", e.Envelope.Message(), e.Envelope.ErrorCode)
	}

	return fmt.Sprintf("corp access token request failed: %v", e.Err)
}

// Unwrap returns the underlying failure.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransportError is returned when a call completes with a non-200 status.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.URL, e.StatusCode)
}

// APIError is returned when an envelope carries a nonzero errorCode.
type APIError struct {
	Envelope *Envelope
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Envelope == nil {
		return "unknown API error"
	}

	message := e.Envelope.Message()
	if message == "" {
		message = "request rejected"
	}

	return fmt.Sprintf("%s (errorCode: %d)", message, e.Envelope.ErrorCode)
}

// Code returns the envelope errorCode.
func (e *APIError) Code() int {
	if e.Envelope == nil {
		return 0
	}

	return e.Envelope.ErrorCode
}

// Static errors for err113 compliance.
var (
	ErrNoMoreItems            = errors.New("no more items")
	ErrMalformedEnvelope      = errors.New("malformed response envelope")
	ErrConfigRequired         = errors.New("config is required")
	ErrAppIDRequired          = errors.New("app id is required")
	ErrAppSecretRequired      = errors.New("app secret is required")
	ErrPermanentCodeRequired  = errors.New("permanent code is required")
	ErrNoDefaultClient        = errors.New("no default client registered")
	ErrRequestAlreadyExecuted = errors.New("request already executed")
	ErrCallerRequired         = errors.New("caller is required")
	ErrObjectAPINameRequired  = errors.New("object api name is required")
	ErrObjectIDRequired       = errors.New("object id is required")
)

// IsAuthError checks if the error is an AuthError.
func IsAuthError(err error) bool {
	authErr := &AuthError{}

	return errors.As(err, &authErr)
}

// IsTransportError checks if the error is a TransportError.
func IsTransportError(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}

// IsAPIError checks if the error is an APIError.
func IsAPIError(err error) bool {
	apiErr := &APIError{}

	return errors.As(err, &apiErr)
}

// APIErrorCode returns the errorCode of an APIError in the chain.
func APIErrorCode(err error) (int, bool) {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Code(), true
	}

	return 0, false
}
