package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a generation attempt failed
type ErrorKind string

const (
	// ErrorKindServer means the service answered with a failure status
	ErrorKindServer ErrorKind = "server"
	// ErrorKindNetwork means no response was received, timeouts included
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindClient means the request failed before it was dispatched
	ErrorKindClient ErrorKind = "client"
)

// GenerationError is the only error shape the remote client hands upward
type GenerationError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Err        error     `json:"-"`
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewServerError creates a ServerError for a non-success response
func NewServerError(statusCode int, message string) *GenerationError {
	return &GenerationError{Kind: ErrorKindServer, StatusCode: statusCode, Message: message}
}

// NewNetworkError creates a NetworkError wrapping the transport failure
func NewNetworkError(message string, err error) *GenerationError {
	return &GenerationError{Kind: ErrorKindNetwork, Message: message, Err: err}
}

// NewClientError creates a ClientError for failures before dispatch
func NewClientError(message string, err error) *GenerationError {
	return &GenerationError{Kind: ErrorKindClient, Message: message, Err: err}
}

// AsGenerationError extracts a *GenerationError from err. Errors of any other
// shape are reported as ClientError so callers always get a tagged value.
func AsGenerationError(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return NewClientError(err.Error(), err)
}
