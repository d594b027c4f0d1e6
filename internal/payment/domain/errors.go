package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidConfig    = errors.New("invalid_config")
	ErrInvalidPayment   = errors.New("invalid_payment")
)

// GatewayErrorKind classifies provider failures at the adapter boundary.
type GatewayErrorKind string

const (
	GatewayAuthenticationFailed GatewayErrorKind = "authentication_failed"
	GatewayProviderRejected     GatewayErrorKind = "provider_rejected"
	GatewayTransportFailure     GatewayErrorKind = "transport_failure"
)

// GatewayError is the typed result of any provider-side failure.
type GatewayError struct {
	Kind     GatewayErrorKind
	Provider string
	Detail   string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func NewGatewayError(kind GatewayErrorKind, provider, detail string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Provider: provider, Detail: detail, Err: err}
}

// IsGatewayKind reports whether err is a GatewayError of the given kind.
func IsGatewayKind(err error, kind GatewayErrorKind) bool {
	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		return false
	}
	return gatewayErr.Kind == kind
}
