package security

import "errors"

var (
	// ErrOriginNotAllowed is returned when the Origin header is empty or not allow-listed.
	ErrOriginNotAllowed = errors.New("origin not allowed")

	// ErrInvalidAPIKey is returned when the API key is empty or unknown.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrMissingHeaders is returned when the signature or timestamp header is absent.
	ErrMissingHeaders = errors.New("missing authentication headers")

	// ErrExpired is returned when the request timestamp is outside the tolerance window
	// or cannot be parsed.
	ErrExpired = errors.New("request expired")

	// ErrInvalidSignature is returned when the body signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)
