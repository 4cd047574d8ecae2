package leads

import "errors"

var (
	// ErrUnreadableBody is returned when the request body could not be read.
	ErrUnreadableBody = errors.New("request body could not be read")

	// ErrEmptyBody is returned when the request carries no body.
	ErrEmptyBody = errors.New("request body is empty")

	// ErrMalformedJSON is returned when the body is not a JSON object.
	ErrMalformedJSON = errors.New("malformed JSON body")

	// ErrRateLimited is returned when the caller exceeded its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrStorage wraps failures reported by the lead store.
	ErrStorage = errors.New("failed to store lead")

	// ErrValidation is matched by Violations through errors.Is.
	ErrValidation = errors.New("validation failed")
)
