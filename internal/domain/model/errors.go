package model

import "errors"

// Query error taxonomy. Transient errors (unavailable, rate limited, timeout)
// may be retried by the caller with backoff; no retry happens internally.
// Authentication failures and ambiguous targets are fatal and surfaced
// immediately.
var (
	// ErrProviderUnavailable covers network failures and unexpected provider
	// responses.
	ErrProviderUnavailable = errors.New("ci provider unavailable")

	// ErrRateLimited means the provider throttled the request; the caller
	// must back off before retrying.
	ErrRateLimited = errors.New("ci provider rate limit exceeded")

	// ErrProviderTimeout means a provider call exceeded its deadline. The
	// query surfaces an unknown verdict rather than guessing.
	ErrProviderTimeout = errors.New("ci provider request timed out")

	// ErrAuthenticationFailed means the provider rejected the credentials.
	ErrAuthenticationFailed = errors.New("ci provider authentication failed")

	// ErrAmbiguousTarget means both a PR number and a commit SHA were
	// supplied and they disagree about which commit to check.
	ErrAmbiguousTarget = errors.New("ambiguous target: PR and commit SHA disagree")
)

// Transient reports whether err is a retryable provider error.
func Transient(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrProviderTimeout)
}
