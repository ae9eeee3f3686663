package provider

import "fmt"

// ConfigError reports missing or unusable provider configuration. A client
// returns it before any network call is attempted.
type ConfigError struct {
	Provider string
	Message  string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s provider configuration: %s", e.Provider, e.Message)
}

// APIError carries a provider's non-2xx response; Body is the response body
// verbatim.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ErrMissingExternalID is returned by Cancel and Status when the run has no
// stored external id to address the provider-side build with.
type ErrMissingExternalID struct {
	Provider string
}

func (e ErrMissingExternalID) Error() string {
	return fmt.Sprintf("%s: run has no external id", e.Provider)
}

// QueueCancelledError means a jenkins queue item was cancelled before a
// build number was assigned.
type QueueCancelledError struct{}

func (QueueCancelledError) Error() string {
	return "build was cancelled in queue"
}
