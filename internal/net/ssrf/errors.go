// Package ssrf backs the knowledge agent's URL_FETCH tool
// (internal/knowledge/extract.go): before dereferencing a URL the model
// asked to fetch, ValidatePublicHostname rejects anything that resolves
// to localhost, a cloud metadata endpoint, or an RFC1918 address, so a
// task description can't trick the agent into reading the sandbox host's
// internal network (§4.8).
package ssrf

// SSRFBlockedError is returned when a hostname or IP address is blocked
// due to SSRF protection rules.
type SSRFBlockedError struct {
	Message string
}

// Error implements the error interface.
func (e *SSRFBlockedError) Error() string {
	return e.Message
}

// NewSSRFBlockedError creates a new SSRFBlockedError with the given message.
func NewSSRFBlockedError(message string) *SSRFBlockedError {
	return &SSRFBlockedError{Message: message}
}
