package infra

import "unicode/utf8"

// TruncateBytes truncates a string to a maximum number of bytes without
// breaking UTF-8 encoding. Used to cap captured sandbox stdout/stderr
// (internal/sandbox/client.go) and OBSERVE event content
// (internal/loop/iterate.go) before either is fed back into the model or
// persisted, so a command dumping megabytes of output can't blow past the
// context budget in a single turn.
func TruncateBytes(input string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}

	if len(input) <= maxBytes {
		return input
	}

	// Find the last valid UTF-8 boundary before maxBytes
	end := maxBytes
	for end > 0 && !utf8.RuneStart(input[end]) {
		end--
	}

	return input[:end]
}
