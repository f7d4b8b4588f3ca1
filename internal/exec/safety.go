// Package exec holds the one pattern sandbox.ValidateWorkspacePath shares
// with the sandbox provider's own argv construction: a command or path
// carrying an embedded newline or carriage return can smuggle a second
// line past the action parser's single-line COMMAND/PATH framing, so both
// checks reject it with the same regex (§4.11.d).
package exec

import "regexp"

// ControlChars matches control characters like newlines and carriage returns.
var ControlChars = regexp.MustCompile(`[\r\n]`)
