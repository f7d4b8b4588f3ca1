package models

// Action is one parsed tool invocation (§3). Actions are immutable once
// parsed — the parser never mutates a param map or raw span after
// returning it.
type Action struct {
	Tool   ToolID            `json:"tool"`
	Params map[string]string `json:"params"`
	Raw    string            `json:"raw"`
	Index  int               `json:"index"`
}

// ValidationError is the result of validating an Action against the
// registry's mask for the current phase (§4.3).
type ValidationError string

const (
	ValidOK                 ValidationError = ""
	ValidUnknownTool        ValidationError = "invalid_tool"
	ValidNotAllowedInPhase  ValidationError = "not_allowed_in_phase"
	ValidMissingParam       ValidationError = "missing_param"
	ValidUnknownParam       ValidationError = "unknown_param"
)

// ParseError is returned for a malformed ACTION block (§4.4).
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string { return "parse_error: " + e.Reason }

// ParseResult is the output of the action parser: zero or more well-formed
// actions, any malformed blocks (reported but not fatal to the others),
// and an optional terminal sentinel.
type ParseResult struct {
	Actions      []Action
	Errors       []*ParseError
	Terminal     bool
	FinalMessage string
}
