// Package action implements the Action Parser (C4, §4.4): a line-oriented,
// delimiter-based grammar over the assistant's textual response, producing
// an ordered list of actions plus an optional termination sentinel.
package action

import (
	"bufio"
	"strings"

	"github.com/agentcore/core/pkg/models"
)

const (
	actionPrefix    = "ACTION:"
	blockTerminator = "---END---"
	terminalSentinel = "TASK_COMPLETED"
)

// Parse scans response line by line, opening a block at an ACTION: line
// and closing it at ---END---. Text outside blocks is ignored. A
// malformed block (missing terminator, no tool id) is reported as a
// *models.ParseError but does not prevent later well-formed blocks in the
// same response from parsing and executing (§4.4: "later valid blocks
// still execute").
func Parse(response string) models.ParseResult {
	var result models.ParseResult

	scanner := bufio.NewScanner(strings.NewReader(response))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var inBlock bool
	var blockLines []string
	var blockIndex int

	flush := func() {
		act, err := parseBlock(blockIndex, strings.Join(blockLines, "\n"))
		if err != nil {
			result.Errors = append(result.Errors, err)
		} else {
			result.Actions = append(result.Actions, *act)
			if act.Tool == models.ToolTaskCompleted {
				result.Terminal = true
				if msg, ok := act.Params["MESSAGE"]; ok {
					result.FinalMessage = msg
				}
			}
		}
		blockLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case !inBlock && strings.HasPrefix(trimmed, actionPrefix):
			inBlock = true
			blockIndex = len(result.Actions) + len(result.Errors)
			blockLines = []string{trimmed}

		case inBlock && trimmed == blockTerminator:
			inBlock = false
			flush()

		case inBlock:
			blockLines = append(blockLines, line)

		default:
			detectTerminalSentinel(trimmed, &result)
		}
	}

	if inBlock {
		// Block opened but never closed: reject it, but everything parsed
		// before it still stands (§4.4).
		result.Errors = append(result.Errors, &models.ParseError{
			Reason: "unterminated_block",
			Raw:    strings.Join(blockLines, "\n"),
		})
	}

	return result
}

// parseBlock decodes one ACTION:..---END---  span (terminator already
// stripped) into a models.Action. The first line must be "ACTION: <TOOL_ID>".
// Subsequent KEY: value lines start a new field; unlabeled lines continue
// the most recently opened field's value, which is what lets CONTENT/CODE
// carry multi-line text including blank lines.
func parseBlock(index int, raw string) (*models.Action, *models.ParseError) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 {
		return nil, &models.ParseError{Reason: "empty_block", Raw: raw}
	}

	header := strings.TrimSpace(lines[0])
	toolName := strings.TrimSpace(strings.TrimPrefix(header, actionPrefix))
	if toolName == "" {
		return nil, &models.ParseError{Reason: "missing_tool_id", Raw: raw}
	}

	params := make(map[string]string)
	var currentKey string
	var currentValue []string

	commit := func() {
		if currentKey != "" {
			params[currentKey] = strings.Join(currentValue, "\n")
		}
	}

	for _, line := range lines[1:] {
		if key, value, ok := splitKeyValue(line); ok {
			commit()
			currentKey = key
			currentValue = []string{value}
			continue
		}
		if currentKey == "" {
			// Content before any KEY: line inside the block body is
			// malformed — the grammar requires every field to be named.
			return nil, &models.ParseError{Reason: "unlabeled_content", Raw: raw}
		}
		currentValue = append(currentValue, line)
	}
	commit()

	return &models.Action{
		Tool:   models.ToolID(toolName),
		Params: params,
		Raw:    raw,
		Index:  index,
	}, nil
}

// splitKeyValue recognizes a "KEY: value" line. A key is a contiguous run
// of uppercase letters/underscores immediately followed by a colon, which
// distinguishes a new field from a continuation line of free-form prose
// that happens to contain a colon.
func splitKeyValue(line string) (key, value string, ok bool) {
	colonIdx := strings.Index(line, ":")
	if colonIdx <= 0 {
		return "", "", false
	}
	candidate := line[:colonIdx]
	for _, r := range candidate {
		if !(r == '_' || (r >= 'A' && r <= 'Z')) {
			return "", "", false
		}
	}
	return candidate, strings.TrimSpace(line[colonIdx+1:]), true
}

// detectTerminalSentinel recognizes TASK_COMPLETED appearing outside any
// ACTION block, either alone or introduced by "TASK_COMPLETED:" prose
// (§4.4). The remaining text of the response from that point on is
// captured as the task's final message.
func detectTerminalSentinel(trimmed string, result *models.ParseResult) {
	if result.Terminal {
		return
	}
	if trimmed == terminalSentinel {
		result.Terminal = true
		return
	}
	if strings.HasPrefix(trimmed, terminalSentinel+":") {
		result.Terminal = true
		result.FinalMessage = strings.TrimSpace(strings.TrimPrefix(trimmed, terminalSentinel+":"))
	}
}
