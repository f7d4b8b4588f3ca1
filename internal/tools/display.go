package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentcore/core/pkg/models"
)

// ResolveActionDisplay is ResolveToolDisplay specialized for a parsed
// models.Action, used to render the §4.4 action grammar's output as a
// one-line human summary (e.g. for a CLI --watch stream).
func ResolveActionDisplay(act models.Action) *ToolDisplay {
	args := make(map[string]interface{}, len(act.Params))
	for k, v := range act.Params {
		args[k] = v
	}
	return ResolveToolDisplay(string(act.Tool), args, "")
}

// ToolDisplay contains formatted display info for a tool
type ToolDisplay struct {
	Name   string
	Emoji  string
	Title  string
	Label  string
	Verb   string
	Detail string
}

// ToolDisplaySpec defines display configuration for a tool
type ToolDisplaySpec struct {
	Emoji      string                       `json:"emoji,omitempty"`
	Title      string                       `json:"title,omitempty"`
	Label      string                       `json:"label,omitempty"`
	DetailKeys []string                     `json:"detailKeys,omitempty"`
	Actions    map[string]ToolDisplayAction `json:"actions,omitempty"`
}

// ToolDisplayAction defines action-specific display overrides
type ToolDisplayAction struct {
	Label      string   `json:"label,omitempty"`
	DetailKeys []string `json:"detailKeys,omitempty"`
}

// ToolDisplayConfig contains the full display configuration
type ToolDisplayConfig struct {
	Version  int                        `json:"version,omitempty"`
	Fallback *ToolDisplaySpec           `json:"fallback,omitempty"`
	Tools    map[string]ToolDisplaySpec `json:"tools,omitempty"`
}

// Detail label overrides for common keys
var DetailLabelOverrides = map[string]string{
	"agentId":           "agent",
	"sessionKey":        "session",
	"targetId":          "target",
	"targetUrl":         "url",
	"nodeId":            "node",
	"requestId":         "request",
	"messageId":         "message",
	"threadId":          "thread",
	"channelId":         "channel",
	"userId":            "user",
	"runTimeoutSeconds": "timeout",
	"timeoutSeconds":    "timeout",
	"maxChars":          "max chars",
}

// MaxDetailEntries limits the number of detail items shown
const MaxDetailEntries = 8

// defaultToolEmojis maps the catalog's tool IDs (lowercased) to their
// default emojis for event-stream rendering (§4.3's catalog).
var defaultToolEmojis = map[string]string{
	"create_file":   "📝",
	"read_file":     "📖",
	"execute":       "💻",
	"list_files":    "📂",
	"update_todo":   "🗒️",
	"verify":        "✅",
	"browser":       "🌐",
	"search_web":    "🔎",
	"think":         "💭",
	"delegate":      "🤝",
	"task_completed": "🏁",
	"tool":          "🧩", // fallback
}

// DefaultToolDisplayConfig returns the rendering table for the full §4.3
// tool catalog.
func DefaultToolDisplayConfig() *ToolDisplayConfig {
	return &ToolDisplayConfig{
		Version: 1,
		Fallback: &ToolDisplaySpec{
			Emoji:      "🧩",
			DetailKeys: []string{},
		},
		Tools: map[string]ToolDisplaySpec{
			"create_file": {
				Emoji:      "📝",
				Title:      "Create File",
				Label:      "Writing",
				DetailKeys: []string{"PATH"},
			},
			"read_file": {
				Emoji:      "📖",
				Title:      "Read File",
				Label:      "Reading",
				DetailKeys: []string{"PATH"},
			},
			"execute": {
				Emoji:      "💻",
				Title:      "Execute",
				Label:      "Running",
				DetailKeys: []string{"COMMAND"},
			},
			"list_files": {
				Emoji:      "📂",
				Title:      "List Files",
				Label:      "Listing",
				DetailKeys: []string{"PATH"},
			},
			"update_todo": {
				Emoji:      "🗒️",
				Title:      "Update Todo",
				Label:      "Updating plan",
				DetailKeys: []string{},
			},
			"verify": {
				Emoji:      "✅",
				Title:      "Verify",
				Label:      "Verifying",
				DetailKeys: []string{"COMMAND"},
			},
			"browser": {
				Emoji:      "🌐",
				Title:      "Browser",
				Label:      "Browsing",
				DetailKeys: []string{"INSTRUCTION"},
			},
			"search_web": {
				Emoji:      "🔎",
				Title:      "Search Web",
				Label:      "Researching",
				DetailKeys: []string{"QUERY"},
			},
			"think": {
				Emoji:      "💭",
				Title:      "Think",
				Label:      "Reasoning",
				DetailKeys: []string{"THOUGHT"},
			},
			"delegate": {
				Emoji:      "🤝",
				Title:      "Delegate",
				Label:      "Delegating",
				DetailKeys: []string{"SHAPE", "AGENTS"},
			},
			"task_completed": {
				Emoji:      "🏁",
				Title:      "Task Completed",
				Label:      "Finishing",
				DetailKeys: []string{},
			},
		},
	}
}

// ResolveToolDisplay resolves display info for a tool call
func ResolveToolDisplay(name string, args interface{}, meta string) *ToolDisplay {
	config := DefaultToolDisplayConfig()
	normalizedName := normalizeToolName(name)

	display := &ToolDisplay{
		Name:  name,
		Title: defaultTitle(name),
		Verb:  "Using",
	}

	// Look up tool spec
	spec, found := config.Tools[normalizedName]
	if !found {
		// Try original name
		spec, found = config.Tools[name]
	}

	if !found && config.Fallback != nil {
		spec = *config.Fallback
	}

	// Apply spec
	if spec.Emoji != "" {
		display.Emoji = spec.Emoji
	} else if emoji, ok := defaultToolEmojis[normalizedName]; ok {
		display.Emoji = emoji
	} else {
		display.Emoji = defaultToolEmojis["tool"]
	}

	if spec.Title != "" {
		display.Title = spec.Title
	}
	if spec.Label != "" {
		display.Label = spec.Label
	}

	// Check for action-specific overrides
	if spec.Actions != nil && args != nil {
		action := getActionFromArgs(args)
		if action != "" {
			if actionSpec, ok := spec.Actions[action]; ok {
				if actionSpec.Label != "" {
					display.Label = actionSpec.Label
				}
				if len(actionSpec.DetailKeys) > 0 {
					spec.DetailKeys = actionSpec.DetailKeys
				}
			}
		}
	}

	// Resolve detail
	display.Detail = resolveDetail(name, args, spec.DetailKeys)

	return display
}

// FormatToolDetail formats the detail portion of tool display
func FormatToolDetail(display *ToolDisplay) string {
	if display.Detail == "" {
		return ""
	}
	return display.Detail
}

// FormatToolSummary formats a complete tool summary line
func FormatToolSummary(display *ToolDisplay) string {
	parts := []string{}

	if display.Emoji != "" {
		parts = append(parts, display.Emoji)
	}

	label := display.Label
	if label == "" {
		label = display.Title
	}
	if label != "" {
		parts = append(parts, label)
	}

	summary := strings.Join(parts, " ")

	if display.Detail != "" {
		summary += ": " + display.Detail
	}

	return summary
}

// normalizeToolName cleans up tool name
func normalizeToolName(name string) string {
	// Remove common prefixes/suffixes
	normalized := strings.ToLower(name)

	// Handle namespaced tools like "mcp__server__tool"
	if strings.Contains(normalized, "__") {
		parts := strings.Split(normalized, "__")
		normalized = parts[len(parts)-1]
	}

	// Handle dotted namespaces like "server.tool"
	if strings.Contains(normalized, ".") {
		parts := strings.Split(normalized, ".")
		normalized = parts[len(parts)-1]
	}

	// Remove _tool suffix
	normalized = strings.TrimSuffix(normalized, "_tool")

	return normalized
}

// defaultTitle creates a default title from tool name
func defaultTitle(name string) string {
	// Get normalized name and convert to title case
	normalized := normalizeToolName(name)

	// Replace underscores and hyphens with spaces
	normalized = strings.ReplaceAll(normalized, "_", " ")
	normalized = strings.ReplaceAll(normalized, "-", " ")

	// Title case each word
	words := strings.Fields(normalized)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(string(word[0])) + word[1:]
		}
	}

	return strings.Join(words, " ")
}

// coerceDisplayValue converts a value to a display string
func coerceDisplayValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case int, int64, int32:
		return fmt.Sprintf("%d", v)
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		items := make([]string, 0, len(v))
		for _, item := range v {
			s := coerceDisplayValue(item)
			if s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, ", ")
	case map[string]interface{}:
		// Try common name keys
		for _, key := range []string{"name", "id", "path", "value"} {
			if val, ok := v[key]; ok {
				return coerceDisplayValue(val)
			}
		}
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// lookupValueByPath gets a value from args using dot notation path
func lookupValueByPath(args interface{}, path string) interface{} {
	if args == nil || path == "" {
		return nil
	}

	parts := strings.Split(path, ".")

	current := args
	for _, part := range parts {
		switch v := current.(type) {
		case map[string]interface{}:
			val, ok := v[part]
			if !ok {
				return nil
			}
			current = val
		default:
			return nil
		}
	}

	return current
}

// resolveDetailFromKeys extracts details from args using specified keys
func resolveDetailFromKeys(args interface{}, keys []string) string {
	if args == nil || len(keys) == 0 {
		return ""
	}

	details := []string{}
	count := 0

	for _, key := range keys {
		if count >= MaxDetailEntries {
			break
		}

		value := lookupValueByPath(args, key)
		if value == nil {
			continue
		}

		strValue := coerceDisplayValue(value)
		if strValue == "" {
			continue
		}

		// Shorten paths
		strValue = shortenHomePath(strValue)

		details = append(details, strValue)
		count++
	}

	return strings.Join(details, " · ")
}

// resolvePathDetail extracts a shortened PATH detail for create_file,
// read_file, and list_files.
func resolvePathDetail(args interface{}) string {
	argsMap, ok := args.(map[string]interface{})
	if !ok {
		return ""
	}
	if p, ok := argsMap["PATH"].(string); ok {
		return shortenHomePath(p)
	}
	return ""
}

// shortenHomePath replaces home directory with ~
func shortenHomePath(path string) string {
	if path == "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	// Clean path for comparison
	cleanPath := filepath.Clean(path)
	cleanHome := filepath.Clean(home)

	if strings.HasPrefix(cleanPath, cleanHome) {
		return "~" + cleanPath[len(cleanHome):]
	}

	return path
}

// getActionFromArgs extracts the action parameter from args
func getActionFromArgs(args interface{}) string {
	argsMap, ok := args.(map[string]interface{})
	if !ok {
		return ""
	}

	// Try common action key names
	for _, key := range []string{"action", "type", "method", "operation"} {
		if val, ok := argsMap[key].(string); ok {
			return val
		}
	}

	return ""
}

// resolveDetail determines the detail string based on tool type and args
func resolveDetail(name string, args interface{}, detailKeys []string) string {
	normalizedName := normalizeToolName(name)

	// Special handling for certain tools
	switch normalizedName {
	case "create_file", "read_file", "list_files":
		return resolvePathDetail(args)
	}

	// Use detail keys from config
	if len(detailKeys) > 0 {
		return resolveDetailFromKeys(args, detailKeys)
	}

	return ""
}
