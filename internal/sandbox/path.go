package sandbox

import (
	"errors"
	"path"
	"strings"

	"github.com/agentcore/core/internal/exec"
)

// ErrPathEscapesWorkspace is returned when a CREATE_FILE/READ_FILE/LIST_FILES
// path would resolve outside the sandbox's workspace root (§4.11.d: "path
// must be under the workspace root").
var ErrPathEscapesWorkspace = errors.New("path escapes workspace root")

// ValidateWorkspacePath rejects control characters (exec.ControlChars, the
// same check the provider's own argv construction uses) and ".." segments
// that would let an action climb out of the workspace root once joined
// against it.
func ValidateWorkspacePath(p string) error {
	if p == "" || p == "." {
		return nil
	}
	if exec.ControlChars.MatchString(p) {
		return errors.New("path contains control characters")
	}
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return ErrPathEscapesWorkspace
	}
	return nil
}
