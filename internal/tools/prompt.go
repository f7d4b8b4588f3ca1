package tools

import (
	"fmt"
	"strings"
)

// RenderCatalogSection renders the fixed, full tool catalog as the
// system-prompt section the Agent Loop prepends to every LLM call. Per §8,
// this text never varies within a task's lifetime — phase-dependent
// availability is communicated only through the bias map (mask.go), never
// by adding or removing lines here.
func (r *Registry) RenderCatalogSection() string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, spec := range r.All() {
		b.WriteString(fmt.Sprintf("- %s: %s\n", spec.ID, spec.Description))
		for _, p := range spec.Params {
			req := ""
			if p.Required {
				req = ", required"
			}
			b.WriteString(fmt.Sprintf("    %s (%s%s): %s\n", p.Name, "string", req, p.Description))
		}
	}
	return b.String()
}
