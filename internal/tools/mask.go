package tools

import (
	"github.com/agentcore/core/pkg/models"
)

// ForbiddenBias is the logit_bias weight applied to every token of a
// forbidden tool's name (§8, scenario 6: "value −100"). It is strong
// enough to make the token unreachable without ever touching the prompt
// text, which is what preserves the KV-cache-stable prefix across phases.
const ForbiddenBias = -100.0

// BiasFor returns a logit_bias map, keyed by tool-name token, steering the
// model away from any tool not allowed in phase p. Per §4.3/§8, the system
// prompt's tool catalog section is rendered once and never mutated between
// phases; availability is enforced purely through this bias map and through
// Validate rejecting any action the model emits anyway.
func (r *Registry) BiasFor(p models.Phase) map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bias := make(map[string]float64, len(catalogOrder))
	for _, id := range catalogOrder {
		spec := r.specs[id]
		if !spec.AllowedIn(p) {
			bias[string(id)] = ForbiddenBias
		}
	}
	return bias
}

// ValidationOutcome is the result of checking one parsed action against the
// registry and the current phase, independent of whether its parameters
// validate against the tool's schema (action.Parser handles that).
type ValidationOutcome struct {
	Allowed bool
	Reason  models.ValidationError
}

// Validate reports whether action toolID may legally be dispatched while
// the task is in phase p. A tool absent from the catalog entirely is
// unknown_tool; a tool present but not allowed in p is not_allowed_in_phase
// (§4.11.b scenario 2).
func (r *Registry) Validate(toolID models.ToolID, p models.Phase) ValidationOutcome {
	spec, ok := r.Get(toolID)
	if !ok {
		return ValidationOutcome{Allowed: false, Reason: models.ValidUnknownTool}
	}
	if !spec.AllowedIn(p) {
		return ValidationOutcome{Allowed: false, Reason: models.ValidNotAllowedInPhase}
	}
	return ValidationOutcome{Allowed: true, Reason: models.ValidOK}
}
