package planner

import (
	"fmt"
	"strings"

	"github.com/agentcore/core/pkg/models"
)

// pendingGlyph prefixes every step on initial render (§4.5: "⬜ pending").
const pendingGlyph = "⬜"
const doneGlyph = "✅"

// RenderTodo renders plan into the todo.md contents written to the
// sandbox at initialization. Every step starts pending; UPDATE_TODO
// actions later rewrite this file wholesale as steps complete.
func RenderTodo(plan *models.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", nonEmpty(plan.Goal, "Task"))

	if len(plan.SuccessCriteria) > 0 {
		b.WriteString("## Success Criteria\n")
		for _, c := range plan.SuccessCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Steps\n")
	if len(plan.OrderedSteps) == 0 {
		fmt.Fprintf(&b, "%s Determine next action\n", pendingGlyph)
	}
	for _, step := range plan.OrderedSteps {
		fmt.Fprintf(&b, "%s %s\n", pendingGlyph, step)
	}

	if len(plan.IdentifiedRisks) > 0 {
		b.WriteString("\n## Risks\n")
		for _, r := range plan.IdentifiedRisks {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	if len(plan.RequiredResources) > 0 {
		b.WriteString("\n## Required Resources\n")
		for _, r := range plan.RequiredResources {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	return b.String()
}

// MarkStepDone flips one step's glyph from pending to done in an existing
// todo.md body, used when UPDATE_TODO is issued with the same step text
// and a completion marker rather than a full rewrite.
func MarkStepDone(todo, step string) string {
	pendingLine := pendingGlyph + " " + step
	doneLine := doneGlyph + " " + step
	return strings.Replace(todo, pendingLine, doneLine, 1)
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
