package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/pkg/models"
)

func TestParsePlanResponseExtractsJSONObject(t *testing.T) {
	response := "Here is the plan:\n" +
		`{"goal":"Build a CLI","success_criteria":["compiles","tests pass"],"ordered_steps":["scaffold","implement","test"]}` +
		"\nLet me know if you want changes."

	plan, err := parsePlanResponse(response)
	require.NoError(t, err)
	assert.Equal(t, "Build a CLI", plan.Goal)
	assert.Equal(t, []string{"compiles", "tests pass"}, plan.SuccessCriteria)
	assert.Equal(t, []string{"scaffold", "implement", "test"}, plan.OrderedSteps)
}

func TestParsePlanResponseMissingFieldsDefaultEmpty(t *testing.T) {
	plan, err := parsePlanResponse(`{"goal":"Just the goal"}`)
	require.NoError(t, err)
	assert.Equal(t, "Just the goal", plan.Goal)
	assert.Empty(t, plan.OrderedSteps)
}

func TestParsePlanResponseNoJSONReturnsError(t *testing.T) {
	_, err := parsePlanResponse("I don't think a plan is needed here.")
	assert.Error(t, err)
}

func TestRenderTodoRendersPendingSteps(t *testing.T) {
	plan := &models.Plan{
		Goal:         "Ship the feature",
		OrderedSteps: []string{"write code", "write tests"},
	}
	todo := RenderTodo(plan)
	assert.Contains(t, todo, "# Ship the feature")
	assert.Contains(t, todo, "⬜ write code")
	assert.Contains(t, todo, "⬜ write tests")
}

func TestRenderTodoWithEmptyPlanSeedsGenericStep(t *testing.T) {
	todo := RenderTodo(&models.Plan{})
	assert.Contains(t, todo, "# Task")
	assert.Contains(t, todo, "⬜ Determine next action")
}

func TestMarkStepDoneFlipsGlyph(t *testing.T) {
	todo := RenderTodo(&models.Plan{Goal: "g", OrderedSteps: []string{"write code"}})
	updated := MarkStepDone(todo, "write code")
	assert.Contains(t, updated, "✅ write code")
	assert.NotContains(t, updated, "⬜ write code")
}
