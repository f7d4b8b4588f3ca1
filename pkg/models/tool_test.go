package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolSpecAllowedIn(t *testing.T) {
	spec := ToolSpec{
		ID: ToolExecute,
		Availability: map[Phase]bool{
			PhaseExecuting: true,
			PhaseVerifying: true,
		},
	}

	assert.True(t, spec.AllowedIn(PhaseExecuting))
	assert.True(t, spec.AllowedIn(PhaseVerifying))
	assert.False(t, spec.AllowedIn(PhasePlanning))
	assert.False(t, spec.AllowedIn(PhaseLearning))
}

func TestToolSpecSchema(t *testing.T) {
	spec := ToolSpec{
		ID: ToolCreateFile,
		Params: []ParamSpec{
			{Name: "path", Required: true},
			{Name: "content", Required: true},
		},
	}

	schema := spec.Schema()
	require.NotEmpty(t, schema)
	assert.Contains(t, string(schema), "\"path\"")
	assert.Contains(t, string(schema), "\"required\"")
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.True(t, TaskCompleted.Terminal())
	assert.True(t, TaskFailed.Terminal())
	assert.True(t, TaskCancelled.Terminal())
	assert.False(t, TaskExecuting.Terminal())
	assert.False(t, TaskQueued.Terminal())
}
