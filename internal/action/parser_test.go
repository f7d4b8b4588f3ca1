package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/pkg/models"
)

func TestParseSingleAction(t *testing.T) {
	response := "I'll create the file now.\n" +
		"ACTION: CREATE_FILE\n" +
		"PATH: hello.py\n" +
		"CONTENT: print('hi')\n" +
		"---END---\n"

	result := Parse(response)
	require.Len(t, result.Actions, 1)
	assert.Empty(t, result.Errors)
	assert.Equal(t, models.ToolCreateFile, result.Actions[0].Tool)
	assert.Equal(t, "hello.py", result.Actions[0].Params["PATH"])
	assert.Equal(t, "print('hi')", result.Actions[0].Params["CONTENT"])
}

func TestParseMultilineContentField(t *testing.T) {
	response := "ACTION: CREATE_FILE\n" +
		"PATH: script.py\n" +
		"CONTENT: line one\n" +
		"\n" +
		"line three after a blank\n" +
		"---END---\n"

	result := Parse(response)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, "line one\n\nline three after a blank", result.Actions[0].Params["CONTENT"])
}

func TestParseMultipleBlocksInOrder(t *testing.T) {
	response := "ACTION: CREATE_FILE\nPATH: a.txt\nCONTENT: a\n---END---\n" +
		"ACTION: EXECUTE\nCOMMAND: cat a.txt\n---END---\n"

	result := Parse(response)
	require.Len(t, result.Actions, 2)
	assert.Equal(t, 0, result.Actions[0].Index)
	assert.Equal(t, 1, result.Actions[1].Index)
	assert.Equal(t, models.ToolCreateFile, result.Actions[0].Tool)
	assert.Equal(t, models.ToolExecute, result.Actions[1].Tool)
}

func TestParseTextOutsideBlocksIsIgnored(t *testing.T) {
	response := "Some preamble that mentions ACTION loosely without a colon.\n" +
		"ACTION: THINK\nTHOUGHT: considering options\n---END---\n" +
		"Some trailing commentary.\n"

	result := Parse(response)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, models.ToolThink, result.Actions[0].Tool)
}

func TestParseUnterminatedBlockReportsErrorButKeepsEarlierActions(t *testing.T) {
	response := "ACTION: CREATE_FILE\nPATH: a.txt\nCONTENT: a\n---END---\n" +
		"ACTION: EXECUTE\nCOMMAND: never closes\n"

	result := Parse(response)
	require.Len(t, result.Actions, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "unterminated_block", result.Errors[0].Reason)
}

func TestParseTaskCompletedAsActionBlockSetsTerminal(t *testing.T) {
	response := "ACTION: TASK_COMPLETED\nMESSAGE: All done, tests pass.\n---END---\n"

	result := Parse(response)
	require.Len(t, result.Actions, 1)
	assert.True(t, result.Terminal)
	assert.Equal(t, "All done, tests pass.", result.FinalMessage)
}

func TestParseTaskCompletedSentinelAloneOutsideBlock(t *testing.T) {
	response := "TASK_COMPLETED\n"

	result := Parse(response)
	assert.True(t, result.Terminal)
	assert.Empty(t, result.FinalMessage)
}

func TestParseTaskCompletedPrefixedProseOutsideBlock(t *testing.T) {
	response := "TASK_COMPLETED: The file was created and the script runs cleanly.\n"

	result := Parse(response)
	assert.True(t, result.Terminal)
	assert.Equal(t, "The file was created and the script runs cleanly.", result.FinalMessage)
}

func TestParseUnlabeledContentInsideBlockIsMalformed(t *testing.T) {
	response := "ACTION: CREATE_FILE\nthis has no key prefix\n---END---\n"

	result := Parse(response)
	assert.Empty(t, result.Actions)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "unlabeled_content", result.Errors[0].Reason)
}

func TestParseEmptyResponseProducesNoActions(t *testing.T) {
	result := Parse("")
	assert.Empty(t, result.Actions)
	assert.Empty(t, result.Errors)
	assert.False(t, result.Terminal)
}
