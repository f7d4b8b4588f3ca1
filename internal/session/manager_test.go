package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/eventstream"
	"github.com/agentcore/core/internal/learning"
	"github.com/agentcore/core/internal/llm"
	"github.com/agentcore/core/internal/loop"
	"github.com/agentcore/core/internal/planner"
	"github.com/agentcore/core/internal/sandbox"
	"github.com/agentcore/core/internal/tools"
	"github.com/agentcore/core/pkg/models"
)

// scriptedProvider replays a fixed sequence of completions, regardless of
// the request content, so a test can drive a deterministic conversation
// (the planner's one-shot call, each loop iteration, and the final
// reflection call) without a real LLM endpoint.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	next      int
}

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	p.mu.Lock()
	var text string
	if p.next < len(p.responses) {
		text = p.responses[p.next]
	}
	p.next++
	p.mu.Unlock()

	ch := make(chan *llm.CompletionChunk, 1)
	ch <- &llm.CompletionChunk{Text: text, Done: true}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }
func (p *scriptedProvider) Models() []llm.ModelInfo {
	return []llm.ModelInfo{{ID: "scripted-model", ContextSize: 128000, SupportsBias: true}}
}
func (p *scriptedProvider) SupportsLogitBias() bool { return true }

// memSandboxProvider is an in-memory sandbox.Provider: WriteFile/ReadFile
// operate on a plain map, and Exec always reports the canned result
// regardless of the command, which is enough to drive the dispatch paths
// under test without a real execution environment.
type memSandboxProvider struct {
	mu    sync.Mutex
	files map[string]string
	exec  sandbox.ExecResult
}

func newMemSandboxProvider() *memSandboxProvider {
	return &memSandboxProvider{files: make(map[string]string)}
}

func (m *memSandboxProvider) Create(ctx context.Context) (string, error) { return "sbx-1", nil }
func (m *memSandboxProvider) Destroy(ctx context.Context, handle string) error { return nil }

func (m *memSandboxProvider) WriteFile(ctx context.Context, handle, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = string(data)
	return nil
}

func (m *memSandboxProvider) ReadFile(ctx context.Context, handle, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []byte(m.files[path]), nil
}

func (m *memSandboxProvider) ListFiles(ctx context.Context, handle, path string) ([]sandbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sandbox.Entry, 0, len(m.files))
	for name := range m.files {
		out = append(out, sandbox.Entry{Name: name})
	}
	return out, nil
}

func (m *memSandboxProvider) Exec(ctx context.Context, handle, command, workdir string, timeout time.Duration) (*sandbox.ExecResult, error) {
	res := m.exec
	return &res, nil
}

func newTestDeps(t *testing.T, responses []string, execResult sandbox.ExecResult) loop.Deps {
	t.Helper()

	provider := &scriptedProvider{responses: responses}
	llmClient := llm.New(provider)

	sandboxProvider := newMemSandboxProvider()
	sandboxProvider.exec = execResult
	sandboxClient := sandbox.New(sandboxProvider, sandbox.DefaultConfig(), nil)

	registry := tools.NewRegistry()
	pl := planner.New(llmClient, "scripted-model", "core prompt")

	stores, err := learning.New(nil)
	require.NoError(t, err)

	return loop.Deps{
		Sandbox:  sandboxClient,
		LLM:      llmClient,
		Model:    "scripted-model",
		Tools:    registry,
		Planner:  pl,
		Learning: stores,
		Streams:  eventstream.NewRegistry(),
	}
}

// TestHappyPathOneFile mirrors §8 scenario 1: create a file, run it,
// verify it, then complete — and the task reaches task_completed with the
// sandbox file and the final action_result's stdout intact.
func TestHappyPathOneFile(t *testing.T) {
	responses := []string{
		`{"goal": "create and run hello.py"}`, // planner
		"ACTION: CREATE_FILE\nPATH: hello.py\nCONTENT: print('hi')\n---END---\n" +
			"ACTION: EXECUTE\nCOMMAND: python hello.py\n---END---",
		"ACTION: VERIFY\nCOMMAND: python hello.py\n---END---",
		"TASK_COMPLETED: done",
		"worked well", // reflection
	}
	deps := newTestDeps(t, responses, sandbox.ExecResult{ExitCode: 0, Stdout: "hi\n"})

	mgr := New(deps, 64)
	taskID, err := mgr.Create("Create a file hello.py containing print('hi') and run it.")
	require.NoError(t, err)

	require.NoError(t, mgr.Wait(context.Background(), taskID))

	snapshot, err := mgr.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, snapshot.Status)
	assert.GreaterOrEqual(t, snapshot.VerificationsUsed, 1)

	history, _, err := mgr.Attach(taskID)
	require.NoError(t, err)

	var sawCompleted bool
	var lastActionResult *models.ActionResult
	for _, e := range history {
		if e.Kind == models.EventTaskCompleted {
			sawCompleted = true
		}
		if e.Kind == models.EventActionResult {
			lastActionResult = e.ActionResult
		}
	}
	assert.True(t, sawCompleted)
	require.NotNil(t, lastActionResult)
}

// TestIterationLimitFailsTask mirrors §8 scenario 3: a task that never
// emits TASK_COMPLETED fails with iteration_limit once MaxIterations is
// exhausted, and the sandbox is still destroyed.
func TestIterationLimitFailsTask(t *testing.T) {
	responses := make([]string, 0, 6)
	responses = append(responses, `{"goal": "loop forever"}`)
	for i := 0; i < 5; i++ {
		responses = append(responses, "ACTION: EXECUTE\nCOMMAND: echo .\n---END---")
	}
	deps := newTestDeps(t, responses, sandbox.ExecResult{ExitCode: 0, Stdout: ".\n"})
	deps.MaxIterations = 5

	mgr := New(deps, 64)
	taskID, err := mgr.Create("Loop forever printing dots.")
	require.NoError(t, err)
	require.NoError(t, mgr.Wait(context.Background(), taskID))

	snapshot, err := mgr.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskFailed, snapshot.Status)
	assert.Equal(t, 5, snapshot.IterationsUsed)
}

func TestCancelStopsTaskWithoutReflection(t *testing.T) {
	responses := []string{
		`{"goal": "sleep"}`,
	}
	deps := newTestDeps(t, responses, sandbox.ExecResult{ExitCode: 0})

	mgr := New(deps, 64)
	taskID, err := mgr.Create("Run sleep 60 && echo done.")
	require.NoError(t, err)

	require.NoError(t, mgr.Cancel(taskID))
	require.NoError(t, mgr.Wait(context.Background(), taskID))

	snapshot, err := mgr.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCancelled, snapshot.Status)

	history, _, err := mgr.Attach(taskID)
	require.NoError(t, err)
	for _, e := range history {
		assert.NotEqual(t, models.EventReflection, e.Kind)
	}
}

func TestStatusAndCancelRejectUnknownTask(t *testing.T) {
	deps := newTestDeps(t, nil, sandbox.ExecResult{})
	mgr := New(deps, 64)

	_, err := mgr.Status("does-not-exist")
	assert.Error(t, err)

	err = mgr.Cancel("does-not-exist")
	assert.Error(t, err)
}
