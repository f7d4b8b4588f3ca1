package sandbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/pkg/models"
)

var mockHandle = models.SandboxHandle{ID: "handle-1", WorkspaceRoot: "/workspace"}

// fakeProvider lets tests drive Client's retry/timeout/truncation logic
// without a real sandbox backend.
type fakeProvider struct {
	createErrs []error
	createIdx  int32

	execResult *ExecResult
	execErr    error
}

func (f *fakeProvider) Create(ctx context.Context) (string, error) {
	idx := int(atomic.AddInt32(&f.createIdx, 1)) - 1
	if idx < len(f.createErrs) && f.createErrs[idx] != nil {
		return "", f.createErrs[idx]
	}
	return "handle-1", nil
}

func (f *fakeProvider) Destroy(ctx context.Context, handle string) error { return nil }
func (f *fakeProvider) WriteFile(ctx context.Context, handle, path string, data []byte) error {
	return nil
}
func (f *fakeProvider) ReadFile(ctx context.Context, handle, path string) ([]byte, error) {
	return []byte("data"), nil
}
func (f *fakeProvider) ListFiles(ctx context.Context, handle, path string) ([]Entry, error) {
	return []Entry{{Name: "a.txt"}}, nil
}
func (f *fakeProvider) Exec(ctx context.Context, handle, command, workdir string, timeout time.Duration) (*ExecResult, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.execResult, nil
}

func TestClientCreateRetriesTransientErrors(t *testing.T) {
	provider := &fakeProvider{createErrs: []error{errors.New("boom"), errors.New("boom"), nil}}
	client := New(provider, DefaultConfig(), nil)

	handle, err := client.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "handle-1", handle.ID)
	assert.EqualValues(t, 3, provider.createIdx)
}

func TestClientCreateSurfacesSandboxUnavailableAfterExhaustingRetries(t *testing.T) {
	provider := &fakeProvider{createErrs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	client := New(provider, DefaultConfig(), nil)

	_, err := client.Create(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSandboxUnavailable))
}

func TestClientExecTruncatesOversizedOutput(t *testing.T) {
	oversized := make([]byte, MaxCapturedOutput+100)
	for i := range oversized {
		oversized[i] = 'x'
	}
	provider := &fakeProvider{execResult: &ExecResult{ExitCode: 0, Stdout: string(oversized)}}
	client := New(provider, DefaultConfig(), nil)

	handle := &mockHandle
	result, err := client.Exec(context.Background(), handle, "echo hi", "", time.Second)
	require.NoError(t, err)
	assert.Len(t, result.Stdout, MaxCapturedOutput)
	assert.True(t, result.StdoutTruncated)
}

func TestClientExecDoesNotRetry(t *testing.T) {
	provider := &fakeProvider{execErr: errors.New("exec failed")}
	client := New(provider, DefaultConfig(), nil)

	_, err := client.Exec(context.Background(), &mockHandle, "false", "", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilesystem))
}
