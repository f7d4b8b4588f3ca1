package sandbox

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requireDockerDaemon(t *testing.T) {
	t.Helper()
	force := os.Getenv("AGENTCORE_DOCKER_TESTS") == "1"
	if testing.Short() && !force {
		t.Skip("skipping docker integration test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available on PATH")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skip("docker daemon not reachable")
	}
}

func TestDockerProviderLifecycle(t *testing.T) {
	requireDockerDaemon(t)

	provider, err := NewDockerProvider("alpine:latest")
	require.NoError(t, err)

	ctx := context.Background()
	handle, err := provider.Create(ctx)
	require.NoError(t, err)
	defer provider.Destroy(ctx, handle)

	require.NoError(t, provider.WriteFile(ctx, handle, "/workspace/hello.txt", []byte("hi")))

	data, err := provider.ReadFile(ctx, handle, "/workspace/hello.txt")
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))

	entries, err := provider.ListFiles(ctx, handle, "/workspace")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	result, err := provider.Exec(ctx, handle, "echo ready", "", 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, result.Stdout, "ready")
}
