package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"github.com/agentcore/core/internal/shell"
)

// DockerProvider is the default Provider adapter: one container per
// sandbox handle, grounded on Heikkila-Pty-Ltd-cortex's
// internal/dispatch/docker.go use of the Docker client for per-task
// isolated execution.
type DockerProvider struct {
	cli        *client.Client
	image      string
	// processes tracks each EXECUTE call's lifetime so a session status
	// query (C12) can see what is currently running in a sandbox, and so a
	// cancellation observed between dispatches has something concrete to
	// report on (§5 cancellation semantics).
	processes *shell.ProcessRegistry
}

// NewDockerProvider connects to the local Docker daemon using the standard
// environment-derived options (DOCKER_HOST, etc).
func NewDockerProvider(image string) (*DockerProvider, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: connect: %w", err)
	}
	if image == "" {
		image = "agentcore-sandbox:latest"
	}
	return &DockerProvider{cli: cli, image: image, processes: shell.NewProcessRegistry(nil)}, nil
}

// RunningExecs returns the sandbox's currently in-flight EXECUTE commands.
func (p *DockerProvider) RunningExecs() []*shell.ProcessSession {
	return p.processes.ListRunningSessions()
}

// Create starts a long-lived, idle container that subsequent RPCs exec
// into, giving the task a single addressable filesystem and process space.
func (p *DockerProvider) Create(ctx context.Context) (string, error) {
	name := fmt.Sprintf("agentcore-%d", time.Now().UnixNano())
	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:      p.image,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: "/workspace",
		Tty:        false,
	}, &container.HostConfig{
		AutoRemove: false,
	}, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}
	return resp.ID, nil
}

// Destroy force-removes the container. Not-found is treated as success so
// the operation is idempotent (§8 sandbox cleanup).
func (p *DockerProvider) Destroy(ctx context.Context, handle string) error {
	err := p.cli.ContainerRemove(ctx, handle, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("remove container: %w", err)
	}
	return nil
}

// WriteFile uploads a single-file tar archive to the container path.
func (p *DockerProvider) WriteFile(ctx context.Context, handle, filePath string, data []byte) error {
	dir := path.Dir(filePath)
	if dir != "." && dir != "/" {
		if _, err := p.execRaw(ctx, handle, []string{"mkdir", "-p", dir}); err != nil {
			return fmt.Errorf("mkdir parent: %w", err)
		}
	}

	tarball, err := singleFileTar(path.Base(filePath), data)
	if err != nil {
		return fmt.Errorf("build tar: %w", err)
	}
	if err := p.cli.CopyToContainer(ctx, handle, dir, tarball, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copy to container: %w", err)
	}
	return nil
}

// ReadFile downloads path from the container and extracts its content from
// the returned tar stream.
func (p *DockerProvider) ReadFile(ctx context.Context, handle, filePath string) ([]byte, error) {
	reader, _, err := p.cli.CopyFromContainer(ctx, handle, filePath)
	if err != nil {
		return nil, ErrNotFound
	}
	defer reader.Close()
	return firstFileFromTar(reader)
}

// ListFiles shells out to `ls -a1p` and parses the output into entries.
func (p *DockerProvider) ListFiles(ctx context.Context, handle, dirPath string) ([]Entry, error) {
	stdout, err := p.execRaw(ctx, handle, []string{"ls", "-a1p", dirPath})
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || name == "./" || name == "../" {
			continue
		}
		isDir := strings.HasSuffix(name, "/")
		entries = append(entries, Entry{Name: strings.TrimSuffix(name, "/"), IsDirectory: isDir})
	}
	return entries, nil
}

// Exec runs command in a shell inside the container, bounded by timeout.
func (p *DockerProvider) Exec(ctx context.Context, handle, command, workdir string, timeout time.Duration) (*ExecResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := []string{"sh", "-c", command}
	if workdir != "" {
		cmd = []string{"sh", "-c", fmt.Sprintf("cd %q && %s", workdir, command)}
	}

	session := &shell.ProcessSession{
		ID:            uuid.NewString(),
		Command:       command,
		SandboxHandle: handle,
		StartedAt:     time.Now(),
		CWD:           workdir,
	}
	p.processes.AddSession(session)
	p.processes.MarkBackgrounded(session) // so it surfaces in RunningExecs while in flight
	defer p.processes.DeleteSession(session.ID)

	start := time.Now()
	execID, err := p.cli.ContainerExecCreate(execCtx, handle, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("exec create: %w", err)
	}

	attach, err := p.cli.ContainerExecAttach(execCtx, execID.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("exec attach: %w", err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil && err != io.EOF {
		return nil, fmt.Errorf("exec stream: %w", err)
	}

	inspect, err := p.cli.ContainerExecInspect(execCtx, execID.ID)
	if err != nil {
		return nil, fmt.Errorf("exec inspect: %w", err)
	}

	exitCode := inspect.ExitCode
	status := shell.ExecStatusCompleted
	if exitCode != 0 {
		status = shell.ExecStatusFailed
	}
	p.processes.MarkExited(session, &exitCode, "", status)

	return &ExecResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}, nil
}

func (p *DockerProvider) execRaw(ctx context.Context, handle string, cmd []string) (string, error) {
	execID, err := p.cli.ContainerExecCreate(ctx, handle, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", err
	}
	attach, err := p.cli.ContainerExecAttach(ctx, execID.ID, container.ExecStartOptions{})
	if err != nil {
		return "", err
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil && err != io.EOF {
		return "", err
	}
	return stdout.String(), nil
}
