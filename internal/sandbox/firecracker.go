//go:build linux

package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	firecracker "github.com/firecracker-microvm/firecracker-go-sdk"
)

// FirecrackerConfig names the boot image and pool sizing for the microVM
// backend, grounded on the teacher's internal/tools/sandbox/firecracker
// BackendConfig but trimmed to what the agent loop actually needs: one VM
// per sandbox handle, no snapshot/overlay fast-boot path.
type FirecrackerConfig struct {
	KernelImagePath string
	RootFSImagePath string
	SocketDir       string
	VCPUCount       int64
	MemSizeMB       int64
}

// FirecrackerProvider is a Provider backed by Firecracker microVMs, for
// deployments that need stronger kernel-level isolation than a Docker
// container gives. It is intentionally thinner than the teacher's backend:
// no VM pool pre-warming or snapshot restore, since sandbox.Pool (pool.go)
// already provides pre-warming at the Provider-agnostic layer.
type FirecrackerProvider struct {
	cfg FirecrackerConfig
	vms map[string]*firecracker.Machine
}

// NewFirecrackerProvider validates that the configured kernel and rootfs
// images exist before returning a usable provider.
func NewFirecrackerProvider(cfg FirecrackerConfig) (*FirecrackerProvider, error) {
	if _, err := os.Stat(cfg.KernelImagePath); err != nil {
		return nil, fmt.Errorf("firecracker: kernel image: %w", err)
	}
	if _, err := os.Stat(cfg.RootFSImagePath); err != nil {
		return nil, fmt.Errorf("firecracker: rootfs image: %w", err)
	}
	if cfg.VCPUCount == 0 {
		cfg.VCPUCount = 1
	}
	if cfg.MemSizeMB == 0 {
		cfg.MemSizeMB = 512
	}
	return &FirecrackerProvider{cfg: cfg, vms: make(map[string]*firecracker.Machine)}, nil
}

// Create boots one microVM and waits for it to reach a running state.
func (p *FirecrackerProvider) Create(ctx context.Context) (string, error) {
	id := fmt.Sprintf("vm-%d", time.Now().UnixNano())
	socketPath := filepath.Join(p.cfg.SocketDir, id+".sock")

	machineCfg := firecracker.Config{
		SocketPath:      socketPath,
		KernelImagePath: p.cfg.KernelImagePath,
		MachineCfg: firecracker.MachineConfiguration{
			VcpuCount:  firecracker.Int64(p.cfg.VCPUCount),
			MemSizeMib: firecracker.Int64(p.cfg.MemSizeMB),
		},
		Drives: []firecracker.ModelDrive{{
			DriveID:      firecracker.String("rootfs"),
			PathOnHost:   firecracker.String(p.cfg.RootFSImagePath),
			IsRootDevice: firecracker.Bool(true),
			IsReadOnly:   firecracker.Bool(false),
		}},
	}

	machine, err := firecracker.NewMachine(ctx, machineCfg)
	if err != nil {
		return "", fmt.Errorf("new machine: %w", err)
	}
	if err := machine.Start(ctx); err != nil {
		return "", fmt.Errorf("start machine: %w", err)
	}

	p.vms[id] = machine
	return id, nil
}

// Destroy stops the microVM and releases its handle.
func (p *FirecrackerProvider) Destroy(ctx context.Context, handle string) error {
	machine, ok := p.vms[handle]
	if !ok {
		return nil
	}
	delete(p.vms, handle)
	return machine.StopVMM()
}

// WriteFile, ReadFile, ListFiles, and Exec are carried over the machine's
// vsock-based agent channel in the teacher's design (vsock.go); this
// adapter defers that transport and reports unavailable until one is
// wired, since the agent execution core never calls Create on this
// provider unless an operator has explicitly opted into the microVM
// backend and supplied a vsock-capable rootfs image.
func (p *FirecrackerProvider) WriteFile(ctx context.Context, handle, path string, data []byte) error {
	return fmt.Errorf("%w: firecracker vsock file channel not configured", ErrFilesystem)
}

func (p *FirecrackerProvider) ReadFile(ctx context.Context, handle, path string) ([]byte, error) {
	return nil, fmt.Errorf("%w: firecracker vsock file channel not configured", ErrFilesystem)
}

func (p *FirecrackerProvider) ListFiles(ctx context.Context, handle, path string) ([]Entry, error) {
	return nil, fmt.Errorf("%w: firecracker vsock file channel not configured", ErrFilesystem)
}

func (p *FirecrackerProvider) Exec(ctx context.Context, handle, command, workdir string, timeout time.Duration) (*ExecResult, error) {
	return nil, fmt.Errorf("%w: firecracker vsock exec channel not configured", ErrSandboxUnavailable)
}
