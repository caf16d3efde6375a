package apt

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Manager runs apt-get and dpkg operations on the host.
type Manager struct {
	runner CommandRunner
	sudo   bool
}

// New creates a Manager backed by the real system. Commands are prefixed
// with sudo when the current user is not root.
func New() *Manager {
	return &Manager{
		runner: &ExecRunner{},
		sudo:   os.Geteuid() != 0,
	}
}

// NewWithRunner creates a Manager with a custom runner (for testing).
func NewWithRunner(r CommandRunner) *Manager {
	return &Manager{runner: r}
}

// SetVerbose streams live package-manager output to stdout. It only
// affects the real runner; injected runners are left alone.
func (m *Manager) SetVerbose(v bool) {
	if _, ok := m.runner.(*ExecRunner); !ok {
		return
	}
	if v {
		m.runner = &ExecRunner{Stream: os.Stdout}
	} else {
		m.runner = &ExecRunner{}
	}
}

// command prepends sudo when required.
func (m *Manager) command(name string, args ...string) (string, []string) {
	if m.sudo {
		return "sudo", append([]string{name}, args...)
	}
	return name, args
}

// CheckInstalled verifies apt-get and dpkg are available on this host.
func (m *Manager) CheckInstalled() error {
	for _, tool := range []string{"apt-get", "dpkg"} {
		if _, err := m.runner.LookPath(tool); err != nil {
			return fmt.Errorf("%s is not installed; wkprov requires a Debian/Ubuntu host", tool)
		}
	}
	return nil
}

// Update refreshes the package index (apt-get update).
func (m *Manager) Update(ctx context.Context) error {
	name, args := m.command("apt-get", "update")
	if _, err := m.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("package index refresh failed: %w", err)
	}
	return nil
}

// Install installs the named packages (apt-get install -y).
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	name, args := m.command("apt-get", append([]string{"install", "-y"}, pkgs...)...)
	if _, err := m.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to install packages %v: %w", pkgs, err)
	}
	return nil
}

// InstallDeb installs a local .deb file (dpkg -i).
func (m *Manager) InstallDeb(ctx context.Context, debPath string) error {
	name, args := m.command("dpkg", "-i", debPath)
	if _, err := m.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to install %s: %w", debPath, err)
	}
	return nil
}

// FixBroken runs the dependency-repair install (apt-get -f install -y).
// It is the one-shot fallback after a failed InstallDeb.
func (m *Manager) FixBroken(ctx context.Context) error {
	name, args := m.command("apt-get", "-f", "install", "-y")
	if _, err := m.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("dependency repair failed: %w", err)
	}
	return nil
}

// InstalledVersion queries dpkg for the installed version of a package.
// An empty string with a nil error means the package is not installed.
func (m *Manager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	name, args := m.command("dpkg-query", "-W", "-f", "${Version}", pkg)
	out, err := m.runner.Run(ctx, name, args...)
	if err != nil {
		if strings.Contains(err.Error(), "no packages found") {
			return "", nil
		}
		return "", fmt.Errorf("failed to query %s: %w", pkg, err)
	}
	return strings.TrimSpace(out), nil
}
