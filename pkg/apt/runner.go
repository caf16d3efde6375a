// Package apt wraps the Debian/Ubuntu package manager (apt-get and dpkg)
// for the provisioning flow.
package apt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner is an interface for executing package-manager commands,
// allowing for testing.
type CommandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the default command runner that uses the real system.
type ExecRunner struct {
	// Stream receives live command output when set (verbose mode).
	Stream io.Writer
}

// LookPath finds the path to an executable.
func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its stdout. Stderr is folded into the
// returned error so package-manager diagnostics are not lost.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")

	var stdout, stderr bytes.Buffer
	if r.Stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Stream)
		cmd.Stderr = io.MultiWriter(&stderr, r.Stream)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return stdout.String(), fmt.Errorf("%s failed: %s", name, errMsg)
		}
		return stdout.String(), fmt.Errorf("%s failed: %w", name, err)
	}

	return stdout.String(), nil
}
