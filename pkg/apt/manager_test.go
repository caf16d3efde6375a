package apt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRunner is a mock command runner for testing.
type MockRunner struct {
	LookPathFunc func(file string) (string, error)
	RunFunc      func(ctx context.Context, name string, args ...string) (string, error)
	Commands     []string
}

func (m *MockRunner) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	m.Commands = append(m.Commands, strings.Join(append([]string{name}, args...), " "))
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return "", nil
}

func TestManager_Update(t *testing.T) {
	runner := &MockRunner{}
	m := NewWithRunner(runner)

	err := m.Update(context.Background())

	require.NoError(t, err)
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "apt-get update", runner.Commands[0])
}

func TestManager_Update_Failure(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(_ context.Context, _ string, _ ...string) (string, error) {
			return "", errors.New("apt-get failed: could not resolve archive.ubuntu.com")
		},
	}
	m := NewWithRunner(runner)

	err := m.Update(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "package index refresh failed")
	assert.Contains(t, err.Error(), "could not resolve")
}

func TestManager_Install(t *testing.T) {
	runner := &MockRunner{}
	m := NewWithRunner(runner)

	err := m.Install(context.Background(), "fontconfig", "libxrender1", "xfonts-75dpi", "xfonts-base")

	require.NoError(t, err)
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "apt-get install -y fontconfig libxrender1 xfonts-75dpi xfonts-base", runner.Commands[0])
}

func TestManager_Install_NoPackages(t *testing.T) {
	runner := &MockRunner{}
	m := NewWithRunner(runner)

	err := m.Install(context.Background())

	require.NoError(t, err)
	assert.Empty(t, runner.Commands)
}

func TestManager_InstallDeb(t *testing.T) {
	runner := &MockRunner{}
	m := NewWithRunner(runner)

	err := m.InstallDeb(context.Background(), "wkhtmltox_0.12.6-1.focal_amd64.deb")

	require.NoError(t, err)
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "dpkg -i wkhtmltox_0.12.6-1.focal_amd64.deb", runner.Commands[0])
}

func TestManager_InstallDeb_Failure(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(_ context.Context, name string, _ ...string) (string, error) {
			if name == "dpkg" {
				return "", errors.New("dpkg failed: dependency problems prevent configuration")
			}
			return "", nil
		},
	}
	m := NewWithRunner(runner)

	err := m.InstallDeb(context.Background(), "wkhtmltox_0.12.6-1.focal_amd64.deb")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "wkhtmltox_0.12.6-1.focal_amd64.deb")
	assert.Contains(t, err.Error(), "dependency problems")
}

func TestManager_FixBroken(t *testing.T) {
	runner := &MockRunner{}
	m := NewWithRunner(runner)

	err := m.FixBroken(context.Background())

	require.NoError(t, err)
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "apt-get -f install -y", runner.Commands[0])
}

func TestManager_CheckInstalled(t *testing.T) {
	tests := []struct {
		name        string
		missing     string
		expectError bool
	}{
		{name: "both present", missing: "", expectError: false},
		{name: "apt-get missing", missing: "apt-get", expectError: true},
		{name: "dpkg missing", missing: "dpkg", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{
				LookPathFunc: func(file string) (string, error) {
					if file == tt.missing {
						return "", errors.New("not found")
					}
					return "/usr/bin/" + file, nil
				},
			}
			m := NewWithRunner(runner)

			err := m.CheckInstalled()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.missing)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManager_InstalledVersion(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(_ context.Context, name string, _ ...string) (string, error) {
			return "1:0.12.6-1.focal\n", nil
		},
	}
	m := NewWithRunner(runner)

	ver, err := m.InstalledVersion(context.Background(), "wkhtmltox")

	require.NoError(t, err)
	assert.Equal(t, "1:0.12.6-1.focal", ver)
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "dpkg-query -W -f ${Version} wkhtmltox", runner.Commands[0])
}

func TestManager_InstalledVersion_NotInstalled(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(_ context.Context, _ string, _ ...string) (string, error) {
			return "", errors.New("dpkg-query failed: no packages found matching wkhtmltox")
		},
	}
	m := NewWithRunner(runner)

	ver, err := m.InstalledVersion(context.Background(), "wkhtmltox")

	require.NoError(t, err)
	assert.Empty(t, ver)
}

func TestManager_InstalledVersion_QueryFailure(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(_ context.Context, _ string, _ ...string) (string, error) {
			return "", errors.New("dpkg-query failed: unable to read database")
		},
	}
	m := NewWithRunner(runner)

	_, err := m.InstalledVersion(context.Background(), "wkhtmltox")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query wkhtmltox")
}

func TestManager_SudoPrefix(t *testing.T) {
	runner := &MockRunner{}
	m := NewWithRunner(runner)
	m.sudo = true

	err := m.Update(context.Background())

	require.NoError(t, err)
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "sudo apt-get update", runner.Commands[0])
}

func TestExecRunner_Run_CapturesStdout(t *testing.T) {
	r := &ExecRunner{}

	out, err := r.Run(context.Background(), "sh", "-c", "echo hello")

	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecRunner_Run_FoldsStderrIntoError(t *testing.T) {
	r := &ExecRunner{}

	_, err := r.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
