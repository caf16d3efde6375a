package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/wkprov/pkg/apt"
	"github.com/jaspreet-dot-casa/wkprov/pkg/artifact"
	"github.com/jaspreet-dot-casa/wkprov/pkg/globalconfig"
)

func TestNewRootCmd(t *testing.T) {
	rootCmd := newRootCmd()

	assert.Equal(t, "wkprov", rootCmd.Use)
	assert.Equal(t, "wkhtmltopdf Host Provisioner", rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmdHelp(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"--help"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "wkprov")
	assert.Contains(t, output, "provision")
	assert.Contains(t, output, "fetch")
	assert.Contains(t, output, "releases")
	assert.Contains(t, output, "artifacts")
	assert.Contains(t, output, "doctor")
}

func TestRootCmdVersion(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"--version"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "wkprov version")
}

func TestReleasesCmd(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"releases"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "wkhtmltox_0.12.6-1.focal_amd64.deb")
	assert.Contains(t, output, "bionic")
}

func TestArtifactsCmdEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"artifacts"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "No artifacts downloaded yet")
}

// stubRunner answers dpkg-query with a fixed version.
type stubRunner struct {
	version string
}

func (s *stubRunner) LookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func (s *stubRunner) Run(_ context.Context, name string, _ ...string) (string, error) {
	if name == "dpkg-query" {
		return s.version, nil
	}
	return "", nil
}

func TestArtifactsCmd_ShowsInstalledPackageVersion(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := globalconfig.NewConfig()
	cfg.AddArtifact(globalconfig.Artifact{
		ID:        "wkhtmltox-0.12.6-focal-amd64",
		Version:   "0.12.6",
		Path:      "/tmp/wkhtmltox_0.12.6-1.focal_amd64.deb",
		Installed: true,
	})
	require.NoError(t, cfg.Save())

	cmd := newArtifactsCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	pkgs := apt.NewWithRunner(&stubRunner{version: "1:0.12.6-1.focal\n"})
	err := runArtifactList(cmd, pkgs)

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Installed wkhtmltox package: 1:0.12.6-1.focal")
	assert.Contains(t, output, "wkhtmltox-0.12.6-focal-amd64")
}

func TestProvisionBehavior(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		prefs        globalconfig.Preferences
		expectRepair bool
		expectKeep   bool
	}{
		{
			name:         "defaults follow preferences",
			args:         nil,
			prefs:        globalconfig.Preferences{AutoRepair: false, KeepArtifacts: false},
			expectRepair: false,
			expectKeep:   false,
		},
		{
			name:         "preferences enabled",
			args:         nil,
			prefs:        globalconfig.Preferences{AutoRepair: true, KeepArtifacts: true},
			expectRepair: true,
			expectKeep:   true,
		},
		{
			name:         "explicit flags win over preferences",
			args:         []string{"--repair=false", "--keep-artifact=false"},
			prefs:        globalconfig.Preferences{AutoRepair: true, KeepArtifacts: true},
			expectRepair: false,
			expectKeep:   false,
		},
		{
			name:         "explicit enable wins over disabled preferences",
			args:         []string{"--repair", "--keep-artifact"},
			prefs:        globalconfig.Preferences{AutoRepair: false, KeepArtifacts: false},
			expectRepair: true,
			expectKeep:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newProvisionCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			repair, keep := provisionBehavior(cmd.Flags(), tt.prefs)

			assert.Equal(t, tt.expectRepair, repair)
			assert.Equal(t, tt.expectKeep, keep)
		})
	}
}

func TestResolveRelease(t *testing.T) {
	registry := artifact.NewRegistry()

	t.Run("defaults to focal amd64", func(t *testing.T) {
		rel, err := resolveRelease(registry, globalconfig.NewConfig(), "", "")
		require.NoError(t, err)
		assert.Equal(t, "focal", rel.Codename)
		assert.Equal(t, "amd64", rel.Arch)
		assert.Equal(t, "0.12.6", rel.Version)
	})

	t.Run("flags win", func(t *testing.T) {
		rel, err := resolveRelease(registry, globalconfig.NewConfig(), "bionic", "amd64")
		require.NoError(t, err)
		assert.Equal(t, "bionic", rel.Codename)
	})

	t.Run("configured default used when flags unset", func(t *testing.T) {
		cfg := globalconfig.NewConfig()
		cfg.DefaultRelease = globalconfig.ReleaseSelect{Version: "0.12.5", Codename: "bionic", Arch: "amd64"}

		rel, err := resolveRelease(registry, cfg, "", "")
		require.NoError(t, err)
		assert.Equal(t, "0.12.5", rel.Version)
		assert.Equal(t, "bionic", rel.Codename)
	})

	t.Run("unknown build is an error", func(t *testing.T) {
		_, err := resolveRelease(registry, globalconfig.NewConfig(), "jammy", "arm64")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jammy/arm64")
	})
}

func TestSubcommandHelp(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		expects []string
	}{
		{
			name:    "provision help",
			args:    []string{"provision", "--help"},
			expects: []string{"package index", "--repair", "--yes"},
		},
		{
			name:    "fetch help",
			args:    []string{"fetch", "--help"},
			expects: []string{"Download", "--codename"},
		},
		{
			name:    "doctor help",
			args:    []string{"doctor", "--help"},
			expects: []string{"apt-get", "fontconfig"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd := newRootCmd()
			rootCmd.SetArgs(tt.args)

			var buf bytes.Buffer
			rootCmd.SetOut(&buf)

			err := rootCmd.Execute()
			require.NoError(t, err)

			output := buf.String()
			for _, expect := range tt.expects {
				assert.Contains(t, output, expect)
			}
		})
	}
}
