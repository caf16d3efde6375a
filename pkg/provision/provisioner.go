// Package provision implements the wkhtmltopdf provisioning sequence:
// refresh the package index, install dependencies, download the wkhtmltox
// package, install it, and verify the installed binary.
package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaspreet-dot-casa/wkprov/pkg/apt"
	"github.com/jaspreet-dot-casa/wkprov/pkg/artifact"
)

// DefaultPackages are the font/rendering support packages wkhtmltox needs.
var DefaultPackages = []string{"fontconfig", "libxrender1", "xfonts-75dpi", "xfonts-base"}

// Options configures a provisioning run.
type Options struct {
	Release      artifact.Release // Which wkhtmltox build to install
	Packages     []string         // OS dependencies; DefaultPackages when empty
	WorkDir      string           // Where the .deb is written; "." when empty
	DownloadURL  string           // Overrides the release URL (mirrors, testing)
	RepairBroken bool             // Attempt apt-get -f install after a failed dpkg -i
	KeepArtifact bool             // Leave the .deb on disk after installing
}

// DefaultOptions returns options for the standard run: the default release,
// the default dependency set, the current directory, repair enabled.
func DefaultOptions() Options {
	return Options{
		Release:      artifact.NewRegistry().Default(),
		Packages:     DefaultPackages,
		WorkDir:      ".",
		RepairBroken: true,
		KeepArtifact: true,
	}
}

// Result represents the outcome of a provisioning run.
type Result struct {
	Success      bool
	RunID        string // Unique identifier for this run
	Duration     time.Duration
	Version      string // Version reported by the installed binary
	VersionRaw   string // Full --version output
	ArtifactPath string // Where the .deb was written
	Repaired     bool   // True if the repair fallback ran and succeeded
	Logs         []string
	Error        error
}

// Provisioner executes the provisioning sequence.
type Provisioner struct {
	pkgs   *apt.Manager
	dl     *artifact.Downloader
	runner apt.CommandRunner
}

// New creates a Provisioner backed by the real system.
func New() *Provisioner {
	return &Provisioner{
		pkgs:   apt.New(),
		dl:     artifact.NewDownloader(),
		runner: &apt.ExecRunner{},
	}
}

// NewWithDeps creates a Provisioner with custom dependencies (for testing).
func NewWithDeps(pkgs *apt.Manager, dl *artifact.Downloader, runner apt.CommandRunner) *Provisioner {
	return &Provisioner{pkgs: pkgs, dl: dl, runner: runner}
}

// SetVerbose streams live package-manager output to stdout.
func (p *Provisioner) SetVerbose(v bool) {
	p.pkgs.SetVerbose(v)
}

// Validate checks that provisioning can proceed with the given options.
func (p *Provisioner) Validate(opts *Options) error {
	if err := p.pkgs.CheckInstalled(); err != nil {
		return err
	}

	if opts.WorkDir != "" && opts.WorkDir != "." {
		if _, err := os.Stat(opts.WorkDir); err != nil {
			return fmt.Errorf("working directory %s is not accessible: %w", opts.WorkDir, err)
		}
	}

	return nil
}

// Run executes the provisioning sequence. The sequence is strictly
// sequential and stops at the first failure; nothing already done is rolled
// back. The returned Result always carries the run's logs and duration.
func (p *Provisioner) Run(ctx context.Context, opts Options, progress ProgressCallback) (*Result, error) {
	if progress == nil {
		progress = NoOpProgress
	}
	if len(opts.Packages) == 0 {
		opts.Packages = DefaultPackages
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}

	result := &Result{
		RunID: uuid.New().String(),
		Logs:  make([]string, 0),
	}
	start := time.Now()

	rel := opts.Release

	// Stage 1: Validate (5%)
	progress(NewProgressEventWithCommand(StageValidating, "Validating host...", "apt-get, dpkg", 5))
	if err := p.Validate(&opts); err != nil {
		return p.fail(result, err, start, progress), err
	}
	result.Logs = append(result.Logs, "host validated")

	// Stage 2: Refresh package index (15%)
	progress(NewProgressEventWithCommand(StageUpdating, "Refreshing package index...", "apt-get update", 15))
	if err := p.pkgs.Update(ctx); err != nil {
		return p.fail(result, err, start, progress), err
	}
	result.Logs = append(result.Logs, "package index refreshed")

	// Stage 3: Install OS dependencies (35%)
	progress(NewProgressEventWithDetail(
		StageDeps,
		"Installing dependencies...",
		strings.Join(opts.Packages, " "),
		35,
	))
	if err := p.pkgs.Install(ctx, opts.Packages...); err != nil {
		return p.fail(result, err, start, progress), err
	}
	result.Logs = append(result.Logs, fmt.Sprintf("installed dependencies: %s", strings.Join(opts.Packages, " ")))

	// Stage 4: Download the package (60%)
	url := opts.DownloadURL
	if url == "" {
		url = rel.URL()
	}
	progress(NewProgressEventWithDetail(StageDownloading, fmt.Sprintf("Downloading %s...", rel.Filename()), url, 60))
	debPath, err := p.download(ctx, rel, url, opts.WorkDir, progress)
	if err != nil {
		return p.fail(result, err, start, progress), err
	}
	result.ArtifactPath = debPath
	result.Logs = append(result.Logs, fmt.Sprintf("downloaded %s", debPath))

	// Stage 5: Install the package (80%), with the optional one-shot repair
	progress(NewProgressEventWithCommand(StageInstalling, fmt.Sprintf("Installing %s...", rel.Filename()), "dpkg -i "+debPath, 80))
	if err := p.pkgs.InstallDeb(ctx, debPath); err != nil {
		if !opts.RepairBroken {
			return p.fail(result, err, start, progress), err
		}

		result.Logs = append(result.Logs, fmt.Sprintf("dpkg install failed, attempting repair: %v", err))
		progress(NewProgressEventWithCommand(StageRepairing, "Repairing dependencies...", "apt-get -f install -y", 85))
		if repairErr := p.pkgs.FixBroken(ctx); repairErr != nil {
			err = fmt.Errorf("install failed and repair did not recover: %w", repairErr)
			return p.fail(result, err, start, progress), err
		}
		result.Repaired = true
		result.Logs = append(result.Logs, "dependency repair succeeded")
	} else {
		result.Logs = append(result.Logs, "package installed")
	}

	// Stage 6: Verify the installed binary (95%)
	progress(NewProgressEventWithCommand(StageVerifying, "Verifying installation...", "wkhtmltopdf --version", 95))
	version, raw, err := p.verify(ctx)
	if err != nil {
		return p.fail(result, err, start, progress), err
	}
	result.Version = version
	result.VersionRaw = raw
	result.Logs = append(result.Logs, "installed version: "+raw)

	if !opts.KeepArtifact {
		if err := os.Remove(debPath); err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("could not remove %s: %v", debPath, err))
		}
	}

	progress(NewProgressEvent(StageComplete, fmt.Sprintf("wkhtmltopdf %s installed", version), 100))
	result.Success = true
	result.Duration = time.Since(start)

	return result, nil
}

// download fetches the release package into workDir under its canonical
// filename and returns the path.
func (p *Provisioner) download(ctx context.Context, rel artifact.Release, url, workDir string, progress ProgressCallback) (string, error) {
	destPath := filepath.Join(workDir, rel.Filename())

	err := p.dl.Download(ctx, artifact.DownloadOptions{
		URL:      url,
		DestPath: destPath,
		SHA256:   rel.SHA256,
		OnProgress: func(downloaded, total int64) {
			if total > 0 {
				// Map download progress into the 60-78% band
				pct := 60 + int(float64(downloaded)/float64(total)*18)
				progress(NewProgressEvent(StageDownloading, fmt.Sprintf("Downloading %s...", rel.Filename()), pct))
			}
		},
	})
	if err != nil {
		return "", err
	}

	return destPath, nil
}

// versionPattern matches the version in "wkhtmltopdf 0.12.6 (with patched qt)".
var versionPattern = regexp.MustCompile(`(\d+\.\d+\.\d+)`)

// verify runs the installed binary with --version and returns the parsed
// version plus the raw output.
func (p *Provisioner) verify(ctx context.Context) (string, string, error) {
	if _, err := p.runner.LookPath("wkhtmltopdf"); err != nil {
		return "", "", fmt.Errorf("wkhtmltopdf not found after install: %w", err)
	}

	out, err := p.runner.Run(ctx, "wkhtmltopdf", "--version")
	if err != nil {
		return "", "", fmt.Errorf("version check failed: %w", err)
	}

	raw := strings.TrimSpace(out)
	version := versionPattern.FindString(raw)
	if version == "" {
		return "", raw, fmt.Errorf("could not parse version from %q", raw)
	}

	return version, raw, nil
}

// fail records the failure on the result and reports it as a progress event.
func (p *Provisioner) fail(result *Result, err error, start time.Time, progress ProgressCallback) *Result {
	result.Success = false
	result.Error = err
	result.Duration = time.Since(start)
	result.Logs = append(result.Logs, "error: "+err.Error())
	progress(NewErrorEvent(err.Error()))
	return result
}
