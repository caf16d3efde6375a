package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jaspreet-dot-casa/wkprov/pkg/artifact"
	"github.com/jaspreet-dot-casa/wkprov/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/wkprov/pkg/provision"
	"github.com/jaspreet-dot-casa/wkprov/pkg/ui"
)

// provisionFlags holds the provision command's flag values.
type provisionFlags struct {
	codename string
	arch     string
	dir      string
	repair   bool
	keep     bool
	yes      bool
	plain    bool
	verbose  bool
}

// newProvisionCmd creates the provision subcommand
func newProvisionCmd() *cobra.Command {
	var flags provisionFlags

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Install wkhtmltopdf on this host",
		Long: `Run the full provisioning sequence: refresh the package index, install
font/rendering dependencies, download the wkhtmltox package, install it,
and verify the installed binary.

The sequence stops at the first failure. With --repair (the default), a
failed package install is followed by one 'apt-get -f install' attempt;
with --repair=false that failure is immediately fatal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProvision(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.codename, "codename", "", "Distribution codename (default: focal, or the configured default)")
	cmd.Flags().StringVar(&flags.arch, "arch", "", "Architecture (default: amd64, or the configured default)")
	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "Directory the package is downloaded into (default: current directory)")
	cmd.Flags().BoolVar(&flags.repair, "repair", true, "Attempt 'apt-get -f install' after a failed package install")
	cmd.Flags().BoolVar(&flags.keep, "keep-artifact", true, "Leave the downloaded .deb on disk after installing")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "Disable the progress display, print plain lines")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Stream package-manager output")

	return cmd
}

// runProvision executes the provision command.
func runProvision(cmd *cobra.Command, flags provisionFlags) error {
	cfg, err := globalconfig.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rel, err := resolveRelease(artifact.NewRegistry(), cfg, flags.codename, flags.arch)
	if err != nil {
		return err
	}

	workDir := flags.dir
	if workDir == "" {
		workDir = cfg.DownloadDir
	}

	repair, keep := provisionBehavior(cmd.Flags(), cfg.Preferences)

	opts := provision.Options{
		Release:      *rel,
		Packages:     provision.DefaultPackages,
		WorkDir:      workDir,
		RepairBroken: repair,
		KeepArtifact: keep,
	}

	if !flags.yes {
		confirmed, err := confirmProvision(rel, opts.Packages)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	p := provision.New()
	p.SetVerbose(flags.verbose)

	var result *provision.Result
	var runErr error
	if flags.plain || flags.verbose || cfg.Preferences.PlainOutput {
		result, runErr = p.Run(context.Background(), opts, plainProgress())
	} else {
		result, runErr = ui.RunProvision(context.Background(), p, opts)
	}

	// Record the artifact even when a later step failed: the download
	// already happened and the file is on disk.
	if result != nil && result.ArtifactPath != "" && keep {
		recordArtifact(cfg, *rel, result)
	}

	if runErr != nil {
		return fmt.Errorf("provisioning failed: %w", runErr)
	}

	fmt.Println()
	fmt.Printf("%s wkhtmltopdf %s installed (%s)\n", ui.StatusIcon(true), result.Version, result.Duration.Round(time.Millisecond))
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render(result.VersionRaw))
	if result.Repaired {
		fmt.Printf("  %s\n", ui.WarningStyle.Render("note: the direct install failed; dependency repair recovered it"))
	}

	return nil
}

// provisionBehavior resolves the repair and keep-artifact switches.
// An explicitly set flag wins; otherwise the config preference applies.
func provisionBehavior(fs *pflag.FlagSet, prefs globalconfig.Preferences) (repair, keep bool) {
	repair, _ = fs.GetBool("repair")
	if !fs.Changed("repair") {
		repair = prefs.AutoRepair
	}
	keep, _ = fs.GetBool("keep-artifact")
	if !fs.Changed("keep-artifact") {
		keep = prefs.KeepArtifacts
	}
	return repair, keep
}

// resolveRelease picks the release build from flags, then the configured
// default, then the registry default.
func resolveRelease(registry *artifact.Registry, cfg *globalconfig.Config, codename, arch string) (*artifact.Release, error) {
	def := registry.Default()

	// Configured default fills in anything the flags left unset
	version := ""
	if !cfg.DefaultRelease.IsZero() {
		version = cfg.DefaultRelease.Version
		if codename == "" {
			codename = cfg.DefaultRelease.Codename
		}
		if arch == "" {
			arch = cfg.DefaultRelease.Arch
		}
	}
	if codename == "" {
		codename = def.Codename
	}
	if arch == "" {
		arch = def.Arch
	}

	var rel *artifact.Release
	if version != "" {
		rel = registry.FindVersion(version, codename, arch)
	} else {
		rel = registry.Find(codename, arch)
	}
	if rel == nil {
		return nil, fmt.Errorf("no known wkhtmltox build for %s/%s (see 'wkprov releases')", codename, arch)
	}

	return rel, nil
}

// confirmProvision prompts before mutating the host package database.
func confirmProvision(rel *artifact.Release, pkgs []string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Install %s?", rel)).
				Description(fmt.Sprintf("This refreshes the package index and installs: %s", strings.Join(pkgs, ", "))).
				Affirmative("Yes, install").
				Negative("No, cancel").
				Value(&confirmed),
		),
	).WithTheme(ui.Theme())

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}

	return confirmed, nil
}

// plainProgress returns a callback that prints one line per stage change.
func plainProgress() provision.ProgressCallback {
	var lastStage provision.Stage
	return func(e provision.ProgressEvent) {
		if e.Stage == lastStage {
			return
		}
		lastStage = e.Stage
		line := fmt.Sprintf("[%s] %s", e.Stage, e.Message)
		if e.IsError {
			fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(line))
			return
		}
		fmt.Println(line)
	}
}

// recordArtifact registers a downloaded package in the global config.
func recordArtifact(cfg *globalconfig.Config, rel artifact.Release, result *provision.Result) {
	entry := globalconfig.Artifact{
		ID:        rel.ID(),
		Version:   rel.Version,
		Codename:  rel.Codename,
		Arch:      rel.Arch,
		Path:      result.ArtifactPath,
		URL:       rel.URL(),
		SHA256:    rel.SHA256,
		AddedAt:   time.Now().UTC(),
		Installed: result.Success,
	}
	if info, err := os.Stat(result.ArtifactPath); err == nil {
		entry.Size = info.Size()
	}

	cfg.AddArtifact(entry)
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save config: %v\n", err)
	}
}
