package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/wkprov/pkg/artifact"
	"github.com/jaspreet-dot-casa/wkprov/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/wkprov/pkg/ui"
)

// newFetchCmd creates the fetch subcommand
func newFetchCmd() *cobra.Command {
	var codename string
	var arch string
	var dir string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a wkhtmltox package without installing it",
		Long: `Download the wkhtmltox .deb for a release build and register it in the
artifact list. Nothing is installed; use 'wkprov provision' for that.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runFetch(codename, arch, dir)
		},
	}

	cmd.Flags().StringVar(&codename, "codename", "", "Distribution codename (default: focal, or the configured default)")
	cmd.Flags().StringVar(&arch, "arch", "", "Architecture (default: amd64, or the configured default)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to download into (default: current directory)")

	return cmd
}

// runFetch executes the fetch command.
func runFetch(codename, arch, dir string) error {
	cfg, err := globalconfig.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rel, err := resolveRelease(artifact.NewRegistry(), cfg, codename, arch)
	if err != nil {
		return err
	}

	destDir := dir
	if destDir == "" {
		destDir = cfg.DownloadDir
	}
	if destDir == "" {
		destDir = "."
	}

	fmt.Printf("Downloading %s\n", rel)
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render(rel.URL()))

	dl := artifact.NewDownloader()
	var lastPct int
	path, err := dl.DownloadRelease(context.Background(), *rel, destDir, func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		pct := int(float64(downloaded) / float64(total) * 100)
		if pct >= lastPct+10 {
			lastPct = pct
			fmt.Printf("  %d%% (%d of %d bytes)\n", pct, downloaded, total)
		}
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	entry := globalconfig.Artifact{
		ID:       rel.ID(),
		Version:  rel.Version,
		Codename: rel.Codename,
		Arch:     rel.Arch,
		Path:     path,
		URL:      rel.URL(),
		SHA256:   rel.SHA256,
		AddedAt:  time.Now().UTC(),
	}
	if info, err := os.Stat(path); err == nil {
		entry.Size = info.Size()
	}
	cfg.AddArtifact(entry)
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save config: %v\n", err)
	}

	fmt.Printf("%s Saved to %s\n", ui.StatusIcon(true), path)
	return nil
}
