package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/wkprov/pkg/apt"
	"github.com/jaspreet-dot-casa/wkprov/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/wkprov/pkg/ui"
)

// newArtifactsCmd creates the artifacts subcommand
func newArtifactsCmd() *cobra.Command {
	var remove string
	var deleteFile bool

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List or remove downloaded wkhtmltox packages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remove != "" {
				return runArtifactRemove(remove, deleteFile)
			}
			return runArtifactList(cmd, apt.New())
		},
	}

	cmd.Flags().StringVar(&remove, "remove", "", "Remove an artifact entry by ID")
	cmd.Flags().BoolVar(&deleteFile, "delete-file", false, "Also delete the .deb file from disk (with --remove)")

	return cmd
}

func runArtifactList(cmd *cobra.Command, pkgs *apt.Manager) error {
	cfg, err := globalconfig.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(cfg.Artifacts) == 0 {
		fmt.Fprintln(out, "No artifacts downloaded yet. Run 'wkprov fetch' or 'wkprov provision'.")
		return nil
	}

	if ver, err := pkgs.InstalledVersion(context.Background(), "wkhtmltox"); err == nil && ver != "" {
		fmt.Fprintf(out, "Installed wkhtmltox package: %s\n\n", ver)
	}

	fmt.Fprintf(out, "Found %d artifacts:\n\n", len(cfg.Artifacts))
	for _, a := range cfg.Artifacts {
		status := ui.StatusIcon(a.FileExists())
		installed := ""
		if a.Installed {
			installed = ui.SuccessStyle.Render("  installed")
		}
		fmt.Fprintf(out, "%s %s%s\n", status, a.ID, installed)
		fmt.Fprintf(out, "    %s\n", ui.SubtitleStyle.Render(a.Path))
		if !a.FileExists() {
			fmt.Fprintf(out, "    %s\n", ui.WarningStyle.Render("file missing on disk"))
		}
	}

	return nil
}

func runArtifactRemove(id string, deleteFile bool) error {
	cfg, err := globalconfig.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a := cfg.FindArtifact(id)
	if a == nil {
		return fmt.Errorf("no artifact with ID %q (see 'wkprov artifacts')", id)
	}

	if deleteFile && a.FileExists() {
		if err := os.Remove(a.Path); err != nil {
			return fmt.Errorf("could not delete %s: %w", a.Path, err)
		}
		fmt.Printf("Deleted %s\n", a.Path)
	}

	cfg.RemoveArtifact(id)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Removed %s\n", ui.StatusIcon(true), id)
	return nil
}
