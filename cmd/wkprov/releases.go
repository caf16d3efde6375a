package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/wkprov/pkg/artifact"
	"github.com/jaspreet-dot-casa/wkprov/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/wkprov/pkg/ui"
)

// newReleasesCmd creates the releases subcommand
func newReleasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "List the wkhtmltox builds wkprov can install",
		RunE:  runReleases,
	}
}

func runReleases(cmd *cobra.Command, _ []string) error {
	cfg, err := globalconfig.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry := artifact.NewRegistry()
	def := registry.Default()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.TitleStyle.Render("Known wkhtmltox releases"))
	fmt.Fprintln(out)

	for _, rel := range registry.Releases() {
		marker := " "
		if rel == def {
			marker = "*"
		}

		note := ""
		if a := cfg.FindArtifact(rel.ID()); a != nil && a.FileExists() {
			note = ui.SubtitleStyle.Render("  downloaded: " + a.Path)
		}

		fmt.Fprintf(out, "%s %-10s %-8s %-6s %s%s\n", marker, rel.Version+"-"+rel.Revision, rel.Codename, rel.Arch, rel.Filename(), note)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SubtitleStyle.Render("* installed by 'wkprov provision' unless --codename/--arch are given"))

	return nil
}
