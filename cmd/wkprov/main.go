// Package main provides the wkprov CLI tool for provisioning a host with
// the wkhtmltopdf renderer.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd()

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for wkprov
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wkprov",
		Short: "wkhtmltopdf Host Provisioner",
		Long: `wkprov provisions a Debian/Ubuntu host with the wkhtmltopdf PDF renderer.

It refreshes the package index, installs the font and rendering support
packages, downloads the wkhtmltox release package, installs it, and
verifies the installed binary.

It supports:
  - One-shot provisioning with progress display (provision)
  - Downloading the release package without installing (fetch)
  - Listing known release builds and downloaded artifacts
  - Host prerequisite checks with suggested fixes (doctor)`,
		Version: version,
	}

	rootCmd.AddCommand(
		newProvisionCmd(),
		newFetchCmd(),
		newReleasesCmd(),
		newArtifactsCmd(),
		newDoctorCmd(),
	)

	return rootCmd
}
