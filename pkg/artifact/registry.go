// Package artifact provides the wkhtmltox release registry and downloader.
package artifact

import "fmt"

// BaseURL is the base URL for wkhtmltopdf release downloads.
const BaseURL = "https://github.com/wkhtmltopdf/wkhtmltopdf/releases/download"

// Release identifies a single downloadable wkhtmltox package build.
type Release struct {
	Version  string // Upstream release tag, e.g. "0.12.6"
	Revision string // Package revision, e.g. "1"
	Codename string // Distribution codename, e.g. "focal"
	Arch     string // Architecture, e.g. "amd64"
	SHA256   string // Expected checksum (may be empty if not published)
}

// Filename returns the package filename, e.g.
// "wkhtmltox_0.12.6-1.focal_amd64.deb".
func (r Release) Filename() string {
	return fmt.Sprintf("wkhtmltox_%s-%s.%s_%s.deb", r.Version, r.Revision, r.Codename, r.Arch)
}

// URL returns the full download URL for this release.
func (r Release) URL() string {
	return fmt.Sprintf("%s/%s/%s", BaseURL, r.Version, r.Filename())
}

// ID returns a stable identifier, e.g. "wkhtmltox-0.12.6-focal-amd64".
func (r Release) ID() string {
	return fmt.Sprintf("wkhtmltox-%s-%s-%s", r.Version, r.Codename, r.Arch)
}

// String returns a human-readable description of the release.
func (r Release) String() string {
	return fmt.Sprintf("wkhtmltox %s-%s (%s/%s)", r.Version, r.Revision, r.Codename, r.Arch)
}

// KnownReleases contains the wkhtmltox builds wkprov knows how to fetch.
var KnownReleases = []Release{
	{Version: "0.12.6", Revision: "1", Codename: "focal", Arch: "amd64"},
	{Version: "0.12.6", Revision: "1", Codename: "bionic", Arch: "amd64"},
	{Version: "0.12.5", Revision: "1", Codename: "bionic", Arch: "amd64"},
}

// Registry provides access to known wkhtmltox releases.
type Registry struct {
	releases []Release
}

// NewRegistry creates a new release registry.
func NewRegistry() *Registry {
	return &Registry{releases: KnownReleases}
}

// Releases returns all known releases.
func (r *Registry) Releases() []Release {
	return r.releases
}

// Default returns the release installed when no selection is made.
func (r *Registry) Default() Release {
	return r.releases[0]
}

// Find finds a release by distribution codename and architecture.
// Returns nil if no matching build exists.
func (r *Registry) Find(codename, arch string) *Release {
	for i := range r.releases {
		rel := &r.releases[i]
		if rel.Codename == codename && rel.Arch == arch {
			return rel
		}
	}
	return nil
}

// FindVersion finds a specific release build.
func (r *Registry) FindVersion(version, codename, arch string) *Release {
	for i := range r.releases {
		rel := &r.releases[i]
		if rel.Version == version && rel.Codename == codename && rel.Arch == arch {
			return rel
		}
	}
	return nil
}
