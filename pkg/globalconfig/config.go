// Package globalconfig provides global configuration management for wkprov.
// Configuration is stored at ~/.config/wkprov/config.yaml and includes the
// download directory, the default release selection, and the artifacts
// fetched so far.
package globalconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the current config schema version.
const Version = "1.0"

// ErrNotFound is returned when no config file exists yet.
var ErrNotFound = errors.New("no wkprov config file found")

// Config represents the global wkprov configuration.
type Config struct {
	Version        string         `yaml:"version"`
	DownloadDir    string         `yaml:"download_dir,omitempty"` // Empty means current directory
	DefaultRelease ReleaseSelect  `yaml:"default_release"`        // Which build `provision` installs
	Artifacts      []Artifact     `yaml:"artifacts"`              // Downloaded packages
	Preferences    Preferences    `yaml:"preferences"`            // User preferences
}

// ReleaseSelect identifies a wkhtmltox build in the release registry.
type ReleaseSelect struct {
	Version  string `yaml:"version"`  // e.g., "0.12.6"
	Codename string `yaml:"codename"` // e.g., "focal"
	Arch     string `yaml:"arch"`     // e.g., "amd64"
}

// IsZero reports whether no selection has been made.
func (r ReleaseSelect) IsZero() bool {
	return r.Version == "" && r.Codename == "" && r.Arch == ""
}

// Artifact represents a downloaded wkhtmltox package.
type Artifact struct {
	ID        string    `yaml:"id"`               // e.g., "wkhtmltox-0.12.6-focal-amd64"
	Version   string    `yaml:"version"`          // e.g., "0.12.6"
	Codename  string    `yaml:"codename"`         // e.g., "focal"
	Arch      string    `yaml:"arch"`             // e.g., "amd64"
	Path      string    `yaml:"path"`             // Local file path
	URL       string    `yaml:"url,omitempty"`    // Source URL
	SHA256    string    `yaml:"sha256,omitempty"` // Expected checksum if known
	Size      int64     `yaml:"size"`             // File size in bytes
	AddedAt   time.Time `yaml:"added_at"`         // When downloaded
	Installed bool      `yaml:"installed"`        // Whether a provision run installed it
}

// FileExists reports whether the artifact file is still on disk.
func (a *Artifact) FileExists() bool {
	if a.Path == "" {
		return false
	}
	_, err := os.Stat(a.Path)
	return err == nil
}

// Preferences represents user preferences.
type Preferences struct {
	AutoRepair    bool `yaml:"auto_repair"`    // Run apt-get -f install after a failed dpkg -i
	KeepArtifacts bool `yaml:"keep_artifacts"` // Leave .deb files on disk after installing
	PlainOutput   bool `yaml:"plain_output"`   // Disable the progress TUI
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version:   Version,
		Artifacts: []Artifact{},
		Preferences: Preferences{
			AutoRepair:    true,
			KeepArtifacts: true,
		},
	}
}

// Load loads the config from ~/.config/wkprov/config.yaml.
// Returns ErrNotFound if no config file exists yet.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadOrCreate loads the config if it exists, or creates a new one.
func LoadOrCreate() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NewConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save saves the config to ~/.config/wkprov/config.yaml.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindArtifact finds an artifact by ID.
func (c *Config) FindArtifact(id string) *Artifact {
	for i := range c.Artifacts {
		if c.Artifacts[i].ID == id {
			return &c.Artifacts[i]
		}
	}
	return nil
}

// AddArtifact adds an artifact to the config.
// If an artifact with the same ID exists, it is replaced.
func (c *Config) AddArtifact(a Artifact) {
	idx := -1
	for i := range c.Artifacts {
		if c.Artifacts[i].ID == a.ID {
			idx = i
			break
		}
	}
	if idx != -1 {
		c.Artifacts = append(c.Artifacts[:idx], c.Artifacts[idx+1:]...)
	}
	c.Artifacts = append(c.Artifacts, a)
}

// RemoveArtifact removes an artifact by ID.
func (c *Config) RemoveArtifact(id string) bool {
	idx := -1
	for i := range c.Artifacts {
		if c.Artifacts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	c.Artifacts = append(c.Artifacts[:idx], c.Artifacts[idx+1:]...)
	return true
}
