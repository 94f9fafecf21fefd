// Package config loads cpmigrate settings from an optional project file and
// the environment.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/indaco/cpmigrate/internal/central"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/discovery"
	"github.com/indaco/cpmigrate/internal/semver"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFiles are probed in the root directory, in order.
var DefaultFiles = []string{".cpmigrate.yaml", ".cpmigrate.yml", ".cpmigrate.toml"}

// Environment variables that override file settings.
const (
	EnvPolicy = "CPMIGRATE_POLICY"
	EnvOutput = "CPMIGRATE_OUTPUT"
)

// Config is the on-disk configuration. Pointer fields distinguish "not set"
// from an explicit false.
type Config struct {
	Pattern           string   `yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Output            string   `yaml:"output,omitempty" toml:"output,omitempty"`
	Policy            string   `yaml:"policy,omitempty" toml:"policy,omitempty"`
	Backup            *bool    `yaml:"backup,omitempty" toml:"backup,omitempty"`
	TransitivePinning *bool    `yaml:"transitive-pinning,omitempty" toml:"transitive-pinning,omitempty"`
	Exclude           []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	MaxDepth          int      `yaml:"max-depth,omitempty" toml:"max-depth,omitempty"`
	Theme             string   `yaml:"theme,omitempty" toml:"theme,omitempty"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-" toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	backup, pinning := true, true
	return &Config{
		Pattern:           discovery.DefaultPattern,
		Output:            central.DefaultFilename,
		Policy:            string(semver.PolicySemantic),
		Backup:            &backup,
		TransitivePinning: &pinning,
	}
}

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// Load builds the effective configuration for root. When path is empty the
// DefaultFiles are probed in root; a missing file is not an error. An
// explicit path must exist.
func Load(ctx context.Context, fsys core.FileSystem, root, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		found, err := findConfig(ctx, fsys, root)
		if err != nil {
			return nil, err
		}
		path = found
	}

	if path != "" {
		fileCfg, err := readFile(ctx, fsys, path)
		if err != nil {
			return nil, err
		}
		cfg.merge(fileCfg)
		cfg.Source = path
	}

	cfg.applyEnv()
	return cfg, nil
}

func findConfig(ctx context.Context, fsys core.FileSystem, root string) (string, error) {
	for _, name := range DefaultFiles {
		candidate := filepath.Join(root, name)
		_, err := fsys.Stat(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat config %q: %w", candidate, err)
		}
	}
	return "", nil
}

func readFile(ctx context.Context, fsys core.FileSystem, path string) (*Config, error) {
	data, err := fsys.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data according to the file extension ext (".yaml", ".yml"
// or ".toml"). Unknown keys are rejected in both formats.
func Decode(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return &cfg, nil
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict())
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &cfg, nil
}

// merge overlays every field set in other.
func (c *Config) merge(other *Config) {
	if other.Pattern != "" {
		c.Pattern = other.Pattern
	}
	if other.Output != "" {
		c.Output = other.Output
	}
	if other.Policy != "" {
		c.Policy = other.Policy
	}
	if other.Backup != nil {
		c.Backup = other.Backup
	}
	if other.TransitivePinning != nil {
		c.TransitivePinning = other.TransitivePinning
	}
	if len(other.Exclude) > 0 {
		c.Exclude = append(c.Exclude, other.Exclude...)
	}
	if other.MaxDepth != 0 {
		c.MaxDepth = other.MaxDepth
	}
	if other.Theme != "" {
		c.Theme = other.Theme
	}
}

func (c *Config) applyEnv() {
	if v, ok := lookupEnv(EnvPolicy); ok && v != "" {
		c.Policy = v
	}
	if v, ok := lookupEnv(EnvOutput); ok && v != "" {
		c.Output = v
	}
}

// BackupEnabled reports whether an existing central manifest is kept.
func (c *Config) BackupEnabled() bool {
	return c.Backup == nil || *c.Backup
}

// TransitivePinningEnabled reports whether transitive pinning is declared.
func (c *Config) TransitivePinningEnabled() bool {
	return c.TransitivePinning == nil || *c.TransitivePinning
}

// VersionPolicy returns the parsed comparison policy, falling back to
// semver for invalid values. Call Validate first.
func (c *Config) VersionPolicy() semver.Policy {
	p, err := semver.ParsePolicy(c.Policy)
	if err != nil {
		return semver.PolicySemantic
	}
	return p
}
