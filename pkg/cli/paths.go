package cli

import (
	"os"
	"path/filepath"
)

const (
	// DefaultBaseDir is the per-user directory name under $HOME.
	DefaultBaseDir = ".whisperedge"
	// DefaultConfigFile is the configuration filename inside the base dir.
	DefaultConfigFile = "config.yaml"
)

// Paths locates the per-user whisperedge directories:
//
//	~/.whisperedge/config.yaml
//	~/.whisperedge/cache/       transcript cache (badger)
//	~/.whisperedge/assets/      default local asset store
type Paths struct {
	HomeDir string
}

// NewPaths resolves the current user's home directory.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns ~/.whisperedge.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns ~/.whisperedge/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// CacheDir returns ~/.whisperedge/cache.
func (p *Paths) CacheDir() string {
	return filepath.Join(p.BaseDir(), "cache")
}

// AssetsDir returns ~/.whisperedge/assets.
func (p *Paths) AssetsDir() string {
	return filepath.Join(p.BaseDir(), "assets")
}
