package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest lists the renderer plugins to load, in load order.
type Manifest struct {
	Folder  string   `toml:"folder"`
	Plugins []string `toml:"plugins"`
}

// LoadManifest reads a plugin manifest. A relative folder is resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin manifest %s: %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse plugin manifest %s: %w", path, err)
	}
	if m.Folder == "" {
		m.Folder = "."
	}
	if !filepath.IsAbs(m.Folder) {
		m.Folder = filepath.Join(filepath.Dir(path), m.Folder)
	}
	return &m, nil
}

// Paths returns the full path of each listed plugin.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.Plugins))
	for i, p := range m.Plugins {
		out[i] = filepath.Join(m.Folder, p)
	}
	return out
}
