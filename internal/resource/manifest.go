package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Location types understood by the Manager.
const (
	TypeFileSystem = "FileSystem"
	TypeZip        = "Zip"
)

// Location is one (type, path) pair registered under a resource group.
type Location struct {
	Group string
	Type  string
	Path  string
}

type manifestFile struct {
	Groups map[string]map[string][]string `toml:"groups"`
}

// LoadManifest reads a resource manifest:
//
//	[groups.General]
//	FileSystem = ["media/meshes", "media/sky"]
//	Zip = ["media/packs/extra.zip"]
//
// Groups come back sorted by name, types sorted within a group, paths in file
// order. Relative paths are resolved against the manifest's directory.
func LoadManifest(path string) ([]Location, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource manifest %s: %w", path, err)
	}
	var file manifestFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse resource manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	groups := make([]string, 0, len(file.Groups))
	for g := range file.Groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []Location
	for _, g := range groups {
		types := make([]string, 0, len(file.Groups[g]))
		for typ := range file.Groups[g] {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			for _, p := range file.Groups[g][typ] {
				if !filepath.IsAbs(p) {
					p = filepath.Join(base, p)
				}
				out = append(out, Location{Group: g, Type: typ, Path: p})
			}
		}
	}
	return out, nil
}
