package resource

import (
	"archive/zip"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned for a name missing from the index.
var ErrNotFound = errors.New("resource not found")

// Digest is the blake2b-256 hash of a resource's content.
type Digest [blake2b.Size256]byte

func (d Digest) String() string { return hex.EncodeToString(d[:8]) }

// Resource is one indexed file. Names are base names; the first location to
// provide a name wins.
type Resource struct {
	Name     string
	Group    string
	Type     string
	Location string
	entry    string // file path, or entry name inside a zip
}

// Manager is the resource group manager: locations are registered from the
// manifest, then InitialiseAll builds the name index.
type Manager struct {
	locations   []Location
	index       map[string]*Resource
	initialised bool
	log         *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		index: make(map[string]*Resource),
		log:   log,
	}
}

// AddLocation registers a search location. Locations must be added before
// InitialiseAll.
func (m *Manager) AddLocation(loc Location) error {
	if m.initialised {
		return fmt.Errorf("add location %s: resource groups already initialised", loc.Path)
	}
	switch loc.Type {
	case TypeFileSystem, TypeZip:
	default:
		return fmt.Errorf("add location %s: unknown location type %q", loc.Path, loc.Type)
	}
	m.locations = append(m.locations, loc)
	m.log.Debug("resource location added",
		zap.String("group", loc.Group),
		zap.String("type", loc.Type),
		zap.String("path", loc.Path))
	return nil
}

// Locations returns the registered locations in registration order.
func (m *Manager) Locations() []Location {
	out := make([]Location, len(m.locations))
	copy(out, m.locations)
	return out
}

// InitialiseAll indexes every registered location. A missing location is an
// error.
func (m *Manager) InitialiseAll() error {
	for _, loc := range m.locations {
		var err error
		switch loc.Type {
		case TypeFileSystem:
			err = m.indexDir(loc)
		case TypeZip:
			err = m.indexZip(loc)
		}
		if err != nil {
			return fmt.Errorf("initialise group %s: %w", loc.Group, err)
		}
	}
	m.initialised = true
	m.log.Info("resource groups initialised",
		zap.Int("locations", len(m.locations)),
		zap.Int("resources", len(m.index)))
	return nil
}

func (m *Manager) indexDir(loc Location) error {
	return filepath.WalkDir(loc.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m.add(&Resource{Name: d.Name(), Group: loc.Group, Type: loc.Type, Location: loc.Path, entry: p})
		return nil
	})
}

func (m *Manager) indexZip(loc Location) error {
	zr, err := zip.OpenReader(loc.Path)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		m.add(&Resource{Name: path.Base(f.Name), Group: loc.Group, Type: loc.Type, Location: loc.Path, entry: f.Name})
	}
	return nil
}

func (m *Manager) add(r *Resource) {
	if prev, ok := m.index[r.Name]; ok {
		m.log.Warn("duplicate resource name ignored",
			zap.String("name", r.Name),
			zap.String("kept", prev.Location),
			zap.String("ignored", r.Location))
		return
	}
	m.index[r.Name] = r
}

func (m *Manager) Lookup(name string) (*Resource, bool) {
	r, ok := m.index[name]
	return r, ok
}

// ReadAll returns a resource's content and digest.
func (m *Manager) ReadAll(name string) ([]byte, Digest, error) {
	r, ok := m.index[name]
	if !ok {
		return nil, Digest{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	var (
		data []byte
		err  error
	)
	switch r.Type {
	case TypeZip:
		data, err = readZipEntry(r.Location, r.entry)
	default:
		data, err = os.ReadFile(r.entry)
	}
	if err != nil {
		return nil, Digest{}, fmt.Errorf("read resource %s: %w", name, err)
	}
	return data, blake2b.Sum256(data), nil
}

func readZipEntry(archive, entry string) ([]byte, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	f, err := zr.Open(entry)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Groups returns the distinct group names, sorted.
func (m *Manager) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, loc := range m.locations {
		if !seen[loc.Group] {
			seen[loc.Group] = true
			out = append(out, loc.Group)
		}
	}
	sort.Strings(out)
	return out
}

// Resources returns every indexed resource sorted by name.
func (m *Manager) Resources() []*Resource {
	out := make([]*Resource, 0, len(m.index))
	for _, r := range m.index {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of indexed resources.
func (m *Manager) Count() int { return len(m.index) }
