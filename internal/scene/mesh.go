package scene

import (
	"fmt"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/thrive/thrive/internal/resource"
	"gopkg.in/yaml.v3"
)

// Glyph is one point of a mesh, drawn as a single character.
type Glyph struct {
	Pos    Vec3
	Rune   rune
	Colour Colour
}

type Mesh struct {
	Name   string
	Glyphs []Glyph
	Digest resource.Digest
}

type meshFile struct {
	Name   string `yaml:"name"`
	Glyphs []struct {
		Pos    [3]float64 `yaml:"pos"`
		Char   string     `yaml:"char"`
		Colour string     `yaml:"colour"`
	} `yaml:"glyphs"`
}

// ParseMesh decodes a YAML mesh. Each glyph needs exactly one character;
// colour is a tcell colour name or #rrggbb and defaults to white.
func ParseMesh(name string, data []byte) (*Mesh, error) {
	var f meshFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse mesh %s: %w", name, err)
	}
	if f.Name == "" {
		f.Name = name
	}
	m := &Mesh{Name: f.Name, Glyphs: make([]Glyph, 0, len(f.Glyphs))}
	for i, g := range f.Glyphs {
		if utf8.RuneCountInString(g.Char) != 1 {
			return nil, fmt.Errorf("parse mesh %s: glyph %d: char %q is not a single character", name, i, g.Char)
		}
		r, _ := utf8.DecodeRuneInString(g.Char)
		colour := ColourWhite
		if g.Colour != "" {
			tc := tcell.GetColor(g.Colour)
			if tc == tcell.ColorDefault {
				return nil, fmt.Errorf("parse mesh %s: glyph %d: unknown colour %q", name, i, g.Colour)
			}
			colour = ColourOf(tc)
		}
		m.Glyphs = append(m.Glyphs, Glyph{
			Pos:    Vec3{g.Pos[0], g.Pos[1], g.Pos[2]},
			Rune:   r,
			Colour: colour,
		})
	}
	return m, nil
}

// MeshCache loads meshes through the resource manager. Identical content
// under different names is parsed once.
type MeshCache struct {
	resources *resource.Manager
	byName    map[string]*Mesh
	byDigest  map[resource.Digest]*Mesh
}

func NewMeshCache(resources *resource.Manager) *MeshCache {
	return &MeshCache{
		resources: resources,
		byName:    make(map[string]*Mesh),
		byDigest:  make(map[resource.Digest]*Mesh),
	}
}

// Load returns the named mesh, reading and parsing it on first use.
func (c *MeshCache) Load(name string) (*Mesh, error) {
	if m, ok := c.byName[name]; ok {
		return m, nil
	}
	if c.resources == nil {
		return nil, fmt.Errorf("load mesh %s: %w", name, resource.ErrNotFound)
	}
	data, digest, err := c.resources.ReadAll(name)
	if err != nil {
		return nil, fmt.Errorf("load mesh %s: %w", name, err)
	}
	if m, ok := c.byDigest[digest]; ok {
		c.byName[name] = m
		return m, nil
	}
	m, err := ParseMesh(name, data)
	if err != nil {
		return nil, err
	}
	m.Digest = digest
	c.byName[name] = m
	c.byDigest[digest] = m
	return m, nil
}

// Len returns the number of distinct parsed meshes.
func (c *MeshCache) Len() int { return len(c.byDigest) }
