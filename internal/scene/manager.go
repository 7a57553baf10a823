package scene

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateName is returned when a scene object name is already taken.
var ErrDuplicateName = errors.New("duplicate scene object name")

// Manager owns one scene graph and the objects placed in it. It is created
// through Root.CreateSceneManager and released with the root.
type Manager struct {
	kind     string
	root     *Node
	nodes    map[string]*Node
	cameras  map[string]*Camera
	lights   map[string]*Light
	entities map[string]*Entity
	sky      SkyPlane
	ambient  Colour
}

func newManager(kind string) *Manager {
	m := &Manager{
		kind:     kind,
		nodes:    make(map[string]*Node),
		cameras:  make(map[string]*Camera),
		lights:   make(map[string]*Light),
		entities: make(map[string]*Entity),
	}
	m.root = newNode("root", m)
	return m
}

func (m *Manager) Kind() string         { return m.kind }
func (m *Manager) RootNode() *Node      { return m.root }
func (m *Manager) AmbientLight() Colour { return m.ambient }

func (m *Manager) SetAmbientLight(c Colour) { m.ambient = c }

// CreateSceneNode creates a node attached under the root node.
func (m *Manager) CreateSceneNode(name string) (*Node, error) {
	if _, ok := m.nodes[name]; ok || name == m.root.name {
		return nil, fmt.Errorf("create scene node %q: %w", name, ErrDuplicateName)
	}
	n := newNode(name, m)
	if err := n.SetParent(m.root); err != nil {
		return nil, err
	}
	m.nodes[name] = n
	return n, nil
}

func (m *Manager) SceneNode(name string) (*Node, bool) {
	n, ok := m.nodes[name]
	return n, ok
}

// DestroySceneNode removes n from the graph. Its children move to the root
// node and its objects are detached.
func (m *Manager) DestroySceneNode(n *Node) {
	if n == nil || n == m.root || m.nodes[n.name] != n {
		return
	}
	for _, c := range n.Children() {
		_ = c.SetParent(m.root)
	}
	for _, o := range n.Objects() {
		n.Detach(o)
	}
	_ = n.SetParent(nil)
	delete(m.nodes, n.name)
}

// NodeCount returns the number of nodes, excluding the root node.
func (m *Manager) NodeCount() int { return len(m.nodes) }

// EachNode visits nodes in name order.
func (m *Manager) EachNode(fn func(*Node)) {
	for _, name := range sortedKeys(m.nodes) {
		fn(m.nodes[name])
	}
}

func (m *Manager) CreateCamera(name string) (*Camera, error) {
	if _, ok := m.cameras[name]; ok {
		return nil, fmt.Errorf("create camera %q: %w", name, ErrDuplicateName)
	}
	c := &Camera{
		attachment: attachment{name: name, manager: m},
		FOVy:       defaultFOVy,
		NearClip:   0.1,
		FarClip:    1000,
	}
	m.cameras[name] = c
	return c, nil
}

func (m *Manager) DestroyCamera(c *Camera) {
	if c == nil || m.cameras[c.name] != c {
		return
	}
	if n := c.Node(); n != nil {
		n.Detach(c)
	}
	delete(m.cameras, c.name)
}

func (m *Manager) CameraCount() int { return len(m.cameras) }

func (m *Manager) CreateLight(name string) (*Light, error) {
	if _, ok := m.lights[name]; ok {
		return nil, fmt.Errorf("create light %q: %w", name, ErrDuplicateName)
	}
	l := &Light{attachment: attachment{name: name, manager: m}, Diffuse: ColourWhite, Range: 100}
	m.lights[name] = l
	return l, nil
}

func (m *Manager) DestroyLight(l *Light) {
	if l == nil || m.lights[l.name] != l {
		return
	}
	if n := l.Node(); n != nil {
		n.Detach(l)
	}
	delete(m.lights, l.name)
}

// Lights returns the lights in name order.
func (m *Manager) Lights() []*Light {
	out := make([]*Light, 0, len(m.lights))
	for _, name := range sortedKeys(m.lights) {
		out = append(out, m.lights[name])
	}
	return out
}

func (m *Manager) CreateEntity(name string, mesh *Mesh) (*Entity, error) {
	if _, ok := m.entities[name]; ok {
		return nil, fmt.Errorf("create entity %q: %w", name, ErrDuplicateName)
	}
	if mesh == nil {
		return nil, fmt.Errorf("create entity %q: nil mesh", name)
	}
	e := &Entity{attachment: attachment{name: name, manager: m}, mesh: mesh, Visible: true}
	m.entities[name] = e
	return e, nil
}

func (m *Manager) DestroyEntity(e *Entity) {
	if e == nil || m.entities[e.name] != e {
		return
	}
	if n := e.Node(); n != nil {
		n.Detach(e)
	}
	delete(m.entities, e.name)
}

// Entities returns the mesh entities in name order.
func (m *Manager) Entities() []*Entity {
	out := make([]*Entity, 0, len(m.entities))
	for _, name := range sortedKeys(m.entities) {
		out = append(out, m.entities[name])
	}
	return out
}

func (m *Manager) SkyPlane() SkyPlane     { return m.sky }
func (m *Manager) SetSkyPlane(s SkyPlane) { m.sky = s }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
