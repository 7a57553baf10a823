package scene

import (
	"errors"
	"fmt"
)

// ErrCycle is returned when reparenting would make a node its own ancestor.
var ErrCycle = errors.New("scene node cycle")

// Attachable is a scene object that can hang off a node: a camera, a light
// or a mesh entity.
type Attachable interface {
	Name() string
	Node() *Node
	setNode(n *Node)
}

// Node is one scene graph node. Transforms are relative to the parent; the
// derived (world) transform is computed on demand.
type Node struct {
	name        string
	position    Vec3
	orientation Quat
	scale       Vec3
	parent      *Node
	children    []*Node
	objects     []Attachable
	manager     *Manager
}

func newNode(name string, m *Manager) *Node {
	return &Node{name: name, orientation: QuatIdentity, scale: VecOne, manager: m}
}

func (n *Node) Name() string      { return n.name }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Position() Vec3    { return n.position }
func (n *Node) Orientation() Quat { return n.orientation }
func (n *Node) Scale() Vec3       { return n.scale }

func (n *Node) SetPosition(p Vec3)    { n.position = p }
func (n *Node) SetOrientation(q Quat) { n.orientation = q }
func (n *Node) SetScale(s Vec3)       { n.scale = s }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Objects returns the attached objects in attach order.
func (n *Node) Objects() []Attachable {
	out := make([]Attachable, len(n.objects))
	copy(out, n.objects)
	return out
}

// SetParent moves n under p. A nil parent detaches n from the graph; a
// detached node is not rendered.
func (n *Node) SetParent(p *Node) error {
	for a := p; a != nil; a = a.parent {
		if a == n {
			return fmt.Errorf("reparent %s under %s: %w", n.name, p.name, ErrCycle)
		}
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = p
	if p != nil {
		p.children = append(p.children, n)
	}
	return nil
}

func (n *Node) removeChild(c *Node) {
	for i, x := range n.children {
		if x == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// InGraph reports whether n is connected to its manager's root node.
func (n *Node) InGraph() bool {
	a := n
	for a.parent != nil {
		a = a.parent
	}
	return n.manager != nil && a == n.manager.root
}

// Attach hangs o off n, detaching it from any previous node.
func (n *Node) Attach(o Attachable) {
	if prev := o.Node(); prev != nil {
		prev.Detach(o)
	}
	n.objects = append(n.objects, o)
	o.setNode(n)
}

func (n *Node) Detach(o Attachable) {
	for i, x := range n.objects {
		if x == o {
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
			o.setNode(nil)
			return
		}
	}
}

func (n *Node) DerivedOrientation() Quat {
	if n.parent == nil {
		return n.orientation
	}
	return n.parent.DerivedOrientation().Mul(n.orientation)
}

func (n *Node) DerivedScale() Vec3 {
	if n.parent == nil {
		return n.scale
	}
	return n.parent.DerivedScale().Mul(n.scale)
}

func (n *Node) DerivedPosition() Vec3 {
	if n.parent == nil {
		return n.position
	}
	return n.parent.ToWorld(n.position)
}

// ToWorld transforms a point in n's local space to world space.
func (n *Node) ToWorld(local Vec3) Vec3 {
	return n.DerivedPosition().Add(n.DerivedOrientation().Rotate(local.Mul(n.DerivedScale())))
}
