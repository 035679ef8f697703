package descriptor

import (
	"fmt"

	"sift/internal/element"
	"sift/internal/uid"
)

// Segment types minted by the engine and the built-in resolvers. Each string
// is a namespace: no two descriptor kinds may share one.
const (
	SegmentTypeEngine      = "engine"
	SegmentTypePackage     = "package"
	SegmentTypeSuite       = "suite"
	SegmentTypeNestedSuite = "nested-suite"
	SegmentTypeMethod      = "method"
)

// Descriptor is a node in the discovery tree. Exactly one of IsContainer and
// IsTest is true for non-root nodes; the engine root is container-like but
// flagged root. The parent owns its children; the child's parent reference
// is a non-owning back-pointer used for lookups only.
type Descriptor interface {
	UniqueID() uid.ID
	DisplayName() string
	Parent() Descriptor
	Children() []Descriptor
	FindChild(id uid.ID) (Descriptor, bool)

	IsRoot() bool
	IsContainer() bool
	IsTest() bool

	// Element returns the program element this node was resolved from.
	// The engine root has none.
	Element() (element.Element, bool)

	base() *Base
}

// Base carries the identity, parentage and child bookkeeping shared by all
// descriptor kinds.
type Base struct {
	id          uid.ID
	displayName string
	parent      Descriptor
	children    map[string]Descriptor
	order       []string
}

// NewBase initializes the shared node state.
func NewBase(id uid.ID, displayName string) Base {
	return Base{
		id:          id,
		displayName: displayName,
		children:    make(map[string]Descriptor),
	}
}

func (b *Base) UniqueID() uid.ID    { return b.id }
func (b *Base) DisplayName() string { return b.displayName }
func (b *Base) Parent() Descriptor  { return b.parent }
func (b *Base) base() *Base         { return b }

// Children returns the child nodes in insertion order.
func (b *Base) Children() []Descriptor {
	out := make([]Descriptor, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.children[key])
	}
	return out
}

// FindChild looks up a direct child by unique id.
func (b *Base) FindChild(id uid.ID) (Descriptor, bool) {
	child, ok := b.children[id.String()]
	return child, ok
}

// Attach inserts child under parent. Insertion is idempotent on the child's
// unique id: if parent already holds a node with that id, the existing node
// is returned and attached is false. An error means the child's id is not
// the parent's id plus exactly one segment, which is a resolver contract
// violation.
func Attach(parent, child Descriptor) (node Descriptor, attached bool, err error) {
	pb := parent.base()
	id := child.UniqueID()
	if id.Length() != pb.id.Length()+1 || !id.HasPrefix(pb.id) {
		return nil, false, fmt.Errorf("descriptor %q is not a direct child of %q", id, pb.id)
	}

	key := id.String()
	if existing, ok := pb.children[key]; ok {
		return existing, false, nil
	}

	pb.children[key] = child
	pb.order = append(pb.order, key)
	child.base().parent = parent
	return child, true, nil
}

// Walk visits d and all its descendants depth-first in child insertion
// order. Returning false from fn stops the walk.
func Walk(d Descriptor, fn func(Descriptor) bool) bool {
	if !fn(d) {
		return false
	}
	for _, child := range d.Children() {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// Descendants returns every node strictly below d, depth-first.
func Descendants(d Descriptor) []Descriptor {
	var out []Descriptor
	Walk(d, func(node Descriptor) bool {
		if node != d {
			out = append(out, node)
		}
		return true
	})
	return out
}
