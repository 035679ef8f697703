package resolver

import (
	"errors"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/uid"
)

// ErrResolver marks a fatal resolver contract violation. Any error wrapping
// it aborts the discovery run as a whole; no partial tree is usable.
var ErrResolver = errors.New("resolver failure")

// ElementResolver is the extension point of the discovery core. Each
// implementation owns one category of program element and is responsible for
// one unique-id segment type.
//
// Resolvers must be order-independent and idempotent: the registry may
// invoke them in any order and re-resolve the same (element, parent) pair,
// and the resulting tree must not change.
type ElementResolver interface {
	// Resolve performs forward resolution: given an element and the
	// candidate parent node, return the descriptors this resolver creates
	// for it. Returning an empty set means "not my concern" and is not an
	// error. Every returned descriptor's id must be the parent's id plus
	// exactly one segment.
	Resolve(el element.Element, parent descriptor.Descriptor) ([]descriptor.Descriptor, error)

	// CanResolveUniqueID reports whether this resolver can reconstruct a
	// descriptor for the given id segment under the given parent.
	CanResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor) bool

	// ResolveUniqueID performs reverse resolution without a scan. It must
	// only be called after CanResolveUniqueID returned true for the same
	// segment and parent; anything else is a programming error.
	ResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor, id uid.ID) (descriptor.Descriptor, error)
}

// elementKey gives elements a stable identity for continuation matching.
func elementKey(el element.Element) string {
	switch e := el.(type) {
	case element.Package:
		return "package/" + e.Name
	case element.Suite:
		return "suite/" + e.Key()
	case element.Method:
		return "method/" + e.Suite.Key() + "#" + e.Name
	default:
		return "unknown/" + el.DisplayName()
	}
}
