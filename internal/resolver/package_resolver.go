package resolver

import (
	"fmt"
	"strings"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/uid"
)

// PackageResolver resolves package elements into package container nodes,
// one node per dotted level. It owns the "package" segment type.
type PackageResolver struct {
	provider element.Provider
}

func NewPackageResolver(p element.Provider) *PackageResolver {
	return &PackageResolver{provider: p}
}

func (r *PackageResolver) Resolve(el element.Element, parent descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	pkg, ok := el.(element.Package)
	if !ok {
		return nil, nil
	}
	if !r.fitsUnder(pkg, parent) {
		return nil, nil
	}
	return []descriptor.Descriptor{descriptor.NewPackage(parent, pkg)}, nil
}

func (r *PackageResolver) CanResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor) bool {
	if segment.Type != descriptor.SegmentTypePackage {
		return false
	}
	pkg, ok := r.provider.LookupPackage(segment.Value)
	if !ok {
		return false
	}
	return r.fitsUnder(pkg, parent)
}

func (r *PackageResolver) ResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor, id uid.ID) (descriptor.Descriptor, error) {
	pkg, ok := r.provider.LookupPackage(segment.Value)
	if !ok || !r.fitsUnder(pkg, parent) {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for unresolvable package segment %q", ErrResolver, segment.Value)
	}
	d := descriptor.NewPackage(parent, pkg)
	if !d.UniqueID().Equals(id) {
		return nil, fmt.Errorf("%w: package segment %q reconstructs id %q, expected %q",
			ErrResolver, segment.Value, d.UniqueID(), id)
	}
	return d, nil
}

// fitsUnder checks that the package belongs directly under the parent node:
// a top-level package under the engine root, or a package under the node of
// its dotted parent.
func (r *PackageResolver) fitsUnder(pkg element.Package, parent descriptor.Descriptor) bool {
	switch p := parent.(type) {
	case *descriptor.Engine:
		return !strings.Contains(pkg.Name, ".")
	case *descriptor.Package:
		el, _ := p.Element()
		parentPkg, ok := el.(element.Package)
		if !ok {
			return false
		}
		idx := strings.LastIndex(pkg.Name, ".")
		return idx > 0 && pkg.Name[:idx] == parentPkg.Name
	default:
		return false
	}
}
