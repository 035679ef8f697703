package resolver

import (
	"fmt"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/uid"
)

// SuiteResolver resolves top-level test suites into container nodes under
// their package node. It owns the "suite" segment type.
type SuiteResolver struct {
	provider element.Provider
}

func NewSuiteResolver(p element.Provider) *SuiteResolver {
	return &SuiteResolver{provider: p}
}

func (r *SuiteResolver) Resolve(el element.Element, parent descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	suite, ok := el.(element.Suite)
	if !ok || suite.IsNested() {
		return nil, nil
	}
	if !r.parentMatches(suite, parent) {
		return nil, nil
	}
	if !r.provider.IsTestSuite(suite) {
		return nil, nil
	}
	return []descriptor.Descriptor{descriptor.NewSuite(parent, suite)}, nil
}

func (r *SuiteResolver) CanResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor) bool {
	if segment.Type != descriptor.SegmentTypeSuite {
		return false
	}
	pkg, ok := parentPackage(parent)
	if !ok {
		return false
	}
	suite, ok := r.provider.LookupSuite(pkg.Name, segment.Value)
	if !ok {
		return false
	}
	return r.provider.IsTestSuite(suite)
}

func (r *SuiteResolver) ResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor, id uid.ID) (descriptor.Descriptor, error) {
	pkg, ok := parentPackage(parent)
	if !ok {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for suite segment %q under a non-package node", ErrResolver, segment.Value)
	}
	suite, ok := r.provider.LookupSuite(pkg.Name, segment.Value)
	if !ok || !r.provider.IsTestSuite(suite) {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for unresolvable suite segment %q", ErrResolver, segment.Value)
	}
	d := descriptor.NewSuite(parent, suite)
	if !d.UniqueID().Equals(id) {
		return nil, fmt.Errorf("%w: suite segment %q reconstructs id %q, expected %q",
			ErrResolver, segment.Value, d.UniqueID(), id)
	}
	return d, nil
}

func (r *SuiteResolver) parentMatches(suite element.Suite, parent descriptor.Descriptor) bool {
	pkg, ok := parentPackage(parent)
	return ok && pkg.Name == suite.Package
}

// parentPackage extracts the package element of a package descriptor node.
func parentPackage(parent descriptor.Descriptor) (element.Package, bool) {
	p, ok := parent.(*descriptor.Package)
	if !ok {
		return element.Package{}, false
	}
	el, _ := p.Element()
	pkg, ok := el.(element.Package)
	return pkg, ok
}
