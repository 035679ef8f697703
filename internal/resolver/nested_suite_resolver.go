package resolver

import (
	"fmt"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/uid"
)

// NestedSuiteResolver resolves suites declared inside other suites. It owns
// the "nested-suite" segment type. Reverse resolution is fully supported:
// given a segment and the enclosing suite node, the nested suite is looked
// up by name and its descriptor rebuilt without re-scanning.
type NestedSuiteResolver struct {
	provider element.Provider
}

func NewNestedSuiteResolver(p element.Provider) *NestedSuiteResolver {
	return &NestedSuiteResolver{provider: p}
}

func (r *NestedSuiteResolver) Resolve(el element.Element, parent descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	suite, ok := el.(element.Suite)
	if !ok || !suite.IsNested() {
		return nil, nil
	}
	enclosing, ok := parentSuite(parent)
	if !ok || enclosing.Key() != suite.Enclosing().Key() {
		return nil, nil
	}
	if !r.provider.IsNestedTestSuite(suite) {
		return nil, nil
	}
	return []descriptor.Descriptor{descriptor.NewNestedSuite(parent, suite)}, nil
}

func (r *NestedSuiteResolver) CanResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor) bool {
	if segment.Type != descriptor.SegmentTypeNestedSuite {
		return false
	}
	enclosing, ok := parentSuite(parent)
	if !ok {
		return false
	}
	suite, ok := r.provider.LookupNestedSuite(enclosing, segment.Value)
	if !ok {
		return false
	}
	return r.provider.IsNestedTestSuite(suite)
}

func (r *NestedSuiteResolver) ResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor, id uid.ID) (descriptor.Descriptor, error) {
	enclosing, ok := parentSuite(parent)
	if !ok {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for nested-suite segment %q under a non-suite node", ErrResolver, segment.Value)
	}
	suite, ok := r.provider.LookupNestedSuite(enclosing, segment.Value)
	if !ok || !r.provider.IsNestedTestSuite(suite) {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for unresolvable nested-suite segment %q", ErrResolver, segment.Value)
	}
	d := descriptor.NewNestedSuite(parent, suite)
	if !d.UniqueID().Equals(id) {
		return nil, fmt.Errorf("%w: nested-suite segment %q reconstructs id %q, expected %q",
			ErrResolver, segment.Value, d.UniqueID(), id)
	}
	return d, nil
}

// parentSuite extracts the suite element of a suite or nested-suite node.
func parentSuite(parent descriptor.Descriptor) (element.Suite, bool) {
	var el element.Element
	switch p := parent.(type) {
	case *descriptor.Suite:
		el, _ = p.Element()
	case *descriptor.NestedSuite:
		el, _ = p.Element()
	default:
		return element.Suite{}, false
	}
	suite, ok := el.(element.Suite)
	return suite, ok
}
