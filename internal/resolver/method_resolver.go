package resolver

import (
	"fmt"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/uid"
)

// MethodResolver resolves test methods into leaf test nodes under their
// suite node. It owns the "method" segment type.
type MethodResolver struct {
	provider element.Provider
}

func NewMethodResolver(p element.Provider) *MethodResolver {
	return &MethodResolver{provider: p}
}

func (r *MethodResolver) Resolve(el element.Element, parent descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	method, ok := el.(element.Method)
	if !ok {
		return nil, nil
	}
	suite, ok := parentSuite(parent)
	if !ok || suite.Key() != method.Suite.Key() {
		return nil, nil
	}
	if !r.provider.IsTestMethod(method) {
		return nil, nil
	}
	return []descriptor.Descriptor{descriptor.NewTest(parent, method)}, nil
}

func (r *MethodResolver) CanResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor) bool {
	if segment.Type != descriptor.SegmentTypeMethod {
		return false
	}
	suite, ok := parentSuite(parent)
	if !ok {
		return false
	}
	method, ok := r.provider.LookupMethod(suite, segment.Value)
	if !ok {
		return false
	}
	return r.provider.IsTestMethod(method)
}

func (r *MethodResolver) ResolveUniqueID(segment uid.Segment, parent descriptor.Descriptor, id uid.ID) (descriptor.Descriptor, error) {
	suite, ok := parentSuite(parent)
	if !ok {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for method segment %q under a non-suite node", ErrResolver, segment.Value)
	}
	method, ok := r.provider.LookupMethod(suite, segment.Value)
	if !ok || !r.provider.IsTestMethod(method) {
		return nil, fmt.Errorf("%w: ResolveUniqueID called for unresolvable method segment %q", ErrResolver, segment.Value)
	}
	d := descriptor.NewTest(parent, method)
	if !d.UniqueID().Equals(id) {
		return nil, fmt.Errorf("%w: method segment %q reconstructs id %q, expected %q",
			ErrResolver, segment.Value, d.UniqueID(), id)
	}
	return d, nil
}
