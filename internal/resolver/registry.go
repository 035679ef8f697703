package resolver

import (
	"fmt"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/filter"
	"sift/internal/selector"
	"sift/internal/uid"
)

// Registry owns the ordered list of element resolvers and drives the
// fixed-point expansion that turns a discovery request into a fully
// populated tree. The resolver list is assembled once at construction;
// registration order must not affect the resulting tree.
type Registry struct {
	provider  element.Provider
	resolvers []ElementResolver
}

// NewRegistry builds a registry with an explicit resolver list.
func NewRegistry(p element.Provider, resolvers ...ElementResolver) *Registry {
	return &Registry{provider: p, resolvers: resolvers}
}

// NewStandardRegistry wires the built-in resolvers for packages, suites,
// nested suites and methods.
func NewStandardRegistry(p element.Provider) *Registry {
	return NewRegistry(p,
		NewPackageResolver(p),
		NewSuiteResolver(p),
		NewNestedSuiteResolver(p),
		NewMethodResolver(p),
	)
}

// Report summarizes discovery outcomes that are not errors. A selector that
// matched nothing is listed in Unmatched; an empty tree with all selectors
// unmatched is the aggregate "nothing discovered" condition.
type Report struct {
	Unmatched []string
}

// run is the per-resolution state. Discovery is single-threaded: the work
// list runs to completion before the tree is handed to anyone, so the
// dedup invariant (one node per unique id) needs no locking.
type run struct {
	registry *Registry
	root     *descriptor.Engine
	filter   filter.ElementFilter

	// queue holds nodes whose children still need to be resolved.
	// expanded tracks nodes already fanned out, keyed by unique id, so a
	// node reached through several selectors is expanded exactly once.
	queue    []descriptor.Descriptor
	expanded map[string]bool
}

// Resolve populates root in place from the request. On error the tree must
// be discarded: a failing resolver aborts the whole run and the partially
// built tree is not a valid discovery result.
func (r *Registry) Resolve(root *descriptor.Engine, req selector.Request) (Report, error) {
	state := &run{
		registry: r,
		root:     root,
		filter:   filter.And(req.Filters...),
		expanded: make(map[string]bool),
	}

	var report Report
	for _, sel := range req.Selectors {
		matched, err := state.seed(sel)
		if err != nil {
			return Report{}, err
		}
		if !matched {
			report.Unmatched = append(report.Unmatched, sel.String())
		}
	}

	if err := state.drain(); err != nil {
		return Report{}, err
	}
	return report, nil
}

// seed turns one selector into initial work. It reports whether the
// selector produced at least one node; naming something that does not exist
// is an empty-result condition, never an error.
func (s *run) seed(sel selector.Selector) (bool, error) {
	p := s.registry.provider

	switch sel := sel.(type) {
	case selector.PackageSelector:
		pkg, ok := p.LookupPackage(sel.PackageName)
		if !ok {
			return false, nil
		}
		return s.seedPath(packagePath(pkg))

	case selector.SuiteSelector:
		suite, ok := p.LookupSuite(sel.Suite.Package, sel.Suite.DisplayName())
		if !ok || !p.IsTestSuite(suite) {
			return false, nil
		}
		return s.seedPath(suitePath(suite))

	case selector.MethodSelector:
		suite, ok := p.LookupSuite(sel.Suite.Package, sel.Suite.DisplayName())
		if !ok || !p.IsTestSuite(suite) {
			return false, nil
		}
		method, ok := p.LookupMethod(suite, sel.MethodName)
		if !ok {
			return false, nil
		}
		return s.seedPath(append(suitePath(suite), method))

	case selector.RootSelector:
		matchedAny := false
		for _, suite := range p.SuitesUnderRoot(sel.Root) {
			if !p.IsTestSuite(suite) {
				continue
			}
			matched, err := s.seedPath(suitePath(suite))
			if err != nil {
				return false, err
			}
			matchedAny = matchedAny || matched
		}
		return matchedAny, nil

	case selector.UniqueIDSelector:
		return s.seedUniqueID(sel.ID)

	default:
		return false, nil
	}
}

// seedPath resolves a dependency-ordered chain of elements starting at the
// engine root and enqueues the chain's target for full expansion. The chain
// is resolved detached first and attached only once the target resolves, so
// a selector that matches nothing leaves no ancestor nodes behind. The
// intermediate nodes exist only to carry the target's ancestry; they are
// not expanded themselves.
func (s *run) seedPath(path []element.Element) (bool, error) {
	var parent descriptor.Descriptor = s.root
	var chain []descriptor.Descriptor
	for _, el := range path {
		if s.filter.Apply(el) == filter.Excluded {
			return false, nil
		}
		next, err := s.resolveDetached(el, parent)
		if err != nil {
			return false, err
		}
		if next == nil {
			return false, nil
		}
		chain = append(chain, next)
		parent = next
	}
	return true, s.attachChain(s.root, chain)
}

// attachChain inserts a fully resolved ancestor chain under base, reusing
// nodes other selectors already attached, and enqueues the chain's target.
func (s *run) attachChain(base descriptor.Descriptor, chain []descriptor.Descriptor) error {
	cur := base
	for _, d := range chain {
		node, _, err := descriptor.Attach(cur, d)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrResolver, err)
		}
		cur = node
	}
	s.enqueue(cur)
	return nil
}

// seedUniqueID walks the reverse-resolution path: segment by segment, reuse
// an existing child when present, otherwise ask the resolvers to
// reconstruct the node. Reconstructed nodes stay detached until every
// segment resolves, so an id naming nothing leaves the tree untouched. The
// resolved node is then expanded like any other selector target.
func (s *run) seedUniqueID(id uid.ID) (bool, error) {
	segments := id.Segments()
	if len(segments) == 0 || segments[0] != s.root.UniqueID().Last() {
		return false, nil
	}

	var cur descriptor.Descriptor = s.root
	var base descriptor.Descriptor = s.root
	var pending []descriptor.Descriptor
	curID := s.root.UniqueID()
	for _, seg := range segments[1:] {
		curID = curID.Append(seg.Type, seg.Value)
		if len(pending) == 0 {
			if child, ok := cur.FindChild(curID); ok {
				cur = child
				base = child
				continue
			}
		}

		reconstructed, err := s.reconstruct(seg, cur, curID)
		if err != nil {
			return false, err
		}
		if reconstructed == nil {
			return false, nil
		}
		if el, ok := reconstructed.Element(); ok && s.filter.Apply(el) == filter.Excluded {
			return false, nil
		}

		pending = append(pending, reconstructed)
		cur = reconstructed
	}

	return true, s.attachChain(base, pending)
}

// reconstruct finds the resolver owning a segment type and rebuilds the
// descriptor. A nil result means no resolver claimed the segment, which is
// an empty-result condition for the selector that named it.
func (s *run) reconstruct(seg uid.Segment, parent descriptor.Descriptor, id uid.ID) (descriptor.Descriptor, error) {
	for _, res := range s.registry.resolvers {
		if !res.CanResolveUniqueID(seg, parent) {
			continue
		}
		d, err := res.ResolveUniqueID(seg, parent, id)
		if err != nil {
			return nil, fmt.Errorf("%w: reverse resolution of %q: %v", ErrResolver, id, err)
		}
		if d == nil {
			return nil, fmt.Errorf("%w: resolver returned no descriptor for claimed segment %q", ErrResolver, seg.Value)
		}
		return d, nil
	}
	return nil, nil
}

// drain runs the work list to its fixed point. Each node is expanded at
// most once, and the element universe reachable from the selectors is
// finite, so the loop terminates.
func (s *run) drain() error {
	for len(s.queue) > 0 {
		node := s.queue[0]
		s.queue = s.queue[1:]

		el, ok := node.Element()
		if !ok {
			continue
		}
		for _, child := range s.childElements(el) {
			if s.filter.Apply(child) == filter.Excluded {
				continue
			}
			next, err := s.resolveElement(child, node)
			if err != nil {
				return err
			}
			if next != nil {
				s.enqueue(next)
			}
		}
	}
	return nil
}

// enqueue schedules a node for fan-out unless it was already expanded.
func (s *run) enqueue(node descriptor.Descriptor) {
	key := node.UniqueID().String()
	if s.expanded[key] {
		return
	}
	s.expanded[key] = true
	s.queue = append(s.queue, node)
}

// resolveDetached resolves one element without touching the tree: the first
// descriptor matching the element wins. The parent may itself be a detached
// chain link; resolvers only read its type and element.
func (s *run) resolveDetached(el element.Element, parent descriptor.Descriptor) (descriptor.Descriptor, error) {
	key := elementKey(el)
	for _, res := range s.registry.resolvers {
		ds, err := res.Resolve(el, parent)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving %q: %v", ErrResolver, el.DisplayName(), err)
		}
		for _, d := range ds {
			if dEl, ok := d.Element(); ok && elementKey(dEl) == key {
				return d, nil
			}
		}
	}
	return nil, nil
}

// resolveElement fans one element out through every registered resolver and
// attaches the results, deduplicating on the parent's children by unique
// id. It returns the tree node for the element itself (new or reused), or
// nil when no resolver owned the element.
func (s *run) resolveElement(el element.Element, parent descriptor.Descriptor) (descriptor.Descriptor, error) {
	var match descriptor.Descriptor
	key := elementKey(el)

	for _, res := range s.registry.resolvers {
		ds, err := res.Resolve(el, parent)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving %q: %v", ErrResolver, el.DisplayName(), err)
		}
		for _, d := range ds {
			node, _, err := descriptor.Attach(parent, d)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrResolver, err)
			}
			if nodeEl, ok := node.Element(); ok && elementKey(nodeEl) == key {
				match = node
			}
		}
	}
	return match, nil
}

// childElements enumerates the program elements directly contained in el,
// queried from the metadata provider.
func (s *run) childElements(el element.Element) []element.Element {
	p := s.registry.provider

	var out []element.Element
	switch e := el.(type) {
	case element.Package:
		for _, sub := range p.Subpackages(e) {
			out = append(out, sub)
		}
		for _, suite := range p.SuitesIn(e) {
			out = append(out, suite)
		}
	case element.Suite:
		for _, nested := range p.NestedSuites(e) {
			out = append(out, nested)
		}
		for _, method := range p.MethodsOf(e) {
			out = append(out, method)
		}
	}
	return out
}

// packagePath expands a package into its ancestor chain of elements.
func packagePath(pkg element.Package) []element.Element {
	chain := pkg.Ancestry()
	out := make([]element.Element, 0, len(chain))
	for _, p := range chain {
		out = append(out, p)
	}
	return out
}

// suitePath expands a suite into its package chain, enclosing suites, and
// the suite itself.
func suitePath(suite element.Suite) []element.Element {
	out := packagePath(element.Package{Name: suite.Package})
	for i := range suite.Path {
		out = append(out, element.Suite{Package: suite.Package, Path: suite.Path[:i+1]})
	}
	return out
}
