package resolver

import (
	"sort"
	"strings"

	"sift/internal/element"
)

// fakeProvider is an in-memory metadata universe for registry tests.
type fakeProvider struct {
	packages map[string]bool
	suites   map[string][]element.Suite  // package -> top-level suites
	nested   map[string][]element.Suite  // suite key -> nested suites
	methods  map[string][]element.Method // suite key -> methods
	roots    map[string][]element.Suite  // source root -> suites under it
	nonTest  map[string]bool             // suite keys failing the capability check
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		packages: make(map[string]bool),
		suites:   make(map[string][]element.Suite),
		nested:   make(map[string][]element.Suite),
		methods:  make(map[string][]element.Method),
		roots:    make(map[string][]element.Suite),
		nonTest:  make(map[string]bool),
	}
}

func (f *fakeProvider) addSuite(pkg, name string, methodNames ...string) element.Suite {
	suite := element.Suite{Package: pkg, Path: []string{name}}
	f.suites[pkg] = append(f.suites[pkg], suite)
	f.registerPackage(pkg)
	f.addMethods(suite, methodNames...)
	return suite
}

func (f *fakeProvider) addNested(parent element.Suite, name string, methodNames ...string) element.Suite {
	nested := element.Suite{Package: parent.Package, Path: append(append([]string(nil), parent.Path...), name)}
	f.nested[parent.Key()] = append(f.nested[parent.Key()], nested)
	f.addMethods(nested, methodNames...)
	return nested
}

func (f *fakeProvider) addMethods(suite element.Suite, names ...string) {
	for _, n := range names {
		f.methods[suite.Key()] = append(f.methods[suite.Key()], element.Method{Suite: suite, Name: n})
	}
}

func (f *fakeProvider) addRoot(root string, suites ...element.Suite) {
	f.roots[root] = append(f.roots[root], suites...)
}

func (f *fakeProvider) markNonTest(suite element.Suite) {
	f.nonTest[suite.Key()] = true
}

func (f *fakeProvider) registerPackage(pkg string) {
	for _, p := range (element.Package{Name: pkg}).Ancestry() {
		f.packages[p.Name] = true
	}
}

func (f *fakeProvider) LookupPackage(name string) (element.Package, bool) {
	if !f.packages[name] {
		return element.Package{}, false
	}
	return element.Package{Name: name}, true
}

func (f *fakeProvider) LookupSuite(pkg, name string) (element.Suite, bool) {
	for _, s := range f.suites[pkg] {
		if s.DisplayName() == name {
			return s, true
		}
	}
	return element.Suite{}, false
}

func (f *fakeProvider) LookupNestedSuite(parent element.Suite, name string) (element.Suite, bool) {
	for _, s := range f.nested[parent.Key()] {
		if s.DisplayName() == name {
			return s, true
		}
	}
	return element.Suite{}, false
}

func (f *fakeProvider) LookupMethod(s element.Suite, name string) (element.Method, bool) {
	for _, m := range f.methods[s.Key()] {
		if m.Name == name {
			return m, true
		}
	}
	return element.Method{}, false
}

func (f *fakeProvider) Subpackages(p element.Package) []element.Package {
	var names []string
	for name := range f.packages {
		if strings.HasPrefix(name, p.Name+".") && !strings.Contains(name[len(p.Name)+1:], ".") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]element.Package, 0, len(names))
	for _, name := range names {
		out = append(out, element.Package{Name: name})
	}
	return out
}

func (f *fakeProvider) SuitesIn(p element.Package) []element.Suite {
	return f.suites[p.Name]
}

func (f *fakeProvider) NestedSuites(s element.Suite) []element.Suite {
	return f.nested[s.Key()]
}

func (f *fakeProvider) MethodsOf(s element.Suite) []element.Method {
	return f.methods[s.Key()]
}

func (f *fakeProvider) SuitesUnderRoot(root string) []element.Suite {
	return f.roots[root]
}

func (f *fakeProvider) IsTestSuite(s element.Suite) bool {
	if s.IsNested() || f.nonTest[s.Key()] {
		return false
	}
	for _, known := range f.suites[s.Package] {
		if known.Key() == s.Key() {
			return true
		}
	}
	return false
}

func (f *fakeProvider) IsNestedTestSuite(s element.Suite) bool {
	if !s.IsNested() || f.nonTest[s.Key()] {
		return false
	}
	for _, known := range f.nested[s.Enclosing().Key()] {
		if known.Key() == s.Key() {
			return true
		}
	}
	return false
}

func (f *fakeProvider) IsTestMethod(m element.Method) bool {
	_, ok := f.LookupMethod(m.Suite, m.Name)
	return ok
}
