package scanner

import (
	"path/filepath"
	"sort"
	"strings"

	"sift/internal/element"
)

// suiteRecord is the indexed form of one suite type.
type suiteRecord struct {
	el      element.Suite
	file    string
	order   int
	methods []element.Method
	nested  []element.Suite
}

// pkgFacts accumulates raw scan output for one package before
// classification.
type pkgFacts struct {
	structs map[string]*structDecl
	methods map[string][]methodDecl
}

// Index is the in-memory metadata index produced by a scan. It implements
// element.Provider: lookups and enumerations are cheap map reads, which is
// what the discovery loop expects from its metadata collaborator.
type Index struct {
	root string

	packages    map[string]bool
	subpackages map[string][]element.Package
	topLevel    map[string][]element.Suite
	suites      map[string]*suiteRecord

	raw map[string]*pkgFacts
}

func newIndex(root string) *Index {
	return &Index{
		root:        root,
		packages:    make(map[string]bool),
		subpackages: make(map[string][]element.Package),
		topLevel:    make(map[string][]element.Suite),
		suites:      make(map[string]*suiteRecord),
		raw:         make(map[string]*pkgFacts),
	}
}

// packageName maps a file's directory to its dotted package identity,
// relative to the scan root. Files in the root directory fall back to the
// package clause name.
func (idx *Index) packageName(facts *fileFacts) string {
	rel, err := filepath.Rel(idx.root, filepath.Dir(facts.path))
	if err != nil || rel == "." {
		return facts.pkg
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}

func (idx *Index) addFile(facts *fileFacts) {
	pkg := idx.packageName(facts)
	if pkg == "" {
		return
	}

	pf, ok := idx.raw[pkg]
	if !ok {
		pf = &pkgFacts{
			structs: make(map[string]*structDecl),
			methods: make(map[string][]methodDecl),
		}
		idx.raw[pkg] = pf
	}

	for i := range facts.structs {
		decl := facts.structs[i]
		if _, exists := pf.structs[decl.name]; !exists {
			pf.structs[decl.name] = &decl
		}
	}
	for _, m := range facts.methods {
		pf.methods[m.receiver] = append(pf.methods[m.receiver], m)
	}
}

// classify turns raw scan facts into the suite/package index. A struct is a
// suite candidate when it declares at least one Test* method or embeds the
// testify suite base. A candidate embedded by another candidate in the same
// package is a nested suite; the rest are top-level.
func (idx *Index) classify() {
	for pkg, pf := range idx.raw {
		candidates := make(map[string]bool)
		for name, decl := range pf.structs {
			if idx.isCandidate(pf, name, decl) {
				candidates[name] = true
			}
		}

		nestedOf := make(map[string]bool)
		children := make(map[string][]string)
		for name := range candidates {
			for _, embedded := range pf.structs[name].embedded {
				if candidates[embedded] {
					nestedOf[embedded] = true
					children[name] = append(children[name], embedded)
				}
			}
		}

		var tops []string
		for name := range candidates {
			if !nestedOf[name] {
				tops = append(tops, name)
			}
		}
		sort.Slice(tops, func(i, j int) bool {
			a, b := pf.structs[tops[i]], pf.structs[tops[j]]
			if a.file != b.file {
				return a.file < b.file
			}
			return a.order < b.order
		})

		for _, name := range tops {
			suite := element.Suite{Package: pkg, Path: []string{name}}
			idx.registerSuite(pf, children, suite, name, nil)
			idx.topLevel[pkg] = append(idx.topLevel[pkg], suite)
		}

		idx.registerPackage(pkg)
	}

	idx.buildSubpackages()
}

func (idx *Index) isCandidate(pf *pkgFacts, name string, decl *structDecl) bool {
	for _, embedded := range decl.embedded {
		if embedded == suiteEmbed {
			return true
		}
	}
	for _, m := range pf.methods[name] {
		if strings.HasPrefix(m.name, "Test") {
			return true
		}
	}
	return false
}

// registerSuite records a suite and recurses into its nested suites. The
// seen set guards against embedding cycles in malformed input.
func (idx *Index) registerSuite(pf *pkgFacts, children map[string][]string, suite element.Suite, structName string, seen []string) {
	for _, s := range seen {
		if s == structName {
			return
		}
	}

	decl := pf.structs[structName]
	rec := &suiteRecord{el: suite, file: decl.file, order: decl.order}
	for _, m := range pf.methods[structName] {
		if strings.HasPrefix(m.name, "Test") {
			rec.methods = append(rec.methods, element.Method{Suite: suite, Name: m.name})
		}
	}

	nestedNames := append([]string(nil), children[structName]...)
	sort.Strings(nestedNames)
	for _, name := range nestedNames {
		nested := element.Suite{Package: suite.Package, Path: append(append([]string(nil), suite.Path...), name)}
		rec.nested = append(rec.nested, nested)
		idx.registerSuite(pf, children, nested, name, append(seen, structName))
	}

	idx.suites[suite.Key()] = rec
}

// registerPackage records a package and every ancestor level above it, so
// the dotted chain is resolvable even when intermediate directories hold no
// test files.
func (idx *Index) registerPackage(pkg string) {
	for _, p := range (element.Package{Name: pkg}).Ancestry() {
		idx.packages[p.Name] = true
	}
}

func (idx *Index) buildSubpackages() {
	names := make([]string, 0, len(idx.packages))
	for name := range idx.packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx.subpackages[name] = nil
		for _, other := range names {
			if isDirectSubpackage(name, other) {
				idx.subpackages[name] = append(idx.subpackages[name], element.Package{Name: other})
			}
		}
	}
}

func isDirectSubpackage(parent, candidate string) bool {
	if !strings.HasPrefix(candidate, parent+".") {
		return false
	}
	rest := candidate[len(parent)+1:]
	return rest != "" && !strings.Contains(rest, ".")
}

// --- element.Provider implementation ---

func (idx *Index) LookupPackage(name string) (element.Package, bool) {
	if !idx.packages[name] {
		return element.Package{}, false
	}
	return element.Package{Name: name}, true
}

func (idx *Index) LookupSuite(pkg, name string) (element.Suite, bool) {
	suite := element.Suite{Package: pkg, Path: []string{name}}
	if _, ok := idx.suites[suite.Key()]; !ok {
		return element.Suite{}, false
	}
	return suite, true
}

func (idx *Index) LookupNestedSuite(parent element.Suite, name string) (element.Suite, bool) {
	nested := element.Suite{Package: parent.Package, Path: append(append([]string(nil), parent.Path...), name)}
	if _, ok := idx.suites[nested.Key()]; !ok {
		return element.Suite{}, false
	}
	return nested, true
}

func (idx *Index) LookupMethod(s element.Suite, name string) (element.Method, bool) {
	rec, ok := idx.suites[s.Key()]
	if !ok {
		return element.Method{}, false
	}
	for _, m := range rec.methods {
		if m.Name == name {
			return m, true
		}
	}
	return element.Method{}, false
}

func (idx *Index) Subpackages(p element.Package) []element.Package {
	return idx.subpackages[p.Name]
}

func (idx *Index) SuitesIn(p element.Package) []element.Suite {
	return idx.topLevel[p.Name]
}

func (idx *Index) NestedSuites(s element.Suite) []element.Suite {
	rec, ok := idx.suites[s.Key()]
	if !ok {
		return nil
	}
	return rec.nested
}

func (idx *Index) MethodsOf(s element.Suite) []element.Method {
	rec, ok := idx.suites[s.Key()]
	if !ok {
		return nil
	}
	return rec.methods
}

func (idx *Index) SuitesUnderRoot(root string) []element.Suite {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil
	}

	pkgs := make([]string, 0, len(idx.topLevel))
	for pkg := range idx.topLevel {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var out []element.Suite
	for _, pkg := range pkgs {
		for _, suite := range idx.topLevel[pkg] {
			rec := idx.suites[suite.Key()]
			if rec != nil && fileUnder(rec.file, abs) {
				out = append(out, suite)
			}
		}
	}
	return out
}

func fileUnder(file, root string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

func (idx *Index) IsTestSuite(s element.Suite) bool {
	rec, ok := idx.suites[s.Key()]
	return ok && !s.IsNested() && rec != nil
}

func (idx *Index) IsNestedTestSuite(s element.Suite) bool {
	_, ok := idx.suites[s.Key()]
	return ok && s.IsNested()
}

func (idx *Index) IsTestMethod(m element.Method) bool {
	_, ok := idx.LookupMethod(m.Suite, m.Name)
	return ok && strings.HasPrefix(m.Name, "Test")
}
