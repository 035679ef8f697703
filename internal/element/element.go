package element

import "strings"

// Kind classifies a program element.
type Kind string

const (
	KindPackage Kind = "package"
	KindSuite   Kind = "suite"
	KindMethod  Kind = "method"
)

// Element is an opaque handle to a discoverable program element. The
// discovery core never inspects source-level metadata itself; it only
// carries elements between the Provider and the resolvers.
type Element interface {
	ElementKind() Kind
	DisplayName() string
}

// Package identifies a package by its full dotted name ("a.b.c").
type Package struct {
	Name string
}

func (p Package) ElementKind() Kind   { return KindPackage }
func (p Package) DisplayName() string { return p.Name }

// Ancestry returns the chain of packages from the top-level package down to
// p itself, e.g. "a.b.c" -> [a, a.b, a.b.c].
func (p Package) Ancestry() []Package {
	parts := strings.Split(p.Name, ".")
	chain := make([]Package, 0, len(parts))
	for i := range parts {
		chain = append(chain, Package{Name: strings.Join(parts[:i+1], ".")})
	}
	return chain
}

// Suite identifies a test suite type. Path holds the enclosing suite names
// from the outermost suite down to this one, so a top-level suite has a
// single-element path and a nested suite a longer one.
type Suite struct {
	Package string
	Path    []string
}

func (s Suite) ElementKind() Kind { return KindSuite }

func (s Suite) DisplayName() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// IsNested reports whether the suite is declared inside another suite.
func (s Suite) IsNested() bool {
	return len(s.Path) > 1
}

// Enclosing returns the suite directly containing s. Only valid for nested
// suites.
func (s Suite) Enclosing() Suite {
	return Suite{Package: s.Package, Path: s.Path[:len(s.Path)-1]}
}

// Key returns a stable identity string for map lookups.
func (s Suite) Key() string {
	return s.Package + "/" + strings.Join(s.Path, ".")
}

// Method identifies a single test method on a suite.
type Method struct {
	Suite Suite
	Name  string
}

func (m Method) ElementKind() Kind   { return KindMethod }
func (m Method) DisplayName() string { return m.Name }

// Provider is the reflection/metadata collaborator boundary. It answers
// existence lookups, enumerates the children of an element, and classifies
// elements via capability predicates. Implementations are expected to be
// cheap per call (in-memory, pre-indexed) because discovery queries them
// repeatedly.
type Provider interface {
	// Lookups, used by selector factories and reverse resolution.
	LookupPackage(name string) (Package, bool)
	LookupSuite(pkg, name string) (Suite, bool)
	LookupNestedSuite(parent Suite, name string) (Suite, bool)
	LookupMethod(s Suite, name string) (Method, bool)

	// Enumeration, used by the fixed-point fan-out.
	Subpackages(p Package) []Package
	SuitesIn(p Package) []Suite
	NestedSuites(s Suite) []Suite
	MethodsOf(s Suite) []Method

	// SuitesUnderRoot expands a source-root selector into the top-level
	// suite candidates found under that root.
	SuitesUnderRoot(root string) []Suite

	// Capability predicates over opaque elements.
	IsTestSuite(s Suite) bool
	IsNestedTestSuite(s Suite) bool
	IsTestMethod(m Method) bool
}
