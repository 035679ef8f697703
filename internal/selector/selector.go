package selector

import (
	"errors"
	"fmt"
	"strings"

	"sift/internal/element"
	"sift/internal/filter"
	"sift/internal/uid"
)

// ErrInvalidSelector is returned by the factory functions when a selector
// cannot be constructed from the given inputs. Validation happens here, at
// the boundary where user input enters, before discovery starts.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector describes what the user asked to discover. Selectors are pure
// values; all behavior lives in the resolver registry.
type Selector interface {
	fmt.Stringer
	isSelector()
}

// PackageSelector targets a package and everything below it.
type PackageSelector struct {
	PackageName string
}

func (s PackageSelector) isSelector()    {}
func (s PackageSelector) String() string { return "package:" + s.PackageName }

// SuiteSelector targets a single top-level suite.
type SuiteSelector struct {
	Suite element.Suite
}

func (s SuiteSelector) isSelector() {}
func (s SuiteSelector) String() string {
	return "suite:" + s.Suite.Package + "." + s.Suite.DisplayName()
}

// MethodSelector targets a single test method on a suite.
type MethodSelector struct {
	Suite      element.Suite
	MethodName string
}

func (s MethodSelector) isSelector() {}
func (s MethodSelector) String() string {
	return "method:" + s.Suite.Package + "." + s.Suite.DisplayName() + "#" + s.MethodName
}

// RootSelector targets every suite reachable under a source root.
type RootSelector struct {
	Root string
}

func (s RootSelector) isSelector()    {}
func (s RootSelector) String() string { return "root:" + s.Root }

// UniqueIDSelector targets one node directly by its unique id. Resolution
// happens through the reverse-resolution path instead of a scan.
type UniqueIDSelector struct {
	ID uid.ID
}

func (s UniqueIDSelector) isSelector()    {}
func (s UniqueIDSelector) String() string { return "uid:" + s.ID.String() }

// ForPackage creates a selector for a dotted package name. A package that
// exists nowhere is not rejected here: an unknown package yields an empty
// discovery result, not an error.
func ForPackage(name string) (PackageSelector, error) {
	if name == "" {
		return PackageSelector{}, fmt.Errorf("%w: empty package name", ErrInvalidSelector)
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return PackageSelector{}, fmt.Errorf("%w: package name %q has an empty level", ErrInvalidSelector, name)
		}
	}
	return PackageSelector{PackageName: name}, nil
}

// ForSuite creates a selector for a top-level suite. Like ForPackage, an
// unknown suite is an empty-result condition, not a construction error.
func ForSuite(pkg, name string) (SuiteSelector, error) {
	if pkg == "" || name == "" {
		return SuiteSelector{}, fmt.Errorf("%w: suite requires a package and a name", ErrInvalidSelector)
	}
	return SuiteSelector{Suite: element.Suite{Package: pkg, Path: []string{name}}}, nil
}

// ForMethod creates a selector for a named test method. The method must
// exist on the suite, checked against the metadata provider; naming a
// missing method fails immediately rather than during discovery.
func ForMethod(p element.Provider, pkg, suiteName, methodName string) (MethodSelector, error) {
	if methodName == "" {
		return MethodSelector{}, fmt.Errorf("%w: empty method name", ErrInvalidSelector)
	}

	suite, ok := p.LookupSuite(pkg, suiteName)
	if !ok {
		return MethodSelector{}, fmt.Errorf("%w: suite %s.%s not found", ErrInvalidSelector, pkg, suiteName)
	}
	if _, ok := p.LookupMethod(suite, methodName); !ok {
		return MethodSelector{}, fmt.Errorf("%w: method %s does not exist on suite %s.%s",
			ErrInvalidSelector, methodName, pkg, suiteName)
	}

	return MethodSelector{Suite: suite, MethodName: methodName}, nil
}

// ForRoot creates a selector for a source root path.
func ForRoot(root string) (RootSelector, error) {
	if root == "" {
		return RootSelector{}, fmt.Errorf("%w: empty root path", ErrInvalidSelector)
	}
	return RootSelector{Root: root}, nil
}

// ForUniqueID creates a selector from the canonical string form of a unique
// id. Parse failures surface the underlying uid.ErrMalformedID.
func ForUniqueID(s string) (UniqueIDSelector, error) {
	id, err := uid.Parse(s)
	if err != nil {
		return UniqueIDSelector{}, fmt.Errorf("%w: %w", ErrInvalidSelector, err)
	}
	return UniqueIDSelector{ID: id}, nil
}

// Request is a discovery request: what to discover plus which candidate
// elements to prune before they are materialized.
type Request struct {
	Selectors []Selector
	Filters   []filter.ElementFilter
}
