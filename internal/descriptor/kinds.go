package descriptor

import (
	"sift/internal/element"
	"sift/internal/uid"
)

// Engine is the distinguished root of a discovery tree. It is container-like
// but flagged as root, and it is the only node without a program element.
type Engine struct {
	Base
}

// NewEngine creates the root descriptor for the named engine.
func NewEngine(engineName string) *Engine {
	id := uid.New(SegmentTypeEngine, engineName)
	return &Engine{Base: NewBase(id, engineName)}
}

func (e *Engine) IsRoot() bool                     { return true }
func (e *Engine) IsContainer() bool                { return true }
func (e *Engine) IsTest() bool                     { return false }
func (e *Engine) Element() (element.Element, bool) { return nil, false }

// Package is a container node for one level of a dotted package path. Its
// segment value is the full dotted name of that level, so "a.b" sits under
// "a" with its own complete name.
type Package struct {
	Base
	pkg element.Package
}

func NewPackage(parent Descriptor, pkg element.Package) *Package {
	id := parent.UniqueID().Append(SegmentTypePackage, pkg.Name)
	return &Package{Base: NewBase(id, pkg.Name), pkg: pkg}
}

func (p *Package) IsRoot() bool                     { return false }
func (p *Package) IsContainer() bool                { return true }
func (p *Package) IsTest() bool                     { return false }
func (p *Package) Element() (element.Element, bool) { return p.pkg, true }

// Suite is a container node for a top-level test suite.
type Suite struct {
	Base
	suite element.Suite
}

func NewSuite(parent Descriptor, suite element.Suite) *Suite {
	id := parent.UniqueID().Append(SegmentTypeSuite, suite.DisplayName())
	return &Suite{Base: NewBase(id, suite.DisplayName()), suite: suite}
}

func (s *Suite) IsRoot() bool                     { return false }
func (s *Suite) IsContainer() bool                { return true }
func (s *Suite) IsTest() bool                     { return false }
func (s *Suite) Element() (element.Element, bool) { return s.suite, true }

// NestedSuite is a container node for a suite declared inside another suite.
type NestedSuite struct {
	Base
	suite element.Suite
}

func NewNestedSuite(parent Descriptor, suite element.Suite) *NestedSuite {
	id := parent.UniqueID().Append(SegmentTypeNestedSuite, suite.DisplayName())
	return &NestedSuite{Base: NewBase(id, suite.DisplayName()), suite: suite}
}

func (s *NestedSuite) IsRoot() bool                     { return false }
func (s *NestedSuite) IsContainer() bool                { return true }
func (s *NestedSuite) IsTest() bool                     { return false }
func (s *NestedSuite) Element() (element.Element, bool) { return s.suite, true }

// Test is a leaf node for a single test method.
type Test struct {
	Base
	method element.Method
}

func NewTest(parent Descriptor, method element.Method) *Test {
	id := parent.UniqueID().Append(SegmentTypeMethod, method.Name)
	return &Test{Base: NewBase(id, method.Name), method: method}
}

func (t *Test) IsRoot() bool                     { return false }
func (t *Test) IsContainer() bool                { return false }
func (t *Test) IsTest() bool                     { return true }
func (t *Test) Element() (element.Element, bool) { return t.method, true }
