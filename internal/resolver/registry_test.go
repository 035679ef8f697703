package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sift/internal/descriptor"
	"sift/internal/element"
	"sift/internal/filter"
	"sift/internal/selector"
	"sift/internal/uid"
)

func countByType(root descriptor.Descriptor, segmentType string) int {
	count := 0
	descriptor.Walk(root, func(d descriptor.Descriptor) bool {
		if d.UniqueID().Last().Type == segmentType {
			count++
		}
		return true
	})
	return count
}

func collectIDs(root descriptor.Descriptor) []string {
	var ids []string
	descriptor.Walk(root, func(d descriptor.Descriptor) bool {
		ids = append(ids, d.UniqueID().String())
		return true
	})
	return ids
}

func TestResolveSuiteSelector(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("a.b", "CalculatorSuite", "TestAdd", "TestSubtract")

	sel, err := selector.ForSuite("a.b", "CalculatorSuite")
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{sel},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Unmatched)

	t.Run("ancestor chain is materialized", func(t *testing.T) {
		assert.Equal(t, 2, countByType(root, descriptor.SegmentTypePackage))
		assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeSuite))
		assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeMethod))
	})

	t.Run("ids are addressable and round-trip", func(t *testing.T) {
		for _, id := range collectIDs(root) {
			parsed, err := uid.Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, parsed.String())
		}

		suiteID, err := uid.Parse("engine:sift/package:a/package:a.b/suite:CalculatorSuite")
		require.NoError(t, err)
		outer, ok := root.FindChild(uid.New("engine", "sift").Append("package", "a"))
		require.True(t, ok)
		inner, ok := outer.FindChild(outer.UniqueID().Append("package", "a.b"))
		require.True(t, ok)
		suiteNode, ok := inner.FindChild(suiteID)
		require.True(t, ok)
		assert.Len(t, suiteNode.Children(), 2)
	})
}

func TestResolvePackageFanOut(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("a.b", "FirstSuite", "TestOne")
	provider.addSuite("a.c", "SecondSuite", "TestTwo")

	sel, err := selector.ForPackage("a")
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	_, err = NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{sel},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, countByType(root, descriptor.SegmentTypePackage))
	assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeSuite))
	assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeMethod))
}

func TestFilterPrunesWholeSubtree(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("pkg", "AlphaSuite", "TestA")
	provider.addSuite("pkg", "BetaSuite", "TestB")
	gamma := provider.addSuite("pkg", "GammaSuite", "TestG")
	provider.addNested(gamma, "InnerSuite", "TestI")

	sel, err := selector.ForPackage("pkg")
	require.NoError(t, err)
	exclude, err := filter.SuiteNamePatterns(nil, []string{"Gamma.*"})
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	_, err = NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{sel},
		Filters:   []filter.ElementFilter{exclude},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeSuite))
	assert.Equal(t, 0, countByType(root, descriptor.SegmentTypeNestedSuite))
	assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeMethod))

	for _, d := range descriptor.Descendants(root) {
		assert.NotEqual(t, "GammaSuite", d.DisplayName())
		assert.NotEqual(t, "InnerSuite", d.DisplayName())
	}
}

func TestOverlappingSelectorsShareNodes(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("a.b", "CalculatorSuite", "TestAdd", "TestSubtract")

	suiteSel, err := selector.ForSuite("a.b", "CalculatorSuite")
	require.NoError(t, err)
	methodSel, err := selector.ForMethod(provider, "a.b", "CalculatorSuite", "TestAdd")
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	_, err = NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{suiteSel, methodSel},
	})
	require.NoError(t, err)

	// The method selector targets a method already covered by the suite
	// selector; the tree must be identical to the suite-only result, with
	// every shared node appearing once.
	assert.Equal(t, 2, countByType(root, descriptor.SegmentTypePackage))
	assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeSuite))
	assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeMethod))
	assert.Len(t, descriptor.Descendants(root), 5)
}

func TestRootSelectorSkipsNonSuiteTypes(t *testing.T) {
	provider := newFakeProvider()
	calc := provider.addSuite("app", "CalculatorSuite", "TestAdd")
	helper := provider.addSuite("app", "Helper")
	provider.markNonTest(helper)
	provider.addRoot("/src", calc, helper)

	sel, err := selector.ForRoot("/src")
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{sel},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Unmatched)

	assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeSuite))
	for _, d := range descriptor.Descendants(root) {
		assert.NotEqual(t, "Helper", d.DisplayName())
	}
}

func TestUnmatchedSelectorIsReportedNotError(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("a.b", "CalculatorSuite", "TestAdd")

	missing, err := selector.ForSuite("nope", "MissingSuite")
	require.NoError(t, err)
	present, err := selector.ForSuite("a.b", "CalculatorSuite")
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{missing, present},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"suite:nope.MissingSuite"}, report.Unmatched)
	assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeSuite))
}

func TestUniqueIDSelectorReverseResolution(t *testing.T) {
	provider := newFakeProvider()
	calc := provider.addSuite("a.b", "CalculatorSuite", "TestAdd")
	provider.addNested(calc, "EdgeCases", "TestOverflow", "TestUnderflow")

	t.Run("nested suite id rebuilds the chain and expands the subtree", func(t *testing.T) {
		sel, err := selector.ForUniqueID("engine:sift/package:a/package:a.b/suite:CalculatorSuite/nested-suite:EdgeCases")
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{sel},
		})
		require.NoError(t, err)
		assert.Empty(t, report.Unmatched)

		assert.Equal(t, 2, countByType(root, descriptor.SegmentTypePackage))
		assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeSuite))
		assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeNestedSuite))
		// Only the targeted nested suite is expanded: the enclosing suite's
		// own method must not be pulled in.
		assert.Equal(t, 2, countByType(root, descriptor.SegmentTypeMethod))
	})

	t.Run("id naming a foreign engine matches nothing", func(t *testing.T) {
		sel, err := selector.ForUniqueID("engine:other/package:a")
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{sel},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"uid:engine:other/package:a"}, report.Unmatched)
		assert.Empty(t, root.Children())
	})

	t.Run("id naming a nonexistent element matches nothing", func(t *testing.T) {
		sel, err := selector.ForUniqueID("engine:sift/package:a/package:a.b/suite:GhostSuite")
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{sel},
		})
		require.NoError(t, err)
		assert.Len(t, report.Unmatched, 1)
		assert.Empty(t, descriptor.Descendants(root),
			"a dead id must not leave its ancestor nodes behind")
	})
}

func TestDeadSelectorLeavesTreeEmpty(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("a.b", "CalculatorSuite", "TestAdd")

	t.Run("suite selector pruned by a name filter", func(t *testing.T) {
		sel, err := selector.ForSuite("a.b", "CalculatorSuite")
		require.NoError(t, err)
		exclude, err := filter.SuiteNamePatterns(nil, []string{"Calculator.*"})
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{sel},
			Filters:   []filter.ElementFilter{exclude},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"suite:a.b.CalculatorSuite"}, report.Unmatched)
		assert.Empty(t, descriptor.Descendants(root),
			"a filtered-out target must not leave its package chain behind")
	})

	t.Run("selector naming an unknown suite", func(t *testing.T) {
		sel, err := selector.ForSuite("a.b", "GhostSuite")
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{sel},
		})
		require.NoError(t, err)
		assert.Len(t, report.Unmatched, 1)
		assert.Empty(t, descriptor.Descendants(root))
	})

	t.Run("a live selector still resolves alongside a dead one", func(t *testing.T) {
		live, err := selector.ForSuite("a.b", "CalculatorSuite")
		require.NoError(t, err)
		dead, err := selector.ForUniqueID("engine:sift/package:a/package:a.b/suite:GhostSuite")
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		report, err := NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{dead, live},
		})
		require.NoError(t, err)

		assert.Len(t, report.Unmatched, 1)
		assert.Equal(t, 2, countByType(root, descriptor.SegmentTypePackage))
		assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeSuite))
		assert.Equal(t, 1, countByType(root, descriptor.SegmentTypeMethod))
	})
}

type failingResolver struct{}

func (failingResolver) Resolve(element.Element, descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	return nil, errors.New("metadata backend unavailable")
}

func (failingResolver) CanResolveUniqueID(uid.Segment, descriptor.Descriptor) bool {
	return false
}

func (failingResolver) ResolveUniqueID(uid.Segment, descriptor.Descriptor, uid.ID) (descriptor.Descriptor, error) {
	return nil, nil
}

func TestResolverFailureAbortsRun(t *testing.T) {
	provider := newFakeProvider()
	provider.addSuite("a.b", "CalculatorSuite", "TestAdd")

	sel, err := selector.ForSuite("a.b", "CalculatorSuite")
	require.NoError(t, err)

	registry := NewRegistry(provider, NewPackageResolver(provider), failingResolver{})
	root := descriptor.NewEngine("sift")
	_, err = registry.Resolve(root, selector.Request{Selectors: []selector.Selector{sel}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolver)
}

func TestResolutionIsDeterministic(t *testing.T) {
	build := func() []string {
		provider := newFakeProvider()
		provider.addSuite("a.b", "FirstSuite", "TestOne", "TestTwo")
		second := provider.addSuite("a.b", "SecondSuite", "TestThree")
		provider.addNested(second, "InnerSuite", "TestFour")
		provider.addSuite("a.c", "ThirdSuite", "TestFive")

		sel, err := selector.ForPackage("a")
		require.NoError(t, err)

		root := descriptor.NewEngine("sift")
		_, err = NewStandardRegistry(provider).Resolve(root, selector.Request{
			Selectors: []selector.Selector{sel},
		})
		require.NoError(t, err)
		return collectIDs(root)
	}

	first := build()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
}

func TestContainmentFlagsAreConsistent(t *testing.T) {
	provider := newFakeProvider()
	calc := provider.addSuite("a.b", "CalculatorSuite", "TestAdd")
	provider.addNested(calc, "EdgeCases", "TestOverflow")

	sel, err := selector.ForPackage("a")
	require.NoError(t, err)

	root := descriptor.NewEngine("sift")
	_, err = NewStandardRegistry(provider).Resolve(root, selector.Request{
		Selectors: []selector.Selector{sel},
	})
	require.NoError(t, err)

	for _, d := range descriptor.Descendants(root) {
		assert.False(t, d.IsRoot())
		assert.NotEqual(t, d.IsContainer(), d.IsTest(),
			"node %s must be exactly one of container or test", d.UniqueID())
		if d.IsTest() {
			assert.Empty(t, d.Children())
		}
		_, ok := d.Element()
		assert.True(t, ok)
	}
	assert.True(t, root.IsRoot())
}
