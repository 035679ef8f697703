package filter

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"sift/internal/element"
)

// ElementFilter is the discovery-filter shape the resolver registry accepts:
// a predicate over candidate program elements.
type ElementFilter = Filter[element.Element]

// SuiteNamePatterns builds a discovery filter that prunes suites by name.
// A suite is included when it matches at least one include pattern (or no
// include patterns are given) and matches no exclude pattern. Elements that
// are not suites pass through untouched, so the filter composes with others
// without pruning packages or methods on its own.
//
// Patterns use regexp2 syntax, which keeps parity with the richer pattern
// dialects test runners commonly accept (lookarounds, atomic groups).
func SuiteNamePatterns(include, exclude []string) (ElementFilter, error) {
	includeRes, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	excludeRes, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("suite name matches include=%s exclude=%s",
		patternList(include), patternList(exclude))

	return New(description, func(el element.Element) bool {
		suite, ok := el.(element.Suite)
		if !ok {
			return true
		}
		name := suite.DisplayName()

		if len(includeRes) > 0 && !anyMatch(includeRes, name) {
			return false
		}
		return !anyMatch(excludeRes, name)
	}), nil
}

func compilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	out := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("invalid suite name pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func anyMatch(res []*regexp2.Regexp, name string) bool {
	for _, re := range res {
		if ok, err := re.MatchString(name); err == nil && ok {
			return true
		}
	}
	return false
}

func patternList(patterns []string) string {
	if len(patterns) == 0 {
		return "*"
	}
	return strings.Join(patterns, ",")
}
