package filter

import "strings"

// Verdict is the outcome of applying a filter to a candidate.
type Verdict int

const (
	Included Verdict = iota
	Excluded
)

// Filter is a named, side-effect-free predicate over candidates of type T.
// Discovery filters run before a candidate element is turned into a tree
// node, so excluded subtrees are never materialized. The same contract works
// for post-discovery filtering of finished descriptors.
type Filter[T any] interface {
	// Description identifies the filter in diagnostics.
	Description() string
	Apply(candidate T) Verdict
}

type funcFilter[T any] struct {
	description string
	apply       func(T) bool
}

func (f funcFilter[T]) Description() string { return f.description }

func (f funcFilter[T]) Apply(candidate T) Verdict {
	if f.apply(candidate) {
		return Included
	}
	return Excluded
}

// New adapts a plain predicate into a Filter. The predicate returns true to
// include the candidate.
func New[T any](description string, include func(T) bool) Filter[T] {
	return funcFilter[T]{description: description, apply: include}
}

// And composes filters conjunctively: a candidate is included only if every
// filter includes it. An empty composition includes everything.
func And[T any](filters ...Filter[T]) Filter[T] {
	descriptions := make([]string, 0, len(filters))
	for _, f := range filters {
		descriptions = append(descriptions, f.Description())
	}
	description := "(" + strings.Join(descriptions, ") and (") + ")"
	if len(filters) == 0 {
		description = "include all"
	}

	return funcFilter[T]{
		description: description,
		apply: func(candidate T) bool {
			for _, f := range filters {
				if f.Apply(candidate) == Excluded {
					return false
				}
			}
			return true
		},
	}
}
