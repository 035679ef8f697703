package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageAncestry(t *testing.T) {
	chain := Package{Name: "a.b.c"}.Ancestry()
	assert.Equal(t, []Package{{Name: "a"}, {Name: "a.b"}, {Name: "a.b.c"}}, chain)

	assert.Equal(t, []Package{{Name: "top"}}, Package{Name: "top"}.Ancestry())
}

func TestSuiteNesting(t *testing.T) {
	top := Suite{Package: "a.b", Path: []string{"Outer"}}
	nested := Suite{Package: "a.b", Path: []string{"Outer", "Inner"}}

	assert.False(t, top.IsNested())
	assert.True(t, nested.IsNested())
	assert.Equal(t, top, nested.Enclosing())

	assert.Equal(t, "Outer", top.DisplayName())
	assert.Equal(t, "Inner", nested.DisplayName())

	assert.Equal(t, "a.b/Outer", top.Key())
	assert.Equal(t, "a.b/Outer.Inner", nested.Key())
	assert.NotEqual(t, top.Key(), nested.Key())
}
