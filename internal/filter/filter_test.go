package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sift/internal/element"
)

func TestAnd_Composition(t *testing.T) {
	even := New("even", func(n int) bool { return n%2 == 0 })
	small := New("small", func(n int) bool { return n < 10 })

	t.Run("Empty composition includes everything", func(t *testing.T) {
		all := And[int]()
		assert.Equal(t, Included, all.Apply(7))
		assert.Equal(t, "include all", all.Description())
	})

	t.Run("All must include", func(t *testing.T) {
		both := And(even, small)
		assert.Equal(t, Included, both.Apply(4))
		assert.Equal(t, Excluded, both.Apply(5))
		assert.Equal(t, Excluded, both.Apply(12))
	})

	t.Run("Description names the parts", func(t *testing.T) {
		assert.Equal(t, "(even) and (small)", And(even, small).Description())
	})
}

func TestSuiteNamePatterns(t *testing.T) {
	suite := func(name string) element.Element {
		return element.Suite{Package: "a", Path: []string{name}}
	}

	t.Run("Include only", func(t *testing.T) {
		f, err := SuiteNamePatterns([]string{"^Db.*"}, nil)
		require.NoError(t, err)
		assert.Equal(t, Included, f.Apply(suite("DbSuite")))
		assert.Equal(t, Excluded, f.Apply(suite("HttpSuite")))
	})

	t.Run("Exclude wins over include", func(t *testing.T) {
		f, err := SuiteNamePatterns([]string{".*Suite$"}, []string{"Slow"})
		require.NoError(t, err)
		assert.Equal(t, Included, f.Apply(suite("FastSuite")))
		assert.Equal(t, Excluded, f.Apply(suite("SlowSuite")))
	})

	t.Run("Non-suite elements pass through", func(t *testing.T) {
		f, err := SuiteNamePatterns([]string{"^Nothing$"}, nil)
		require.NoError(t, err)
		assert.Equal(t, Included, f.Apply(element.Package{Name: "a"}))
		assert.Equal(t, Included, f.Apply(element.Method{Name: "TestX"}))
	})

	t.Run("Invalid pattern", func(t *testing.T) {
		_, err := SuiteNamePatterns([]string{"("}, nil)
		assert.Error(t, err)
	})
}
