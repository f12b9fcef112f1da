package dataset_test

import (
	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	cases := []struct {
		raw   string
		all   bool
		names []string
	}{
		{raw: "*", all: true},
		{raw: " * ", all: true},
		{raw: "price", names: []string{"price"}},
		{raw: "unit price", names: []string{"unit price"}},
		{raw: `"a,b"`, names: []string{"a,b"}},
		{raw: `["a", "b"]`, names: []string{"a", "b"}},
		{raw: `['a', 'b c']`, names: []string{"a", "b c"}},
		{raw: "a, b ,c", names: []string{"a", "b", "c"}},
		{raw: "col*", names: []string{"col*"}},
	}

	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			sel, err := dataset.ParseSelector(c.raw)
			require.NoError(t, err)
			assert.True(t, sel.Enabled())
			assert.Equal(t, c.all, sel.All())
			if !c.all {
				assert.Equal(t, c.names, sel.Names())
			}
		})
	}
}

func TestParseSelectorDisabled(t *testing.T) {
	for _, raw := range []string{"", "  ", "[]"} {
		sel, err := dataset.ParseSelector(raw)
		require.NoError(t, err)
		assert.False(t, sel.Enabled(), raw)
	}
}

func TestParseSelectorErrors(t *testing.T) {
	for _, raw := range []string{"[a", "a,", "*, a", `"unterminated`} {
		_, err := dataset.ParseSelector(raw)
		assert.Error(t, err, raw)
	}
}

func TestResolve(t *testing.T) {
	available := []string{"a", "b", "c"}

	names, err := dataset.Resolve(dataset.AllColumns(), available)
	require.NoError(t, err)
	assert.Equal(t, available, names)

	names, err = dataset.Resolve(dataset.Columns("b"), available)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	names, err = dataset.Resolve(dataset.Columns("c", "a"), available)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, names)

	names, err = dataset.Resolve(dataset.Selector{}, available)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestResolveIsAllOrNothing(t *testing.T) {
	names, err := dataset.Resolve(dataset.Columns("a", "x", "y"), []string{"a", "b"})
	assert.Nil(t, names)

	var notFound *errs.ColumnNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, []string{"x", "y"}, notFound.Missing)
	assert.Equal(t, []string{"a", "b"}, notFound.Available)
}

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "*", dataset.AllColumns().String())
	assert.Equal(t, `["a", "b"]`, dataset.Columns("a", "b").String())
	assert.Equal(t, "[]", dataset.Selector{}.String())
}
