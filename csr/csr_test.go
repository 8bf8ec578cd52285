package csr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fvmesh/utils"
)

func checkShape(t *testing.T, tb *Table) {
	t.Helper()
	require.NotEmpty(t, tb.Index)
	assert.Equal(t, 0, tb.Index[0])
	sum := 0
	for i := 0; i < tb.N(); i++ {
		assert.LessOrEqual(t, tb.Index[i], tb.Index[i+1], "index not monotonic at %d", i)
		sz, err := tb.Size(i)
		require.NoError(t, err)
		sum += sz
	}
	assert.Equal(t, len(tb.Value), sum)
	assert.Equal(t, tb.Index[tb.N()], len(tb.Value))
}

func TestBuild_FirstSeenOrder(t *testing.T) {
	pairs := []Pair{
		{2, 9}, {0, 5}, {2, 1}, {0, 3}, {1, 7}, {2, 4}, {0, 8},
	}
	tb, err := Build(4, pairs)
	require.NoError(t, err)
	checkShape(t, tb)

	assert.Equal(t, []int{0, 3, 4, 7, 7}, tb.Index)

	row, err := tb.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 8}, row)
	row, _ = tb.Row(2)
	assert.Equal(t, []int{9, 1, 4}, row, "values must keep insertion order, not be sorted")
	row, _ = tb.Row(3)
	assert.Empty(t, row)
}

func TestBuild_KeepsRealDuplicates(t *testing.T) {
	tb, err := Build(1, []Pair{{0, 4}, {0, 4}})
	require.NoError(t, err)
	row, _ := tb.Row(0)
	assert.Equal(t, []int{4, 4}, row)
}

func TestBuild_InvalidEntity(t *testing.T) {
	_, err := Build(3, []Pair{{0, 1}, {3, 2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInvalidIndex))
	var ie *utils.IndexError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 3, ie.ID)
	assert.Equal(t, 0, ie.Min)
	assert.Equal(t, 3, ie.Max)

	_, err = Build(3, []Pair{{-1, 0}})
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
}

func TestBuild_Empty(t *testing.T) {
	tb, err := Build(0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tb.N())
	assert.Equal(t, 0, tb.NNZ())
	checkShape(t, tb)

	for _, n := range []int{-1, -2} {
		_, err = Build(n, nil)
		assert.ErrorIs(t, err, utils.ErrAllocation, "n = %d", n)
	}
}

func TestCounter_NegativeRows(t *testing.T) {
	c := NewCounter(-1)
	assert.ErrorIs(t, c.Add(0, 1), utils.ErrInvalidIndex)
	assert.ErrorIs(t, c.Allocate(), utils.ErrAllocation)
}

func TestTable_SizeAndRowBounds(t *testing.T) {
	tb := FromRows([][]int{{1, 2}, {}, {3}})
	checkShape(t, tb)
	for _, i := range []int{-1, 3, 10} {
		_, err := tb.Size(i)
		assert.ErrorIs(t, err, utils.ErrInvalidIndex, "Size(%d)", i)
		_, err = tb.Row(i)
		assert.ErrorIs(t, err, utils.ErrInvalidIndex, "Row(%d)", i)
	}
	sz, err := tb.Size(1)
	require.NoError(t, err)
	assert.Equal(t, 0, sz)
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name  string
		index []int
		value []int
		ok    bool
	}{
		{"valid", []int{0, 2, 3}, []int{1, 2, 3}, true},
		{"empty index", []int{}, nil, false},
		{"nonzero start", []int{1, 2}, []int{1}, false},
		{"decreasing", []int{0, 2, 1}, []int{1}, false},
		{"length mismatch", []int{0, 1, 3}, []int{1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, err := NewTable(tt.index, tt.value)
			if tt.ok {
				require.NoError(t, err)
				checkShape(t, tb)
				return
			}
			assert.ErrorIs(t, err, utils.ErrInconsistentLayout)
		})
	}
}

func TestTable_Validate(t *testing.T) {
	tb := FromRows([][]int{{0, 1}, {2, 5}})
	assert.NoError(t, tb.Validate(6))
	err := tb.Validate(5)
	require.ErrorIs(t, err, utils.ErrInvalidIndex)
	var ie *utils.IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 5, ie.ID)
	assert.Equal(t, 1, ie.ParentID)
}

func TestCounter_TwoPass(t *testing.T) {
	c := NewCounter(3)
	require.NoError(t, c.Add(0, 2))
	require.NoError(t, c.Add(2, 1))
	assert.ErrorIs(t, c.Add(3, 1), utils.ErrInvalidIndex)
	require.NoError(t, c.Allocate())
	assert.ErrorIs(t, c.Add(0, 1), utils.ErrInconsistentLayout)

	assert.Equal(t, 0, c.Push(0, 10))
	assert.Equal(t, 2, c.Push(2, 30))
	assert.Equal(t, 1, c.Push(0, 11))
	assert.Panics(t, func() { c.Push(1, 99) })

	tb := c.Table()
	checkShape(t, tb)
	assert.Equal(t, []int{10, 11, 30}, tb.Value)
}

func TestTable_Clone(t *testing.T) {
	tb := FromRows([][]int{{1}, {2, 3}})
	c := tb.Clone()
	c.Value[0] = 42
	assert.Equal(t, 1, tb.Value[0])
}
