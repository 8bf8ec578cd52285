// Package csr implements variable-length adjacency tables stored as an
// offsets array plus a flat value array (compressed sparse row layout).
package csr

import (
	"fmt"

	"github.com/notargets/fvmesh/utils"
)

// Table is an immutable entity -> referenced ids adjacency. Entity i's list is
// Value[Index[i]:Index[i+1]].
type Table struct {
	Index []int // len N+1, Index[0] == 0, non-decreasing
	Value []int // len Index[N]
}

// Pair references Ref from entity Entity.
type Pair struct {
	Entity, Ref int
}

// Build groups pairs by entity. Within an entity, references keep the order in
// which they appear in pairs; they are not sorted.
func Build(n int, pairs []Pair) (*Table, error) {
	if n < 0 {
		return nil, fmt.Errorf("csr.Build: negative entity count %d: %w", n, utils.ErrAllocation)
	}
	if err := utils.CheckSize("csr.Build", "index", n+1); err != nil {
		return nil, err
	}
	c := NewCounter(n)
	for k, p := range pairs {
		if err := c.Add(p.Entity, 1); err != nil {
			return nil, fmt.Errorf("pair %d: %w", k, err)
		}
	}
	if err := c.Allocate(); err != nil {
		return nil, err
	}
	for _, p := range pairs {
		c.Push(p.Entity, p.Ref)
	}
	return c.Table(), nil
}

// NewTable adopts index and value after checking their shape.
func NewTable(index, value []int) (*Table, error) {
	if len(index) == 0 {
		return nil, fmt.Errorf("csr.NewTable: empty index array: %w", utils.ErrInconsistentLayout)
	}
	if index[0] != 0 {
		return nil, fmt.Errorf("csr.NewTable: index[0] = %d, expected 0: %w",
			index[0], utils.ErrInconsistentLayout)
	}
	for i := 1; i < len(index); i++ {
		if index[i] < index[i-1] {
			return nil, fmt.Errorf("csr.NewTable: index not monotonic at %d (%d < %d): %w",
				i, index[i], index[i-1], utils.ErrInconsistentLayout)
		}
	}
	if last := index[len(index)-1]; last != len(value) {
		return nil, fmt.Errorf("csr.NewTable: index[%d] = %d but %d values: %w",
			len(index)-1, last, len(value), utils.ErrInconsistentLayout)
	}
	return &Table{Index: index, Value: value}, nil
}

// FromRows flattens rows into a table.
func FromRows(rows [][]int) *Table {
	t := &Table{Index: make([]int, len(rows)+1)}
	for i, r := range rows {
		t.Index[i+1] = t.Index[i] + len(r)
	}
	t.Value = make([]int, 0, t.Index[len(rows)])
	for _, r := range rows {
		t.Value = append(t.Value, r...)
	}
	return t
}

// N is the number of entities.
func (t *Table) N() int {
	if t == nil || len(t.Index) == 0 {
		return 0
	}
	return len(t.Index) - 1
}

// NNZ is the total number of references.
func (t *Table) NNZ() int {
	if t == nil {
		return 0
	}
	return len(t.Value)
}

func (t *Table) Size(i int) (int, error) {
	if i < 0 || i >= t.N() {
		return 0, utils.NewIndexError("csr.Table.Size", "entity", i, 0, t.N())
	}
	return t.Index[i+1] - t.Index[i], nil
}

// Row returns entity i's references. The slice aliases the table and must not
// be modified.
func (t *Table) Row(i int) ([]int, error) {
	if i < 0 || i >= t.N() {
		return nil, utils.NewIndexError("csr.Table.Row", "entity", i, 0, t.N())
	}
	return t.Value[t.Index[i]:t.Index[i+1]], nil
}

// RowUnchecked is Row without the bounds check, for hot loops over 0..N-1.
func (t *Table) RowUnchecked(i int) []int {
	return t.Value[t.Index[i]:t.Index[i+1]]
}

// Validate checks every reference lies in [0, nTarget).
func (t *Table) Validate(nTarget int) error {
	for i := 0; i < t.N(); i++ {
		for _, v := range t.RowUnchecked(i) {
			if v < 0 || v >= nTarget {
				return utils.NewIndexError("csr.Table.Validate", "reference", v, 0, nTarget).
					While("entity", i)
			}
		}
	}
	return nil
}

func (t *Table) Clone() *Table {
	c := &Table{
		Index: make([]int, len(t.Index)),
		Value: make([]int, len(t.Value)),
	}
	copy(c.Index, t.Index)
	copy(c.Value, t.Value)
	return c
}
