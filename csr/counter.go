package csr

import (
	"fmt"

	"github.com/notargets/fvmesh/utils"
)

// Counter builds a Table in two passes: Add sizes each row, Allocate sizes
// the arrays once, then Push fills rows in call order.
type Counter struct {
	n      int
	index  []int
	cursor []int
	value  []int
	ready  bool
}

// NewCounter starts a table of n rows. A negative n is reported by Allocate.
func NewCounter(n int) *Counter {
	c := &Counter{n: n}
	if n >= 0 {
		c.index = make([]int, n+1)
	}
	return c
}

// Add reserves count slots in row i.
func (c *Counter) Add(i, count int) error {
	if c.ready {
		return fmt.Errorf("csr.Counter.Add: called after Allocate: %w", utils.ErrInconsistentLayout)
	}
	if i < 0 || i >= c.n {
		return utils.NewIndexError("csr.Counter.Add", "entity", i, 0, c.n)
	}
	c.index[i+1] += count
	return nil
}

// Allocate turns the counts into offsets and sizes the value array.
func (c *Counter) Allocate() error {
	if c.n < 0 {
		return fmt.Errorf("csr.Counter.Allocate: cannot size %d rows: %w", c.n, utils.ErrAllocation)
	}
	for i := 0; i < c.n; i++ {
		c.index[i+1] += c.index[i]
	}
	total := c.index[c.n]
	if err := utils.CheckSize("csr.Counter.Allocate", "value", total); err != nil {
		return err
	}
	c.value = make([]int, total)
	c.cursor = make([]int, c.n)
	copy(c.cursor, c.index[:c.n])
	c.ready = true
	return nil
}

// Push appends v to row i and returns its position in the value array. Rows
// must not receive more values than were reserved.
func (c *Counter) Push(i, v int) (pos int) {
	pos = c.cursor[i]
	if pos >= c.index[i+1] {
		panic(fmt.Sprintf("csr.Counter.Push: row %d overflow (%d reserved)", i, c.index[i+1]-c.index[i]))
	}
	c.value[pos] = v
	c.cursor[i]++
	return
}

// Table returns the filled table. Rows not completely filled keep zeros.
func (c *Counter) Table() *Table {
	return &Table{Index: c.index, Value: c.value}
}
