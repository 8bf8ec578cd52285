package utils

import (
	"fmt"
	"sort"
)

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	if size < 0 {
		size = 0
	}
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func NewFilled(N, val int) (r Index) {
	r = make(Index, N)
	for i := range r {
		r[i] = val
	}
	return
}

func (I Index) Copy() (r Index) {
	r = make(Index, len(I))
	copy(r, I)
	return
}

func (I Index) Add(val int) (r Index) {
	r = make(Index, len(I))
	for i, ival := range I {
		r[i] = val + ival
	}
	return r
}

func (I Index) Apply(f func(val int) int) (r Index) {
	r = make(Index, len(I))
	for i, val := range I {
		r[i] = f(val)
	}
	return
}

// SortUnique sorts I ascending in place and compacts away repeated values.
// The returned Index shares storage with I.
func (I Index) SortUnique() (r Index) {
	if len(I) == 0 {
		return I
	}
	sort.Ints(I)
	n := 1
	for i := 1; i < len(I); i++ {
		if I[i] != I[n-1] {
			I[n] = I[i]
			n++
		}
	}
	return I[:n]
}

// CheckRange verifies every value lies in [min, max).
func (I Index) CheckRange(fn, entity string, min, max int) (err error) {
	for _, val := range I {
		if val < min || val >= max {
			return NewIndexError(fn, entity, val, min, max)
		}
	}
	return
}

// Inverse builds the map from value to position: r[I[k]] = k, -1 elsewhere.
// I must hold distinct values in [0, N).
func (I Index) Inverse(N int) (r Index, err error) {
	r = NewFilled(N, -1)
	for k, val := range I {
		if val < 0 || val >= N {
			return nil, NewIndexError("Index.Inverse", "value", val, 0, N)
		}
		if r[val] != -1 {
			return nil, fmt.Errorf("Index.Inverse: value %d repeated at positions %d and %d: %w",
				val, r[val], k, ErrInvalidIndex)
		}
		r[val] = k
	}
	return
}
