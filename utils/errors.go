package utils

import (
	"errors"
	"fmt"
)

// Error kinds shared by the connectivity, extraction and nodal packages. Every
// error returned by those packages wraps exactly one of these.
var (
	ErrInvalidIndex       = errors.New("invalid index")
	ErrAllocation         = errors.New("allocation error")
	ErrEmptySelection     = errors.New("empty selection")
	ErrDegenerateElement  = errors.New("degenerate element")
	ErrInconsistentLayout = errors.New("inconsistent layout")
)

// MaxTableEntries bounds the size of a single connectivity array.
const MaxTableEntries = 1 << 40

// IndexError reports an id found outside its valid range [Min, Max) during a
// traversal. Parent/ParentID name the entity under construction when known.
type IndexError struct {
	Func     string
	Entity   string
	ID       int
	Min, Max int
	Parent   string
	ParentID int
}

func NewIndexError(fn, entity string, id, min, max int) *IndexError {
	return &IndexError{
		Func:     fn,
		Entity:   entity,
		ID:       id,
		Min:      min,
		Max:      max,
		ParentID: -1,
	}
}

// While records the entity being built when the bad id was found.
func (e *IndexError) While(parent string, parentID int) *IndexError {
	e.Parent, e.ParentID = parent, parentID
	return e
}

func (e *IndexError) Error() string {
	msg := fmt.Sprintf("%s: %s id %d out of range [%d,%d)", e.Func, e.Entity, e.ID, e.Min, e.Max)
	if e.Parent != "" {
		msg += fmt.Sprintf(" while building %s %d", e.Parent, e.ParentID)
	}
	return msg
}

func (e *IndexError) Unwrap() error { return ErrInvalidIndex }

// CheckSize returns ErrAllocation if n entries of an array cannot be sized.
func CheckSize(fn, what string, n int) error {
	if n < 0 || n > MaxTableEntries {
		return fmt.Errorf("%s: cannot size %s with %d entries: %w", fn, what, n, ErrAllocation)
	}
	return nil
}
