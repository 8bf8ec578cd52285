package mesh

import (
	"fmt"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/utils"
)

// ExtractMask maps a cell id to its position in an extracted subset, or -1
// when the cell is dropped. A nil mask keeps every cell under its own id.
type ExtractMask []int

// NewExtractMask builds the mask for distinct 0-based cell ids; ids[k] maps
// to k.
func NewExtractMask(nCellsWithHalo int, ids []int) (ExtractMask, error) {
	mask, err := utils.Index(ids).Inverse(nCellsWithHalo)
	if err != nil {
		return nil, fmt.Errorf("mesh.NewExtractMask: %w", err)
	}
	return ExtractMask(mask), nil
}

// NumKept counts the cells the mask keeps.
func (mk ExtractMask) NumKept() (n int) {
	for _, k := range mk {
		if k >= 0 {
			n++
		}
	}
	return
}

// CellFaces is the cell -> face adjacency. Values are global face ids; the
// parallel Orientation entry is +1 when the face normal points out of the
// cell (boundary faces, first neighbor of interior faces) and -1 otherwise.
type CellFaces struct {
	*csr.Table
	Orientation []int8
}

// Entries returns the faces of compacted cell i and their orientations.
func (cf *CellFaces) Entries(i int) (faces []int, orient []int8, err error) {
	if faces, err = cf.Row(i); err != nil {
		return
	}
	orient = cf.Orientation[cf.Index[i]:cf.Index[i+1]]
	return
}

// GetCellFaces derives cell -> face connectivity for the cells kept by mask.
// Rows are indexed by the compacted ids of the mask. Faces are visited
// boundary first then interior, so within a row faces appear in increasing
// global id order.
func (m *Mesh) GetCellFaces(mask ExtractMask) (*CellFaces, error) {
	const fn = "mesh.GetCellFaces"
	var (
		nc    = m.NumCellsWithHalo
		nRows = nc
	)
	if mask != nil {
		if len(mask) != nc {
			return nil, fmt.Errorf("%s: mask has %d entries for %d cells: %w",
				fn, len(mask), nc, utils.ErrInvalidIndex)
		}
		nRows = mask.NumKept()
		for c, k := range mask {
			if k < -1 || k >= nRows {
				return nil, utils.NewIndexError(fn, "extracted cell", k, -1, nRows).While("cell", c)
			}
		}
	}
	row := func(c int) int {
		if c == -1 {
			return -1
		}
		if mask == nil {
			return c
		}
		return mask[c]
	}

	// Every neighbor is range checked before anything is sized
	for f, c := range m.BoundaryFaceCells {
		if c < 0 || c >= nc {
			return nil, utils.NewIndexError(fn, "cell", c, 0, nc).While("boundary face", f)
		}
	}
	for f, cells := range m.InteriorFaceCells {
		if cells[0] == -1 && cells[1] == -1 {
			return nil, fmt.Errorf("%s: interior face %d has no neighbor: %w", fn, f, utils.ErrInvalidIndex)
		}
		for _, c := range cells {
			if c < -1 || c >= nc {
				return nil, utils.NewIndexError(fn, "cell", c, 0, nc).While("interior face", f)
			}
		}
	}

	// Count pass
	counter := csr.NewCounter(nRows)
	for _, c := range m.BoundaryFaceCells {
		if r := row(c); r >= 0 {
			_ = counter.Add(r, 1)
		}
	}
	for _, cells := range m.InteriorFaceCells {
		for _, c := range cells {
			if r := row(c); r >= 0 {
				_ = counter.Add(r, 1)
			}
		}
	}
	if err := counter.Allocate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	// Fill pass
	tab := counter.Table()
	cf := &CellFaces{
		Table:       tab,
		Orientation: make([]int8, len(tab.Value)),
	}
	for f, c := range m.BoundaryFaceCells {
		if r := row(c); r >= 0 {
			cf.Orientation[counter.Push(r, f)] = 1
		}
	}
	for f, cells := range m.InteriorFaceCells {
		g := m.NumBoundaryFaces + f
		if r := row(cells[0]); r >= 0 {
			cf.Orientation[counter.Push(r, g)] = 1
		}
		if r := row(cells[1]); r >= 0 {
			cf.Orientation[counter.Push(r, g)] = -1
		}
	}
	return cf, nil
}
