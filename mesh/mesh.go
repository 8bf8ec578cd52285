// Package mesh holds the canonical numbering of an unstructured finite volume
// mesh and derives the connectivity tables read by the discretization kernels.
//
// Faces share one numbering space: boundary faces take global ids
// [0, NumBoundaryFaces) and interior face i takes NumBoundaryFaces+i. Cells
// [0, NumCells) are owned; cells [NumCells, NumCellsWithHalo) are halo copies
// of cells owned by another rank. A Mesh is never modified once built, so any
// number of goroutines may read it concurrently.
package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/utils"
)

// FaceKind distinguishes the two face populations.
type FaceKind uint8

const (
	BoundaryFace FaceKind = iota
	InteriorFace
)

func (k FaceKind) String() string {
	if k == BoundaryFace {
		return "boundary face"
	}
	return "interior face"
}

// Mesh represents a face based unstructured mesh
type Mesh struct {
	// Counts
	NumCells         int // Locally owned cells
	NumCellsWithHalo int // Owned plus halo cells
	NumInteriorFaces int
	NumBoundaryFaces int
	NumVertices      int

	// Geometry, supplied by the mesh source
	Vertices []r3.Vec

	// Face -> cell
	InteriorFaceCells [][2]int // First and second neighbor
	BoundaryFaceCells []int

	// Face -> vertex, in winding order (normal points out of the first neighbor)
	InteriorFaceVertices *csr.Table
	BoundaryFaceVertices *csr.Table

	// Families (groups) used by selection criteria
	CellFamily         []int
	InteriorFaceFamily []int
	BoundaryFaceFamily []int
	BoundaryTags       map[int]string // Boundary family -> name
}

// New assembles a mesh from face based connectivity and validates it.
func New(nCells, nCellsWithHalo int, vertices []r3.Vec,
	iFaceCells [][2]int, iFaceVertices *csr.Table,
	bFaceCells []int, bFaceVertices *csr.Table) (*Mesh, error) {
	m := &Mesh{
		NumCells:             nCells,
		NumCellsWithHalo:     nCellsWithHalo,
		NumInteriorFaces:     len(iFaceCells),
		NumBoundaryFaces:     len(bFaceCells),
		NumVertices:          len(vertices),
		Vertices:             vertices,
		InteriorFaceCells:    iFaceCells,
		BoundaryFaceCells:    bFaceCells,
		InteriorFaceVertices: iFaceVertices,
		BoundaryFaceVertices: bFaceVertices,
		BoundaryTags:         make(map[int]string),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NumFaces is the size of the common face numbering.
func (m *Mesh) NumFaces() int {
	return m.NumBoundaryFaces + m.NumInteriorFaces
}

// NumHaloCells is the number of ghost cells numbered after the owned cells.
func (m *Mesh) NumHaloCells() int {
	return m.NumCellsWithHalo - m.NumCells
}

// IsHalo reports whether cell c is a ghost copy.
func (m *Mesh) IsHalo(c int) bool {
	return c >= m.NumCells && c < m.NumCellsWithHalo
}

// GlobalFaceID maps a per-kind face index into the common numbering.
func (m *Mesh) GlobalFaceID(kind FaceKind, i int) (int, error) {
	switch kind {
	case BoundaryFace:
		if i < 0 || i >= m.NumBoundaryFaces {
			return -1, utils.NewIndexError("mesh.GlobalFaceID", "boundary face", i, 0, m.NumBoundaryFaces)
		}
		return i, nil
	case InteriorFace:
		if i < 0 || i >= m.NumInteriorFaces {
			return -1, utils.NewIndexError("mesh.GlobalFaceID", "interior face", i, 0, m.NumInteriorFaces)
		}
		return m.NumBoundaryFaces + i, nil
	}
	return -1, fmt.Errorf("mesh.GlobalFaceID: unknown face kind %d", kind)
}

// FaceFromGlobal splits a common face id into its kind and per-kind index.
func (m *Mesh) FaceFromGlobal(g int) (kind FaceKind, i int, err error) {
	switch {
	case g < 0 || g >= m.NumFaces():
		err = utils.NewIndexError("mesh.FaceFromGlobal", "face", g, 0, m.NumFaces())
	case g < m.NumBoundaryFaces:
		kind, i = BoundaryFace, g
	default:
		kind, i = InteriorFace, g-m.NumBoundaryFaces
	}
	return
}

// FaceVertices returns the vertex loop of face g in the common numbering. The
// slice aliases the mesh tables.
func (m *Mesh) FaceVertices(g int) ([]int, error) {
	kind, i, err := m.FaceFromGlobal(g)
	if err != nil {
		return nil, err
	}
	if kind == BoundaryFace {
		return m.BoundaryFaceVertices.RowUnchecked(i), nil
	}
	return m.InteriorFaceVertices.RowUnchecked(i), nil
}

// FaceCells returns the neighbors of face g; the second entry is -1 for
// boundary faces.
func (m *Mesh) FaceCells(g int) ([2]int, error) {
	kind, i, err := m.FaceFromGlobal(g)
	if err != nil {
		return [2]int{-1, -1}, err
	}
	if kind == BoundaryFace {
		return [2]int{m.BoundaryFaceCells[i], -1}, nil
	}
	return m.InteriorFaceCells[i], nil
}
