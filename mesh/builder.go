package mesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/utils"
)

// RawMesh is element based connectivity as read from a mesh file.
type RawMesh struct {
	Vertices     [][]float64 // Vertex coordinates [nvertices][2 or 3]
	EtoV         [][]int     // Element to vertex connectivity
	ElementTypes []ElementType
	ElementTags  []int    // Physical group per element, may be nil
	Markers      []Marker // Named boundary face sets
}

// Marker names a set of boundary faces given by their vertices.
type Marker struct {
	Name  string
	Faces [][]int
}

// face is a unique face discovered while walking the elements
type face struct {
	vertices []int  // Winding of the first element that saw the face
	cells    [2]int // First and second neighbor
	n        int
}

func faceKey(verts []int) string {
	sorted := make([]int, len(verts))
	copy(sorted, verts)
	sort.Ints(sorted)
	return fmt.Sprintf("%v", sorted)
}

// FromElements builds a face based mesh from element connectivity. Volume
// elements become cells in file order; other elements are skipped. Faces seen
// by one cell are boundary faces and are numbered before interior faces, both
// in discovery order. Boundary face families are 1 + the index of the marker
// that names them, 0 when unmarked.
func FromElements(raw *RawMesh) (*Mesh, error) {
	const fn = "mesh.FromElements"
	if len(raw.ElementTypes) != len(raw.EtoV) {
		return nil, fmt.Errorf("%s: %d element types for %d elements: %w",
			fn, len(raw.ElementTypes), len(raw.EtoV), utils.ErrInconsistentLayout)
	}
	nv := len(raw.Vertices)

	var (
		faces      []face
		faceMap    = make(map[string]int)
		cellFamily []int
		nCells     int
	)
	for elemID, verts := range raw.EtoV {
		etype := raw.ElementTypes[elemID]
		if !etype.IsVolume() {
			continue
		}
		if len(verts) < etype.GetNumNodes() {
			return nil, fmt.Errorf("%s: element %d (%s) has %d nodes, expected %d: %w",
				fn, elemID, etype, len(verts), etype.GetNumNodes(), utils.ErrInconsistentLayout)
		}
		for _, v := range verts {
			if v < 0 || v >= nv {
				return nil, utils.NewIndexError(fn, "vertex", v, 0, nv).While("element", elemID)
			}
		}
		cell := nCells
		nCells++
		tag := 0
		if raw.ElementTags != nil {
			tag = raw.ElementTags[elemID]
		}
		cellFamily = append(cellFamily, tag)

		for _, faceVerts := range GetElementFaces(etype, verts) {
			key := faceKey(faceVerts)
			if faceID, exists := faceMap[key]; exists {
				f := &faces[faceID]
				if f.n == 2 {
					return nil, fmt.Errorf("%s: face %v shared by cells %d, %d and %d: %w",
						fn, faceVerts, f.cells[0], f.cells[1], cell, utils.ErrInconsistentLayout)
				}
				f.cells[1] = cell
				f.n = 2
			} else {
				faceMap[key] = len(faces)
				faces = append(faces, face{
					vertices: faceVerts,
					cells:    [2]int{cell, -1},
					n:        1,
				})
			}
		}
	}

	var (
		bRows, iRows [][]int
		bCells       []int
		iCells       [][2]int
	)
	for _, f := range faces {
		if f.n == 1 {
			bRows = append(bRows, f.vertices)
			bCells = append(bCells, f.cells[0])
		} else {
			iRows = append(iRows, f.vertices)
			iCells = append(iCells, f.cells)
		}
	}

	coords := make([]r3.Vec, nv)
	for i, x := range raw.Vertices {
		var p [3]float64 // 2D coordinates get z = 0
		copy(p[:], x)
		coords[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}

	m, err := New(nCells, nCells, coords,
		iCells, csr.FromRows(iRows), bCells, csr.FromRows(bRows))
	if err != nil {
		return nil, err
	}
	m.CellFamily = cellFamily
	m.InteriorFaceFamily = make([]int, m.NumInteriorFaces)
	m.BoundaryFaceFamily = make([]int, m.NumBoundaryFaces)

	if len(raw.Markers) > 0 {
		bIndex := make(map[string]int, m.NumBoundaryFaces)
		for f, verts := range bRows {
			bIndex[faceKey(verts)] = f
		}
		for im, marker := range raw.Markers {
			family := im + 1
			m.BoundaryTags[family] = marker.Name
			for _, verts := range marker.Faces {
				f, ok := bIndex[faceKey(verts)]
				if !ok {
					return nil, fmt.Errorf("%s: marker %q face %v is not a boundary face: %w",
						fn, marker.Name, verts, utils.ErrInconsistentLayout)
				}
				m.BoundaryFaceFamily[f] = family
			}
		}
	}
	return m, nil
}
