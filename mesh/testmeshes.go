package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
)

// Standard meshes shared by the tests of this and dependent packages.

// HexBlockRaw returns the element connectivity of a unit spaced nx*ny*nz
// block of hexahedra with the six sides marked xmin, xmax, ymin, ymax, zmin
// and zmax. Cells are ordered with i fastest, then j, then k.
func HexBlockRaw(nx, ny, nz int) *RawMesh {
	vid := func(i, j, k int) int {
		return i + (nx+1)*(j+(ny+1)*k)
	}
	raw := &RawMesh{}
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				raw.Vertices = append(raw.Vertices, []float64{float64(i), float64(j), float64(k)})
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				raw.EtoV = append(raw.EtoV, []int{
					vid(i, j, k), vid(i+1, j, k), vid(i+1, j+1, k), vid(i, j+1, k),
					vid(i, j, k+1), vid(i+1, j, k+1), vid(i+1, j+1, k+1), vid(i, j+1, k+1),
				})
				raw.ElementTypes = append(raw.ElementTypes, Hex)
				raw.ElementTags = append(raw.ElementTags, 1)
			}
		}
	}
	quad := func(a, b, c, d int) []int { return []int{a, b, c, d} }
	var xmin, xmax, ymin, ymax, zmin, zmax Marker
	xmin.Name, xmax.Name, ymin.Name, ymax.Name, zmin.Name, zmax.Name =
		"xmin", "xmax", "ymin", "ymax", "zmin", "zmax"
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			xmin.Faces = append(xmin.Faces, quad(vid(0, j, k), vid(0, j+1, k), vid(0, j+1, k+1), vid(0, j, k+1)))
			xmax.Faces = append(xmax.Faces, quad(vid(nx, j, k), vid(nx, j+1, k), vid(nx, j+1, k+1), vid(nx, j, k+1)))
		}
	}
	for k := 0; k < nz; k++ {
		for i := 0; i < nx; i++ {
			ymin.Faces = append(ymin.Faces, quad(vid(i, 0, k), vid(i+1, 0, k), vid(i+1, 0, k+1), vid(i, 0, k+1)))
			ymax.Faces = append(ymax.Faces, quad(vid(i, ny, k), vid(i+1, ny, k), vid(i+1, ny, k+1), vid(i, ny, k+1)))
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			zmin.Faces = append(zmin.Faces, quad(vid(i, j, 0), vid(i+1, j, 0), vid(i+1, j+1, 0), vid(i, j+1, 0)))
			zmax.Faces = append(zmax.Faces, quad(vid(i, j, nz), vid(i+1, j, nz), vid(i+1, j+1, nz), vid(i, j+1, nz)))
		}
	}
	raw.Markers = []Marker{xmin, xmax, ymin, ymax, zmin, zmax}
	return raw
}

// HexBlock builds the face based mesh of HexBlockRaw.
func HexBlock(nx, ny, nz int) *Mesh {
	m, err := FromElements(HexBlockRaw(nx, ny, nz))
	if err != nil {
		panic(err)
	}
	return m
}

// TwoTetRaw is two tetrahedra sharing the face {1,2,3}.
func TwoTetRaw() *RawMesh {
	return &RawMesh{
		Vertices: [][]float64{
			{0, 0, 0}, // 0
			{1, 0, 0}, // 1
			{0, 1, 0}, // 2
			{0, 0, 1}, // 3
			{1, 1, 1}, // 4
		},
		EtoV: [][]int{
			{0, 1, 2, 3}, // Tet 0
			{1, 2, 3, 4}, // Tet 1 - shares face {1,2,3} with Tet 0
		},
		ElementTypes: []ElementType{Tet, Tet},
		ElementTags:  []int{1, 2},
	}
}

func TwoTet() *Mesh {
	m, err := FromElements(TwoTetRaw())
	if err != nil {
		panic(err)
	}
	return m
}

// Ring is a purely topological mesh with arbitrary face counts: interior face
// j joins cell j%nCells to a later cell on the ring, boundary face b sits on
// cell (2*b)%nCells, and every face is a triangle over consecutive vertices.
// Coordinates are not geometrically meaningful.
func Ring(nCells, nBoundaryFaces, nInteriorFaces int) *Mesh {
	nFaces := nBoundaryFaces + nInteriorFaces
	coords := make([]r3.Vec, nFaces+2)
	for i := range coords {
		coords[i] = r3.Vec{X: float64(i), Y: float64(i % 2), Z: float64(i % 3)}
	}
	tri := func(g int) []int { return []int{g, g + 1, g + 2} }

	bCells := make([]int, nBoundaryFaces)
	bRows := make([][]int, nBoundaryFaces)
	for b := range bCells {
		bCells[b] = (2 * b) % nCells
		bRows[b] = tri(b)
	}
	iCells := make([][2]int, nInteriorFaces)
	iRows := make([][]int, nInteriorFaces)
	for j := range iCells {
		offset := 1 + j/nCells
		iCells[j] = [2]int{j % nCells, (j + offset) % nCells}
		iRows[j] = tri(nBoundaryFaces + j)
	}
	m, err := New(nCells, nCells, coords, iCells, csr.FromRows(iRows), bCells, csr.FromRows(bRows))
	if err != nil {
		panic(err)
	}
	return m
}
