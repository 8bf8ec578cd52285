// Package nodal assembles standalone element meshes from a subset of a
// face based mesh: polyhedra bounded by face loops for cell subsets, polygons
// for face subsets. A nodal Mesh owns compacted copies of everything it
// references and links back to its parent only through parent id arrays.
package nodal

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/utils"
)

type Mesh struct {
	Name string
	Dim  int // 3 for polyhedra, 2 for polygons

	Vertices     []r3.Vec
	VertexParent []int // Compacted vertex -> parent vertex id

	// Polyhedra only: element -> local faces with the orientation seen from
	// the element
	ElementFaces    *csr.Table
	FaceOrientation []int8

	// Local faces, shared by both element kinds. Vertex ids are compacted.
	FaceVertices *csr.Table
	FaceParent   []int    // Local face -> parent common face id
	FaceCells    [][2]int // Parent neighbor cells, -1 when absent

	// Polygons only: element -> compacted vertices, same rows as FaceVertices
	ElementVertices *csr.Table

	ParentNum  []int // Element -> 1-based parent id
	Degenerate []int // Elements with fewer than 3 nodes
}

func (m *Mesh) NumElements() int {
	return len(m.ParentNum)
}

// ParentIDs returns the 0-based parent id of every element.
func (m *Mesh) ParentIDs() []int {
	return utils.Index(m.ParentNum).Add(-1)
}

// ElementVertexList returns the distinct compacted vertices of element k in
// first appearance order.
func (m *Mesh) ElementVertexList(k int) ([]int, error) {
	if k < 0 || k >= m.NumElements() {
		return nil, utils.NewIndexError("nodal.Mesh.ElementVertexList", "element", k, 0, m.NumElements())
	}
	if m.Dim == 2 {
		row := m.ElementVertices.RowUnchecked(k)
		verts := make([]int, len(row))
		copy(verts, row)
		return verts, nil
	}
	var (
		verts []int
		seen  = make(map[int]struct{})
	)
	for _, f := range m.ElementFaces.RowUnchecked(k) {
		for _, v := range m.FaceVertices.RowUnchecked(f) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				verts = append(verts, v)
			}
		}
	}
	return verts, nil
}

func (m *Mesh) String() string {
	kind := "polyhedra"
	if m.Dim == 2 {
		kind = "polygons"
	}
	return fmt.Sprintf("%s: %d %s, %d faces, %d vertices, %d degenerate",
		m.Name, m.NumElements(), kind, m.FaceVertices.N(), len(m.Vertices), len(m.Degenerate))
}
