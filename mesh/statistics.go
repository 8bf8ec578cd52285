package mesh

import (
	"fmt"
	"io"
	"sort"
)

// Statistics summarizes the sizes of a mesh.
type Statistics struct {
	Cells, HaloCells             int
	InteriorFaces, BoundaryFaces int
	Vertices                     int
	MinFacesPerCell              int
	MaxFacesPerCell              int
	MinVerticesPerFace           int
	MaxVerticesPerFace           int
	BoundaryFacesByTag           map[string]int
}

func (m *Mesh) Statistics() (st Statistics, err error) {
	st = Statistics{
		Cells:              m.NumCells,
		HaloCells:          m.NumHaloCells(),
		InteriorFaces:      m.NumInteriorFaces,
		BoundaryFaces:      m.NumBoundaryFaces,
		Vertices:           m.NumVertices,
		BoundaryFacesByTag: make(map[string]int),
	}
	var cf *CellFaces
	if cf, err = m.GetCellFaces(nil); err != nil {
		return
	}
	for c := 0; c < cf.N(); c++ {
		n := cf.Index[c+1] - cf.Index[c]
		if c == 0 || n < st.MinFacesPerCell {
			st.MinFacesPerCell = n
		}
		if n > st.MaxFacesPerCell {
			st.MaxFacesPerCell = n
		}
	}
	first := true
	for g := 0; g < m.NumFaces(); g++ {
		verts, _ := m.FaceVertices(g)
		n := len(verts)
		if first || n < st.MinVerticesPerFace {
			st.MinVerticesPerFace = n
		}
		if n > st.MaxVerticesPerFace {
			st.MaxVerticesPerFace = n
		}
		first = false
	}
	for f := 0; f < m.NumBoundaryFaces; f++ {
		family := 0
		if m.BoundaryFaceFamily != nil {
			family = m.BoundaryFaceFamily[f]
		}
		name, ok := m.BoundaryTags[family]
		if !ok {
			name = fmt.Sprintf("family %d", family)
		}
		st.BoundaryFacesByTag[name]++
	}
	return
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics(w io.Writer) error {
	st, err := m.Statistics()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Vertices: %d\n", st.Vertices)
	fmt.Fprintf(w, "  Cells: %d (+%d halo)\n", st.Cells, st.HaloCells)
	fmt.Fprintf(w, "  Boundary faces: %d\n", st.BoundaryFaces)
	fmt.Fprintf(w, "  Interior faces: %d\n", st.InteriorFaces)
	fmt.Fprintf(w, "  Faces per cell: [%d, %d]\n", st.MinFacesPerCell, st.MaxFacesPerCell)
	fmt.Fprintf(w, "  Vertices per face: [%d, %d]\n", st.MinVerticesPerFace, st.MaxVerticesPerFace)

	tags := make([]string, 0, len(st.BoundaryFacesByTag))
	for k := range st.BoundaryFacesByTag {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	fmt.Fprintf(w, "  Boundary tags:\n")
	for _, k := range tags {
		fmt.Fprintf(w, "    %s: %d\n", k, st.BoundaryFacesByTag[k])
	}
	return nil
}
