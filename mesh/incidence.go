package mesh

import (
	"sort"

	"github.com/james-bowman/sparse"
)

// Incidence returns the signed cell x face incidence matrix: entry (i, f) is
// the orientation of global face f seen from compacted cell i. Summed over a
// row it is the discrete divergence of a face flux.
func (cf *CellFaces) Incidence(nFaces int) *sparse.CSR {
	var (
		nr  = cf.N()
		dok = sparse.NewDOK(nr, nFaces)
	)
	for i := 0; i < nr; i++ {
		for k := cf.Index[i]; k < cf.Index[i+1]; k++ {
			f := cf.Value[k]
			dok.Set(i, f, dok.At(i, f)+float64(cf.Orientation[k]))
		}
	}
	return dok.ToCSR()
}

// CellGraph returns the owned cell adjacency in METIS layout: neighbors of
// cell i are adjncy[xadj[i]:xadj[i+1]] in increasing order, adjwgt holds the
// number of faces shared with each neighbor. Faces touching halo cells are
// ignored.
func (m *Mesh) CellGraph() (xadj, adjncy, adjwgt []int32) {
	var (
		nc = m.NumCells
	)
	xadj = make([]int32, nc+1)
	if nc == 0 || m.NumInteriorFaces == 0 {
		return
	}
	dok := sparse.NewDOK(nc, m.NumInteriorFaces)
	for f, cells := range m.InteriorFaceCells {
		if cells[0] < 0 || cells[1] < 0 || cells[0] >= nc || cells[1] >= nc {
			continue
		}
		dok.Set(cells[0], f, 1)
		dok.Set(cells[1], f, 1)
	}
	B := dok.ToCSR()
	A := sparse.NewCSR(nc, nc, nil, nil, nil)
	A.Mul(B, B.T())

	type nbr struct {
		cell   int32
		weight int32
	}
	row := make([]nbr, 0, 8)
	for i := 0; i < nc; i++ {
		row = row[:0]
		A.DoRowNonZero(i, func(i, j int, v float64) {
			if i != j && v != 0 {
				row = append(row, nbr{int32(j), int32(v)})
			}
		})
		sort.Slice(row, func(a, b int) bool { return row[a].cell < row[b].cell })
		for _, n := range row {
			adjncy = append(adjncy, n.cell)
			adjwgt = append(adjwgt, n.weight)
		}
		xadj[i+1] = int32(len(adjncy))
	}
	return
}
