package partition

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// Halo is the communication schedule of one rank. Neighbors are ascending;
// for neighbor k the rank sends its owned cells SendCells[k] and receives
// RecvCount[k] halo values into local cells starting at RecvStart[k].
type Halo struct {
	Neighbors []int
	SendCells [][]int
	RecvStart []int
	RecvCount []int
}

// NumNeighbors returns the number of ranks this rank exchanges with.
func (h *Halo) NumNeighbors() int { return len(h.Neighbors) }

// Local is the part of a mesh owned by one rank, together with the halo cells
// across its partition interfaces.
type Local struct {
	Rank       int
	Mesh       *mesh.Mesh
	GlobalCell []int // Local cell -> parent cell, owned then halo
	GlobalFace []int // Local common face id -> parent common face id
	GlobalVert []int // Local vertex -> parent vertex
	Halo       Halo
}

// BuildLocal extracts the mesh of rank from a mesh with no halo. Owned cells
// keep ascending parent order. Halo cells follow, grouped by owning rank and
// ascending parent id within a group. Faces with at least one owned neighbor
// are kept in their parent order; vertices are renumbered by first reference.
func BuildLocal(m *mesh.Mesh, cellRank []int, rank int) (*Local, error) {
	const fn = "partition.BuildLocal"
	if m.NumHaloCells() != 0 {
		return nil, fmt.Errorf("%s: mesh already has %d halo cells: %w",
			fn, m.NumHaloCells(), utils.ErrInconsistentLayout)
	}
	if len(cellRank) != m.NumCells {
		return nil, fmt.Errorf("%s: %d ranks for %d cells: %w",
			fn, len(cellRank), m.NumCells, utils.ErrInconsistentLayout)
	}
	for c, r := range cellRank {
		if r < 0 {
			return nil, fmt.Errorf("%s: cell %d has rank %d: %w", fn, c, r, utils.ErrInvalidIndex)
		}
	}
	for f, cells := range m.InteriorFaceCells {
		if cells[0] < 0 || cells[1] < 0 {
			return nil, fmt.Errorf("%s: interior face %d has one neighbor %v: %w",
				fn, f, cells, utils.ErrInconsistentLayout)
		}
	}

	var (
		localCell = utils.NewFilled(m.NumCells, -1)
		owned     []int
	)
	for c, r := range cellRank {
		if r == rank {
			localCell[c] = len(owned)
			owned = append(owned, c)
		}
	}
	if len(owned) == 0 {
		return nil, fmt.Errorf("%s: rank %d owns no cells: %w", fn, rank, utils.ErrEmptySelection)
	}

	// Halo cells and the owned cells each neighbor needs
	var (
		haloSet = make(map[int]bool)
		sendSet = make(map[int]map[int]bool)
	)
	for _, cells := range m.InteriorFaceCells {
		c0, c1 := cells[0], cells[1]
		r0, r1 := cellRank[c0], cellRank[c1]
		switch {
		case r0 == rank && r1 != rank:
			haloSet[c1] = true
			addSend(sendSet, r1, localCell[c0])
		case r1 == rank && r0 != rank:
			haloSet[c0] = true
			addSend(sendSet, r0, localCell[c1])
		}
	}
	halo := make([]int, 0, len(haloSet))
	for c := range haloSet {
		halo = append(halo, c)
	}
	sort.Slice(halo, func(i, j int) bool {
		ri, rj := cellRank[halo[i]], cellRank[halo[j]]
		if ri != rj {
			return ri < rj
		}
		return halo[i] < halo[j]
	})

	l := &Local{
		Rank:       rank,
		GlobalCell: append(append(make([]int, 0, len(owned)+len(halo)), owned...), halo...),
	}
	for k, c := range halo {
		localCell[c] = len(owned) + k
		r := cellRank[c]
		if n := len(l.Halo.Neighbors); n == 0 || l.Halo.Neighbors[n-1] != r {
			l.Halo.Neighbors = append(l.Halo.Neighbors, r)
			l.Halo.RecvStart = append(l.Halo.RecvStart, len(owned)+k)
			l.Halo.RecvCount = append(l.Halo.RecvCount, 0)
		}
		l.Halo.RecvCount[len(l.Halo.RecvCount)-1]++
	}
	for _, r := range l.Halo.Neighbors {
		send := make([]int, 0, len(sendSet[r]))
		for c := range sendSet[r] {
			send = append(send, c)
		}
		sort.Ints(send)
		l.Halo.SendCells = append(l.Halo.SendCells, send)
	}

	// Faces, boundary first, then interior
	var (
		vertMap                = make(map[int]int)
		bCells                 []int
		iCells                 [][2]int
		bRows, iRows           [][]int
		bFamily, iFamily       []int
		hasBFamily, hasIFamily = m.BoundaryFaceFamily != nil, m.InteriorFaceFamily != nil
	)
	localVerts := func(verts []int) []int {
		row := make([]int, len(verts))
		for i, v := range verts {
			lv, ok := vertMap[v]
			if !ok {
				lv = len(l.GlobalVert)
				vertMap[v] = lv
				l.GlobalVert = append(l.GlobalVert, v)
			}
			row[i] = lv
		}
		return row
	}
	for f, c := range m.BoundaryFaceCells {
		if cellRank[c] != rank {
			continue
		}
		l.GlobalFace = append(l.GlobalFace, f)
		bCells = append(bCells, localCell[c])
		bRows = append(bRows, localVerts(m.BoundaryFaceVertices.RowUnchecked(f)))
		if hasBFamily {
			bFamily = append(bFamily, m.BoundaryFaceFamily[f])
		}
	}
	for f, cells := range m.InteriorFaceCells {
		if cellRank[cells[0]] != rank && cellRank[cells[1]] != rank {
			continue
		}
		l.GlobalFace = append(l.GlobalFace, m.NumBoundaryFaces+f)
		iCells = append(iCells, [2]int{localCell[cells[0]], localCell[cells[1]]})
		iRows = append(iRows, localVerts(m.InteriorFaceVertices.RowUnchecked(f)))
		if hasIFamily {
			iFamily = append(iFamily, m.InteriorFaceFamily[f])
		}
	}

	coords := make([]r3.Vec, len(l.GlobalVert))
	for i, v := range l.GlobalVert {
		coords[i] = m.Vertices[v]
	}
	lm, err := mesh.New(len(owned), len(l.GlobalCell), coords,
		iCells, csr.FromRows(iRows), bCells, csr.FromRows(bRows))
	if err != nil {
		return nil, fmt.Errorf("%s: rank %d: %w", fn, rank, err)
	}
	if m.CellFamily != nil {
		lm.CellFamily = make([]int, len(l.GlobalCell))
		for i, c := range l.GlobalCell {
			lm.CellFamily[i] = m.CellFamily[c]
		}
	}
	lm.BoundaryFaceFamily = bFamily
	lm.InteriorFaceFamily = iFamily
	if hasBFamily && lm.BoundaryFaceFamily == nil {
		lm.BoundaryFaceFamily = []int{}
	}
	if hasIFamily && lm.InteriorFaceFamily == nil {
		lm.InteriorFaceFamily = []int{}
	}
	for family, name := range m.BoundaryTags {
		lm.BoundaryTags[family] = name
	}
	l.Mesh = lm
	return l, nil
}

func addSend(sendSet map[int]map[int]bool, r, c int) {
	if sendSet[r] == nil {
		sendSet[r] = make(map[int]bool)
	}
	sendSet[r][c] = true
}

// Split builds the local mesh of every rank in [0, nparts) concurrently.
func Split(m *mesh.Mesh, cellRank []int, nparts int) ([]*Local, error) {
	if nparts < 1 {
		return nil, utils.NewIndexError("partition.Split", "partition count", nparts, 1, m.NumCells+1)
	}
	for c, r := range cellRank {
		if r >= nparts {
			return nil, utils.NewIndexError("partition.Split", "rank", r, 0, nparts).While("cell", c)
		}
	}
	var (
		locals = make([]*Local, nparts)
		eg     = &errgroup.Group{}
	)
	for r := 0; r < nparts; r++ {
		r := r
		eg.Go(func() (err error) {
			locals[r], err = BuildLocal(m, cellRank, r)
			return
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return locals, nil
}
