package partition

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// isMetisAvailable gates the tests that call into the METIS library.
func isMetisAvailable() bool {
	return os.Getenv("FVMESH_METIS") != ""
}

// xSplit assigns the cells of an nx x ny x nz hex block to ranks by slabs of
// width cells in x.
func xSplit(nx, ny, nz, width int) []int {
	ranks := make([]int, nx*ny*nz)
	for c := range ranks {
		ranks[c] = (c % nx) / width
	}
	return ranks
}

func haloMesh(t *testing.T) *mesh.Mesh {
	coords := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 1, Z: 1}}
	m, err := mesh.New(1, 2, coords,
		[][2]int{{0, 1}},
		csr.FromRows([][]int{{1, 2, 3}}),
		[]int{0, 0, 0},
		csr.FromRows([][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}}))
	require.NoError(t, err)
	return m
}

func TestBuildLocal_Numbering(t *testing.T) {
	m := mesh.HexBlock(4, 2, 1)
	ranks := xSplit(4, 2, 1, 2)

	l, err := BuildLocal(m, ranks, 0)
	require.NoError(t, err)
	lm := l.Mesh
	assert.Equal(t, 4, lm.NumCells)
	assert.Equal(t, 6, lm.NumCellsWithHalo)
	assert.Equal(t, []int{0, 1, 4, 5, 2, 6}, l.GlobalCell)
	assert.Equal(t, 14, lm.NumBoundaryFaces)
	assert.Equal(t, 6, lm.NumInteriorFaces)
	assert.Len(t, l.GlobalFace, lm.NumFaces())

	assert.Equal(t, []int{1}, l.Halo.Neighbors)
	assert.Equal(t, []int{4}, l.Halo.RecvStart)
	assert.Equal(t, []int{2}, l.Halo.RecvCount)
	assert.Equal(t, [][]int{{1, 3}}, l.Halo.SendCells)

	// Interface faces join an owned cell to a halo cell
	nInterface := 0
	for _, cells := range lm.InteriorFaceCells {
		if lm.IsHalo(cells[0]) || lm.IsHalo(cells[1]) {
			nInterface++
			assert.False(t, lm.IsHalo(cells[0]) && lm.IsHalo(cells[1]))
		}
	}
	assert.Equal(t, 2, nInterface)

	// Faces keep parent order and geometry
	for g := 0; g < lm.NumFaces(); g++ {
		if g > 0 && g != lm.NumBoundaryFaces {
			assert.Less(t, l.GlobalFace[g-1], l.GlobalFace[g])
		}
		verts, err := lm.FaceVertices(g)
		require.NoError(t, err)
		parent, err := m.FaceVertices(l.GlobalFace[g])
		require.NoError(t, err)
		require.Len(t, verts, len(parent))
		for i, v := range verts {
			assert.Equal(t, parent[i], l.GlobalVert[v])
			assert.Equal(t, m.Vertices[parent[i]], lm.Vertices[v])
		}
		cells, err := lm.FaceCells(g)
		require.NoError(t, err)
		pcells, err := m.FaceCells(l.GlobalFace[g])
		require.NoError(t, err)
		assert.Equal(t, pcells[0], l.GlobalCell[cells[0]])
		if cells[1] >= 0 {
			assert.Equal(t, pcells[1], l.GlobalCell[cells[1]])
		}
	}
	assert.Equal(t, m.BoundaryTags, lm.BoundaryTags)
	assert.Len(t, lm.BoundaryFaceFamily, lm.NumBoundaryFaces)
	assert.Len(t, lm.CellFamily, lm.NumCellsWithHalo)

	// The local mesh drives the same extraction code as any mesh
	_, err = lm.GetCellFaces(nil)
	assert.NoError(t, err)
}

func TestBuildLocal_HaloGrouping(t *testing.T) {
	m := mesh.HexBlock(4, 1, 1)
	l, err := BuildLocal(m, []int{1, 0, 2, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 0, 2}, l.GlobalCell)
	assert.Equal(t, []int{1, 2}, l.Halo.Neighbors)
	assert.Equal(t, []int{2, 3}, l.Halo.RecvStart)
	assert.Equal(t, []int{1, 1}, l.Halo.RecvCount)
	assert.Equal(t, [][]int{{0}, {0, 1}}, l.Halo.SendCells)
	assert.Equal(t, 2, l.Halo.NumNeighbors())
}

func TestBuildLocal_Errors(t *testing.T) {
	m := mesh.HexBlock(2, 1, 1)
	_, err := BuildLocal(m, []int{0}, 0)
	assert.ErrorIs(t, err, utils.ErrInconsistentLayout)
	_, err = BuildLocal(m, []int{0, -1}, 0)
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
	_, err = BuildLocal(m, []int{0, 0}, 1)
	assert.ErrorIs(t, err, utils.ErrEmptySelection)
	_, err = BuildLocal(haloMesh(t), []int{0}, 0)
	assert.ErrorIs(t, err, utils.ErrInconsistentLayout)
}

func TestSplit_SymmetricHalos(t *testing.T) {
	m := mesh.HexBlock(6, 2, 2)
	ranks := xSplit(6, 2, 2, 2)
	locals, err := Split(m, ranks, 3)
	require.NoError(t, err)
	require.Len(t, locals, 3)

	owned := 0
	for r, l := range locals {
		assert.Equal(t, r, l.Rank)
		owned += l.Mesh.NumCells
		for k, q := range l.Halo.Neighbors {
			peer := locals[q].Halo
			kq := -1
			for j, p := range peer.Neighbors {
				if p == r {
					kq = j
				}
			}
			require.GreaterOrEqual(t, kq, 0, "rank %d missing from neighbors of %d", r, q)
			assert.Equal(t, len(l.Halo.SendCells[k]), peer.RecvCount[kq])
			// What r sends is what q stores, in the same order
			for i, c := range l.Halo.SendCells[k] {
				assert.Equal(t, l.GlobalCell[c], locals[q].GlobalCell[peer.RecvStart[kq]+i])
			}
		}
	}
	assert.Equal(t, m.NumCells, owned)
	assert.Equal(t, []int{1}, locals[0].Halo.Neighbors)
	assert.Equal(t, []int{0, 2}, locals[1].Halo.Neighbors)

	_, err = Split(m, ranks, 2)
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
	_, err = Split(m, ranks, 0)
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
}

func TestExchange(t *testing.T) {
	m := mesh.HexBlock(6, 3, 1)
	locals, err := Split(m, xSplit(6, 3, 1, 2), 3)
	require.NoError(t, err)

	fields := make([][]float64, len(locals))
	for r, l := range locals {
		fields[r] = make([]float64, l.Mesh.NumCellsWithHalo)
		for i := range fields[r] {
			fields[r][i] = -1
			if i < l.Mesh.NumCells {
				fields[r][i] = float64(l.GlobalCell[i])
			}
		}
	}
	require.NoError(t, Exchange(locals, fields))
	for r, l := range locals {
		for i, c := range l.GlobalCell {
			assert.Equal(t, float64(c), fields[r][i], "rank %d cell %d", r, i)
		}
	}

	fields[1] = fields[1][:2]
	assert.ErrorIs(t, Exchange(locals, fields), utils.ErrInconsistentLayout)
	assert.ErrorIs(t, Exchange(locals[1:], fields[1:]), utils.ErrInconsistentLayout)
	assert.ErrorIs(t, Exchange(locals, fields[:1]), utils.ErrInconsistentLayout)
}

func TestAnalyze(t *testing.T) {
	m := mesh.HexBlock(4, 2, 1)
	st, err := Analyze(m, xSplit(4, 2, 1, 2), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, st.CutFaces)
	assert.Equal(t, map[[2]int]int{{0, 1}: 2}, st.Interfaces)
	assert.Equal(t, []float64{4, 4}, st.Loads)
	assert.InDelta(t, 0, st.Imbalance, 1e-12)

	st, err = Analyze(m, []int{0, 0, 0, 0, 0, 0, 0, 1}, 2, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, st.Imbalance, 1e-12)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	st.Log(logger)
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.InfoLevel, hook.Entries[0].Level)
	assert.Equal(t, 2, hook.Entries[1].Data["faces"])

	_, err = Analyze(m, []int{0}, 2, nil)
	assert.ErrorIs(t, err, utils.ErrInconsistentLayout)
	_, err = Analyze(m, []int{0, 0, 0, 0, 0, 0, 0, 2}, 2, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
}

func TestBuildMetisGraph(t *testing.T) {
	m := mesh.HexBlock(3, 1, 1)
	p := NewPartitioner(m, DefaultConfig(2), nil)
	xadj, adjncy, vwgt, adjwgt, err := p.buildMetisGraph()
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 3, 4}, xadj)
	assert.Equal(t, []int32{1, 0, 2, 1}, adjncy)
	assert.Equal(t, []int32{1, 1, 1, 1}, adjwgt)
	assert.Equal(t, []int32{6, 6, 6}, vwgt)
}

func TestPartition_SinglePartition(t *testing.T) {
	m := mesh.HexBlock(3, 2, 1)
	ranks, st, err := NewPartitioner(m, DefaultConfig(1), nil).Partition()
	require.NoError(t, err)
	assert.Equal(t, make([]int, m.NumCells), ranks)
	assert.Zero(t, st.CutFaces)
	assert.Equal(t, []float64{36}, st.Loads)
}

func TestPartition_Errors(t *testing.T) {
	m := mesh.HexBlock(2, 1, 1)
	_, _, err := NewPartitioner(m, DefaultConfig(0), nil).Partition()
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
	_, _, err = NewPartitioner(m, DefaultConfig(3), nil).Partition()
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
	_, _, err = NewPartitioner(haloMesh(t), DefaultConfig(1), nil).Partition()
	assert.ErrorIs(t, err, utils.ErrInconsistentLayout)
}

func TestPartitionWithDifferentObjectives(t *testing.T) {
	if !isMetisAvailable() {
		t.Skip("METIS not available")
	}
	for _, obj := range []string{"cut", "vol"} {
		t.Run(obj, func(t *testing.T) {
			m := mesh.HexBlock(8, 4, 2)
			config := DefaultConfig(4)
			config.Objective = obj
			ranks, st, err := NewPartitioner(m, config, nil).Partition()
			require.NoError(t, err)
			require.Len(t, ranks, m.NumCells)

			counts := make([]int, config.NumPartitions)
			for _, r := range ranks {
				counts[r]++
			}
			for r, n := range counts {
				assert.NotZero(t, n, "partition %d is empty", r)
			}
			assert.Positive(t, st.CutFaces)

			locals, err := Split(m, ranks, int(config.NumPartitions))
			require.NoError(t, err)
			assert.Len(t, locals, 4)
		})
	}
}
