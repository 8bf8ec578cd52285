// Package partition splits a mesh across ranks and derives, for each rank, a
// local mesh whose halo cells are numbered after its owned cells together
// with the send/receive schedule that refreshes them.
package partition

import (
	"fmt"
	"io"
	"sort"

	metis "github.com/notargets/go-metis"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// Config holds configuration for mesh partitioning
type Config struct {
	NumPartitions    int32
	ImbalanceFactor  float32 // e.g., 1.05 for 5% imbalance
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
}

// DefaultConfig returns default partitioning configuration
func DefaultConfig(nparts int32) *Config {
	return &Config{
		NumPartitions:    nparts,
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        "vol", // minimize communication volume
	}
}

// Partitioner assigns every owned cell of a mesh to a rank
type Partitioner struct {
	mesh   *mesh.Mesh
	config *Config
	logger logrus.FieldLogger

	// Cost per cell, from its face count
	computeCostModel func(numFaces int) int32
}

func NewPartitioner(m *mesh.Mesh, config *Config, logger logrus.FieldLogger) *Partitioner {
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}
	return &Partitioner{
		mesh:   m,
		config: config,
		logger: logger,
		computeCostModel: func(numFaces int) int32 {
			// Flux work scales with the faces of a cell
			return int32(numFaces)
		},
	}
}

// Partition returns the rank of every owned cell.
func (p *Partitioner) Partition() (cellRank []int, stats *Stats, err error) {
	var (
		nc     = p.mesh.NumCells
		nparts = p.config.NumPartitions
	)
	if p.mesh.NumHaloCells() != 0 {
		return nil, nil, fmt.Errorf("partition: mesh already has %d halo cells: %w",
			p.mesh.NumHaloCells(), utils.ErrInconsistentLayout)
	}
	if nparts < 1 || int(nparts) > nc {
		return nil, nil, fmt.Errorf("partition: cannot split %d cells into %d parts: %w",
			nc, nparts, utils.ErrInvalidIndex)
	}
	p.logger.WithFields(logrus.Fields{
		"cells":      nc,
		"partitions": nparts,
	}).Info("partitioning mesh")

	xadj, adjncy, vwgt, adjwgt, err := p.buildMetisGraph()
	if err != nil {
		return nil, nil, err
	}

	var objval int32
	cellRank = make([]int, nc)
	if nparts > 1 {
		// Set METIS options
		opts := make([]int32, metis.NoOptions)
		if err = metis.SetDefaultOptions(opts); err != nil {
			return nil, nil, fmt.Errorf("failed to set METIS options: %w", err)
		}
		if p.config.Objective == "vol" {
			opts[metis.OptionObjType] = metis.ObjTypeVol
		} else {
			opts[metis.OptionObjType] = metis.ObjTypeCut
		}
		ubvec := []float32{p.config.ImbalanceFactor}

		var vwgtPtr, adjwgtPtr []int32
		if p.config.UseVertexWeights {
			vwgtPtr = vwgt
		}
		if p.config.UseEdgeWeights {
			adjwgtPtr = adjwgt
		}
		part, obj, err := metis.PartGraphKwayWeighted(
			xadj, adjncy, vwgtPtr, adjwgtPtr, nparts, nil, ubvec, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("METIS partitioning failed: %w", err)
		}
		objval = obj
		for i := range cellRank {
			cellRank[i] = int(part[i])
		}
	}

	stats, err = Analyze(p.mesh, cellRank, int(nparts), vwgt)
	if err != nil {
		return nil, nil, err
	}
	stats.Objective = objval
	stats.Log(p.logger)
	return cellRank, stats, nil
}

// buildMetisGraph converts mesh connectivity to METIS format
func (p *Partitioner) buildMetisGraph() (xadj, adjncy, vwgt, adjwgt []int32, err error) {
	xadj, adjncy, adjwgt = p.mesh.CellGraph()
	cf, err := p.mesh.GetCellFaces(nil)
	if err != nil {
		return
	}
	vwgt = make([]int32, p.mesh.NumCells)
	for i := range vwgt {
		vwgt[i] = p.computeCostModel(cf.Index[i+1] - cf.Index[i])
	}
	return
}

// Stats holds partition quality metrics
type Stats struct {
	Objective  int32
	CutFaces   int
	Loads      []float64 // Compute load per partition
	Imbalance  float64   // max/mean - 1
	Interfaces map[[2]int]int
}

// Analyze computes partition quality metrics. cost may be nil for unit cell
// weights.
func Analyze(m *mesh.Mesh, cellRank []int, nparts int, cost []int32) (*Stats, error) {
	if len(cellRank) != m.NumCells {
		return nil, fmt.Errorf("partition.Analyze: %d ranks for %d cells: %w",
			len(cellRank), m.NumCells, utils.ErrInconsistentLayout)
	}
	st := &Stats{
		Loads:      make([]float64, nparts),
		Interfaces: make(map[[2]int]int),
	}
	for c, r := range cellRank {
		if r < 0 || r >= nparts {
			return nil, utils.NewIndexError("partition.Analyze", "rank", r, 0, nparts).While("cell", c)
		}
		w := 1.0
		if cost != nil {
			w = float64(cost[c])
		}
		st.Loads[r] += w
	}
	for _, cells := range m.InteriorFaceCells {
		if cells[0] < 0 || cells[1] < 0 || cells[0] >= m.NumCells || cells[1] >= m.NumCells {
			continue
		}
		p1, p2 := cellRank[cells[0]], cellRank[cells[1]]
		if p1 == p2 {
			continue
		}
		if p1 > p2 {
			p1, p2 = p2, p1
		}
		st.CutFaces++
		st.Interfaces[[2]int{p1, p2}]++
	}
	if mean := floats.Sum(st.Loads) / float64(nparts); mean > 0 {
		st.Imbalance = floats.Max(st.Loads)/mean - 1
	}
	return st, nil
}

// Log reports the metrics, one entry per partition interface.
func (st *Stats) Log(logger logrus.FieldLogger) {
	logger.WithFields(logrus.Fields{
		"objective": st.Objective,
		"cutFaces":  st.CutFaces,
		"imbalance": fmt.Sprintf("%.2f%%", st.Imbalance*100),
		"loadMin":   floats.Min(st.Loads),
		"loadMax":   floats.Max(st.Loads),
	}).Info("partition analysis")

	pairs := make([][2]int, 0, len(st.Interfaces))
	for pair := range st.Interfaces {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, pair := range pairs {
		logger.WithFields(logrus.Fields{
			"from":  pair[0],
			"to":    pair[1],
			"faces": st.Interfaces[pair],
		}).Debug("partition interface")
	}
}
