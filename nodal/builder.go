package nodal

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// Builder assembles nodal meshes. The zero value gathers sequentially and
// discards diagnostics.
type Builder struct {
	ParallelDegree int
	Logger         logrus.FieldLogger
}

func NewBuilder(parallelDegree int, logger logrus.FieldLogger) *Builder {
	return &Builder{
		ParallelDegree: parallelDegree,
		Logger:         logger,
	}
}

func (b *Builder) logger() logrus.FieldLogger {
	if b.Logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		return l
	}
	return b.Logger
}

// Polyhedra builds one element per row of cf. cells[k] is the parent cell of
// row k and must be ascending. Each element's face loop is its cf row;
// interior faces shared by two rows are stored once.
func (b *Builder) Polyhedra(src *mesh.Mesh, name string, cells []int, cf *mesh.CellFaces) (*Mesh, error) {
	const fn = "nodal.Builder.Polyhedra"
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", fn, name, utils.ErrEmptySelection)
	}
	if cf.N() != len(cells) {
		return nil, fmt.Errorf("%s: %d face rows for %d cells: %w",
			fn, cf.N(), len(cells), utils.ErrInconsistentLayout)
	}
	var (
		nFaces    = src.NumFaces()
		localFace = utils.NewFilled(nFaces, -1)
		faces     []int
	)
	// Values are rewritten below to local face numbers
	elemFaces := cf.Table.Clone()
	orient := make([]int8, len(cf.Orientation))
	copy(orient, cf.Orientation)

	for k, g := range cf.Value {
		if g < 0 || g >= nFaces {
			return nil, utils.NewIndexError(fn, "face", g, 0, nFaces)
		}
		if localFace[g] == -1 {
			localFace[g] = len(faces)
			faces = append(faces, g)
		}
		elemFaces.Value[k] = localFace[g]
	}

	nm := &Mesh{
		Name:            name,
		Dim:             3,
		ElementFaces:    elemFaces,
		FaceOrientation: orient,
		FaceParent:      faces,
		ParentNum:       utils.Index(cells).Add(1),
	}
	if err := b.gather(src, nm); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	for k := range cells {
		degenerate := elemFaces.Index[k+1] == elemFaces.Index[k]
		for _, f := range elemFaces.RowUnchecked(k) {
			if nm.FaceVertices.Index[f+1]-nm.FaceVertices.Index[f] < 3 {
				degenerate = true
				break
			}
		}
		if degenerate {
			nm.Degenerate = append(nm.Degenerate, k)
		}
	}
	if err := b.report(fn, nm); err != nil {
		return nil, err
	}
	return nm, nil
}

// Polygons builds one element per common face id in faces, keeping each
// face's vertex loop in its original order. Parent numbers are the 1-based
// common face ids.
func (b *Builder) Polygons(src *mesh.Mesh, name string, faces []int) (*Mesh, error) {
	const fn = "nodal.Builder.Polygons"
	if len(faces) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", fn, name, utils.ErrEmptySelection)
	}
	if err := utils.Index(faces).CheckRange(fn, "face", 0, src.NumFaces()); err != nil {
		return nil, err
	}
	nm := &Mesh{
		Name:       name,
		Dim:        2,
		FaceParent: utils.Index(faces).Copy(),
		ParentNum:  utils.Index(faces).Add(1),
	}
	if err := b.gather(src, nm); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	nm.ElementVertices = nm.FaceVertices
	for k := range faces {
		if nm.FaceVertices.Index[k+1]-nm.FaceVertices.Index[k] < 3 {
			nm.Degenerate = append(nm.Degenerate, k)
		}
	}
	if err := b.report(fn, nm); err != nil {
		return nil, err
	}
	return nm, nil
}

// gather copies the vertex loops and neighbors of nm.FaceParent from src,
// then compacts the vertex numbering.
func (b *Builder) gather(src *mesh.Mesh, nm *Mesh) error {
	var (
		faces   = nm.FaceParent
		counter = csr.NewCounter(len(faces))
	)
	nm.FaceCells = make([][2]int, len(faces))
	for k, g := range faces {
		verts, err := src.FaceVertices(g)
		if err != nil {
			return err
		}
		_ = counter.Add(k, len(verts))
		if nm.FaceCells[k], err = src.FaceCells(g); err != nil {
			return err
		}
	}
	if err := counter.Allocate(); err != nil {
		return err
	}
	tab := counter.Table()

	// Each worker writes only its own rows
	pm := utils.NewPartitionMap(b.ParallelDegree, len(faces))
	pm.ParallelFor(func(_, kMin, kMax int) {
		for k := kMin; k < kMax; k++ {
			verts, _ := src.FaceVertices(faces[k])
			copy(tab.Value[tab.Index[k]:tab.Index[k+1]], verts)
		}
	})

	parent, err := compact(tab.Value, src.NumVertices)
	if err != nil {
		return err
	}
	nm.FaceVertices = tab
	nm.VertexParent = parent
	nm.Vertices = make([]r3.Vec, len(parent))
	for i, v := range parent {
		nm.Vertices[i] = src.Vertices[v]
	}
	return nil
}

// compact renumbers parent vertex ids in place, densely from 0 in order of
// first reference, and returns the parent id of each new vertex.
func compact(values []int, nParent int) (parent []int, err error) {
	local := utils.NewFilled(nParent, -1)
	for k, v := range values {
		if v < 0 || v >= nParent {
			return nil, utils.NewIndexError("nodal.compact", "vertex", v, 0, nParent)
		}
		if local[v] == -1 {
			local[v] = len(parent)
			parent = append(parent, v)
		}
		values[k] = local[v]
	}
	return
}

// report logs degenerate elements and fails when no usable element remains.
func (b *Builder) report(fn string, nm *Mesh) error {
	nDeg, nElem := len(nm.Degenerate), nm.NumElements()
	log := b.logger().WithFields(logrus.Fields{
		"mesh":     nm.Name,
		"elements": nElem,
	})
	if nDeg == 0 {
		log.Debug("nodal mesh built")
		return nil
	}
	log.WithField("degenerate", nDeg).Warn("degenerate elements with fewer than 3 nodes")
	if nDeg == nElem {
		return fmt.Errorf("%s: %s: all %d elements are degenerate: %w",
			fn, nm.Name, nElem, utils.ErrDegenerateElement)
	}
	return nil
}
