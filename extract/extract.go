// Package extract selects cell or face subsets of a mesh and hands them to
// the nodal builder. Selections are normalized to ascending, duplicate free
// parent id lists so that element k of the result always maps back to the
// k-th smallest selected id, whatever order the caller used.
package extract

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/nodal"
	"github.com/notargets/fvmesh/utils"
)

type Config struct {
	ParallelDegree int // Face gathering workers, <= 1 is sequential
}

// Extractor holds everything an extraction reads. It never modifies the mesh
// and may be used from several goroutines.
type Extractor struct {
	mesh    *mesh.Mesh
	cfg     Config
	logger  logrus.FieldLogger
	builder *nodal.Builder
}

func New(m *mesh.Mesh, cfg Config, logger logrus.FieldLogger) *Extractor {
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}
	return &Extractor{
		mesh:    m,
		cfg:     cfg,
		logger:  logger,
		builder: nodal.NewBuilder(cfg.ParallelDegree, logger),
	}
}

// CellsToNodal builds a polyhedral mesh of the selected owned cells. All
// selects every owned cell; an explicit empty list is ErrEmptySelection.
func (e *Extractor) CellsToNodal(name string, sel Selection) (*nodal.Mesh, error) {
	const fn = "extract.CellsToNodal"
	var (
		m     = e.mesh
		cells []int
		mask  mesh.ExtractMask
		err   error
	)
	switch {
	case sel.IsAll():
		cells = utils.NewRange(0, m.NumCells-1)
		if m.NumHaloCells() > 0 {
			if mask, err = mesh.NewExtractMask(m.NumCellsWithHalo, cells); err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
		}
	case sel.empty():
		return nil, fmt.Errorf("%s: %s: explicit empty cell list: %w", fn, name, utils.ErrEmptySelection)
	default:
		canon, err := Normalize(fn, "cell", sel.ids, m.NumCells)
		if err != nil {
			return nil, err
		}
		cells = utils.Index(canon).Add(-1)
		if mask, err = mesh.NewExtractMask(m.NumCellsWithHalo, cells); err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s: %s: mesh has no cells: %w", fn, name, utils.ErrEmptySelection)
	}

	cf, err := m.GetCellFaces(mask)
	if err != nil {
		return nil, err
	}
	nm, err := e.builder.Polyhedra(m, name, cells, cf)
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"mesh":      name,
		"selection": sel.String(),
		"cells":     nm.NumElements(),
		"faces":     nm.FaceVertices.N(),
		"vertices":  len(nm.Vertices),
	}).Debug("cells extracted")
	return nm, nil
}

// FacesToNodal builds a polygon mesh of the selected faces, boundary faces
// first. Two All selections or two empty lists take every boundary face;
// otherwise All takes every face of its kind and an empty list takes none.
func (e *Extractor) FacesToNodal(name string, iSel, bSel Selection) (*nodal.Mesh, error) {
	const fn = "extract.FacesToNodal"
	var (
		m     = e.mesh
		faces []int
	)
	if (iSel.IsAll() && bSel.IsAll()) || (iSel.empty() && bSel.empty()) {
		iSel, bSel = List(), All()
	}

	switch {
	case bSel.IsAll():
		faces = utils.NewRange(0, m.NumBoundaryFaces-1)
	default:
		canon, err := Normalize(fn, "boundary face", bSel.ids, m.NumBoundaryFaces)
		if err != nil {
			return nil, err
		}
		faces = utils.Index(canon).Add(-1)
	}
	switch {
	case iSel.IsAll():
		faces = append(faces, utils.NewRange(m.NumBoundaryFaces, m.NumFaces()-1)...)
	default:
		canon, err := Normalize(fn, "interior face", iSel.ids, m.NumInteriorFaces)
		if err != nil {
			return nil, err
		}
		for _, i := range canon {
			faces = append(faces, m.NumBoundaryFaces+i-1)
		}
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("%s: %s: no faces selected: %w", fn, name, utils.ErrEmptySelection)
	}

	nm, err := e.builder.Polygons(m, name, faces)
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"mesh":     name,
		"interior": iSel.String(),
		"boundary": bSel.String(),
		"faces":    nm.NumElements(),
		"vertices": len(nm.Vertices),
	}).Debug("faces extracted")
	return nm, nil
}

// CellsToNodal extracts the cells of list, 1-based, or every cell when list
// is nil. list is sorted and de-duplicated in place; the normalized prefix is
// returned.
func CellsToNodal(m *mesh.Mesh, name string, list []int) (*nodal.Mesh, []int, error) {
	if list != nil {
		list = utils.Index(list).SortUnique()
	}
	nm, err := New(m, Config{}, nil).CellsToNodal(name, FromSlice(list))
	return nm, list, err
}

// FacesToNodal extracts interior and boundary faces given by 1-based lists;
// both empty or nil selects every boundary face. Both lists are sorted and
// de-duplicated in place and their normalized prefixes returned.
func FacesToNodal(m *mesh.Mesh, name string, iList, bList []int) (*nodal.Mesh, []int, []int, error) {
	iList = utils.Index(iList).SortUnique()
	bList = utils.Index(bList).SortUnique()
	nm, err := New(m, Config{}, nil).FacesToNodal(name, List(iList...), List(bList...))
	return nm, iList, bList, err
}
