package mesh

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/notargets/fvmesh/csr"
	"github.com/notargets/fvmesh/utils"
)

// Validate checks the numbering invariants and reports every violation found.
func (m *Mesh) Validate() error {
	var result *multierror.Error
	add := func(err error) {
		result = multierror.Append(result, err)
	}

	if m.NumCells < 0 || m.NumCellsWithHalo < m.NumCells {
		add(fmt.Errorf("mesh.Validate: cell counts owned=%d with halo=%d: %w",
			m.NumCells, m.NumCellsWithHalo, utils.ErrInconsistentLayout))
	}
	if len(m.InteriorFaceCells) != m.NumInteriorFaces {
		add(fmt.Errorf("mesh.Validate: %d interior face neighbors for %d interior faces: %w",
			len(m.InteriorFaceCells), m.NumInteriorFaces, utils.ErrInconsistentLayout))
	}
	if len(m.BoundaryFaceCells) != m.NumBoundaryFaces {
		add(fmt.Errorf("mesh.Validate: %d boundary face neighbors for %d boundary faces: %w",
			len(m.BoundaryFaceCells), m.NumBoundaryFaces, utils.ErrInconsistentLayout))
	}
	if len(m.Vertices) != m.NumVertices {
		add(fmt.Errorf("mesh.Validate: %d coordinates for %d vertices: %w",
			len(m.Vertices), m.NumVertices, utils.ErrInconsistentLayout))
	}

	checkTable := func(name string, t *csr.Table, n int) {
		if t == nil {
			if n != 0 {
				add(fmt.Errorf("mesh.Validate: missing %s vertex table: %w", name, utils.ErrInconsistentLayout))
			}
			return
		}
		if n == 0 && len(t.Index) == 0 {
			return
		}
		if t.N() != n {
			add(fmt.Errorf("mesh.Validate: %s vertex table has %d rows for %d faces: %w",
				name, t.N(), n, utils.ErrInconsistentLayout))
			return
		}
		if _, err := csr.NewTable(t.Index, t.Value); err != nil {
			add(err)
			return
		}
		if err := t.Validate(m.NumVertices); err != nil {
			add(err)
		}
	}
	checkTable("boundary face", m.BoundaryFaceVertices, m.NumBoundaryFaces)
	checkTable("interior face", m.InteriorFaceVertices, m.NumInteriorFaces)

	for f, c := range m.BoundaryFaceCells {
		if c < 0 || c >= m.NumCellsWithHalo {
			add(utils.NewIndexError("mesh.Validate", "cell", c, 0, m.NumCellsWithHalo).
				While("boundary face", f))
		}
	}
	for f, cells := range m.InteriorFaceCells {
		if cells[0] < 0 && cells[1] < 0 {
			add(fmt.Errorf("mesh.Validate: interior face %d has no neighbor: %w", f, utils.ErrInvalidIndex))
			continue
		}
		for _, c := range cells {
			if c == -1 {
				continue
			}
			if c < 0 || c >= m.NumCellsWithHalo {
				add(utils.NewIndexError("mesh.Validate", "cell", c, 0, m.NumCellsWithHalo).
					While("interior face", f))
			}
		}
		if m.IsHalo(cells[0]) && m.IsHalo(cells[1]) {
			add(fmt.Errorf("mesh.Validate: interior face %d joins two halo cells %v: %w",
				f, cells, utils.ErrInconsistentLayout))
		}
	}

	checkFamily := func(name string, fam []int, n int) {
		if fam != nil && len(fam) != n {
			add(fmt.Errorf("mesh.Validate: %d %s families for %d entities: %w",
				len(fam), name, n, utils.ErrInconsistentLayout))
		}
	}
	checkFamily("cell", m.CellFamily, m.NumCellsWithHalo)
	checkFamily("interior face", m.InteriorFaceFamily, m.NumInteriorFaces)
	checkFamily("boundary face", m.BoundaryFaceFamily, m.NumBoundaryFaces)

	return result.ErrorOrNil()
}
