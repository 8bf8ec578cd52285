// Package soil keeps the soils of a groundwater flow computation: which cells
// each soil covers, its hydraulic parameters and the update of the cell
// properties that depend on the hydraulic head.
package soil

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fvmesh/mesh"
)

// HydraulicModel is the flow model shared by all soils of a registry.
type HydraulicModel uint8

const (
	SaturatedSinglePhase HydraulicModel = iota
	UnsaturatedSinglePhase
)

func (h HydraulicModel) String() string {
	switch h {
	case SaturatedSinglePhase:
		return "saturated single-phase"
	case UnsaturatedSinglePhase:
		return "unsaturated single-phase"
	}
	return fmt.Sprintf("HydraulicModel(%d)", uint8(h))
}

// Model is the constitutive law of one soil.
type Model uint8

const (
	Saturated Model = iota
	VanGenuchten
	UserDefined
)

var modelNames = map[Model]string{
	Saturated:    "saturated",
	VanGenuchten: "van-genuchten",
	UserDefined:  "user",
}

func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Model(%d)", uint8(m))
}

// ParseModel is the inverse of Model.String.
func ParseModel(name string) (Model, error) {
	for m, n := range modelNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("soil: unknown model %q", name)
}

// State holds the head dependent cell properties, one value per cell.
type State struct {
	Permeability []float64
	Moisture     []float64
	Capacity     []float64
}

func NewState(nCells int) *State {
	return &State{
		Permeability: make([]float64, nCells),
		Moisture:     make([]float64, nCells),
		Capacity:     make([]float64, nCells),
	}
}

// UpdateFunc sets the properties of cells from the head at time t.
type UpdateFunc func(t float64, s *Soil, cells []int, head []float64, st *State)

// Soil is a volume zone sharing one set of hydraulic parameters.
type Soil struct {
	ID    int
	Name  string
	Model Model
	Cells []int // 0-based cells of the zone

	BulkDensity       float64
	SaturatedMoisture float64
	ResidualMoisture  float64
	// Saturated permeability, 3x3
	Permeability *mat.Dense

	// Van Genuchten-Mualem parameters
	N, M       float64
	Scale      float64 // alpha, in 1/m
	Tortuosity float64 // L

	User UpdateFunc
}

func newSoil(id int, name string, model Model, cells []int, saturatedMoisture, bulkDensity float64) *Soil {
	s := &Soil{
		ID:                id,
		Name:              name,
		Model:             model,
		Cells:             cells,
		BulkDensity:       bulkDensity,
		SaturatedMoisture: saturatedMoisture,
		Permeability:      isoTensor(1),
	}
	if model == VanGenuchten {
		s.N = 1.25
		s.M = 1 - 1/s.N
		s.Scale = 1
		s.Tortuosity = 1
	}
	return s
}

func isoTensor(k float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		k, 0, 0,
		0, k, 0,
		0, 0, k,
	})
}

// IsIsotropic reports whether the saturated permeability is a multiple of the
// identity.
func (s *Soil) IsIsotropic() bool {
	k := s.Permeability.At(0, 0)
	return mat.Equal(s.Permeability, isoTensor(k))
}

// SetIsoSaturated sets a uniform saturated permeability.
func (s *Soil) SetIsoSaturated(ks float64) error {
	if s.Model != Saturated {
		return fmt.Errorf("soil %q: model is %s, not saturated", s.Name, s.Model)
	}
	s.Permeability = isoTensor(ks)
	return nil
}

// SetAnisoSaturated sets a full 3x3 saturated permeability tensor.
func (s *Soil) SetAnisoSaturated(ks mat.Matrix) error {
	if s.Model != Saturated {
		return fmt.Errorf("soil %q: model is %s, not saturated", s.Name, s.Model)
	}
	if r, c := ks.Dims(); r != 3 || c != 3 {
		return fmt.Errorf("soil %q: permeability is %dx%d, want 3x3", s.Name, r, c)
	}
	s.Permeability = mat.DenseCopyOf(ks)
	return nil
}

// SetIsoGenuchten sets the Van Genuchten-Mualem law: saturated permeability
// ks, residual moisture thetaR, scale alpha, shape n (m = 1 - 1/n) and
// tortuosity L.
func (s *Soil) SetIsoGenuchten(ks, thetaR, alpha, n, L float64) error {
	if s.Model != VanGenuchten {
		return fmt.Errorf("soil %q: model is %s, not van-genuchten", s.Name, s.Model)
	}
	if n <= 0 {
		return fmt.Errorf("soil %q: invalid shape parameter n = %6.4e, should be > 0", s.Name, n)
	}
	s.ResidualMoisture = thetaR
	s.Permeability = isoTensor(ks)
	s.N = n
	s.M = 1 - 1/n
	s.Scale = alpha
	s.Tortuosity = L
	return nil
}

// SetUser attaches the update of a user defined soil.
func (s *Soil) SetUser(fn UpdateFunc) error {
	if s.Model != UserDefined {
		return fmt.Errorf("soil %q: model is %s, not user", s.Name, s.Model)
	}
	s.User = fn
	return nil
}

// ZoneFromFamily returns the owned cells of m whose family is family.
func ZoneFromFamily(m *mesh.Mesh, family int) []int {
	var cells []int
	for c := 0; c < m.NumCells && c < len(m.CellFamily); c++ {
		if m.CellFamily[c] == family {
			cells = append(cells, c)
		}
	}
	return cells
}
