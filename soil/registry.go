package soil

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fvmesh/utils"
)

// Registry holds the soils of one computation and the cell to soil map.
type Registry struct {
	Hydraulic      HydraulicModel
	ParallelDegree int

	soils      []*Soil
	byName     map[string]*Soil
	cellToSoil []int
	logger     logrus.FieldLogger
}

func NewRegistry(hydraulic HydraulicModel, logger logrus.FieldLogger) *Registry {
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}
	return &Registry{
		Hydraulic:      hydraulic,
		ParallelDegree: 1,
		byName:         make(map[string]*Soil),
		logger:         logger,
	}
}

// Add creates a soil with default parameters over cells. A saturated
// hydraulic model only accepts saturated soils.
func (r *Registry) Add(name string, cells []int, model Model, saturatedMoisture, bulkDensity float64) (*Soil, error) {
	if _, ok := modelNames[model]; !ok {
		return nil, fmt.Errorf("soil %q: invalid model %s", name, model)
	}
	if _, dup := r.byName[name]; dup {
		return nil, fmt.Errorf("soil %q: already defined", name)
	}
	if r.Hydraulic == SaturatedSinglePhase && model != Saturated {
		return nil, fmt.Errorf("soil %q: %s soil in a %s model, all soils have to be saturated",
			name, model, r.Hydraulic)
	}
	s := newSoil(len(r.soils), name, model, cells, saturatedMoisture, bulkDensity)
	r.soils = append(r.soils, s)
	r.byName[name] = s
	r.cellToSoil = nil
	return s, nil
}

func (r *Registry) Len() int { return len(r.soils) }

// ByID returns nil when id is out of range.
func (r *Registry) ByID(id int) *Soil {
	if id < 0 || id >= len(r.soils) {
		return nil
	}
	return r.soils[id]
}

// ByName returns nil when no soil is called name.
func (r *Registry) ByName(name string) *Soil {
	return r.byName[name]
}

// AllSaturated reports whether every soil follows the saturated law.
func (r *Registry) AllSaturated() bool {
	for _, s := range r.soils {
		if s.Model != Saturated {
			return false
		}
	}
	return true
}

// Check verifies that at least one soil exists and every soil can be updated.
func (r *Registry) Check() error {
	if len(r.soils) < 1 {
		return fmt.Errorf("soil: groundwater flow is active but no soil is defined")
	}
	for _, s := range r.soils {
		switch s.Model {
		case UserDefined:
			if s.User == nil {
				return fmt.Errorf("soil %q: user model without an update function", s.Name)
			}
		case VanGenuchten:
			if r.Hydraulic != UnsaturatedSinglePhase {
				return fmt.Errorf("soil %q: van-genuchten soil needs an unsaturated model", s.Name)
			}
			if !s.IsIsotropic() {
				return fmt.Errorf("soil %q: van-genuchten update needs an isotropic permeability", s.Name)
			}
		}
	}
	return nil
}

// BuildCellToSoil maps each of nCells cells to its soil id. A single soil
// covers every cell; with several soils every cell must belong to one.
func (r *Registry) BuildCellToSoil(nCells int) ([]int, error) {
	const fn = "soil.BuildCellToSoil"
	if len(r.soils) == 0 {
		return nil, fmt.Errorf("%s: no soil defined: %w", fn, utils.ErrEmptySelection)
	}
	if len(r.soils) == 1 {
		r.cellToSoil = make([]int, nCells)
		return r.cellToSoil, nil
	}
	c2s := utils.NewFilled(nCells, -1)
	for _, s := range r.soils {
		for _, c := range s.Cells {
			if c < 0 || c >= nCells {
				return nil, utils.NewIndexError(fn, "cell", c, 0, nCells).While("soil", s.ID)
			}
			c2s[c] = s.ID
		}
	}
	for c, id := range c2s {
		if id == -1 {
			return nil, fmt.Errorf("%s: at least cell %d has no related soil: %w",
				fn, c, utils.ErrInconsistentLayout)
		}
	}
	r.cellToSoil = c2s
	return c2s, nil
}

// CellToSoil returns the map of the last BuildCellToSoil, nil if stale.
func (r *Registry) CellToSoil() []int { return r.cellToSoil }

// Update sets the head dependent properties of every soil at time t.
// Saturated soils are steady and left untouched.
func (r *Registry) Update(t float64, head []float64, st *State) error {
	for _, s := range r.soils {
		cells, err := r.zone("soil.Update", s, len(head), st)
		if err != nil {
			return err
		}
		switch s.Model {
		case Saturated:
		case VanGenuchten:
			r.parallel(cells, func(sub []int) {
				updateGenuchtenIso(s, sub, head, st)
			})
		case UserDefined:
			if s.User == nil {
				return fmt.Errorf("soil %q: user model without an update function", s.Name)
			}
			s.User(t, s, cells, head, st)
		}
	}
	r.logger.WithFields(logrus.Fields{
		"time":  t,
		"soils": len(r.soils),
	}).Debug("soil properties updated")
	return nil
}

// zone returns the cells of s, every cell when s is the only soil and has
// no zone, after checking them against the n cells of head and st.
func (r *Registry) zone(fn string, s *Soil, n int, st *State) ([]int, error) {
	cells := s.Cells
	if len(r.soils) == 1 && cells == nil {
		cells = utils.NewRange(0, n-1)
	}
	for _, c := range cells {
		if c < 0 || c >= n || c >= len(st.Moisture) {
			return nil, utils.NewIndexError(fn, "cell", c, 0, n).While("soil", s.ID)
		}
	}
	return cells, nil
}

// NewState sizes the properties of nCells cells and sets every soil to its
// saturated values: saturated moisture, the xx permeability, no capacity.
// Saturated soils keep these values; Update refines the others.
func (r *Registry) NewState(nCells int) (*State, error) {
	st := NewState(nCells)
	for _, s := range r.soils {
		cells, err := r.zone("soil.Registry.NewState", s, nCells, st)
		if err != nil {
			return nil, err
		}
		ks := s.Permeability.At(0, 0)
		for _, c := range cells {
			st.Permeability[c] = ks
			st.Moisture[c] = s.SaturatedMoisture
		}
	}
	return st, nil
}

func (r *Registry) parallel(cells []int, fn func(sub []int)) {
	if r.ParallelDegree <= 1 || len(cells) < 2*r.ParallelDegree {
		fn(cells)
		return
	}
	pm := utils.NewPartitionMap(r.ParallelDegree, len(cells))
	pm.ParallelFor(func(bn, kMin, kMax int) {
		fn(cells[kMin:kMax])
	})
}

// updateGenuchtenIso applies Se(h) = [1 + |alpha h|^n]^-m with the Mualem
// permeability and the matching capacity. Non-negative heads are saturated.
func updateGenuchtenIso(s *Soil, cells []int, head []float64, st *State) {
	var (
		ks     = s.Permeability.At(0, 0)
		deltaM = s.SaturatedMoisture - s.ResidualMoisture
	)
	for _, c := range cells {
		h := head[c]
		if h < 0 {
			coef := math.Pow(math.Abs(s.Scale*h), s.N)
			se := math.Pow(1+coef, -s.M)
			base := 1 - math.Pow(1-math.Pow(se, 1/s.M), s.M)
			st.Permeability[c] = ks * math.Pow(se, s.Tortuosity) * base * base
			st.Moisture[c] = se*deltaM + s.ResidualMoisture
			st.Capacity[c] = -s.N * s.M * deltaM * coef / h * se / (1 + coef)
		} else {
			st.Permeability[c] = ks
			st.Moisture[c] = deltaM + s.ResidualMoisture
			st.Capacity[c] = 0
		}
	}
}

// WaterVolume is the moisture weighted sum of the cell volumes.
func (st *State) WaterVolume(volumes []float64) (float64, error) {
	if len(volumes) != len(st.Moisture) {
		return 0, fmt.Errorf("soil.WaterVolume: %d volumes for %d cells: %w",
			len(volumes), len(st.Moisture), utils.ErrInconsistentLayout)
	}
	return floats.Dot(st.Moisture, volumes), nil
}

// LogSetup reports the parameters of every soil.
func (r *Registry) LogSetup() {
	for _, s := range r.soils {
		entry := r.logger.WithFields(logrus.Fields{
			"soil":              s.Name,
			"id":                s.ID,
			"model":             s.Model.String(),
			"cells":             len(s.Cells),
			"bulkDensity":       s.BulkDensity,
			"saturatedMoisture": s.SaturatedMoisture,
			"permeability":      fmt.Sprintf("%v", mat.Formatted(s.Permeability, mat.Squeeze())),
		})
		if s.Model == VanGenuchten {
			entry = entry.WithFields(logrus.Fields{
				"n":          s.N,
				"scale":      s.Scale,
				"tortuosity": s.Tortuosity,
			})
		}
		entry.Info("soil")
	}
}
