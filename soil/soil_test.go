package soil

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

func TestDefaults(t *testing.T) {
	r := NewRegistry(UnsaturatedSinglePhase, nil)
	s, err := r.Add("clay", nil, VanGenuchten, 0.4, 1800)
	require.NoError(t, err)
	assert.Equal(t, 1.25, s.N)
	assert.InDelta(t, 0.2, s.M, 1e-15)
	assert.Equal(t, 1.0, s.Scale)
	assert.Equal(t, 1.0, s.Tortuosity)
	assert.True(t, mat.Equal(mat.NewDiagDense(3, []float64{1, 1, 1}), s.Permeability))
	assert.True(t, s.IsIsotropic())

	sat, err := r.Add("sand", nil, Saturated, 0.3, 1600)
	require.NoError(t, err)
	assert.Zero(t, sat.N)
	assert.Equal(t, 1, sat.ID)
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(SaturatedSinglePhase, nil)
	_, err := r.Add("a", []int{0}, Saturated, 0.3, 1)
	require.NoError(t, err)
	_, err = r.Add("b", []int{1}, Saturated, 0.3, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "b", r.ByID(1).Name)
	assert.Nil(t, r.ByID(2))
	assert.Nil(t, r.ByID(-1))
	assert.Equal(t, 0, r.ByName("a").ID)
	assert.Nil(t, r.ByName("c"))
	assert.True(t, r.AllSaturated())

	_, err = r.Add("a", nil, Saturated, 0.3, 1)
	assert.Error(t, err)
	_, err = r.Add("vg", nil, VanGenuchten, 0.3, 1)
	assert.Error(t, err, "saturated model only accepts saturated soils")
	_, err = r.Add("bad", nil, Model(7), 0.3, 1)
	assert.Error(t, err)
}

func TestRegistry_SaturatedSoilInUnsaturatedModel(t *testing.T) {
	r := NewRegistry(UnsaturatedSinglePhase, nil)
	_, err := r.Add("rock", nil, Saturated, 0.1, 2500)
	require.NoError(t, err)
	_, err = r.Add("loam", nil, VanGenuchten, 0.4, 1500)
	require.NoError(t, err)
	assert.False(t, r.AllSaturated())
}

func TestSetters(t *testing.T) {
	r := NewRegistry(UnsaturatedSinglePhase, nil)
	sat, _ := r.Add("sat", nil, Saturated, 0.3, 1)
	vg, _ := r.Add("vg", nil, VanGenuchten, 0.3, 1)
	user, _ := r.Add("user", nil, UserDefined, 0.3, 1)

	require.NoError(t, sat.SetIsoSaturated(2))
	assert.Equal(t, 2.0, sat.Permeability.At(1, 1))
	aniso := mat.NewDense(3, 3, []float64{1, 0.1, 0, 0.1, 2, 0, 0, 0, 3})
	require.NoError(t, sat.SetAnisoSaturated(aniso))
	assert.False(t, sat.IsIsotropic())
	aniso.Set(0, 0, 9)
	assert.Equal(t, 1.0, sat.Permeability.At(0, 0))
	assert.Error(t, sat.SetAnisoSaturated(mat.NewDense(2, 2, nil)))
	assert.Error(t, vg.SetIsoSaturated(1))

	require.NoError(t, vg.SetIsoGenuchten(3, 0.05, 0.5, 2, 0.5))
	assert.Equal(t, 0.5, vg.M)
	assert.Equal(t, 0.05, vg.ResidualMoisture)
	assert.Error(t, vg.SetIsoGenuchten(3, 0.05, 0.5, 0, 0.5))
	assert.Error(t, sat.SetIsoGenuchten(3, 0.05, 0.5, 2, 0.5))

	assert.Error(t, sat.SetUser(func(float64, *Soil, []int, []float64, *State) {}))
	assert.Error(t, r.Check(), "user soil has no update yet")
	require.NoError(t, user.SetUser(func(float64, *Soil, []int, []float64, *State) {}))
	assert.NoError(t, r.Check())

	assert.Error(t, NewRegistry(UnsaturatedSinglePhase, nil).Check())
}

func TestBuildCellToSoil(t *testing.T) {
	tests := []struct {
		name  string
		zones [][]int
		want  []int
		err   error
	}{
		{"single soil covers all", [][]int{nil}, []int{0, 0, 0, 0}, nil},
		{"two soils", [][]int{{0, 3}, {1, 2}}, []int{0, 1, 1, 0}, nil},
		{"later soil wins", [][]int{{0, 1, 2, 3}, {2}}, []int{0, 0, 1, 0}, nil},
		{"uncovered cell", [][]int{{0, 1}, {3}}, nil, utils.ErrInconsistentLayout},
		{"cell out of range", [][]int{{0, 1, 2, 3}, {4}}, nil, utils.ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(SaturatedSinglePhase, nil)
			for i, cells := range tt.zones {
				_, err := r.Add(string(rune('a'+i)), cells, Saturated, 0.3, 1)
				require.NoError(t, err)
			}
			got, err := r.BuildCellToSoil(4)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, r.CellToSoil())
		})
	}

	r := NewRegistry(SaturatedSinglePhase, nil)
	_, err := r.BuildCellToSoil(4)
	assert.ErrorIs(t, err, utils.ErrEmptySelection)
	_, err = r.Add("a", []int{0}, Saturated, 0.3, 1)
	require.NoError(t, err)
	_, err = r.Add("b", []int{1}, Saturated, 0.3, 1)
	require.NoError(t, err)
	_, err = r.BuildCellToSoil(3)
	assert.ErrorContains(t, err, "at least cell 2 has no related soil")
}

func TestUpdate_VanGenuchten(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r := NewRegistry(UnsaturatedSinglePhase, logger)
	vg, err := r.Add("loam", []int{0, 1}, VanGenuchten, 0.4, 1500)
	require.NoError(t, err)
	require.NoError(t, vg.SetIsoGenuchten(1, 0.1, 1, 2, 0.5))
	rock, err := r.Add("rock", []int{2}, Saturated, 0.05, 2600)
	require.NoError(t, err)
	require.NoError(t, rock.SetIsoSaturated(5))

	st := NewState(3)
	st.Permeability[2] = -1
	require.NoError(t, r.Update(0, []float64{-1, 2, 0}, st))

	assert.InDelta(t, 0.0721375078778508, st.Permeability[0], 1e-12)
	assert.InDelta(t, 0.3121320343559643, st.Moisture[0], 1e-12)
	assert.InDelta(t, 0.1060660171779822, st.Capacity[0], 1e-12)
	// Positive head is saturated
	assert.Equal(t, 1.0, st.Permeability[1])
	assert.InDelta(t, 0.4, st.Moisture[1], 1e-15)
	assert.Zero(t, st.Capacity[1])
	// Saturated soils are steady
	assert.Equal(t, -1.0, st.Permeability[2])

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)

	assert.ErrorIs(t, r.Update(0, []float64{-1}, st), utils.ErrInvalidIndex)
}

func TestRegistry_NewState(t *testing.T) {
	r := NewRegistry(UnsaturatedSinglePhase, nil)
	vg, err := r.Add("loam", []int{0, 1}, VanGenuchten, 0.4, 1500)
	require.NoError(t, err)
	require.NoError(t, vg.SetIsoGenuchten(2, 0.1, 1, 2, 0.5))
	rock, err := r.Add("rock", []int{2}, Saturated, 0.05, 2600)
	require.NoError(t, err)
	require.NoError(t, rock.SetIsoSaturated(5))

	st, err := r.NewState(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 5}, st.Permeability)
	assert.Equal(t, []float64{0.4, 0.4, 0.05}, st.Moisture)
	assert.Equal(t, []float64{0, 0, 0}, st.Capacity)

	// The saturated soil keeps its values through an update
	require.NoError(t, r.Update(0, []float64{-1, 0, -1}, st))
	assert.Equal(t, 5.0, st.Permeability[2])
	assert.Equal(t, 0.05, st.Moisture[2])
	assert.Less(t, st.Moisture[0], 0.4)

	v, err := st.WaterVolume([]float64{0, 2, 20})
	require.NoError(t, err)
	assert.InDelta(t, 1.8, v, 1e-12)

	_, err = r.NewState(2)
	assert.ErrorIs(t, err, utils.ErrInvalidIndex)
}

func TestUpdate_ParallelMatchesSequential(t *testing.T) {
	const n = 1000
	head := make([]float64, n)
	for i := range head {
		head[i] = -float64(i) / 100
	}
	run := func(degree int) *State {
		r := NewRegistry(UnsaturatedSinglePhase, nil)
		r.ParallelDegree = degree
		vg, err := r.Add("loam", nil, VanGenuchten, 0.45, 1500)
		require.NoError(t, err)
		require.NoError(t, vg.SetIsoGenuchten(2e-5, 0.05, 3.6, 1.56, 0.5))
		st := NewState(n)
		require.NoError(t, r.Update(1, head, st))
		return st
	}
	assert.Equal(t, run(1), run(8))
}

func TestUpdate_User(t *testing.T) {
	r := NewRegistry(UnsaturatedSinglePhase, nil)
	u, err := r.Add("user", []int{1}, UserDefined, 0.3, 1)
	require.NoError(t, err)
	var seen []int
	require.NoError(t, u.SetUser(func(tm float64, s *Soil, cells []int, head []float64, st *State) {
		seen = cells
		for _, c := range cells {
			st.Moisture[c] = s.SaturatedMoisture * tm
		}
	}))
	st := NewState(2)
	require.NoError(t, r.Update(2, []float64{0, 0}, st))
	assert.Equal(t, []int{1}, seen)
	assert.Equal(t, []float64{0, 0.6}, st.Moisture)

	v, err := st.WaterVolume([]float64{10, 10})
	require.NoError(t, err)
	assert.InDelta(t, 6, v, 1e-12)
	_, err = st.WaterVolume([]float64{1})
	assert.ErrorIs(t, err, utils.ErrInconsistentLayout)
}

func TestZoneFromFamily(t *testing.T) {
	m := mesh.TwoTet()
	assert.Equal(t, []int{0}, ZoneFromFamily(m, 1))
	assert.Equal(t, []int{1}, ZoneFromFamily(m, 2))
	assert.Empty(t, ZoneFromFamily(m, 3))
}

func TestModelNames(t *testing.T) {
	for _, m := range []Model{Saturated, VanGenuchten, UserDefined} {
		got, err := ParseModel(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseModel("darcy")
	assert.Error(t, err)
	assert.Equal(t, "unsaturated single-phase", UnsaturatedSinglePhase.String())
}

func TestLogSetup(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRegistry(UnsaturatedSinglePhase, logger)
	_, err := r.Add("loam", nil, VanGenuchten, 0.4, 1500)
	require.NoError(t, err)
	r.LogSetup()
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "loam", hook.LastEntry().Data["soil"])
	assert.Equal(t, 1.25, hook.LastEntry().Data["n"])
}
