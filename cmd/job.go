package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/fvmesh/InputParameters"
	"github.com/notargets/fvmesh/extract"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/mesh/readers"
	"github.com/notargets/fvmesh/nodal"
	"github.com/notargets/fvmesh/soil"
	"github.com/notargets/fvmesh/utils"
)

// loadInputs reads the job file, when given, and the mesh. The mesh flag
// overrides the job's MeshFile.
func loadInputs(meshFile, jobFile string) (*mesh.Mesh, *InputParameters.Job, error) {
	job := &InputParameters.Job{}
	if jobFile != "" {
		var err error
		if job, err = InputParameters.ReadJob(jobFile); err != nil {
			return nil, nil, err
		}
	}
	if meshFile == "" {
		meshFile = job.MeshFile
	}
	if meshFile == "" {
		return nil, nil, fmt.Errorf("must supply a mesh file (-F, --meshFile) in .su2 or .neu (Gambit neutral file) format")
	}
	m, err := readers.ReadMeshFile(meshFile)
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(logrus.Fields{
		"file":          meshFile,
		"cells":         m.NumCells,
		"boundaryFaces": m.NumBoundaryFaces,
		"interiorFaces": m.NumInteriorFaces,
	}).Info("mesh loaded")
	return m, job, nil
}

// markerFaces returns the 1-based boundary face ids of the named markers.
func markerFaces(m *mesh.Mesh, names []string) ([]int, error) {
	families := make(map[int]bool)
	for _, name := range names {
		found := false
		for family, tag := range m.BoundaryTags {
			if tag == name {
				families[family] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("no boundary marker named %q", name)
		}
	}
	var ids []int
	for f, family := range m.BoundaryFaceFamily {
		if families[family] {
			ids = append(ids, f+1)
		}
	}
	return ids, nil
}

func runExtraction(e *extract.Extractor, m *mesh.Mesh, ex InputParameters.Extraction) (*nodal.Mesh, error) {
	if ex.Kind == "cells" {
		return e.CellsToNodal(ex.Name, extract.FromSlice(ex.Cells))
	}
	bList := ex.BoundaryFaces
	if len(ex.BoundaryMarkers) > 0 {
		ids, err := markerFaces(m, ex.BoundaryMarkers)
		if err != nil {
			return nil, fmt.Errorf("extraction %q: %w", ex.Name, err)
		}
		bList = append(append([]int{}, bList...), ids...)
		// Both lists empty would select the whole boundary
		if len(bList) == 0 && len(ex.InteriorFaces) == 0 {
			return nil, fmt.Errorf("extraction %q: markers %v have no faces: %w",
				ex.Name, ex.BoundaryMarkers, utils.ErrEmptySelection)
		}
	}
	return e.FacesToNodal(ex.Name, extract.List(ex.InteriorFaces...), extract.List(bList...))
}

// buildRegistry creates the soils of the job over the cell families of m.
func buildRegistry(job *InputParameters.Job, m *mesh.Mesh) (*soil.Registry, error) {
	hydraulic := soil.SaturatedSinglePhase
	if job.Hydraulic == "unsaturated" {
		hydraulic = soil.UnsaturatedSinglePhase
	}
	r := newSoilRegistry(hydraulic, job.ParallelDegree)
	for _, ss := range job.Soils {
		model, err := soil.ParseModel(ss.Model)
		if err != nil {
			return nil, err
		}
		s, err := r.Add(ss.Name, soil.ZoneFromFamily(m, ss.Family), model,
			ss.SaturatedMoisture, ss.BulkDensity)
		if err != nil {
			return nil, err
		}
		ks := ss.Permeability
		if ks == 0 {
			ks = 1
		}
		switch model {
		case soil.Saturated:
			err = s.SetIsoSaturated(ks)
		case soil.VanGenuchten:
			n, alpha, L := ss.Shape, ss.Alpha, ss.Tortuosity
			if n == 0 {
				n = s.N
			}
			if alpha == 0 {
				alpha = s.Scale
			}
			if L == 0 {
				L = s.Tortuosity
			}
			err = s.SetIsoGenuchten(ks, ss.ResidualMoisture, alpha, n, L)
		case soil.UserDefined:
			err = fmt.Errorf("soil %q: user soils need code, not a job file", ss.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := r.Check(); err != nil {
		return nil, err
	}
	if _, err := r.BuildCellToSoil(m.NumCells); err != nil {
		return nil, err
	}
	return r, nil
}

func newSoilRegistry(hydraulic soil.HydraulicModel, parallelDegree int) *soil.Registry {
	r := soil.NewRegistry(hydraulic, logger)
	if parallelDegree > 0 {
		r.ParallelDegree = parallelDegree
	}
	return r
}
