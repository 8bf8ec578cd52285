package InputParameters

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/hashicorp/go-multierror"
)

// Job is a mesh processing job obtained from the YAML input file
type Job struct {
	Title          string       `json:"Title"`
	MeshFile       string       `json:"MeshFile"`
	ParallelDegree int          `json:"ParallelDegree"`
	Partitions     int          `json:"Partitions"`
	Objective      string       `json:"Objective"` // METIS objective, "cut" or "vol"
	Extractions    []Extraction `json:"Extractions"`
	Hydraulic      string       `json:"Hydraulic"` // "saturated" or "unsaturated"
	InitialHead    float64      `json:"InitialHead"`
	Soils          []SoilSpec   `json:"Soils"`
}

// Extraction requests one nodal mesh. Id lists are 1-based; an absent Cells
// list selects every cell, an empty one selects none.
type Extraction struct {
	Name            string   `json:"Name"`
	Kind            string   `json:"Kind"` // "cells" or "faces"
	Cells           []int    `json:"Cells"`
	InteriorFaces   []int    `json:"InteriorFaces"`
	BoundaryFaces   []int    `json:"BoundaryFaces"`
	BoundaryMarkers []string `json:"BoundaryMarkers"` // Adds the faces of these markers
}

// SoilSpec defines a soil over the cells of one family.
type SoilSpec struct {
	Name              string  `json:"Name"`
	Model             string  `json:"Model"` // "saturated", "van-genuchten" or "user"
	Family            int     `json:"Family"`
	SaturatedMoisture float64 `json:"SaturatedMoisture"`
	BulkDensity       float64 `json:"BulkDensity"`
	Permeability      float64 `json:"Permeability"`
	ResidualMoisture  float64 `json:"ResidualMoisture"`
	Alpha             float64 `json:"Alpha"`
	Shape             float64 `json:"Shape"` // Van Genuchten n
	Tortuosity        float64 `json:"Tortuosity"`
}

func (job *Job) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, job); err != nil {
		return err
	}
	return job.Validate()
}

// ReadJob parses a job file.
func ReadJob(filename string) (*Job, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	job := &Job{}
	if err = job.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return job, nil
}

// Validate reports every inconsistent setting.
func (job *Job) Validate() error {
	var result *multierror.Error
	if job.ParallelDegree < 0 {
		result = multierror.Append(result, fmt.Errorf("ParallelDegree %d is negative", job.ParallelDegree))
	}
	if job.Partitions < 0 {
		result = multierror.Append(result, fmt.Errorf("Partitions %d is negative", job.Partitions))
	}
	switch job.Objective {
	case "", "cut", "vol":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown Objective %q", job.Objective))
	}
	names := make(map[string]bool)
	for i, ex := range job.Extractions {
		if ex.Name == "" {
			result = multierror.Append(result, fmt.Errorf("extraction %d has no Name", i))
		} else if names[ex.Name] {
			result = multierror.Append(result, fmt.Errorf("extraction %q defined twice", ex.Name))
		}
		names[ex.Name] = true
		switch ex.Kind {
		case "cells":
			if len(ex.InteriorFaces)+len(ex.BoundaryFaces)+len(ex.BoundaryMarkers) != 0 {
				result = multierror.Append(result, fmt.Errorf("cell extraction %q lists faces", ex.Name))
			}
		case "faces":
			if ex.Cells != nil {
				result = multierror.Append(result, fmt.Errorf("face extraction %q lists cells", ex.Name))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("extraction %q: unknown Kind %q", ex.Name, ex.Kind))
		}
	}
	switch job.Hydraulic {
	case "", "saturated", "unsaturated":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown Hydraulic model %q", job.Hydraulic))
	}
	return result.ErrorOrNil()
}

func (job *Job) Print() {
	job.Fprint(os.Stdout)
}

func (job *Job) Fprint(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", job.Title)
	fmt.Fprintf(w, "[%s]\t\t= Mesh File\n", job.MeshFile)
	fmt.Fprintf(w, "[%d]\t\t\t= Parallel Degree\n", job.ParallelDegree)
	fmt.Fprintf(w, "[%d]\t\t\t= Partitions\n", job.Partitions)
	for _, ex := range job.Extractions {
		fmt.Fprintf(w, "Extraction[%s] = %s\n", ex.Name, ex.Kind)
	}
	soils := make([]string, len(job.Soils))
	for i, s := range job.Soils {
		soils[i] = fmt.Sprintf("%s (%s, family %d)", s.Name, s.Model, s.Family)
	}
	sort.Strings(soils)
	for _, s := range soils {
		fmt.Fprintf(w, "Soil = %s\n", s)
	}
}
