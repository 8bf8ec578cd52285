/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/soil"
)

// InfoCmd represents the info command
var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print mesh statistics and check its connectivity",
	Long: `
Reads a mesh, validates its numbering and prints its statistics. With a job
file, the soils of the job are built over the cell families and reported.

fvmesh info -F mesh.su2 [-I job.yaml]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		jobFile, _ := cmd.Flags().GetString("inputFile")
		m, job, err := loadInputs(meshFile, jobFile)
		if err != nil {
			return err
		}
		if err = m.Validate(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err = m.PrintStatistics(out); err != nil {
			return err
		}
		families := make([]int, 0, len(m.BoundaryTags))
		for family := range m.BoundaryTags {
			families = append(families, family)
		}
		sort.Ints(families)
		for _, family := range families {
			n := 0
			for _, f := range m.BoundaryFaceFamily {
				if f == family {
					n++
				}
			}
			fmt.Fprintf(out, "Marker[%s] = %d faces\n", m.BoundaryTags[family], n)
		}
		if len(job.Soils) > 0 {
			r, err := buildRegistry(job, m)
			if err != nil {
				return err
			}
			r.LogSetup()
			fmt.Fprintf(out, "Soils = %d\n", r.Len())
			return reportWater(out, r, job.InitialHead, m)
		}
		return nil
	},
}

// reportWater updates the soils under a uniform head and prints the volume
// of the owned cells and the water they hold.
func reportWater(out io.Writer, r *soil.Registry, head float64, m *mesh.Mesh) error {
	cf, err := m.GetCellFaces(nil)
	if err != nil {
		return err
	}
	volumes, err := m.CellVolumes(cf)
	if err != nil {
		return err
	}
	volumes = volumes[:m.NumCells]
	st, err := r.NewState(m.NumCells)
	if err != nil {
		return err
	}
	heads := make([]float64, m.NumCells)
	for i := range heads {
		heads[i] = head
	}
	if err = r.Update(0, heads, st); err != nil {
		return err
	}
	water, err := st.WaterVolume(volumes)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Volume = %.6g\nWater volume = %.6g\n", floats.Sum(volumes), water)
	return nil
}

func init() {
	rootCmd.AddCommand(InfoCmd)
	InfoCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in SU2 (.su2) or Gambit (.neu) format")
	InfoCmd.Flags().StringP("inputFile", "I", "", "YAML job file")
}
