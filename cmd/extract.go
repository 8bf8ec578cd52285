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
	"strings"

	"github.com/spf13/cobra"

	"github.com/notargets/fvmesh/InputParameters"
	"github.com/notargets/fvmesh/extract"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// ExtractCmd represents the extract command
var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build nodal meshes of cell or face subsets",
	Long: `
Runs the extractions listed in a job file. Without a job file, extracts all
cells and all boundary faces.

fvmesh extract -F mesh.su2 -I job.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		jobFile, _ := cmd.Flags().GetString("inputFile")
		m, job, err := loadInputs(meshFile, jobFile)
		if err != nil {
			return err
		}
		if job.Title != "" {
			job.Fprint(cmd.OutOrStdout())
		}
		extractions := job.Extractions
		if ex, ok, err := flagExtraction(cmd, m); err != nil {
			return err
		} else if ok {
			extractions = []InputParameters.Extraction{ex}
		}
		if len(extractions) == 0 {
			extractions = []InputParameters.Extraction{
				{Name: "cells", Kind: "cells"},
				{Name: "boundary", Kind: "faces"},
			}
		}
		pd := job.ParallelDegree
		if cmd.Flags().Changed("parallel") || pd == 0 {
			pd, _ = cmd.Flags().GetInt("parallel")
		}
		e := extract.New(m, extract.Config{ParallelDegree: pd}, logger)
		for _, ex := range extractions {
			nm, err := runExtraction(e, m, ex)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), nm)
		}
		return nil
	},
}

// flagExtraction builds an extraction from the id list flags, when set.
func flagExtraction(cmd *cobra.Command, m *mesh.Mesh) (ex InputParameters.Extraction, ok bool, err error) {
	var (
		cells, _    = cmd.Flags().GetString("cells")
		iFaces, _   = cmd.Flags().GetString("interiorFaces")
		bFaces, _   = cmd.Flags().GetString("boundaryFaces")
		markers, _  = cmd.Flags().GetString("markers")
		name, _     = cmd.Flags().GetString("name")
		faceFlagSet = iFaces != "" || bFaces != "" || markers != ""
	)
	switch {
	case cells != "" && faceFlagSet:
		err = fmt.Errorf("--cells cannot be combined with face selections")
	case cells != "":
		ex = InputParameters.Extraction{Name: name, Kind: "cells"}
		ex.Cells, err = utils.ParseIDs(cells, m.NumCells)
		ok = true
	case faceFlagSet:
		ex = InputParameters.Extraction{Name: name, Kind: "faces"}
		if markers != "" {
			ex.BoundaryMarkers = strings.Split(markers, ",")
		}
		if ex.InteriorFaces, err = utils.ParseIDs(iFaces, m.NumInteriorFaces); err != nil {
			return
		}
		ex.BoundaryFaces, err = utils.ParseIDs(bFaces, m.NumBoundaryFaces)
		ok = true
	}
	return
}

func init() {
	rootCmd.AddCommand(ExtractCmd)
	ExtractCmd.Flags().String("name", "selection", "name of the extraction given by id flags")
	ExtractCmd.Flags().String("cells", "", "1-based cell ids, e.g. \"1:10,15,end\"")
	ExtractCmd.Flags().String("interiorFaces", "", "1-based interior face ids")
	ExtractCmd.Flags().String("boundaryFaces", "", "1-based boundary face ids")
	ExtractCmd.Flags().String("markers", "", "comma separated boundary markers whose faces are extracted")
	ExtractCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in SU2 (.su2) or Gambit (.neu) format")
	ExtractCmd.Flags().StringP("inputFile", "I", "", "YAML job file listing the extractions")
	ExtractCmd.Flags().IntP("parallel", "p", utils.DefaultParallelDegree(), "face gathering workers")
}
