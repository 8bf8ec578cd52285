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

	"github.com/spf13/cobra"

	"github.com/notargets/fvmesh/partition"
)

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a mesh and build the halo of every rank",
	Long: `
Splits the cells of a mesh with METIS, builds the local mesh of every rank
with its halo cells numbered after the owned cells, and checks the halo
exchange schedule by refreshing a field of parent cell ids.

fvmesh partition -F mesh.su2 -n 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		jobFile, _ := cmd.Flags().GetString("inputFile")
		m, job, err := loadInputs(meshFile, jobFile)
		if err != nil {
			return err
		}
		nparts, _ := cmd.Flags().GetInt("numPartitions")
		if !cmd.Flags().Changed("numPartitions") && job.Partitions > 0 {
			nparts = job.Partitions
		}
		config := partition.DefaultConfig(int32(nparts))
		if obj, _ := cmd.Flags().GetString("objective"); cmd.Flags().Changed("objective") || job.Objective == "" {
			config.Objective = obj
		} else {
			config.Objective = job.Objective
		}
		config.ImbalanceFactor, _ = cmd.Flags().GetFloat32("imbalance")

		cellRank, _, err := partition.NewPartitioner(m, config, logger).Partition()
		if err != nil {
			return err
		}
		locals, err := partition.Split(m, cellRank, nparts)
		if err != nil {
			return err
		}
		if err = checkHalos(locals); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, l := range locals {
			fmt.Fprintf(out, "Rank[%d] = %d cells, %d halo, %d faces, neighbors %v\n",
				l.Rank, l.Mesh.NumCells, l.Mesh.NumHaloCells(), l.Mesh.NumFaces(), l.Halo.Neighbors)
		}
		return nil
	},
}

// checkHalos refreshes a field holding parent cell ids and verifies every
// halo cell received the id of the cell it copies.
func checkHalos(locals []*partition.Local) error {
	fields := make([][]float64, len(locals))
	for r, l := range locals {
		fields[r] = make([]float64, l.Mesh.NumCellsWithHalo)
		for i := 0; i < l.Mesh.NumCells; i++ {
			fields[r][i] = float64(l.GlobalCell[i])
		}
	}
	if err := partition.Exchange(locals, fields); err != nil {
		return err
	}
	for r, l := range locals {
		for i := l.Mesh.NumCells; i < l.Mesh.NumCellsWithHalo; i++ {
			if got := int(fields[r][i]); got != l.GlobalCell[i] {
				return fmt.Errorf("rank %d halo cell %d received parent %d, want %d",
					r, i, got, l.GlobalCell[i])
			}
		}
	}
	logger.WithField("ranks", len(locals)).Debug("halo exchange verified")
	return nil
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	PartitionCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in SU2 (.su2) or Gambit (.neu) format")
	PartitionCmd.Flags().StringP("inputFile", "I", "", "YAML job file")
	PartitionCmd.Flags().IntP("numPartitions", "n", 2, "number of partitions")
	PartitionCmd.Flags().String("objective", "vol", "METIS objective: cut or vol")
	PartitionCmd.Flags().Float32("imbalance", 1.05, "allowed load imbalance")
}
