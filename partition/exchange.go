package partition

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/fvmesh/utils"
)

// Exchange refreshes the halo cells of every rank with the values owned by
// their neighbors. locals[r] must be the local mesh of rank r and fields[r]
// its cell field, owned then halo. Each rank runs in its own goroutine and
// talks to its neighbors over one channel per direction.
func Exchange(locals []*Local, fields [][]float64) error {
	const fn = "partition.Exchange"
	if len(fields) != len(locals) {
		return fmt.Errorf("%s: %d fields for %d ranks: %w",
			fn, len(fields), len(locals), utils.ErrInconsistentLayout)
	}
	type link struct{ from, to int }
	links := make(map[link]chan []float64)
	for r, l := range locals {
		if l.Rank != r {
			return fmt.Errorf("%s: local mesh %d belongs to rank %d: %w",
				fn, r, l.Rank, utils.ErrInconsistentLayout)
		}
		if len(fields[r]) != l.Mesh.NumCellsWithHalo {
			return fmt.Errorf("%s: rank %d field has %d values for %d cells: %w",
				fn, r, len(fields[r]), l.Mesh.NumCellsWithHalo, utils.ErrInconsistentLayout)
		}
		for k, q := range l.Halo.Neighbors {
			if q < 0 || q >= len(locals) {
				return utils.NewIndexError(fn, "neighbor rank", q, 0, len(locals)).While("rank", r)
			}
			// The neighbor must expect exactly what this rank sends
			nh := &locals[q].Halo
			kq := -1
			for j, p := range nh.Neighbors {
				if p == r {
					kq = j
				}
			}
			if kq < 0 || nh.RecvCount[kq] != len(l.Halo.SendCells[k]) {
				return fmt.Errorf("%s: rank %d sends %d values to rank %d which does not expect them: %w",
					fn, r, len(l.Halo.SendCells[k]), q, utils.ErrInconsistentLayout)
			}
			links[link{r, q}] = make(chan []float64, 1)
		}
	}

	eg := &errgroup.Group{}
	for r, l := range locals {
		r, l := r, l
		eg.Go(func() error {
			h := &l.Halo
			for k, q := range h.Neighbors {
				buf := make([]float64, len(h.SendCells[k]))
				for i, c := range h.SendCells[k] {
					buf[i] = fields[r][c]
				}
				links[link{r, q}] <- buf
			}
			for k, q := range h.Neighbors {
				buf := <-links[link{q, r}]
				copy(fields[r][h.RecvStart[k]:h.RecvStart[k]+h.RecvCount[k]], buf)
			}
			return nil
		})
	}
	return eg.Wait()
}
