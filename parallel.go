/*
 * parallel.go, part of gomc.
 *
 * Copyright 2019 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package mc

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

//Reduce evaluates f over contiguous chunks of [0,n), concurrently in up to cpus goroutines,
//and returns the sum of the partial results. The partition only depends on n and cpus, and
//partial sums are added in chunk order, so the result is reproducible for a given cpus.
func Reduce(n, cpus int, f func(lo, hi int) float64) float64 {
	r := ReduceSlice(n, cpus, 1, func(lo, hi int, acc []float64) {
		acc[0] = f(lo, hi)
	})
	return r[0]
}

//ReduceSlice is like Reduce, but each chunk accumulates width values into acc,
//which starts zeroed. The chunk results are added element-wise.
func ReduceSlice(n, cpus, width int, f func(lo, hi int, acc []float64)) []float64 {
	if cpus < 1 {
		cpus = runtime.NumCPU()
	}
	chunks := cpus
	if chunks > n {
		chunks = n
	}
	if chunks <= 1 {
		acc := make([]float64, width)
		if n > 0 {
			f(0, n, acc)
		}
		return acc
	}
	partial := make([][]float64, chunks)
	size := (n + chunks - 1) / chunks
	var g errgroup.Group
	for c := 0; c < chunks; c++ {
		lo, hi := c*size, min((c+1)*size, n)
		partial[c] = make([]float64, width)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			f(lo, hi, partial[c])
			return nil
		})
	}
	g.Wait()
	ret := partial[0]
	for _, p := range partial[1:] {
		floats.Add(ret, p)
	}
	return ret
}
