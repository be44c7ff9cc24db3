//Package rng provides the uniform random stream used by the moves.
package rng

import (
	mc "github.com/rmera/gomc"
	"golang.org/x/exp/rand"
)

//Source implements mc.Random on a seeded generator. It is not safe
//for concurrent use, as the simulation is a single Markov chain.
type Source struct {
	r *rand.Rand
}

//New returns a source seeded with seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

func (S *Source) Float64() float64 { return S.r.Float64() }

func (S *Source) Intn(n int) int { return S.r.Intn(n) }

//PointInBox returns a point uniformly distributed in the cell of b.
func (S *Source) PointInBox(b *mc.Box) [3]float64 {
	return b.Cartesian([3]float64{S.r.Float64(), S.r.Float64(), S.r.Float64()})
}

//Weighted returns an index drawn with probability proportional to its weight.
//It returns -1 if all the weights are zero.
func (S *Source) Weighted(w []float64) int {
	tot := 0.0
	for _, v := range w {
		tot += v
	}
	if tot <= 0 {
		return -1
	}
	x := S.r.Float64() * tot
	for i, v := range w {
		if x < v {
			return i
		}
		x -= v
	}
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] > 0 {
			return i
		}
	}
	return -1
}
