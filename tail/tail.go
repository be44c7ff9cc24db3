//Package tail gives the analytic long-range correction to the energy and virial of a
//box whose Lennard-Jones interactions are truncated at the cutoff.
//
//The correction assumes a uniform density beyond the cutoff, so it only depends on the
//number of molecules of each kind and the volume: E = sum_kl E_kl Nk Nl / V, where E_kl
//are the kind-pair coefficients precomputed by ff.Table.TailCoefficients.
package tail

import (
	mc "github.com/rmera/gomc"
)

//Model computes tail corrections for a set of kinds.
type Model struct {
	kinds []*mc.Kind
}

//New returns a model for the kinds given, which must have their tail coefficients set.
func New(kinds []*mc.Kind) *Model {
	for _, k := range kinds {
		if len(k.TailEnergy) != len(kinds) || len(k.TailVirial) != len(kinds) {
			panic(mc.ErrShape)
		}
	}
	return &Model{kinds: kinds}
}

func (M *Model) sum(coef func(k *mc.Kind) []float64, counts []int, volInv float64) float64 {
	t := 0.0
	for k, K := range M.kinds {
		c := coef(K)
		for l := range M.kinds {
			t += c[l] * float64(counts[k]) * float64(counts[l])
		}
	}
	return t * volInv
}

func energy(k *mc.Kind) []float64 { return k.TailEnergy }
func virial(k *mc.Kind) []float64 { return k.TailVirial }

//BoxEnergy returns the tail energy of a box with the given population of each kind.
func (M *Model) BoxEnergy(counts []int, volInv float64) float64 {
	return M.sum(energy, counts, volInv)
}

//BoxVirial returns the tail virial, in trace units.
func (M *Model) BoxVirial(counts []int, volInv float64) float64 {
	return M.sum(virial, counts, volInv)
}

//DeltaAdd returns the change in tail energy when one molecule of kind joins a box
//whose other molecules are counts.
func (M *Model) DeltaAdd(kind int, counts []int, volInv float64) float64 {
	return M.delta(kind, counts, volInv, 1)
}

//DeltaRemove returns the change in tail energy when one molecule of kind leaves a box,
//leaving behind the molecules in counts. It is exactly -DeltaAdd for the same arguments.
func (M *Model) DeltaRemove(kind int, counts []int, volInv float64) float64 {
	return M.delta(kind, counts, volInv, -1)
}

//delta is (E(counts+e_kind)-E(counts))*sign. The cross terms appear twice, as E_kl = E_lk.
func (M *Model) delta(kind int, counts []int, volInv, sign float64) float64 {
	row := M.kinds[kind].TailEnergy
	t := row[kind]
	for l := range M.kinds {
		t += 2 * row[l] * float64(counts[l])
	}
	return sign * (t * volInv)
}
