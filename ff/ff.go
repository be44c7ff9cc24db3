//Package ff holds the force-field parameter table: Lennard-Jones types with
//Lorentz-Berthelot mixing, and the real-space Coulomb kernel, either Ewald-screened
//or plain cutoff.
package ff

import (
	"fmt"
	"math"

	mc "github.com/rmera/gomc"
)

//QQFact converts e^2/Angstrom to Kelvin.
const QQFact = 167103.208067979

//LJType is a Lennard-Jones atom type. Sigma in Angstrom, Epsilon in K.
type LJType struct {
	Name    string  `yaml:"name" json:"name"`
	Sigma   float64 `yaml:"sigma" json:"sigma"`
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
}

//Table implements mc.ForceField.
type Table struct {
	types    []LJType
	n        int
	sigmaSq  []float64 //mixed, n*n
	eps      []float64
	rcut     float64
	elect    bool
	ewald    bool
	alpha    []float64 //per box
	recipCut []float64
}

//New returns a table for the given types and cutoff, without electrostatics.
func New(types []LJType, rcut float64) *Table {
	T := &Table{types: types, n: len(types), rcut: rcut}
	T.sigmaSq = make([]float64, T.n*T.n)
	T.eps = make([]float64, T.n*T.n)
	for i, a := range types {
		for j, b := range types {
			s := 0.5 * (a.Sigma + b.Sigma)
			T.sigmaSq[i*T.n+j] = s * s
			T.eps[i*T.n+j] = math.Sqrt(a.Epsilon * b.Epsilon)
		}
	}
	return T
}

//SetElectrostatics turns plain cutoff Coulomb interactions on or off.
func (T *Table) SetElectrostatics(on bool) {
	T.elect = on
	if !on {
		T.ewald = false
	}
}

//SetEwald turns on Ewald electrostatics with the given damping parameter and
//reciprocal-space cutoff for each box.
func (T *Table) SetEwald(alpha, recipCut []float64) {
	T.elect = true
	T.ewald = true
	T.alpha = alpha
	T.recipCut = recipCut
}

//TypeIndex returns the index of the type with the given name.
func (T *Table) TypeIndex(name string) (int, error) {
	for i, v := range T.types {
		if v.Name == name {
			return i, nil
		}
	}
	return -1, mc.NewError(fmt.Sprintf("LJ type %q not found", name), true, mc.ErrConfig, "TypeIndex")
}

//NTypes returns the number of LJ types.
func (T *Table) NTypes() int { return T.n }

func (T *Table) Electrostatics() bool { return T.elect }
func (T *Table) Ewald() bool { return T.ewald }
func (T *Table) QQFact() float64 { return QQFact }
func (T *Table) RCut() float64 { return T.rcut }

func perBox(v []float64, box int) float64 {
	if len(v) == 0 {
		return 0
	}
	if box < len(v) {
		return v[box]
	}
	return v[0]
}

func (T *Table) Alpha(box int) float64 { return perBox(T.alpha, box) }
func (T *Table) RecipCutoff(box int) float64 { return perBox(T.recipCut, box) }

//LJ returns the 12-6 energy and the virial, -(1/r)du/dr, for the pair of types at distSq.
func (T *Table) LJ(distSq float64, ti, tj int) (float64, float64) {
	k := ti*T.n + tj
	eps := T.eps[k]
	if eps == 0 {
		return 0, 0
	}
	s2 := T.sigmaSq[k] / distSq
	s6 := s2 * s2 * s2
	return 4 * eps * (s6*s6 - s6), 24 * eps * (2*s6*s6 - s6) / distSq
}

//Coulomb returns the real-space Coulomb energy and virial for the charge product
//qiqj at distSq in box.
func (T *Table) Coulomb(distSq, qiqj float64, box int) (float64, float64) {
	if !T.elect {
		return 0, 0
	}
	r := math.Sqrt(distSq)
	if !T.ewald {
		e := QQFact * qiqj / r
		return e, e / distSq
	}
	a := T.Alpha(box)
	erfc := math.Erfc(a * r)
	e := QQFact * qiqj * erfc / r
	v := QQFact * qiqj * (erfc/r + 2*a/math.SqrtPi*math.Exp(-a*a*distSq)) / distSq
	return e, v
}

//Sigma returns the mixed LJ diameter of the pair of types.
func (T *Table) Sigma(ti, tj int) float64 {
	return math.Sqrt(T.sigmaSq[ti*T.n+tj])
}

//PairTail returns the analytic tail energy and virial coefficients of the pair of types,
//such that the box tail energy is the sum over atom pairs of coefficient*Ni*Nj/V.
func (T *Table) PairTail(ti, tj int) (float64, float64) {
	k := ti*T.n + tj
	eps := T.eps[k]
	sigma := math.Sqrt(T.sigmaSq[k])
	x3 := math.Pow(sigma/T.rcut, 3)
	x9 := x3 * x3 * x3
	s3 := sigma * sigma * sigma
	en := 8 * math.Pi * eps * s3 * (x9/9 - x3/3)
	vir := 16 * math.Pi * eps * s3 * (2*x9/3 - x3)
	return en, vir
}

//TailCoefficients fills the kind-pair tail coefficients of every kind.
func (T *Table) TailCoefficients(kinds []*mc.Kind) {
	for _, a := range kinds {
		a.TailEnergy = make([]float64, len(kinds))
		a.TailVirial = make([]float64, len(kinds))
		for l, b := range kinds {
			for _, ta := range a.Types {
				for _, tb := range b.Types {
					e, v := T.PairTail(ta, tb)
					a.TailEnergy[l] += e
					a.TailVirial[l] += v
				}
			}
		}
	}
}
