/*
 * pair.go, part of gomc.
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

//Package pair evaluates the short-range Lennard-Jones and real-space Coulomb
//interactions between the molecules of a box, over the pairs supplied by a cell list.
package pair

import (
	"math"
	"runtime"

	mc "github.com/rmera/gomc"
	v3 "github.com/rmera/gomc/v3"
)

//Options for the pair engine.
type Options struct {
	cpus int
}

//DefaultOptions returns options that use all the logical CPUs.
func DefaultOptions() *Options {
	return &Options{cpus: runtime.NumCPU()}
}

//Cpus returns the number of goroutines used for full-box reductions,
//and sets it to a new value, if given.
func (O *Options) Cpus(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.cpus = n[0]
	}
	return O.cpus
}

//Engine is the CPU implementation of mc.PairEvaluator. It never changes
//the coordinates or the cell list.
type Engine struct {
	S     *mc.System
	cells mc.CellList
	ff    mc.ForceField
	opts  *Options
}

//New returns an engine for S. If opts is nil, DefaultOptions() is used.
func New(S *mc.System, cells mc.CellList, ff mc.ForceField, opts *Options) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Engine{S: S, cells: cells, ff: ff, opts: opts}
}

//terms returns the energies and virials of a pair at d2 whose coupling product is scale.
//LJ scales with the product and Coulomb with its square root, as charges carry sqrt(lambda).
func (E *Engine) terms(box, ti, tj int, qiqj, d2, scale float64) (elj, ereal, vlj, vreal float64) {
	e, v := E.ff.LJ(d2, ti, tj)
	elj, vlj = scale*e, scale*v
	if qiqj != 0 && E.ff.Electrostatics() {
		c, cv := E.ff.Coulomb(d2, qiqj, box)
		sq := math.Sqrt(scale)
		ereal, vreal = sq*c, sq*cv
	}
	return
}

//atomTerms is terms for two atoms already in the box.
func (E *Engine) atomTerms(box, i, j int, d2 float64) (elj, ereal, vlj, vreal float64) {
	S := E.S
	scale := S.Lambda.Lambda(S.AtomMol(i), box) * S.Lambda.Lambda(S.AtomMol(j), box)
	return E.terms(box, S.AtomType(i), S.AtomType(j), S.Charge(i)*S.Charge(j), d2, scale)
}

//pairs collects the intermolecular candidate pairs of box.
func (E *Engine) pairs(box int) [][2]int {
	var ps [][2]int
	for i, j := range E.cells.EnumeratePairs(box) {
		if E.S.AtomMol(i) == E.S.AtomMol(j) {
			continue
		}
		ps = append(ps, [2]int{i, j})
	}
	return ps
}

//BoxInter returns the LJ and real-space Coulomb energies of the box.
func (E *Engine) BoxInter(box int) (float64, float64) {
	b := E.S.Boxes[box]
	if !b.Interacting {
		return 0, 0
	}
	ps := E.pairs(box)
	r := mc.ReduceSlice(len(ps), E.opts.Cpus(), 2, func(lo, hi int, acc []float64) {
		for _, p := range ps[lo:hi] {
			in, d2, _ := b.InRcut(E.S.Pos(p[0]), E.S.Pos(p[1]))
			if !in {
				continue
			}
			lj, real, _, _ := E.atomTerms(box, p[0], p[1], d2)
			acc[0] += lj
			acc[1] += real
		}
	})
	return mc.Sanitize(r[0]), mc.Sanitize(r[1])
}

//boxMols returns the molecules whose membership is in box.
func (E *Engine) boxMols(box int) []int {
	var ret []int
	for k := range E.S.Kinds {
		ret = append(ret, E.S.Mols.Members(k, box)...)
	}
	return ret
}

//BoxForce puts in atomForce and molForce the pair forces on the atoms and molecules
//of the box, and returns the box energies. The rows of atoms and molecules in other
//boxes are not touched.
func (E *Engine) BoxForce(box int, atomForce, molForce *v3.Matrix) (float64, float64) {
	S := E.S
	nat, nmol := S.NAtoms(), S.Mols.Len()
	if atomForce.NVecs() != nat || molForce.NVecs() != nmol {
		panic(mc.ErrShape)
	}
	mols := E.boxMols(box)
	for _, m := range mols {
		molForce.SetVec3(m, [3]float64{})
		s, e := S.Mols.Range(m)
		for i := s; i < e; i++ {
			atomForce.SetVec3(i, [3]float64{})
		}
	}
	b := S.Boxes[box]
	if !b.Interacting {
		return 0, 0
	}
	ps := E.pairs(box)
	molOff := 2 + 3*nat
	r := mc.ReduceSlice(len(ps), E.opts.Cpus(), molOff+3*nmol, func(lo, hi int, acc []float64) {
		for _, p := range ps[lo:hi] {
			i, j := p[0], p[1]
			in, d2, d := b.InRcut(S.Pos(i), S.Pos(j))
			if !in {
				continue
			}
			lj, real, vlj, vreal := E.atomTerms(box, i, j, d2)
			acc[0] += lj
			acc[1] += real
			v := vlj + vreal
			mi, mj := S.AtomMol(i), S.AtomMol(j)
			for c := 0; c < 3; c++ {
				f := v * d[c]
				acc[2+3*i+c] += f
				acc[2+3*j+c] -= f
				acc[molOff+3*mi+c] += f
				acc[molOff+3*mj+c] -= f
			}
		}
	})
	for _, m := range mols {
		molForce.SetVec3(m, [3]float64{r[molOff+3*m], r[molOff+3*m+1], r[molOff+3*m+2]})
		s, e := S.Mols.Range(m)
		for i := s; i < e; i++ {
			atomForce.SetVec3(i, [3]float64{r[2+3*i], r[2+3*i+1], r[2+3*i+2]})
		}
	}
	return mc.Sanitize(r[0]), mc.Sanitize(r[1])
}

//BoxVirial returns the molecular virial tensors of the LJ and real-space terms,
//built from the pair forces and the minimum-image separations of the centers of mass.
func (E *Engine) BoxVirial(box int) (inter, real [3][3]float64) {
	S := E.S
	b := S.Boxes[box]
	if !b.Interacting {
		return
	}
	ps := E.pairs(box)
	r := mc.ReduceSlice(len(ps), E.opts.Cpus(), 18, func(lo, hi int, acc []float64) {
		for _, p := range ps[lo:hi] {
			i, j := p[0], p[1]
			in, d2, d := b.InRcut(S.Pos(i), S.Pos(j))
			if !in {
				continue
			}
			_, _, vlj, vreal := E.atomTerms(box, i, j, d2)
			ci, cj := S.Mols.COM(S.AtomMol(i)), S.Mols.COM(S.AtomMol(j))
			dc := b.MinImage([3]float64{ci[0] - cj[0], ci[1] - cj[1], ci[2] - cj[2]})
			for a := 0; a < 3; a++ {
				for c := 0; c < 3; c++ {
					acc[3*a+c] += vlj * d[a] * dc[c]
					acc[9+3*a+c] += vreal * d[a] * dc[c]
				}
			}
		}
	})
	for a := 0; a < 3; a++ {
		for c := 0; c < 3; c++ {
			inter[a][c] = mc.Sanitize(r[3*a+c])
			real[a][c] = mc.Sanitize(r[9+3*a+c])
		}
	}
	return
}

//MoleculeEnergy returns the interaction of mol, placed at pos, with the other molecules
//in box. The neighbours' coupling is applied, the molecule's own is not. Neighbours that are
//decoupled from the box are ignored, and overlap is true if any other atom is closer than
//the box's hard-core distance.
func (E *Engine) MoleculeEnergy(pos *v3.Matrix, mol, box int) (lj, real float64, overlap bool) {
	S := E.S
	b := S.Boxes[box]
	if !b.Interacting {
		return 0, 0, false
	}
	K := S.Kinds[S.Mols.Kind(mol)]
	low := b.RCutLow * b.RCutLow
	for a := 0; a < pos.NVecs(); a++ {
		p := pos.Vec3(a)
		for j := range E.cells.EnumerateLocal(p, box) {
			m := S.AtomMol(j)
			if m == mol {
				continue
			}
			scale := S.Lambda.Lambda(m, box)
			if scale == 0 {
				continue
			}
			in, d2, _ := b.InRcut(p, S.Pos(j))
			if !in {
				continue
			}
			if d2 < low {
				overlap = true
			}
			elj, ereal, _, _ := E.terms(box, K.Types[a], S.AtomType(j), K.Charges[a]*S.Charge(j), d2, scale)
			lj += elj
			real += ereal
		}
	}
	return mc.Sanitize(lj), mc.Sanitize(real), overlap
}

//MoleculeInter returns the change in the pair energies of box when mol moves
//from its current coordinates to newPos. overlap refers to the new position.
func (E *Engine) MoleculeInter(newPos *v3.Matrix, mol, box int) (float64, float64, bool) {
	own := E.S.Lambda.Lambda(mol, box)
	ljN, realN, overlap := E.MoleculeEnergy(newPos, mol, box)
	ljO, realO, _ := E.MoleculeEnergy(E.S.MolCoords(mol), mol, box)
	return mc.Sanitize(own * (ljN - ljO)), mc.Sanitize(math.Sqrt(own) * (realN - realO)), overlap
}
