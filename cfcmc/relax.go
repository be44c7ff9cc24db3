/*
 * relax.go, part of gomc.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

package cfcmc

import (
	"math"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/calc"
	v3 "github.com/rmera/gomc/v3"
)

//accept is the Metropolis test: true iff draw < min(1, ratio). A NaN ratio never accepts.
func accept(draw, ratio float64) bool {
	if math.IsNaN(ratio) {
		return false
	}
	return draw < math.Min(1, ratio)
}

//Relaxer runs rigid translation and rotation trials of single molecules, keeping
//the tracked potential, the cell list and the structure factors up to date.
type Relaxer struct {
	S     *mc.System
	C     *calc.Calculator
	Cells mc.CellList
	R     mc.Random
	Stats *Stats //can be nil
	opts  *Options
}

//NewRelaxer returns a relaxer. If opts is nil, DefaultOptions() is used.
func NewRelaxer(C *calc.Calculator, cells mc.CellList, r mc.Random, opts *Options) *Relaxer {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Relaxer{S: C.S, C: C, Cells: cells, R: r, opts: opts}
}

//trial returns new coordinates for m, translated or rotated about its center
//of mass, wrapped into box. Single atoms are only translated.
func (X *Relaxer) trial(m, box int) *v3.Matrix {
	S, R := X.S, X.R
	c := S.Unwrapped(m, box)
	com := S.Mols.COM(m)
	if c.NVecs() == 1 || R.Float64() < 0.5 {
		d := X.opts.MaxDisp()
		to := [3]float64{com[0] + d*(2*R.Float64()-1), com[1] + d*(2*R.Float64()-1), com[2] + d*(2*R.Float64()-1)}
		return S.Relocate(c, com, to, box)
	}
	rot := mc.RotateAbout(c, com, mc.RandomUnitVector(R), X.opts.MaxRot()*(2*R.Float64()-1))
	return S.Relocate(rot, com, com, box)
}

//Trial attempts to move one molecule of box, other than skip (-1 to allow any).
//It returns mc.NoMolecule if there is nothing to move or box is not interacting.
func (X *Relaxer) Trial(box, skip int) mc.Outcome {
	S := X.S
	if !S.Boxes[box].Interacting {
		return mc.NoMolecule
	}
	m := S.Mols.Pick(box, X.R, skip)
	if m < 0 {
		return mc.NoMolecule
	}
	pos := X.trial(m, box)
	dlj, dreal, overlap := X.C.Pair.MoleculeInter(pos, m, box)
	drecip := X.C.Recip.MoleculeDelta(pos, m, box)
	ok := !overlap && accept(X.R.Float64(), math.Exp(-S.Beta*(dlj+dreal+drecip)))
	if X.Stats != nil {
		X.Stats.Relaxed(box, ok)
	}
	if !ok {
		X.C.Recip.Revert(box)
		return mc.Rejected
	}
	S.SetMolCoords(m, pos, box)
	s, e := S.Mols.Range(m)
	for i := s; i < e; i++ {
		X.Cells.RemoveAtom(i, box)
		X.Cells.AddAtom(i, box, S.Pos(i))
	}
	X.C.Recip.Commit(box)
	E := &S.Potential.Box[box]
	E.Inter += dlj
	E.Real += dreal
	E.Recip += drecip
	return mc.Accepted
}

//Relax runs RelaxSteps trials in box, each on a freshly picked molecule other
//than skip. It returns the number of accepted trials.
func (X *Relaxer) Relax(box, skip int) int {
	n := 0
	for i := 0; i < X.opts.RelaxSteps(); i++ {
		o := X.Trial(box, skip)
		if o == mc.NoMolecule {
			break
		}
		if o == mc.Accepted {
			n++
		}
	}
	return n
}
