/*
 * potential.go, part of gomc.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"fmt"
	"math"
)

//BigNum replaces energies that evaluate to NaN, so the move that
//produced them is rejected instead of corrupting the totals.
const BigNum = 1.0e20

//Sanitize returns BigNum if x is NaN, and x otherwise.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) {
		return BigNum
	}
	return x
}

//Energy is the additive decomposition of the potential energy of a box.
type Energy struct {
	Inter        float64 //Lennard-Jones
	Real         float64 //real-space Coulomb
	Recip        float64
	Self         float64
	Correction   float64 //intramolecular reciprocal-space exclusion
	Tail         float64
	IntraBond    float64
	IntraNonbond float64
}

//Total returns the sum of all the components.
func (E Energy) Total() float64 {
	return E.Inter + E.Real + E.Recip + E.Self + E.Correction + E.Tail + E.IntraBond + E.IntraNonbond
}

//Add returns the component-wise sum of E and o.
func (E Energy) Add(o Energy) Energy {
	return Energy{
		Inter:        E.Inter + o.Inter,
		Real:         E.Real + o.Real,
		Recip:        E.Recip + o.Recip,
		Self:         E.Self + o.Self,
		Correction:   E.Correction + o.Correction,
		Tail:         E.Tail + o.Tail,
		IntraBond:    E.IntraBond + o.IntraBond,
		IntraNonbond: E.IntraNonbond + o.IntraNonbond,
	}
}

//Sub returns the component-wise difference E - o.
func (E Energy) Sub(o Energy) Energy {
	return E.Add(o.Scale(-1))
}

//Scale returns E with every component multiplied by f.
func (E Energy) Scale(f float64) Energy {
	return Energy{E.Inter * f, E.Real * f, E.Recip * f, E.Self * f, E.Correction * f, E.Tail * f, E.IntraBond * f, E.IntraNonbond * f}
}

//Sanitized returns E with every NaN component replaced by BigNum.
func (E Energy) Sanitized() Energy {
	return Energy{Sanitize(E.Inter), Sanitize(E.Real), Sanitize(E.Recip), Sanitize(E.Self), Sanitize(E.Correction), Sanitize(E.Tail), Sanitize(E.IntraBond), Sanitize(E.IntraNonbond)}
}

func (E Energy) String() string {
	return fmt.Sprintf("LJ: %.6g Real: %.6g Recip: %.6g Self: %.6g Corr: %.6g Tail: %.6g Bond: %.6g IntraNB: %.6g Total: %.6g",
		E.Inter, E.Real, E.Recip, E.Self, E.Correction, E.Tail, E.IntraBond, E.IntraNonbond, E.Total())
}

//Virial holds the virial tensors of a box, in the units of r.f, and the tail
//virial, which is isotropic.
type Virial struct {
	Inter [3][3]float64
	Real  [3][3]float64
	Recip [3][3]float64
	Tail  float64
}

//Total returns the trace of the full virial tensor, tail included.
func (V Virial) Total() float64 {
	t := V.Tail
	for i := 0; i < 3; i++ {
		t += V.Inter[i][i] + V.Real[i][i] + V.Recip[i][i]
	}
	return t
}

//Tensor returns the sum of the three tensors, with the tail spread on the diagonal.
func (V Virial) Tensor() [3][3]float64 {
	var t [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = V.Inter[i][j] + V.Real[i][j] + V.Recip[i][j]
		}
		t[i][i] += V.Tail / 3
	}
	return t
}

//SystemPotential is the potential energy and virial of every box.
type SystemPotential struct {
	Box []Energy
	Vir []Virial
}

//NewSystemPotential returns a zero potential for nbox boxes.
func NewSystemPotential(nbox int) SystemPotential {
	return SystemPotential{Box: make([]Energy, nbox), Vir: make([]Virial, nbox)}
}

//Total returns the sum of the energies of all boxes.
func (P SystemPotential) Total() Energy {
	var t Energy
	for _, e := range P.Box {
		t = t.Add(e)
	}
	return t
}

//Copy returns a deep copy of P.
func (P SystemPotential) Copy() SystemPotential {
	r := NewSystemPotential(len(P.Box))
	copy(r.Box, P.Box)
	copy(r.Vir, P.Vir)
	return r
}
