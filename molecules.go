/*
 * molecules.go, part of gomc.
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
	"math"

	v3 "github.com/rmera/gomc/v3"
)

//Kind is the immutable template of a molecule.
type Kind struct {
	Name         string
	Types        []int     //LJ type of each atom
	Charges      []float64 //partial charge of each atom
	Masses       []float64
	Template     *v3.Matrix //reference geometry
	ChemPot      float64    //chemical potential, in K
	Transferable bool

	//Tail-correction coefficients with every other kind, indexed by the other kind.
	TailEnergy []float64
	TailVirial []float64
}

//Len returns the number of atoms in the kind.
func (K *Kind) Len() int {
	return len(K.Types)
}

//Charged returns true if any atom of the kind carries a charge.
func (K *Kind) Charged() bool {
	for _, q := range K.Charges {
		if math.Abs(q) > ChargeZero {
			return true
		}
	}
	return false
}

//ChargeZero is the magnitude below which a charge is ignored.
const ChargeZero = 1e-9

//Molecules is the table of molecule instances. A molecule is a contiguous
//range of atoms in the coordinate array.
type Molecules struct {
	start   []int //len n+1
	kind    []int
	box     []int
	com     [][3]float64
	members [][][]int //[box][kind] molecule indexes
	slot    []int     //position of each molecule in its member list
}

//NewMolecules returns an empty table for the given numbers of boxes and kinds.
func NewMolecules(nbox, nkind int) *Molecules {
	M := &Molecules{start: []int{0}}
	M.members = make([][][]int, nbox)
	for b := range M.members {
		M.members[b] = make([][]int, nkind)
	}
	return M
}

func (M *Molecules) add(length, kind, box int, com [3]float64) int {
	m := len(M.kind)
	M.start = append(M.start, M.start[m]+length)
	M.kind = append(M.kind, kind)
	M.box = append(M.box, box)
	M.com = append(M.com, com)
	M.slot = append(M.slot, len(M.members[box][kind]))
	M.members[box][kind] = append(M.members[box][kind], m)
	return m
}

//Len returns the number of molecules.
func (M *Molecules) Len() int { return len(M.kind) }

//Range returns the first atom of the molecule and one past its last.
func (M *Molecules) Range(m int) (int, int) {
	if m < 0 || m >= len(M.kind) {
		panic(ErrBadMolecule)
	}
	return M.start[m], M.start[m+1]
}

func (M *Molecules) Kind(m int) int { return M.kind[m] }
func (M *Molecules) Box(m int) int { return M.box[m] }
func (M *Molecules) COM(m int) [3]float64 { return M.com[m] }
func (M *Molecules) SetCOM(m int, c [3]float64) { M.com[m] = c }
func (M *Molecules) Count(kind, box int) int { return len(M.members[box][kind]) }

//Members returns the molecules of a kind in a box. The slice must not be modified.
func (M *Molecules) Members(kind, box int) []int {
	return M.members[box][kind]
}

//Counts returns the population of each kind in the box. If dest is given
//and large enough, it is used for the result.
func (M *Molecules) Counts(box int, dest ...[]int) []int {
	n := len(M.members[box])
	var c []int
	if len(dest) > 0 && len(dest[0]) >= n {
		c = dest[0][:n]
	} else {
		c = make([]int, n)
	}
	for k := range c {
		c[k] = len(M.members[box][k])
	}
	return c
}

//InBox returns the total number of molecules in the box.
func (M *Molecules) InBox(box int) int {
	n := 0
	for _, v := range M.members[box] {
		n += len(v)
	}
	return n
}

//Pick returns a molecule chosen uniformly among those in the box, skipping
//the molecule skip (use -1 to skip none). It returns -1 if there is nothing to pick.
func (M *Molecules) Pick(box int, r Random, skip int) int {
	n := M.InBox(box)
	if skip >= 0 && M.box[skip] == box {
		n--
	}
	if n <= 0 {
		return -1
	}
	i := r.Intn(n)
	for _, v := range M.members[box] {
		for _, m := range v {
			if m == skip {
				continue
			}
			if i == 0 {
				return m
			}
			i--
		}
	}
	return -1
}

//Shift moves molecule m to box. Only the membership changes.
func (M *Molecules) Shift(m, box int) {
	old := M.box[m]
	if old == box {
		return
	}
	k := M.kind[m]
	list := M.members[old][k]
	s := M.slot[m]
	last := list[len(list)-1]
	list[s] = last
	M.slot[last] = s
	M.members[old][k] = list[:len(list)-1]
	M.slot[m] = len(M.members[box][k])
	M.members[box][k] = append(M.members[box][k], m)
	M.box[m] = box
}

//Coupling holds the coupling parameter of each molecule in each box, and
//which molecule, if any, is fractional for each box and kind.
type Coupling struct {
	nbox   int
	lambda []float64 //[mol*nbox+box]
	frac   [][]int   //[box][kind]
}

//NewCoupling returns an empty coupling table.
func NewCoupling(nbox, nkind int) *Coupling {
	C := &Coupling{nbox: nbox}
	C.frac = make([][]int, nbox)
	for b := range C.frac {
		C.frac[b] = make([]int, nkind)
		for k := range C.frac[b] {
			C.frac[b][k] = -1
		}
	}
	return C
}

//add registers a new molecule, fully coupled to box and absent from the others.
func (C *Coupling) add(box int) {
	for b := 0; b < C.nbox; b++ {
		l := 0.0
		if b == box {
			l = 1
		}
		C.lambda = append(C.lambda, l)
	}
}

//Lambda returns the coupling of molecule m in box.
func (C *Coupling) Lambda(m, box int) float64 {
	return C.lambda[m*C.nbox+box]
}

//Coef returns the factor that multiplies the charges of molecule m in box, sqrt(lambda).
func (C *Coupling) Coef(m, box int) float64 {
	return math.Sqrt(C.lambda[m*C.nbox+box])
}

//Set sets the coupling of molecule m in box to l.
func (C *Coupling) Set(m, box int, l float64) {
	C.lambda[m*C.nbox+box] = l
}

//SetFractional marks m as the fractional molecule of its kind in box.
func (C *Coupling) SetFractional(kind, box, m int) {
	C.frac[box][kind] = m
}

//ClearFractional leaves the kind without a fractional molecule in box.
func (C *Coupling) ClearFractional(kind, box int) {
	C.frac[box][kind] = -1
}

//Fractional returns the fractional molecule of kind in box, if there is one.
func (C *Coupling) Fractional(kind, box int) (int, bool) {
	m := C.frac[box][kind]
	return m, m >= 0
}
