/*
 * system.go, part of gomc.
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
	"strings"

	v3 "github.com/rmera/gomc/v3"
	"gonum.org/v1/gonum/mat"
)

//Ensemble is the thermodynamic ensemble of the run.
type Ensemble int

const (
	NVT Ensemble = iota
	NPT
	GEMC
	GCMC
)

func (e Ensemble) String() string {
	return [...]string{"NVT", "NPT", "GEMC", "GCMC"}[e]
}

//ParseEnsemble returns the ensemble with the given name, case-insensitive.
func ParseEnsemble(s string) (Ensemble, error) {
	switch strings.ToUpper(s) {
	case "NVT":
		return NVT, nil
	case "NPT":
		return NPT, nil
	case "GEMC":
		return GEMC, nil
	case "GCMC":
		return GCMC, nil
	}
	return NVT, NewError(fmt.Sprintf("Unknown ensemble %q", s), true, ErrConfig, "ParseEnsemble")
}

//System is the whole simulated state: geometry, molecules and the tracked potential.
type System struct {
	Boxes     []*Box
	Kinds     []*Kind
	Mols      *Molecules
	Coords    *v3.Matrix
	Lambda    *Coupling
	Beta      float64 //1/T, in 1/K
	Ensemble  Ensemble
	Potential SystemPotential

	data       []float64
	atomType   []int
	atomCharge []float64
	atomMol    []int
}

//NewSystem returns a system without molecules.
func NewSystem(boxes []*Box, kinds []*Kind, ensemble Ensemble, temperature float64) *System {
	for i, b := range boxes {
		b.ID = i
	}
	S := &System{
		Boxes:     boxes,
		Kinds:     kinds,
		Mols:      NewMolecules(len(boxes), len(kinds)),
		Lambda:    NewCoupling(len(boxes), len(kinds)),
		Beta:      1 / temperature,
		Ensemble:  ensemble,
		Potential: NewSystemPotential(len(boxes)),
	}
	S.Coords = &v3.Matrix{Dense: &mat.Dense{}}
	return S
}

//AddMolecule adds a molecule of the given kind to box, with the given coordinates,
//which are wrapped into the box. It returns the index of the new molecule.
func (S *System) AddMolecule(kind, box int, coords *v3.Matrix) (int, error) {
	if box < 0 || box >= len(S.Boxes) {
		panic(ErrBadBox)
	}
	K := S.Kinds[kind]
	if coords.NVecs() != K.Len() {
		return -1, NewError(fmt.Sprintf("Molecule of kind %s needs %d atoms, got %d", K.Name, K.Len(), coords.NVecs()), true, ErrConfig, "AddMolecule")
	}
	b := S.Boxes[box]
	com := S.CenterOfMass(coords, kind, box)
	m := S.Mols.add(K.Len(), kind, box, com)
	S.Lambda.add(box)
	for i := 0; i < K.Len(); i++ {
		p := b.Wrap(coords.Vec3(i))
		S.data = append(S.data, p[0], p[1], p[2])
		S.atomType = append(S.atomType, K.Types[i])
		S.atomCharge = append(S.atomCharge, K.Charges[i])
		S.atomMol = append(S.atomMol, m)
	}
	S.Coords = &v3.Matrix{Dense: mat.NewDense(len(S.data)/3, 3, S.data)}
	return m, nil
}

//NAtoms returns the total number of atoms.
func (S *System) NAtoms() int { return len(S.atomMol) }

func (S *System) Pos(i int) [3]float64 { return S.Coords.Vec3(i) }

func (S *System) AtomType(i int) int { return S.atomType[i] }

func (S *System) Charge(i int) float64 { return S.atomCharge[i] }

//AtomMol returns the molecule the atom i belongs to.
func (S *System) AtomMol(i int) int { return S.atomMol[i] }

//MolCoords returns a view of the coordinates of molecule m.
func (S *System) MolCoords(m int) *v3.Matrix {
	s, e := S.Mols.Range(m)
	return S.Coords.View(s, e-s)
}

//SetMolCoords copies c into the coordinates of molecule m, and
//updates its center of mass.
func (S *System) SetMolCoords(m int, c *v3.Matrix, box int) {
	S.MolCoords(m).Copy(c)
	S.Mols.SetCOM(m, S.CenterOfMass(c, S.Mols.Kind(m), box))
}

//CenterOfMass returns the mass-weighted center of the coordinates c, which belong to a molecule of
//the given kind in box. The atoms are unwrapped around the first one, and the result is wrapped.
//Kinds without masses use the geometric center.
func (S *System) CenterOfMass(c *v3.Matrix, kind, box int) [3]float64 {
	K := S.Kinds[kind]
	b := S.Boxes[box]
	ref := c.Vec3(0)
	var com [3]float64
	tot := 0.0
	for i := 0; i < c.NVecs(); i++ {
		w := 1.0
		if len(K.Masses) == K.Len() && K.Masses[i] > 0 {
			w = K.Masses[i]
		}
		p := b.Unwrap(c.Vec3(i), ref)
		for j := range com {
			com[j] += w * p[j]
		}
		tot += w
	}
	for j := range com {
		com[j] /= tot
	}
	return b.Wrap(com)
}

//Unwrapped returns a copy of the coordinates of m made whole around its center of mass.
func (S *System) Unwrapped(m, box int) *v3.Matrix {
	c := S.MolCoords(m).Clone()
	b := S.Boxes[box]
	com := S.Mols.COM(m)
	for i := 0; i < c.NVecs(); i++ {
		c.SetVec3(i, b.Unwrap(c.Vec3(i), com))
	}
	return c
}

//Relocate returns the image of the unwrapped coordinates c, with center of mass from,
//translated to have its center of mass at to, and wrapped into box.
func (S *System) Relocate(c *v3.Matrix, from, to [3]float64, box int) *v3.Matrix {
	ret := v3.Zeros(c.NVecs())
	ret.Translate(c, [3]float64{to[0] - from[0], to[1] - from[1], to[2] - from[2]})
	b := S.Boxes[box]
	for i := 0; i < ret.NVecs(); i++ {
		ret.SetVec3(i, b.Wrap(ret.Vec3(i)))
	}
	return ret
}
