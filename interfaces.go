/*
 * interfaces.go, part of gomc.
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
	"iter"

	v3 "github.com/rmera/gomc/v3"
)

//CellList enumerates the atoms of a box that may be within the cutoff of each other.
//Pairs from the same molecule are not excluded, callers filter them.
type CellList interface {
	//EnumeratePairs yields every unordered atom pair that shares or neighbours a cell, once.
	//The sequence can be ranged over any number of times.
	EnumeratePairs(box int) iter.Seq2[int, int]

	//EnumerateLocal yields the atoms of the box in the cells around the point p.
	EnumerateLocal(p [3]float64, box int) iter.Seq[int]

	//AddAtom puts the atom, at position p, in the box. RemoveAtom takes it out.
	AddAtom(atom, box int, p [3]float64)
	RemoveAtom(atom, box int)
}

//Random is a stream of uniform draws.
type Random interface {
	Float64() float64 //in [0,1)
	Intn(n int) int   //in [0,n)

	//PointInBox returns a point uniformly distributed in the box's cell.
	PointInBox(b *Box) [3]float64
}

//ForceField is a pure function table with the pair potentials.
//Virials are returned as -(1/r)(du/dr), so the force on i is virial*(ri-rj).
type ForceField interface {
	LJ(distSq float64, ti, tj int) (energy, virial float64)
	Coulomb(distSq, qiqj float64, box int) (energy, virial float64)

	Electrostatics() bool //are there charges at all
	Ewald() bool          //long-range electrostatics through a reciprocal sum
	Alpha(box int) float64
	RecipCutoff(box int) float64
	QQFact() float64
}

//Bonded gives the numeric contribution of the intramolecular terms of a molecule.
type Bonded interface {
	MoleculeIntra(S *System, mol, box int) (bond, nonbond float64)
}

//PairEvaluator computes the short-range pair energies. The CPU engine in package pair
//implements it; any other backend must honour the same numeric contract.
type PairEvaluator interface {
	BoxInter(box int) (lj, real float64)
	BoxForce(box int, atomForce, molForce *v3.Matrix) (lj, real float64)
	BoxVirial(box int) (inter, real [3][3]float64)

	//MoleculeEnergy is the energy of the molecule at pos with its neighbours in box,
	//scaled by the neighbours' coupling but not by the molecule's own.
	MoleculeEnergy(pos *v3.Matrix, mol, box int) (lj, real float64, overlap bool)

	//MoleculeInter is the change in energy of moving mol to newPos.
	MoleculeInter(newPos *v3.Matrix, mol, box int) (dLJ, dReal float64, overlap bool)
}

//Image is a molecule and a set of coordinates for it.
type Image struct {
	Mol    int
	Coords *v3.Matrix
}

//ReciprocalElectrostatics is the long-range electrostatics capability. It has
//two implementations, the Ewald engine and a disabled one for cutoff-only runs.
//All the Delta methods write to a working copy of the structure factors and return
//the energy change with respect to the last committed state. Commit makes the working
//copy the reference, Revert discards it.
type ReciprocalElectrostatics interface {
	Init() error
	Rebuild(box int) error
	FullStructureFactor(box int)
	Energy(box int) float64

	MoleculeDelta(newPos *v3.Matrix, mol, box int) float64
	InsertDelta(pos *v3.Matrix, mol, box int) float64
	DeleteDelta(mol, box int) float64
	SwapDelta(box int, removed, added []Image) float64
	CouplingDelta(pos *v3.Matrix, lambdaOld, lambdaNew float64, mol, box int) float64
	Commit(box int)
	Revert(box int)

	SelfEnergy(box int) float64
	KindSelf(kind, box int) float64
	Correction(mol, box int, lambda float64) float64
	CorrectionAt(pos *v3.Matrix, mol, box int, lambda float64) float64
	BoxCorrection(box int) float64

	Virial(box int) [3][3]float64
	Forces(box int, atomForce, molForce *v3.Matrix)
}

//Outcome is the state a move is left in after each of its stages.
type Outcome int

const (
	Proceed    Outcome = iota
	NoMolecule         //nothing to move, the attempt is skipped
	Rejected
	Accepted
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case NoMolecule:
		return "no-molecule"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	}
	return "unknown"
}

//Move is a Monte Carlo move, attempted by calling its methods in order.
//Only critical errors are returned, and they terminate the run.
type Move interface {
	Prepare() (Outcome, error)
	Execute() (Outcome, error)
	Evaluate()
	Accept(o Outcome, step uint64) error
}

//Attempt runs one attempt of the move m, calling its methods in order, and returns
//the final outcome. Execute and Evaluate are skipped when Prepare finds nothing to move.
func Attempt(m Move, step uint64) (Outcome, error) {
	o, err := m.Prepare()
	if err != nil {
		return o, errDecorate(err, "Attempt")
	}
	if o == Proceed {
		if o, err = m.Execute(); err != nil {
			return o, errDecorate(err, "Attempt")
		}
		m.Evaluate()
	}
	return o, errDecorate(m.Accept(o, step), "Attempt")
}
