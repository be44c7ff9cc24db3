/*
 * calc.go, part of gomc.
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

//Package calc puts together the pair, reciprocal, tail and bonded contributions into
//the energy and virial of whole boxes, and the energy changes of coupling steps.
package calc

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/tail"
	v3 "github.com/rmera/gomc/v3"
)

//ErrDrift is the base of the errors returned when the tracked energy has drifted
//away from a full recompute.
var ErrDrift = errors.New("tracked energy drifted from the full recompute")

//Large is the magnitude of a total energy above which a recompute logs a warning.
const Large = 1e12

//Calculator computes full-system energies from its collaborators. Tail and Bonded can be nil,
//which disables the long-range correction and the intramolecular terms, respectively.
type Calculator struct {
	S      *mc.System
	Pair   mc.PairEvaluator
	Recip  mc.ReciprocalElectrostatics
	Tail   *tail.Model
	Bonded mc.Bonded
	log    *slog.Logger
}

//New returns a calculator. If logger is nil, slog.Default() is used.
func New(S *mc.System, pair mc.PairEvaluator, recip mc.ReciprocalElectrostatics, lrc *tail.Model, bonded mc.Bonded, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{S: S, Pair: pair, Recip: recip, Tail: lrc, Bonded: bonded, log: logger}
}

//TailCounts returns the number of fully coupled molecules of each kind in box.
//A fractional molecule does not count until it is fully coupled.
func (C *Calculator) TailCounts(box int) []int {
	S := C.S
	counts := S.Mols.Counts(box)
	for k := range counts {
		if m, ok := S.Lambda.Fractional(k, box); ok && S.Mols.Box(m) == box && S.Lambda.Lambda(m, box) < 1 {
			counts[k]--
		}
	}
	return counts
}

//tailOn returns whether the long-range correction applies to box.
func (C *Calculator) tailOn(box int) bool {
	return C.Tail != nil && C.S.Boxes[box].Interacting
}

//BoxEnergy recomputes the energy of box from scratch. The structure factors of the
//box are rebuilt and committed.
func (C *Calculator) BoxEnergy(box int) mc.Energy {
	S := C.S
	var E mc.Energy
	b := S.Boxes[box]
	if b.Interacting {
		E.Inter, E.Real = C.Pair.BoxInter(box)
		C.Recip.FullStructureFactor(box)
		E.Recip = C.Recip.Energy(box)
		E.Self = C.Recip.SelfEnergy(box)
		E.Correction = C.Recip.BoxCorrection(box)
	}
	if C.tailOn(box) {
		E.Tail = C.Tail.BoxEnergy(C.TailCounts(box), b.VolInv())
	}
	if C.Bonded != nil {
		for k := range S.Kinds {
			for _, m := range S.Mols.Members(k, box) {
				bond, nb := C.Bonded.MoleculeIntra(S, m, box)
				E.IntraBond += bond
				E.IntraNonbond += nb
			}
		}
	}
	return E.Sanitized()
}

//BoxVirial returns the virial of box.
func (C *Calculator) BoxVirial(box int) mc.Virial {
	var V mc.Virial
	b := C.S.Boxes[box]
	if !b.Interacting {
		return V
	}
	V.Inter, V.Real = C.Pair.BoxVirial(box)
	V.Recip = C.Recip.Virial(box)
	if C.tailOn(box) {
		V.Tail = C.Tail.BoxVirial(C.TailCounts(box), b.VolInv())
	}
	return V
}

//BoxForces returns the total forces on the atoms and molecules of box.
//Rows of atoms and molecules in other boxes are zero.
func (C *Calculator) BoxForces(box int) (atomForce, molForce *v3.Matrix) {
	S := C.S
	atomForce, molForce = v3.Zeros(S.NAtoms()), v3.Zeros(S.Mols.Len())
	recA, recM := v3.Zeros(S.NAtoms()), v3.Zeros(S.Mols.Len())
	C.Pair.BoxForce(box, atomForce, molForce)
	C.Recip.Forces(box, recA, recM)
	atomForce.Dense.Add(atomForce.Dense, recA.Dense)
	molForce.Dense.Add(molForce.Dense, recM.Dense)
	return atomForce, molForce
}

//SystemTotal recomputes the energy and virial of every box. The returned error is not
//critical, and signals that some term evaluated to NaN and was replaced by mc.BigNum.
func (C *Calculator) SystemTotal() (mc.SystemPotential, error) {
	P := mc.NewSystemPotential(len(C.S.Boxes))
	var err error
	for b := range C.S.Boxes {
		P.Box[b] = C.BoxEnergy(b)
		P.Vir[b] = C.BoxVirial(b)
		t := P.Box[b].Total()
		if math.Abs(t) >= mc.BigNum {
			err = mc.NewError(fmt.Sprintf("Energy of box %d is not a number", b), false, nil, "SystemTotal")
		}
		if math.Abs(t) > Large {
			C.log.Warn("large total energy", "box", b, "energy", t)
		}
	}
	return P, err
}

//CouplingChange returns the change in the energy of box when mol, at pos, goes from
//coupling lambdaOld to lambdaNew. The reciprocal change is left in the working generation
//of the box, for the caller to commit or revert. overlap is only reported if the molecule
//remains coupled.
func (C *Calculator) CouplingChange(pos *v3.Matrix, mol, box int, lambdaOld, lambdaNew float64) (mc.Energy, bool) {
	var E mc.Energy
	if !C.S.Boxes[box].Interacting {
		return E, false
	}
	lj, real, overlap := C.Pair.MoleculeEnergy(pos, mol, box)
	dl := lambdaNew - lambdaOld
	E.Inter = dl * lj
	E.Real = (math.Sqrt(lambdaNew) - math.Sqrt(lambdaOld)) * real
	E.Recip = C.Recip.CouplingDelta(pos, lambdaOld, lambdaNew, mol, box)
	E.Self = dl * C.Recip.KindSelf(C.S.Mols.Kind(mol), box)
	E.Correction = dl * C.Recip.CorrectionAt(pos, mol, box, 1)
	return E.Sanitized(), overlap && lambdaNew > 0
}

//TailChange returns the tail energy change of adding (or removing) a molecule of kind
//to a box whose other molecules are counts. It is zero if the correction does not apply.
func (C *Calculator) TailChange(kind, box int, counts []int, add bool) float64 {
	if !C.tailOn(box) {
		return 0
	}
	v := C.S.Boxes[box].VolInv()
	if add {
		return C.Tail.DeltaAdd(kind, counts, v)
	}
	return C.Tail.DeltaRemove(kind, counts, v)
}

//CheckDrift recomputes the energy of the system and compares the total of each box with
//the tracked one. It returns the fresh potential, and an error, not critical, if any box
//differs by more than tol.
func (C *Calculator) CheckDrift(tracked mc.SystemPotential, tol float64) (mc.SystemPotential, error) {
	fresh, err := C.SystemTotal()
	if err != nil {
		return fresh, err
	}
	for b := range fresh.Box {
		diff := fresh.Box[b].Total() - tracked.Box[b].Total()
		C.log.Debug("drift check", "box", b, "tracked", tracked.Box[b].Total(), "fresh", fresh.Box[b].Total(), "diff", diff)
		if math.Abs(diff) > tol || math.IsNaN(diff) {
			C.log.Warn("energy drift", "box", b, "diff", diff, "tolerance", tol)
			err = mc.NewError(fmt.Sprintf("Box %d: tracked energy %.8g, recomputed %.8g", b, tracked.Box[b].Total(), fresh.Box[b].Total()), false, ErrDrift, "CheckDrift")
		}
	}
	return fresh, err
}
