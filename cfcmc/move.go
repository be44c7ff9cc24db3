/*
 * move.go, part of gomc.
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

//Package cfcmc implements the continuous fractional component transfer move. A molecule
//goes from a source box to a destination box by walking a ladder of coupling values,
//lambda in the source and 1-lambda in the destination, with a Wang-Landau bias that
//flattens the visits to the ladder and relaxation of the other molecules after every step.
package cfcmc

import (
	"fmt"
	"log/slog"
	"math"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/calc"
	v3 "github.com/rmera/gomc/v3"
)

//Move is the transfer move. It implements mc.Move.
type Move struct {
	S        *mc.System
	Calc     *calc.Calculator
	Cells    mc.CellList
	R        mc.Random
	Policy   Policy
	Bias     *Bias
	Relax    *Relaxer
	Stats    *Stats
	Observer Observer //can be nil

	opts  *Options
	log   *slog.Logger
	kinds []int //transferable

	mol, kind, src, dst int
	idx                 int //ladder index, Window is full coupling to src
	placed              int //box whose cell list holds the molecule
	outcome             mc.Outcome
	oldImage, newImage  *v3.Matrix
}

//New returns a transfer move over the system of C. The system needs at least two
//boxes and one transferable kind. If opts is nil, DefaultOptions() is used, and if
//logger is nil, slog.Default().
func New(C *calc.Calculator, cells mc.CellList, r mc.Random, policy Policy, opts *Options, logger *slog.Logger) (*Move, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	S := C.S
	if len(S.Boxes) < 2 {
		return nil, mc.NewError(fmt.Sprintf("Transfers need at least 2 boxes, the system has %d", len(S.Boxes)), true, mc.ErrConfig, "cfcmc.New")
	}
	M := &Move{S: S, Calc: C, Cells: cells, R: r, Policy: policy, opts: opts, log: logger}
	for k, K := range S.Kinds {
		if K.Transferable {
			M.kinds = append(M.kinds, k)
		}
	}
	if len(M.kinds) == 0 {
		return nil, mc.NewError("No transferable molecule kinds", true, mc.ErrConfig, "cfcmc.New")
	}
	M.Bias = NewBias(len(S.Boxes), len(S.Kinds), opts, policy.Biased, logger)
	M.Stats = NewStats(len(S.Kinds), len(S.Boxes))
	M.Relax = NewRelaxer(C, cells, r, opts)
	M.Relax.Stats = M.Stats
	return M, nil
}

//Prepare picks the source and destination boxes, the kind and the molecule.
//A reservoir without molecules of the kind is a critical error, any other
//empty source box makes the attempt a mc.NoMolecule.
func (M *Move) Prepare() (mc.Outcome, error) {
	S := M.S
	n := len(S.Boxes)
	M.src = M.R.Intn(n)
	M.dst = (M.src + 1 + M.R.Intn(n-1)) % n
	M.kind = M.kinds[M.R.Intn(len(M.kinds))]
	members := S.Mols.Members(M.kind, M.src)
	if len(members) == 0 {
		M.outcome = mc.NoMolecule
		if M.Policy.Reservoir(M.src) {
			return mc.NoMolecule, mc.NewError(fmt.Sprintf("Reservoir box %d has no molecules of kind %s", M.src, S.Kinds[M.kind].Name), true, mc.ErrNoEligibleMolecule, "cfcmc.Prepare")
		}
		return mc.NoMolecule, nil
	}
	M.mol = members[M.R.Intn(len(members))]
	M.outcome = mc.Proceed
	return mc.Proceed, nil
}

//Execute builds the image of the molecule in the destination box, with a random
//position and orientation, and walks the ladder until the molecule is fully coupled
//to one of the boxes. It returns mc.Accepted if that box is the destination.
func (M *Move) Execute() (mc.Outcome, error) {
	S := M.S
	M.oldImage = S.MolCoords(M.mol).Clone()
	com := S.Mols.COM(M.mol)
	c := mc.RotateAbout(S.Unwrapped(M.mol, M.src), com, mc.RandomUnitVector(M.R), mc.RandomAngle(M.R))
	M.newImage = S.Relocate(c, com, M.R.PointInBox(S.Boxes[M.dst]), M.dst)
	M.placed = M.src
	S.Lambda.SetFractional(M.kind, M.src, M.mol)
	S.Lambda.SetFractional(M.kind, M.dst, M.mol)

	W := M.opts.Window()
	M.idx = W
	M.visit(W)
	for {
		M.step(W)
		M.relax()
		M.visit(W)
		if M.idx == 0 || M.idx == W {
			break
		}
	}
	M.outcome = mc.Rejected
	if M.idx == 0 {
		M.outcome = mc.Accepted
	}
	return M.outcome, nil
}

//visit updates the bias of both boxes for the current ladder index.
func (M *Move) visit(W int) {
	M.Bias.Visit(M.kind, M.src, M.idx)
	M.Bias.Visit(M.kind, M.dst, W-M.idx)
}

//step proposes and accepts or rejects one step on the ladder.
func (M *Move) step(W int) {
	S := M.S
	old := M.idx
	nw := old - 1
	switch {
	case old == 0:
		nw = 1
	case old < W && M.R.Float64() < 0.5:
		nw = old + 1
	}
	w := float64(W)
	ls, lsNew := float64(old)/w, float64(nw)/w
	Es, ovS := M.Calc.CouplingChange(M.oldImage, M.mol, M.src, ls, lsNew)
	Ed, ovD := M.Calc.CouplingChange(M.newImage, M.mol, M.dst, 1-ls, 1-lsNew)
	Es.Tail, Ed.Tail = M.tail(old, nw, W)
	st := Step{
		Kind:    M.kind,
		Source:  M.src,
		Dest:    M.dst,
		Old:     old,
		New:     nw,
		Window:  W,
		NSource: S.Mols.Count(M.kind, M.src) - 1,
		NDest:   S.Mols.Count(M.kind, M.dst),
		VSource: S.Boxes[M.src].Volume(),
		VDest:   S.Boxes[M.dst].Volume(),
		Beta:    S.Beta,
		ChemPot: S.Kinds[M.kind].ChemPot,
	}
	ratio := M.Policy.Coefficient(st) * M.Bias.Coefficient(M.kind, M.src, M.dst, old, nw) * math.Exp(-S.Beta*(Es.Total()+Ed.Total()))
	ok := !ovS && !ovD && accept(M.R.Float64(), ratio)
	if ok {
		S.Lambda.Set(M.mol, M.src, lsNew)
		S.Lambda.Set(M.mol, M.dst, 1-lsNew)
		S.Potential.Box[M.src] = S.Potential.Box[M.src].Add(Es)
		S.Potential.Box[M.dst] = S.Potential.Box[M.dst].Add(Ed)
		M.Calc.Recip.Commit(M.src)
		M.Calc.Recip.Commit(M.dst)
		M.idx = nw
	} else {
		M.Calc.Recip.Revert(M.src)
		M.Calc.Recip.Revert(M.dst)
	}
	M.Stats.Step(ok)
	if M.Observer != nil {
		M.Observer(Ladder{
			Mol:          M.mol,
			Kind:         M.kind,
			Source:       M.src,
			Dest:         M.dst,
			Old:          old,
			New:          nw,
			LambdaSource: S.Lambda.Lambda(M.mol, M.src),
			LambdaDest:   S.Lambda.Lambda(M.mol, M.dst),
			Accepted:     ok,
		})
	}
}

//tail returns the tail energy changes of the source and destination boxes for a step
//from old to nw. A molecule only counts for the tail of a box where it is fully coupled.
func (M *Move) tail(old, nw, W int) (src, dst float64) {
	C := M.Calc
	switch {
	case old == W && nw < W:
		bg := C.TailCounts(M.src)
		bg[M.kind]--
		src = C.TailChange(M.kind, M.src, bg, false)
	case old < W && nw == W:
		src = C.TailChange(M.kind, M.src, C.TailCounts(M.src), true)
	}
	//the ladder ends once the molecule is fully coupled to dst, so it never leaves index 0
	if old > 0 && nw == 0 {
		dst = C.TailChange(M.kind, M.dst, C.TailCounts(M.dst), true)
	}
	return src, dst
}

//place puts the coordinates of the molecule and its atoms in the cell list of box,
//with the image img.
func (M *Move) place(img *v3.Matrix, box int) {
	if M.placed == box {
		return
	}
	S := M.S
	S.SetMolCoords(M.mol, img, box)
	s, e := S.Mols.Range(M.mol)
	for i := s; i < e; i++ {
		M.Cells.RemoveAtom(i, M.placed)
		M.Cells.AddAtom(i, box, S.Pos(i))
	}
	M.placed = box
}

//relax runs the relaxation trials of the source and destination boxes. The molecule
//is placed in each box before its trials, so the others see it there.
func (M *Move) relax() {
	M.place(M.oldImage, M.src)
	M.Relax.Relax(M.src, M.mol)
	M.place(M.newImage, M.dst)
	M.Relax.Relax(M.dst, M.mol)
}

//Evaluate records the outcome of the transfer.
func (M *Move) Evaluate() {
	if M.outcome == mc.NoMolecule || M.outcome == mc.Proceed {
		return
	}
	M.Stats.Transfer(M.kind, M.dst, M.outcome == mc.Accepted)
	M.Stats.SetNu(M.Bias.Nu)
}

//Accept leaves the molecule, with its membership, coordinates and coupling, in the
//box it ended up fully coupled to.
func (M *Move) Accept(o mc.Outcome, step uint64) error {
	if o == mc.NoMolecule || o == mc.Proceed {
		return nil
	}
	S := M.S
	moved := o == mc.Accepted
	if moved {
		S.Mols.Shift(M.mol, M.dst)
		M.place(M.newImage, M.dst)
		M.shiftIntra()
	} else {
		S.Lambda.Set(M.mol, M.src, 1)
		S.Lambda.Set(M.mol, M.dst, 0)
		M.place(M.oldImage, M.src)
	}
	S.Lambda.ClearFractional(M.kind, M.src)
	S.Lambda.ClearFractional(M.kind, M.dst)
	M.log.Debug("transfer", "step", step, "mol", M.mol, "kind", S.Kinds[M.kind].Name, "from", M.src, "to", M.dst, "moved", moved)
	return nil
}

//shiftIntra moves the intramolecular energy of the transferred molecule
//from the source to the destination box.
func (M *Move) shiftIntra() {
	if M.Calc.Bonded == nil {
		return
	}
	S := M.S
	bs, ns := M.Calc.Bonded.MoleculeIntra(S, M.mol, M.src)
	bd, nd := M.Calc.Bonded.MoleculeIntra(S, M.mol, M.dst)
	S.Potential.Box[M.src].IntraBond -= bs
	S.Potential.Box[M.src].IntraNonbond -= ns
	S.Potential.Box[M.dst].IntraBond += bd
	S.Potential.Box[M.dst].IntraNonbond += nd
}
