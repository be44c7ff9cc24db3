/*
 * ewald.go, part of gomc.
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

//Package ewald implements the reciprocal-space part of the Ewald sum, with the self and
//intramolecular correction terms, and incremental updates of the structure factors for
//moves that change one or a few molecules.
//
//Each box keeps two generations of structure factors. The reference generation reflects
//the last accepted configuration, and every delta is computed from it into the working
//generation. Commit exchanges the two, Revert just forgets the working one.
package ewald

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	mc "github.com/rmera/gomc"
	v3 "github.com/rmera/gomc/v3"
)

//Options for the Ewald engine.
type Options struct {
	cpus   int
	excess float64
}

//DefaultOptions uses all logical CPUs and an image excess chosen from the ensemble.
func DefaultOptions() *Options {
	return &Options{cpus: runtime.NumCPU()}
}

//Cpus returns the number of goroutines used in the k-vector reductions,
//and sets it to a new value, if given.
func (O *Options) Cpus(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.cpus = n[0]
	}
	return O.cpus
}

//Excess returns the factor by which the structure factor arrays are larger than the
//largest initial image count, and sets it, if given. Zero means a value chosen from the
//ensemble: 1.25 for GEMC, 1.5 for NPT and 1 otherwise.
func (O *Options) Excess(f ...float64) float64 {
	if len(f) > 0 && f[0] >= 0 {
		O.excess = f[0]
	}
	return O.excess
}

func excessFor(e mc.Ensemble) float64 {
	switch e {
	case mc.GEMC:
		return 1.25
	case mc.NPT:
		return 1.5
	}
	return 1.0
}

//vectors is a set of reciprocal vectors with their squared norms and energy prefactors.
type vectors struct {
	kx, ky, kz []float64
	hsqr       []float64
	prefact    []float64
	n          int
	kmax       int
}

func newVectors(capacity int) *vectors {
	return &vectors{
		kx:      make([]float64, capacity),
		ky:      make([]float64, capacity),
		kz:      make([]float64, capacity),
		hsqr:    make([]float64, capacity),
		prefact: make([]float64, capacity),
	}
}

func (V *vectors) dot(i int, p [3]float64) float64 {
	return V.kx[i]*p[0] + V.ky[i]*p[1] + V.kz[i]*p[2]
}

//generation is one snapshot of the structure factors of a box.
type generation struct {
	sumR, sumI []float64
	energy     float64
}

type boxState struct {
	vec, spare *vectors
	ref, work  *generation
	dirty      bool
}

//Engine is the Ewald implementation of mc.ReciprocalElectrostatics.
type Engine struct {
	S        *mc.System
	ff       mc.ForceField
	opts     *Options
	log      *slog.Logger
	capacity int
	boxes    []*boxState //nil for non-interacting boxes
}

//New returns an engine for S. Init must be called before use.
func New(S *mc.System, ff mc.ForceField, opts *Options, logger *slog.Logger) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{S: S, ff: ff, opts: opts, log: logger}
}

//Init generates the reciprocal vectors of every box, sizes the arrays to the largest
//image count times the excess factor, and computes the structure factors from scratch.
func (E *Engine) Init() error {
	E.boxes = make([]*boxState, len(E.S.Boxes))
	largest := 0
	for b, box := range E.S.Boxes {
		if !box.Interacting {
			continue
		}
		largest = max(largest, E.generate(b, nil))
	}
	excess := E.opts.Excess()
	if excess <= 0 {
		excess = excessFor(E.S.Ensemble)
	}
	E.capacity = int(math.Ceil(float64(largest) * excess))
	for b, box := range E.S.Boxes {
		if !box.Interacting {
			continue
		}
		st := &boxState{
			vec:   newVectors(E.capacity),
			spare: newVectors(E.capacity),
			ref:   &generation{sumR: make([]float64, E.capacity), sumI: make([]float64, E.capacity)},
			work:  &generation{sumR: make([]float64, E.capacity), sumI: make([]float64, E.capacity)},
		}
		E.boxes[b] = st
		E.generate(b, st.vec)
		E.FullStructureFactor(b)
		E.log.Info("reciprocal vectors", "box", b, "vectors", st.vec.n, "kmax", st.vec.kmax)
	}
	return nil
}

//generate fills dst with the vectors of box, if dst is not nil, and returns how many
//vectors the box needs. Vectors beyond the capacity of dst are counted but not stored.
func (E *Engine) generate(box int, dst *vectors) int {
	b := E.S.Boxes[box]
	rc := E.ff.RecipCutoff(box)
	rc2 := rc * rc
	alpha := E.ff.Alpha(box)
	rec := b.Reciprocal()
	axis := b.Axis()
	var nk [3]int
	for i := range nk {
		nk[i] = int(rc*axis[i]/(2*math.Pi)) + 1
	}
	vol := b.Volume()
	qq := E.ff.QQFact()
	count := 0
	for x := 0; x <= nk[0]; x++ {
		ymin := -nk[1]
		if x == 0 {
			ymin = 0
		}
		for y := ymin; y <= nk[1]; y++ {
			zmin := -nk[2]
			if x == 0 && y == 0 {
				zmin = 1
			}
			for z := zmin; z <= nk[2]; z++ {
				var k [3]float64
				for c := 0; c < 3; c++ {
					k[c] = 2 * math.Pi * (float64(x)*rec[0][c] + float64(y)*rec[1][c] + float64(z)*rec[2][c])
				}
				k2 := k[0]*k[0] + k[1]*k[1] + k[2]*k[2]
				if k2 >= rc2 {
					continue
				}
				if dst != nil && count < len(dst.kx) {
					dst.kx[count], dst.ky[count], dst.kz[count] = k[0], k[1], k[2]
					dst.hsqr[count] = k2
					dst.prefact[count] = qq * math.Exp(-k2/(4*alpha*alpha)) / (k2 * vol / (4 * math.Pi))
				}
				count++
			}
		}
	}
	if dst != nil {
		dst.n = min(count, len(dst.kx))
		dst.kmax = max(nk[0], nk[1], nk[2])
	}
	return count
}

//Rebuild regenerates the vectors of box after a change in its geometry, and recomputes
//its structure factors. It returns a critical error if the box now needs more vectors
//than were allocated.
func (E *Engine) Rebuild(box int) error {
	st := E.boxes[box]
	if st == nil {
		return nil
	}
	n := E.generate(box, st.spare)
	if n > E.capacity {
		return mc.NewError(fmt.Sprintf("box %d needs %d reciprocal vectors, capacity is %d: %s", box, n, E.capacity, mc.ErrImageOverflow), true, mc.ErrImageOverflow, "Rebuild")
	}
	st.vec, st.spare = st.spare, st.vec
	E.FullStructureFactor(box)
	E.log.Debug("reciprocal vectors rebuilt", "box", box, "vectors", st.vec.n)
	return nil
}

//charge is a charged atom at a position, its charge already scaled.
type charge struct {
	p [3]float64
	q float64
}

//boxCharges returns the charged atoms of the molecules that are members of box.
func (E *Engine) boxCharges(box int) []charge {
	S := E.S
	var ret []charge
	for k := range S.Kinds {
		for _, m := range S.Mols.Members(k, box) {
			coef := S.Lambda.Coef(m, box)
			if coef == 0 {
				continue
			}
			s, e := S.Mols.Range(m)
			for i := s; i < e; i++ {
				if q := S.Charge(i); math.Abs(q) > mc.ChargeZero {
					ret = append(ret, charge{S.Pos(i), q * coef})
				}
			}
		}
	}
	return ret
}

//FullStructureFactor recomputes the structure factors of box from every charged atom
//in it, and commits them.
func (E *Engine) FullStructureFactor(box int) {
	st := E.boxes[box]
	if st == nil {
		return
	}
	atoms := E.boxCharges(box)
	V, w := st.vec, st.work
	r := mc.ReduceSlice(V.n, E.opts.Cpus(), 1, func(lo, hi int, acc []float64) {
		for i := lo; i < hi; i++ {
			var sr, si float64
			for _, a := range atoms {
				arg := V.dot(i, a.p)
				sr += a.q * math.Cos(arg)
				si += a.q * math.Sin(arg)
			}
			w.sumR[i], w.sumI[i] = sr, si
			acc[0] += V.prefact[i] * (sr*sr + si*si)
		}
	})
	w.energy = r[0]
	st.dirty = true
	E.Commit(box)
}

//Energy returns the committed reciprocal energy of box.
func (E *Engine) Energy(box int) float64 {
	if st := E.boxes[box]; st != nil {
		return st.ref.energy
	}
	return 0
}

//term is the contribution of one set of coordinates to the change of the structure factors.
type term struct {
	pos  *v3.Matrix
	q    []float64
	coef float64
}

//apply writes ref + sum of the terms into the working generation of box,
//and returns its energy minus the committed one.
func (E *Engine) apply(box int, terms ...term) float64 {
	st := E.boxes[box]
	if st == nil {
		return 0
	}
	type tc struct {
		p [3]float64
		q float64
	}
	var atoms []tc
	for _, t := range terms {
		if t.coef == 0 {
			continue
		}
		for a := 0; a < t.pos.NVecs(); a++ {
			if math.Abs(t.q[a]) > mc.ChargeZero {
				atoms = append(atoms, tc{t.pos.Vec3(a), t.q[a] * t.coef})
			}
		}
	}
	V, ref, w := st.vec, st.ref, st.work
	r := mc.ReduceSlice(V.n, E.opts.Cpus(), 1, func(lo, hi int, acc []float64) {
		for i := lo; i < hi; i++ {
			sr, si := ref.sumR[i], ref.sumI[i]
			for _, a := range atoms {
				arg := V.dot(i, a.p)
				sr += a.q * math.Cos(arg)
				si += a.q * math.Sin(arg)
			}
			w.sumR[i], w.sumI[i] = sr, si
			acc[0] += V.prefact[i] * (sr*sr + si*si)
		}
	})
	w.energy = r[0]
	st.dirty = true
	return mc.Sanitize(w.energy - ref.energy)
}

func (E *Engine) charges(mol int) []float64 {
	return E.S.Kinds[E.S.Mols.Kind(mol)].Charges
}

//MoleculeDelta returns the change in reciprocal energy of moving mol to newPos.
func (E *Engine) MoleculeDelta(newPos *v3.Matrix, mol, box int) float64 {
	coef := E.S.Lambda.Coef(mol, box)
	q := E.charges(mol)
	return E.apply(box, term{newPos, q, coef}, term{E.S.MolCoords(mol), q, -coef})
}

//InsertDelta returns the change of adding mol, fully coupled, at pos.
func (E *Engine) InsertDelta(pos *v3.Matrix, mol, box int) float64 {
	return E.apply(box, term{pos, E.charges(mol), 1})
}

//DeleteDelta returns the change of removing mol, with its current coupling, from box.
func (E *Engine) DeleteDelta(mol, box int) float64 {
	return E.apply(box, term{E.S.MolCoords(mol), E.charges(mol), -E.S.Lambda.Coef(mol, box)})
}

//SwapDelta returns the change of removing and adding several molecules at once.
//Removed images with nil coordinates use the current ones. Added molecules are fully coupled.
func (E *Engine) SwapDelta(box int, removed, added []mc.Image) float64 {
	terms := make([]term, 0, len(removed)+len(added))
	for _, im := range removed {
		c := im.Coords
		if c == nil {
			c = E.S.MolCoords(im.Mol)
		}
		terms = append(terms, term{c, E.charges(im.Mol), -E.S.Lambda.Coef(im.Mol, box)})
	}
	for _, im := range added {
		terms = append(terms, term{im.Coords, E.charges(im.Mol), 1})
	}
	return E.apply(box, terms...)
}

//CouplingDelta returns the change of taking mol, at pos, from coupling lambdaOld
//to lambdaNew in box.
func (E *Engine) CouplingDelta(pos *v3.Matrix, lambdaOld, lambdaNew float64, mol, box int) float64 {
	return E.apply(box, term{pos, E.charges(mol), math.Sqrt(lambdaNew) - math.Sqrt(lambdaOld)})
}

//Commit makes the working generation of box, if it was written since the
//last commit, the reference.
func (E *Engine) Commit(box int) {
	st := E.boxes[box]
	if st == nil || !st.dirty {
		return
	}
	st.ref, st.work = st.work, st.ref
	st.dirty = false
}

//Revert discards the working generation of box.
func (E *Engine) Revert(box int) {
	if st := E.boxes[box]; st != nil {
		st.dirty = false
	}
}

//KindSelf returns the self energy of one fully coupled molecule of kind in box.
func (E *Engine) KindSelf(kind, box int) float64 {
	if E.boxes[box] == nil {
		return 0
	}
	q2 := 0.0
	for _, q := range E.S.Kinds[kind].Charges {
		q2 += q * q
	}
	return -q2 * E.ff.Alpha(box) * E.ff.QQFact() / math.SqrtPi
}

//SelfEnergy returns the self energy of box. The fractional molecule of a kind, if any,
//counts with its coupling instead of as a whole molecule.
func (E *Engine) SelfEnergy(box int) float64 {
	if E.boxes[box] == nil {
		return 0
	}
	S := E.S
	t := 0.0
	for k := range S.Kinds {
		n := float64(S.Mols.Count(k, box))
		if m, ok := S.Lambda.Fractional(k, box); ok {
			if S.Mols.Box(m) == box {
				n--
			}
			n += S.Lambda.Lambda(m, box)
		}
		t += n * E.KindSelf(k, box)
	}
	return t
}

//Correction returns the intramolecular exclusion energy of mol in box at coupling lambda.
//Each charge carries sqrt(lambda), so the pair terms scale with lambda. The stored coordinates
//of mol belong to the box it is a member of, so distances are measured there.
func (E *Engine) Correction(mol, box int, lambda float64) float64 {
	return E.correction(E.S.MolCoords(mol), E.S.Mols.Box(mol), mol, box, lambda)
}

//CorrectionAt is like Correction, but for the coordinates pos, which belong to box.
func (E *Engine) CorrectionAt(pos *v3.Matrix, mol, box int, lambda float64) float64 {
	return E.correction(pos, box, mol, box, lambda)
}

func (E *Engine) correction(c *v3.Matrix, home, mol, box int, lambda float64) float64 {
	if E.boxes[box] == nil {
		return 0
	}
	b := E.S.Boxes[home]
	q := E.charges(mol)
	alpha := E.ff.Alpha(box)
	t := 0.0
	for i := 0; i < c.NVecs(); i++ {
		if math.Abs(q[i]) <= mc.ChargeZero {
			continue
		}
		for j := i + 1; j < c.NVecs(); j++ {
			d2, _ := b.DistSq(c.Vec3(i), c.Vec3(j))
			r := math.Sqrt(d2)
			t -= q[i] * q[j] * math.Erf(alpha*r) / r
		}
	}
	return E.ff.QQFact() * t * lambda
}

//BoxCorrection returns the correction energy of every molecule coupled to box.
func (E *Engine) BoxCorrection(box int) float64 {
	if E.boxes[box] == nil {
		return 0
	}
	S := E.S
	t := 0.0
	for k := range S.Kinds {
		for _, m := range S.Mols.Members(k, box) {
			t += E.Correction(m, box, S.Lambda.Lambda(m, box))
		}
		if m, ok := S.Lambda.Fractional(k, box); ok && S.Mols.Box(m) != box {
			t += E.Correction(m, box, S.Lambda.Lambda(m, box))
		}
	}
	return t
}

//Virial returns the reciprocal-space molecular virial tensor of box, intramolecular term included.
func (E *Engine) Virial(box int) [3][3]float64 {
	var W [3][3]float64
	st := E.boxes[box]
	if st == nil {
		return W
	}
	S := E.S
	alpha := E.ff.Alpha(box)
	constVal := 1 / (4 * alpha * alpha)
	type site struct {
		p, diff [3]float64
		q       float64
	}
	var sites []site
	b := S.Boxes[box]
	for k := range S.Kinds {
		for _, m := range S.Mols.Members(k, box) {
			coef := S.Lambda.Coef(m, box)
			com := S.Mols.COM(m)
			s, e := S.Mols.Range(m)
			for i := s; i < e; i++ {
				q := S.Charge(i)
				if math.Abs(q) <= mc.ChargeZero || coef == 0 {
					continue
				}
				p := b.Unwrap(S.Pos(i), com)
				sites = append(sites, site{p, [3]float64{p[0] - com[0], p[1] - com[1], p[2] - com[2]}, q * coef})
			}
		}
	}
	V, ref := st.vec, st.ref
	r := mc.ReduceSlice(V.n, E.opts.Cpus(), 9, func(lo, hi int, acc []float64) {
		for i := lo; i < hi; i++ {
			k := [3]float64{V.kx[i], V.ky[i], V.kz[i]}
			sr, si := ref.sumR[i], ref.sumI[i]
			factor := V.prefact[i] * (sr*sr + si*si)
			g := 2 * (constVal + 1/V.hsqr[i])
			for a := 0; a < 3; a++ {
				acc[4*a] += factor
				for c := 0; c < 3; c++ {
					acc[3*a+c] -= factor * g * k[a] * k[c]
				}
			}
			for _, s := range sites {
				arg := V.dot(i, s.p)
				f := V.prefact[i] * 2 * (si*math.Cos(arg) - sr*math.Sin(arg)) * s.q
				for a := 0; a < 3; a++ {
					for c := 0; c < 3; c++ {
						acc[3*a+c] += f * k[a] * s.diff[c]
					}
				}
			}
		}
	})
	for a := 0; a < 3; a++ {
		for c := 0; c < 3; c++ {
			W[a][c] = mc.Sanitize(r[3*a+c])
		}
	}
	return W
}

//Forces puts in atomForce and molForce the reciprocal and intramolecular-correction
//forces on the atoms and molecules of box.
func (E *Engine) Forces(box int, atomForce, molForce *v3.Matrix) {
	S := E.S
	if atomForce.NVecs() != S.NAtoms() || molForce.NVecs() != S.Mols.Len() {
		panic(mc.ErrShape)
	}
	var mols []int
	for k := range S.Kinds {
		mols = append(mols, S.Mols.Members(k, box)...)
	}
	for _, m := range mols {
		molForce.SetVec3(m, [3]float64{})
		s, e := S.Mols.Range(m)
		for i := s; i < e; i++ {
			atomForce.SetVec3(i, [3]float64{})
		}
	}
	st := E.boxes[box]
	if st == nil {
		return
	}
	b := S.Boxes[box]
	alpha := E.ff.Alpha(box)
	qq := E.ff.QQFact()
	constVal := 2 * alpha / math.SqrtPi
	V, ref := st.vec, st.ref
	var atoms []int
	for _, m := range mols {
		s, e := S.Mols.Range(m)
		for i := s; i < e; i++ {
			if math.Abs(S.Charge(i)) > mc.ChargeZero {
				atoms = append(atoms, i)
			}
		}
	}
	f := mc.ReduceSlice(len(atoms), E.opts.Cpus(), 3*len(atoms), func(lo, hi int, acc []float64) {
		for n := lo; n < hi; n++ {
			p := atoms[n]
			m := S.AtomMol(p)
			lambda := S.Lambda.Lambda(m, box)
			coef := math.Sqrt(lambda)
			qp := S.Charge(p)
			pos := S.Pos(p)
			var F [3]float64
			s, e := S.Mols.Range(m)
			for j := s; j < e; j++ {
				if j == p {
					continue
				}
				d2, d := b.DistSq(pos, S.Pos(j))
				r := math.Sqrt(d2)
				intra := qq * qp * S.Charge(j) * lambda / d2 * (math.Erf(alpha*r)/r - constVal*math.Exp(-alpha*alpha*d2))
				for c := 0; c < 3; c++ {
					F[c] -= intra * d[c]
				}
			}
			for i := 0; i < V.n; i++ {
				arg := V.dot(i, pos)
				g := 2 * qp * coef * V.prefact[i] * (math.Sin(arg)*ref.sumR[i] - math.Cos(arg)*ref.sumI[i])
				F[0] += g * V.kx[i]
				F[1] += g * V.ky[i]
				F[2] += g * V.kz[i]
			}
			copy(acc[3*n:3*n+3], F[:])
		}
	})
	for n, p := range atoms {
		F := [3]float64{f[3*n], f[3*n+1], f[3*n+2]}
		atomForce.SetVec3(p, F)
		m := S.AtomMol(p)
		M := molForce.Vec3(m)
		molForce.SetVec3(m, [3]float64{M[0] + F[0], M[1] + F[1], M[2] + F[2]})
	}
}
