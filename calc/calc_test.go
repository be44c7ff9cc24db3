package calc

import (
	"math"
	"testing"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/cell"
	"github.com/rmera/gomc/ewald"
	"github.com/rmera/gomc/ff"
	"github.com/rmera/gomc/pair"
	"github.com/rmera/gomc/rng"
	"github.com/rmera/gomc/tail"
	v3 "github.com/rmera/gomc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//setup returns a calculator over a box of n charged diatomics.
func setup(Te *testing.T, n int, seed uint64) *Calculator {
	T := ff.New([]ff.LJType{{Name: "C", Sigma: 3.4, Epsilon: 80}, {Name: "O", Sigma: 3.0, Epsilon: 90}}, 9)
	T.SetElectrostatics(true)
	T.SetEwald([]float64{0.28}, []float64{1.5})
	t, _ := v3.NewMatrix([]float64{0, 0, 0, 1.13, 0, 0})
	K := &mc.Kind{Name: "CO", Types: []int{0, 1}, Charges: []float64{0.3, -0.3}, Masses: []float64{12, 16}, Template: t, Transferable: true}
	T.TailCoefficients([]*mc.Kind{K})
	box := mc.NewOrthoBox(0, [3]float64{28, 28, 28}, 9, 1.2)
	S := mc.NewSystem([]*mc.Box{box}, []*mc.Kind{K}, mc.NVT, 250)
	r := rng.New(seed)
	for S.Mols.Len() < n {
		c := S.Relocate(mc.RotateAbout(t, [3]float64{}, mc.RandomUnitVector(r), math.Pi*r.Float64()), [3]float64{}, r.PointInBox(box), 0)
		ok := true
		for a := 0; a < 2; a++ {
			for j := 0; j < S.NAtoms(); j++ {
				if d2, _ := box.DistSq(c.Vec3(a), S.Pos(j)); d2 < 9 {
					ok = false
				}
			}
		}
		if ok {
			_, err := S.AddMolecule(0, 0, c)
			require.NoError(Te, err)
		}
	}
	L := cell.New(S)
	R := ewald.New(S, T, nil, nil)
	require.NoError(Te, R.Init())
	return New(S, pair.New(S, L, T, nil), R, tail.New(S.Kinds), nil, nil)
}

func TestSystemTotal(Te *testing.T) {
	C := setup(Te, 50, 1)
	P, err := C.SystemTotal()
	require.NoError(Te, err)
	E := P.Box[0]
	assert.InDelta(Te, E.Inter+E.Real+E.Recip+E.Self+E.Correction+E.Tail, P.Total().Total(), 1e-9)
	assert.Less(Te, E.Tail, 0.0)
	assert.Less(Te, E.Self, 0.0)
	assert.NotZero(Te, E.Recip)
	assert.NotZero(Te, P.Vir[0].Total())
	_, err = C.CheckDrift(P, 1e-8)
	assert.NoError(Te, err)
	off := P.Copy()
	off.Box[0].Inter += 1
	_, err = C.CheckDrift(off, 1e-3)
	assert.ErrorIs(Te, err, ErrDrift)
	assert.False(Te, mc.IsCritical(err))
}

func TestCouplingChangeMatchesRecompute(Te *testing.T) {
	C := setup(Te, 40, 2)
	S := C.S
	before, err := C.SystemTotal()
	require.NoError(Te, err)
	m := 13
	dE, overlap := C.CouplingChange(S.MolCoords(m), m, 0, 1, 0.35)
	assert.False(Te, overlap)
	C.Recip.Commit(0)
	counts := C.TailCounts(0)
	S.Lambda.Set(m, 0, 0.35)
	S.Lambda.SetFractional(0, 0, m)
	after, err := C.SystemTotal()
	require.NoError(Te, err)
	diff := after.Box[0].Sub(before.Box[0])
	assert.InDelta(Te, diff.Inter, dE.Inter, 1e-7)
	assert.InDelta(Te, diff.Real, dE.Real, 1e-7)
	assert.InDelta(Te, diff.Recip, dE.Recip, 1e-7)
	assert.InDelta(Te, diff.Self, dE.Self, 1e-7)
	assert.InDelta(Te, diff.Correction, dE.Correction, 1e-7)
	//the fractional molecule stops counting for the tail
	counts[0]--
	assert.InDelta(Te, diff.Tail, C.TailChange(0, 0, counts, false), 1e-9)
	assert.Equal(Te, counts, C.TailCounts(0))
}

func TestForcesBalance(Te *testing.T) {
	C := setup(Te, 30, 3)
	af, mf := C.BoxForces(0)
	var sa, sm float64
	for i := 0; i < af.NVecs(); i++ {
		sa += af.At(i, 0)
	}
	for i := 0; i < mf.NVecs(); i++ {
		sm += mf.At(i, 2)
	}
	assert.InDelta(Te, 0, sa, 1e-6)
	assert.InDelta(Te, 0, sm, 1e-6)
}

//fill adds charged diatomics to box until it holds n of them, keeping them
//away from the atoms of blocked.
func fill(Te *testing.T, S *mc.System, box, n int, r *rng.Source, blocked *v3.Matrix) {
	b := S.Boxes[box]
	t := S.Kinds[0].Template
	far := func(p [3]float64) bool {
		for i := 0; i < blocked.NVecs(); i++ {
			if d2, _ := b.DistSq(p, blocked.Vec3(i)); d2 < 16 {
				return false
			}
		}
		for _, m := range S.Mols.Members(0, box) {
			s, e := S.Mols.Range(m)
			for j := s; j < e; j++ {
				if d2, _ := b.DistSq(p, S.Pos(j)); d2 < 9 {
					return false
				}
			}
		}
		return true
	}
	for S.Mols.Count(0, box) < n {
		c := S.Relocate(mc.RotateAbout(t, [3]float64{}, mc.RandomUnitVector(r), math.Pi*r.Float64()), [3]float64{}, r.PointInBox(b), box)
		if far(c.Vec3(0)) && far(c.Vec3(1)) {
			_, err := S.AddMolecule(0, box, c)
			require.NoError(Te, err)
		}
	}
}

//A molecule whose stored image belongs to the other box is coupled into one box and
//out of the other. It sits across the periodic boundary of both boxes, and the boxes
//differ in size, so each box must measure the molecule with its own image.
func TestCouplingAcrossBoxes(Te *testing.T) {
	T := ff.New([]ff.LJType{{Name: "C", Sigma: 3.4, Epsilon: 80}, {Name: "O", Sigma: 3.0, Epsilon: 90}}, 9)
	T.SetElectrostatics(true)
	T.SetEwald([]float64{0.28, 0.28}, []float64{1.3, 1.3})
	t, _ := v3.NewMatrix([]float64{0, 0, 0, 1.13, 0, 0})
	K := &mc.Kind{Name: "CO", Types: []int{0, 1}, Charges: []float64{0.3, -0.3}, Masses: []float64{12, 16}, Template: t, Transferable: true}
	T.TailCoefficients([]*mc.Kind{K})
	boxes := []*mc.Box{mc.NewOrthoBox(0, [3]float64{20, 20, 20}, 9, 1.2), mc.NewOrthoBox(1, [3]float64{27, 27, 27}, 9, 1.2)}
	S := mc.NewSystem(boxes, []*mc.Kind{K}, mc.GEMC, 300)
	pos0, _ := v3.NewMatrix([]float64{19.6, 10, 10, 0.73, 10, 10})
	pos1, _ := v3.NewMatrix([]float64{26.6, 10, 10, 0.73, 10, 10})
	r := rng.New(7)
	fill(Te, S, 1, 15, r, pos1)
	m, err := S.AddMolecule(0, 1, pos1)
	require.NoError(Te, err)
	fill(Te, S, 0, 12, r, pos0)
	L := cell.New(S)
	R := ewald.New(S, T, nil, nil)
	require.NoError(Te, R.Init())
	C := New(S, pair.New(S, L, T, nil), R, tail.New(S.Kinds), nil, nil)
	before := []mc.Energy{C.BoxEnergy(0), C.BoxEnergy(1)}
	//the images are the same molecule, but not the same coordinates in the other box
	assert.InDelta(Te, R.Correction(m, 1, 1), R.CorrectionAt(pos0, m, 0, 1), 1e-9)

	var dE [2]mc.Energy
	walk := func(pos *v3.Matrix, box int, ladder []float64) {
		for i := 1; i < len(ladder); i++ {
			d, overlap := C.CouplingChange(pos, m, box, ladder[i-1], ladder[i])
			assert.False(Te, overlap)
			C.Recip.Commit(box)
			S.Lambda.Set(m, box, ladder[i])
			S.Lambda.SetFractional(0, box, m)
			dE[box] = dE[box].Add(d)
		}
	}
	//box 0 while the stored coordinates are the box 1 image
	walk(pos0, 0, []float64{0, 0.2, 0.55, 0.9, 1})
	//box 1 while the stored coordinates are the box 0 image
	S.SetMolCoords(m, pos0, 0)
	walk(pos1, 1, []float64{1, 0.7, 0.35, 0.1, 0})

	S.Mols.Shift(m, 0)
	S.Lambda.ClearFractional(0, 0)
	S.Lambda.ClearFractional(0, 1)
	s, e := S.Mols.Range(m)
	for i := s; i < e; i++ {
		L.RemoveAtom(i, 1)
		L.AddAtom(i, 0, S.Pos(i))
	}
	for b := range boxes {
		diff := C.BoxEnergy(b).Sub(before[b])
		assert.InDelta(Te, diff.Inter, dE[b].Inter, 1e-7, "box %d", b)
		assert.InDelta(Te, diff.Real, dE[b].Real, 1e-7, "box %d", b)
		assert.InDelta(Te, diff.Recip, dE[b].Recip, 1e-7, "box %d", b)
		assert.InDelta(Te, diff.Self, dE[b].Self, 1e-7, "box %d", b)
		assert.InDelta(Te, diff.Correction, dE[b].Correction, 1e-9, "box %d", b)
		assert.NotZero(Te, dE[b].Correction)
	}
}
