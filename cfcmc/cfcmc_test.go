package cfcmc

import (
	"bytes"
	"math"
	"strings"
	"testing"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/calc"
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

var _ mc.Move = (*Move)(nil)

func TestCoefficients(Te *testing.T) {
	g := GEMC{}
	s := Step{Source: 0, Dest: 1, Window: 10, NSource: 4, NDest: 2, VSource: 1000, VDest: 500, Beta: 1.0 / 300}
	out := s
	out.Old, out.New = 10, 9
	assert.InDelta(Te, 0.5*5.0/1000, g.Coefficient(out), 1e-15)
	in := s
	in.Old, in.New = 1, 0
	assert.InDelta(Te, 2*500.0/3, g.Coefficient(in), 1e-12)
	mid := s
	mid.Old, mid.New = 5, 6
	assert.Equal(Te, 1.0, g.Coefficient(mid))
	one := s
	one.Window, one.Old, one.New = 1, 1, 0
	assert.InDelta(Te, 5.0/1000*500.0/3, g.Coefficient(one), 1e-12)

	G := NewGCMC(1)
	assert.True(Te, G.Reservoir(1))
	assert.False(Te, G.Biased(1))
	assert.True(Te, G.Biased(0))
	s.ChemPot = -600
	ins := s
	ins.Source, ins.Dest = 1, 0
	ins.VDest = 1000
	ins.Old, ins.New = 10, 9
	assert.InDelta(Te, 0.5, G.Coefficient(ins), 1e-15)
	ins.Old, ins.New = 1, 0
	assert.InDelta(Te, 2*1000.0/3*math.Exp(-2), G.Coefficient(ins), 1e-12)
	del := s
	del.Old, del.New = 10, 9
	assert.InDelta(Te, 0.5*5.0/1000*math.Exp(2), G.Coefficient(del), 1e-15)
	del.Old, del.New = 1, 0
	assert.InDelta(Te, 2.0, G.Coefficient(del), 1e-15)

	//a step and its reverse, with the same populations, cancel out
	for _, P := range []Policy{g, G} {
		for _, src := range []int{0, 1} {
			for old := 0; old <= 10; old++ {
				for _, nw := range []int{old - 1, old + 1} {
					if nw < 0 || nw > 10 {
						continue
					}
					st := s
					st.Source, st.Dest = src, 1-src
					st.Old, st.New = old, nw
					back := st
					back.Old, back.New = nw, old
					c := P.Coefficient(st)
					assert.Greater(Te, c, 0.0)
					assert.InDelta(Te, 1, c*P.Coefficient(back), 1e-12)
				}
			}
		}
	}
}

func TestAccept(Te *testing.T) {
	for _, d := range []float64{0, 0.1, 0.5, 0.999} {
		for _, r := range []float64{0, 0.05, 0.5, 1, 3, math.Inf(1)} {
			assert.Equal(Te, d < math.Min(1, r), accept(d, r), "draw %g ratio %g", d, r)
		}
		assert.False(Te, accept(d, math.NaN()))
	}
}

func TestBiasFlattening(Te *testing.T) {
	opts := DefaultOptions()
	opts.Window(2)
	opts.HistFreq(6)
	opts.Nu(0.1)
	opts.NuTol(0.02)
	B := NewBias(2, 1, opts, func(b int) bool { return b == 0 }, nil)
	for i := 0; i < 6; i++ {
		flat := B.Visit(0, 0, i%3)
		assert.Equal(Te, i == 5, flat)
		if i < 5 {
			assert.Equal(Te, i+1, B.Visits.Total(0, 0))
		}
	}
	assert.Equal(Te, 0.05, B.Nu[0])
	assert.Equal(Te, 0, B.Visits.Total(0, 0))
	assert.Equal(Te, []float64{0, 0, 0}, B.Visits.View(0, 0).View())
	for _, v := range B.Values[0][0] {
		assert.InDelta(Te, -0.2, v, 1e-12)
	}
	//the reservoir learns nothing
	assert.False(Te, B.Visit(0, 1, 1))
	assert.Equal(Te, 0, B.Visits.Total(1, 0))
	assert.Equal(Te, []float64{0, 0, 0}, B.Values[1][0])

	//not flat at 12 visits, flat at 18
	prev := 0
	for i := 0; i < 18; i++ {
		flat := B.Visit(0, 0, i/6)
		assert.Equal(Te, i == 17, flat)
		if i < 17 {
			assert.Greater(Te, B.Visits.Total(0, 0), prev)
			prev = B.Visits.Total(0, 0)
		}
	}
	assert.Equal(Te, 0.025, B.Nu[0])
	assert.InDelta(Te, -0.5, B.Values[0][0][0], 1e-12)
	c := B.Coefficient(0, 0, 1, 2, 1)
	assert.InDelta(Te, math.Exp(B.Values[0][0][1]-B.Values[0][0][2]), c, 1e-12)

	for i := 0; i < 6; i++ {
		B.Visit(0, 0, i%3)
	}
	assert.Equal(Te, 0.0125, B.Nu[0])
	assert.True(Te, B.Frozen(0))
	frozen := append([]float64(nil), B.Values[0][0]...)
	assert.False(Te, B.Visit(0, 0, 1))
	assert.Equal(Te, 0, B.Visits.Total(0, 0))
	assert.Equal(Te, frozen, B.Values[0][0])

	var buf bytes.Buffer
	require.NoError(Te, B.Save(&buf))
	L := NewBias(2, 1, opts, func(b int) bool { return b == 0 }, nil)
	require.NoError(Te, L.Load(bytes.NewReader(buf.Bytes())))
	assert.Equal(Te, B.Nu, L.Nu)
	assert.Equal(Te, B.Values, L.Values)
	wide := DefaultOptions()
	wide.Window(4)
	L = NewBias(2, 1, wide, func(b int) bool { return true }, nil)
	err := L.Load(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(Te, err, mc.ErrConfig)
}

//argon returns a simulation box, box 0, with nsim atoms and a non-interacting
//reservoir, box 1, with nres.
func argon(Te *testing.T, nsim, nres int, seed uint64) (*calc.Calculator, *cell.List, *rng.Source) {
	T := ff.New([]ff.LJType{{Name: "Ar", Sigma: 3.4, Epsilon: 120}}, 8)
	t, _ := v3.NewMatrix([]float64{0, 0, 0})
	K := &mc.Kind{Name: "Ar", Types: []int{0}, Charges: []float64{0}, Masses: []float64{40}, Template: t, Transferable: true}
	K.ChemPot = 300 * math.Log(1.0/8000)
	T.TailCoefficients([]*mc.Kind{K})
	sim := mc.NewOrthoBox(0, [3]float64{20, 20, 20}, 8, 2.5)
	res := mc.NewOrthoBox(1, [3]float64{20, 20, 20}, 8, 2.5)
	res.Interacting = false
	S := mc.NewSystem([]*mc.Box{sim, res}, []*mc.Kind{K}, mc.GCMC, 300)
	r := rng.New(seed)
	for i := 0; i < nres; i++ {
		p := r.PointInBox(res)
		c, _ := v3.NewMatrix([]float64{p[0], p[1], p[2]})
		_, err := S.AddMolecule(0, 1, c)
		require.NoError(Te, err)
	}
	for S.Mols.Count(0, 0) < nsim {
		p := r.PointInBox(sim)
		ok := true
		for _, m := range S.Mols.Members(0, 0) {
			if d2, _ := sim.DistSq(p, S.Mols.COM(m)); d2 < 9 {
				ok = false
			}
		}
		if !ok {
			continue
		}
		c, _ := v3.NewMatrix([]float64{p[0], p[1], p[2]})
		_, err := S.AddMolecule(0, 0, c)
		require.NoError(Te, err)
	}
	L := cell.New(S)
	C := calc.New(S, pair.New(S, L, T, nil), ewald.For(S, T, nil, nil), tail.New(S.Kinds), nil, nil)
	require.NoError(Te, C.Recip.Init())
	P, err := C.SystemTotal()
	require.NoError(Te, err)
	S.Potential = P
	return C, L, r
}

//consistent checks that no molecule is left fractional, and that every molecule
//is fully coupled to the box it belongs to and has its atoms in that box's cells.
func consistent(Te *testing.T, S *mc.System, L *cell.List) {
	for b := range S.Boxes {
		for k := range S.Kinds {
			_, ok := S.Lambda.Fractional(k, b)
			assert.False(Te, ok)
		}
	}
	for m := 0; m < S.Mols.Len(); m++ {
		box := S.Mols.Box(m)
		for b := range S.Boxes {
			want := 0.0
			if b == box {
				want = 1
			}
			assert.Equal(Te, want, S.Lambda.Lambda(m, b))
		}
		s, e := S.Mols.Range(m)
		for i := s; i < e; i++ {
			assert.Equal(Te, box, L.Box(i))
		}
	}
}

func TestGCMCTransfers(Te *testing.T) {
	C, L, r := argon(Te, 0, 100, 5)
	S := C.S
	opts := DefaultOptions()
	opts.Window(10)
	opts.RelaxSteps(2)
	opts.Nu(0.5)
	M, err := New(C, L, r, NewGCMC(1), opts, nil)
	require.NoError(Te, err)
	steps := 0
	M.Observer = func(l Ladder) {
		steps++
		assert.InDelta(Te, 1, l.LambdaSource+l.LambdaDest, 1e-12)
		assert.LessOrEqual(Te, l.LambdaSource, 1.0)
		assert.GreaterOrEqual(Te, l.LambdaSource, 0.0)
		assert.Equal(Te, 1, abs(l.New-l.Old))
		if l.Old == 10 {
			assert.Equal(Te, 9, l.New)
		}
	}
	moved := [2]int{}
	for i := 0; i < 400; i++ {
		o, err := mc.Attempt(M, uint64(i))
		require.NoError(Te, err)
		if o == mc.Accepted {
			moved[M.dst]++
		}
		assert.Equal(Te, 100, S.Mols.Count(0, 0)+S.Mols.Count(0, 1))
	}
	consistent(Te, S, L)
	assert.Greater(Te, moved[0], 0)
	assert.Equal(Te, moved[0]-moved[1], S.Mols.Count(0, 0))
	assert.Equal(Te, 100-moved[0]+moved[1], S.Mols.Count(0, 1))
	assert.Equal(Te, uint64(moved[0]), M.Stats.Accepted[0][0])
	assert.Equal(Te, uint64(moved[1]), M.Stats.Accepted[0][1])
	assert.Equal(Te, M.Stats.Steps, uint64(steps))
	//the reservoir histogram is never touched
	assert.Equal(Te, 0, M.Bias.Visits.Total(1, 0))
	_, err = C.CheckDrift(S.Potential, 1e-6)
	assert.NoError(Te, err)

	var rep strings.Builder
	require.NoError(Te, M.Stats.Report(&rep, S, M.Bias))
	assert.Contains(Te, rep.String(), "Kind Ar")
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func TestEmptyReservoir(Te *testing.T) {
	C, L, r := argon(Te, 0, 0, 9)
	M, err := New(C, L, r, NewGCMC(1), nil, nil)
	require.NoError(Te, err)
	//an empty simulation box only skips the attempt
	var critical error
	for i := 0; i < 64 && critical == nil; i++ {
		o, err := mc.Attempt(M, uint64(i))
		assert.Equal(Te, mc.NoMolecule, o)
		critical = err
	}
	require.Error(Te, critical)
	assert.ErrorIs(Te, critical, mc.ErrNoEligibleMolecule)
	assert.True(Te, mc.IsCritical(critical))

	_, err = New(C, L, r, GEMC{}, nil, nil)
	assert.NoError(Te, err)
	C.S.Kinds[0].Transferable = false
	_, err = New(C, L, r, GEMC{}, nil, nil)
	assert.ErrorIs(Te, err, mc.ErrConfig)
}

//gibbs returns two interacting boxes with n charged diatomics each.
func gibbs(Te *testing.T, n int, seed uint64) (*calc.Calculator, *cell.List, *rng.Source) {
	T := ff.New([]ff.LJType{{Name: "C", Sigma: 3.4, Epsilon: 80}, {Name: "O", Sigma: 3.0, Epsilon: 90}}, 9)
	T.SetElectrostatics(true)
	T.SetEwald([]float64{0.28, 0.28}, []float64{1.3, 1.3})
	t, _ := v3.NewMatrix([]float64{0, 0, 0, 1.13, 0, 0})
	K := &mc.Kind{Name: "CO", Types: []int{0, 1}, Charges: []float64{0.3, -0.3}, Masses: []float64{12, 16}, Template: t, Transferable: true}
	T.TailCoefficients([]*mc.Kind{K})
	boxes := []*mc.Box{mc.NewOrthoBox(0, [3]float64{24, 24, 24}, 9, 1.2), mc.NewOrthoBox(1, [3]float64{26, 26, 26}, 9, 1.2)}
	S := mc.NewSystem(boxes, []*mc.Kind{K}, mc.GEMC, 300)
	r := rng.New(seed)
	for b, box := range boxes {
		for S.Mols.Count(0, b) < n {
			c := S.Relocate(mc.RotateAbout(t, [3]float64{}, mc.RandomUnitVector(r), mc.RandomAngle(r)), [3]float64{}, r.PointInBox(box), b)
			ok := true
			for a := 0; a < 2; a++ {
				for _, m := range S.Mols.Members(0, b) {
					s, e := S.Mols.Range(m)
					for j := s; j < e; j++ {
						if d2, _ := box.DistSq(c.Vec3(a), S.Pos(j)); d2 < 9 {
							ok = false
						}
					}
				}
			}
			if ok {
				_, err := S.AddMolecule(0, b, c)
				require.NoError(Te, err)
			}
		}
	}
	L := cell.New(S)
	R := ewald.New(S, T, nil, nil)
	require.NoError(Te, R.Init())
	C := calc.New(S, pair.New(S, L, T, nil), R, tail.New(S.Kinds), nil, nil)
	P, err := C.SystemTotal()
	require.NoError(Te, err)
	S.Potential = P
	return C, L, r
}

func TestDrift(Te *testing.T) {
	C, L, r := gibbs(Te, 20, 21)
	S := C.S
	opts := DefaultOptions()
	opts.Window(5)
	opts.RelaxSteps(10)
	opts.Nu(1)
	M, err := New(C, L, r, GEMC{}, opts, nil)
	require.NoError(Te, err)
	relaxed := func() uint64 { return M.Stats.RelaxAccepted[0] + M.Stats.RelaxAccepted[1] }
	for i := 0; relaxed() < 10000 && i < 20000; i++ {
		_, err := mc.Attempt(M, uint64(i))
		require.NoError(Te, err)
		if i%200 == 199 {
			_, err = C.CheckDrift(S.Potential, 1e-4)
			require.NoError(Te, err, "attempt %d", i)
		}
	}
	assert.GreaterOrEqual(Te, relaxed(), uint64(10000))
	assert.Equal(Te, 40, S.Mols.Count(0, 0)+S.Mols.Count(0, 1))
	consistent(Te, S, L)
	fresh, err := C.CheckDrift(S.Potential, 1e-4)
	require.NoError(Te, err)
	for b := range S.Boxes {
		assert.InDelta(Te, fresh.Box[b].Total(), S.Potential.Box[b].Total(), 1e-4)
	}
}

func TestRelaxerOnly(Te *testing.T) {
	C, L, r := gibbs(Te, 15, 4)
	S := C.S
	opts := DefaultOptions()
	opts.RelaxSteps(50)
	X := NewRelaxer(C, L, r, opts)
	X.Stats = NewStats(1, 2)
	n := 0
	for i := 0; i < 20; i++ {
		n += X.Relax(0, -1)
	}
	assert.Equal(Te, uint64(1000), X.Stats.Relaxations[0])
	assert.Equal(Te, uint64(n), X.Stats.RelaxAccepted[0])
	assert.Greater(Te, n, 0)
	assert.Less(Te, n, 1000)
	_, err := C.CheckDrift(S.Potential, 1e-5)
	assert.NoError(Te, err)
}

func TestLadderTail(Te *testing.T) {
	C, L, r := gibbs(Te, 10, 23)
	opts := DefaultOptions()
	opts.Window(4)
	opts.RelaxSteps(2)
	M, err := New(C, L, r, GEMC{}, opts, nil)
	require.NoError(Te, err)
	M.kind, M.src, M.dst = 0, 0, 1
	bg := C.TailCounts(0)
	bg[0]--
	src, dst := M.tail(4, 3, 4)
	assert.Equal(Te, C.TailChange(0, 0, bg, false), src)
	assert.Zero(Te, dst)
	src, dst = M.tail(1, 0, 4)
	assert.Zero(Te, src)
	assert.Equal(Te, C.TailChange(0, 1, C.TailCounts(1), true), dst)
	src, dst = M.tail(3, 2, 4)
	assert.Zero(Te, src)
	assert.Zero(Te, dst)
	//a transfer stops when the molecule reaches either end, so no step starts at 0
	M.Observer = func(l Ladder) {
		assert.NotZero(Te, l.Old)
		assert.LessOrEqual(Te, l.Old, 4)
	}
	for i := 0; i < 300; i++ {
		_, err := mc.Attempt(M, uint64(i))
		require.NoError(Te, err)
	}
}
