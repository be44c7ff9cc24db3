package cell

import (
	"math/rand"
	"testing"

	mc "github.com/rmera/gomc"
	v3 "github.com/rmera/gomc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ mc.CellList = (*List)(nil)

func atoms(Te *testing.T, box *mc.Box, n int, seed int64) *mc.System {
	t, _ := v3.NewMatrix([]float64{0, 0, 0})
	K := &mc.Kind{Name: "A", Types: []int{0}, Charges: []float64{0}, Template: t}
	S := mc.NewSystem([]*mc.Box{box}, []*mc.Kind{K}, mc.NVT, 300)
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		p := box.Cartesian([3]float64{r.Float64(), r.Float64(), r.Float64()})
		c, _ := v3.NewMatrix([]float64{p[0], p[1], p[2]})
		_, err := S.AddMolecule(0, 0, c)
		require.NoError(Te, err)
	}
	return S
}

func withinCutoff(L *List, S *mc.System, box int) map[[2]int]bool {
	got := map[[2]int]bool{}
	b := S.Boxes[box]
	for i, j := range L.EnumeratePairs(box) {
		key := [2]int{i, j}
		if got[key] {
			panic("pair enumerated twice")
		}
		if in, _, _ := b.InRcut(S.Pos(i), S.Pos(j)); in {
			got[key] = true
		}
	}
	return got
}

func brute(S *mc.System, box int) map[[2]int]bool {
	want := map[[2]int]bool{}
	b := S.Boxes[box]
	for i := 0; i < S.NAtoms(); i++ {
		for j := i + 1; j < S.NAtoms(); j++ {
			if in, _, _ := b.InRcut(S.Pos(i), S.Pos(j)); in {
				want[[2]int{i, j}] = true
			}
		}
	}
	return want
}

func TestPairsMatchBruteForce(Te *testing.T) {
	ortho := mc.NewOrthoBox(0, [3]float64{20, 24, 18}, 5, 1)
	tri, err := mc.NewBox(0, [3][3]float64{{22, 0, 0}, {4, 21, 0}, {2, 3, 20}}, 5, 1)
	require.NoError(Te, err)
	small := mc.NewOrthoBox(0, [3]float64{8, 8, 8}, 3.5, 1)
	for _, box := range []*mc.Box{ortho, tri, small} {
		S := atoms(Te, box, 300, 5)
		L := New(S)
		assert.Equal(Te, brute(S, 0), withinCutoff(L, S, 0))
	}
}

func TestLocalAndMembership(Te *testing.T) {
	box := mc.NewOrthoBox(0, [3]float64{20, 20, 20}, 4, 1)
	S := atoms(Te, box, 200, 9)
	L := New(S)
	p := S.Pos(17)
	local := map[int]bool{}
	for j := range L.EnumerateLocal(p, 0) {
		local[j] = true
	}
	for j := 0; j < S.NAtoms(); j++ {
		if in, _, _ := box.InRcut(p, S.Pos(j)); in {
			assert.True(Te, local[j], "neighbour %d missing", j)
		}
	}
	L.RemoveAtom(17, 0)
	assert.Equal(Te, -1, L.Box(17))
	assert.Len(Te, L.Atoms(0), 199)
	for j := range L.EnumerateLocal(p, 0) {
		assert.NotEqual(Te, 17, j)
	}
	L.AddAtom(17, 0, [3]float64{1, 1, 1})
	L.MoveAtom(17, 0, p)
	assert.Len(Te, L.Atoms(0), 200)
	found := false
	for j := range L.EnumerateLocal(p, 0) {
		found = found || j == 17
	}
	assert.True(Te, found)
}
