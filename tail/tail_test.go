package tail

import (
	"testing"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/ff"
	"github.com/stretchr/testify/assert"
)

func kinds() []*mc.Kind {
	T := ff.New([]ff.LJType{{Name: "C", Sigma: 3.75, Epsilon: 98}, {Name: "O", Sigma: 3.05, Epsilon: 79}}, 10)
	K := []*mc.Kind{
		{Name: "CH4", Types: []int{0}},
		{Name: "CO", Types: []int{0, 1}},
	}
	T.TailCoefficients(K)
	return K
}

func TestDeltaIsExactInverse(Te *testing.T) {
	M := New(kinds())
	for _, counts := range [][]int{{0, 0}, {10, 3}, {250, 77}} {
		for k := 0; k < 2; k++ {
			add := M.DeltaAdd(k, counts, 1/27000.0)
			rem := M.DeltaRemove(k, counts, 1/27000.0)
			assert.Equal(Te, 0.0, add+rem)
			assert.Less(Te, add, 0.0)
		}
	}
}

func TestDeltaMatchesBoxDifference(Te *testing.T) {
	M := New(kinds())
	v := 1 / 15625.0
	counts := []int{40, 12}
	for k := 0; k < 2; k++ {
		after := append([]int(nil), counts...)
		after[k]++
		want := M.BoxEnergy(after, v) - M.BoxEnergy(counts, v)
		assert.InDelta(Te, want, M.DeltaAdd(k, counts, v), 1e-9)
	}
	assert.Less(Te, M.BoxVirial(counts, v), 0.0)
	assert.Zero(Te, M.BoxEnergy([]int{0, 0}, v))
}
