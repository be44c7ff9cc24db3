package ff

import (
	"math"
	"testing"

	mc "github.com/rmera/gomc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ mc.ForceField = (*Table)(nil)

func TestLJMinimum(Te *testing.T) {
	T := New([]LJType{{"Ar", 3.4, 120}, {"Ne", 2.8, 36}}, 10)
	rmin := math.Pow(2, 1.0/6) * 3.4
	e, v := T.LJ(rmin*rmin, 0, 0)
	assert.InDelta(Te, -120, e, 1e-9)
	assert.InDelta(Te, 0, v, 1e-9)
	//virial is -(1/r) du/dr, check against a finite difference
	r, h := 3.9, 1e-6
	ep, _ := T.LJ((r+h)*(r+h), 0, 1)
	em, _ := T.LJ((r-h)*(r-h), 0, 1)
	_, vir := T.LJ(r*r, 0, 1)
	assert.InDelta(Te, -(ep-em)/(2*h)/r, vir, 1e-5)
	i, err := T.TypeIndex("Ne")
	require.NoError(Te, err)
	assert.Equal(Te, 1, i)
	_, err = T.TypeIndex("Xe")
	assert.ErrorIs(Te, err, mc.ErrConfig)
}

func TestTailMatchesIntegral(Te *testing.T) {
	T := New([]LJType{{"A", 3.0, 100}}, 9)
	en, vir := T.PairTail(0, 0)
	//2 pi int_rc^inf r^2 u(r) dr, and the same for -r du/dr
	var ie, iv float64
	dr := 0.001
	for r := 9 + dr/2; r < 400; r += dr {
		e, v := T.LJ(r*r, 0, 0)
		ie += 2 * math.Pi * r * r * e * dr
		iv += 2 * math.Pi * r * r * (v * r * r) * dr
	}
	assert.InDelta(Te, ie, en, math.Abs(en)*1e-4)
	assert.InDelta(Te, iv, vir, math.Abs(vir)*1e-4)
}

func TestCoulomb(Te *testing.T) {
	T := New([]LJType{{"A", 3.0, 100}}, 9)
	e, v := T.Coulomb(4, 1, 0)
	assert.Zero(Te, e)
	assert.Zero(Te, v)
	T.SetElectrostatics(true)
	e, _ = T.Coulomb(4, -1, 0)
	assert.InDelta(Te, -QQFact/2, e, 1e-9)
	T.SetEwald([]float64{0.3}, []float64{1.2})
	e, v = T.Coulomb(4, 1, 1)
	assert.InDelta(Te, QQFact*math.Erfc(0.6)/2, e, 1e-9)
	assert.Greater(Te, v, 0.0)
	assert.Equal(Te, 0.3, T.Alpha(1))
	assert.True(Te, T.Ewald())
}

func TestSigmaMixing(Te *testing.T) {
	T := New([]LJType{{"A", 3.0, 100}, {"B", 4.0, 25}}, 9)
	assert.InDelta(Te, 3.5, T.Sigma(0, 1), 1e-12)
	assert.InDelta(Te, 3.5, T.Sigma(1, 0), 1e-12)
	assert.InDelta(Te, 4.0, T.Sigma(1, 1), 1e-12)
	e, _ := T.LJ(3.5*3.5, 0, 1)
	assert.InDelta(Te, 0, e, 1e-9)
}
