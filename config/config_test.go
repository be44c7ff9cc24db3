package config

import (
	"os"
	"path/filepath"
	"testing"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/cfcmc"
	"github.com/rmera/gomc/clash"
	"github.com/rmera/gomc/ewald"
	"github.com/rmera/gomc/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const gcmcYAML = `
temperature: 300
ensemble: gcmc
seed: 7
cpus: 2
potential:
  cutoff: 9
  hard_core: 1.2
  tail_correction: true
  ewald: true
  alpha: 0.3
  recip_cutoff: 1.3
types:
  - {name: C, sigma: 3.4, epsilon: 80}
  - {name: O, sigma: 3.0, epsilon: 90}
kinds:
  - name: CO
    atoms: [C, O]
    charges: [0.3, -0.3]
    template: [[0, 0, 0], [1.13, 0, 0]]
    chem_pot: -2000
    transferable: true
boxes:
  - {axis: [20, 20, 20], molecules: [10]}
  - {axis: [20, 20, 20], molecules: [30], non_interacting: true}
move:
  window: 5
  reservoir: 1
run:
  moves: 50
`

func write(Te *testing.T, content string) string {
	name := filepath.Join(Te.TempDir(), "run.yaml")
	require.NoError(Te, os.WriteFile(name, []byte(content), 0o644))
	return name
}

func TestLoad(Te *testing.T) {
	c, err := Load(write(Te, gcmcYAML))
	require.NoError(Te, err)
	assert.Equal(Te, 5, c.Move.Window)
	//unset fields keep their defaults
	assert.Equal(Te, 10, c.Move.RelaxSteps)
	assert.Equal(Te, uint64(1000), c.Run.Checkpoint)
	assert.Equal(Te, uint64(50), c.Run.Moves)
	p, err := c.Policy()
	require.NoError(Te, err)
	assert.Equal(Te, 1, p.(cfcmc.GCMC).Bath)
	o := c.Options()
	assert.Equal(Te, 5, o.Window())
	assert.InDelta(Te, 0.95, o.Flatness(), 1e-12)

	_, err = Load(write(Te, "temperature: [1"))
	assert.ErrorIs(Te, err, mc.ErrConfig)
	_, err = Load(filepath.Join(Te.TempDir(), "missing.yaml"))
	assert.ErrorIs(Te, err, mc.ErrConfig)
}

func TestValidate(Te *testing.T) {
	require.NoError(Te, Default().Validate())
	bad := map[string]func(c *Config){
		"temperature": func(c *Config) { c.Temperature = 0 },
		"ensemble":    func(c *Config) { c.Ensemble = "NVT" },
		"unknown":     func(c *Config) { c.Ensemble = "muVT" },
		"cutoff":      func(c *Config) { c.Potential.HardCore = c.Potential.Cutoff },
		"ewald":       func(c *Config) { c.Potential = PotentialConfig{Cutoff: 10, Ewald: true} },
		"type":        func(c *Config) { c.Kinds[0].Atoms[0] = "Kr" },
		"atoms":       func(c *Config) { c.Kinds[0].Charges = nil },
		"mass":        func(c *Config) { c.Types[0].Name, c.Kinds[0].Atoms[0], c.Kinds[0].Masses = "LJ", "LJ", nil },
		"one box":     func(c *Config) { c.Boxes = c.Boxes[:1] },
		"small box":   func(c *Config) { c.Boxes[0].Axis[1] = 15 },
		"counts":      func(c *Config) { c.Boxes[0].Molecules = []int{1, 2} },
		"window":      func(c *Config) { c.Move.Window = 0 },
		"flatness":    func(c *Config) { c.Move.Flatness = 1.5 },
		"reservoir":   func(c *Config) { c.Ensemble = "GCMC" },
		"bath":        func(c *Config) { c.Ensemble, c.Move.Reservoir = "GCMC", 1 },
		"checkpoint":  func(c *Config) { c.Run.Checkpoint = 0 },
	}
	for name, f := range bad {
		c := Default()
		f(c)
		err := c.Validate()
		assert.ErrorIs(Te, err, mc.ErrConfig, name)
		assert.True(Te, mc.IsCritical(err), name)
	}
}

func TestDefaultRoundTrip(Te *testing.T) {
	out, err := yaml.Marshal(Default())
	require.NoError(Te, err)
	c, err := Load(write(Te, string(out)))
	require.NoError(Te, err)
	assert.Equal(Te, Default(), c)
}

func TestBuild(Te *testing.T) {
	c, err := Load(write(Te, gcmcYAML))
	require.NoError(Te, err)
	S, T, err := Build(c, rng.New(c.Seed), nil)
	require.NoError(Te, err)
	assert.Equal(Te, 10, S.Mols.Count(0, 0))
	assert.Equal(Te, 30, S.Mols.Count(0, 1))
	assert.False(Te, S.Boxes[1].Interacting)
	assert.Equal(Te, mc.GCMC, S.Ensemble)
	assert.InDelta(Te, 1.0/300, S.Beta, 1e-15)
	assert.True(Te, T.Ewald())
	assert.NotZero(Te, S.Kinds[0].TailEnergy[0])
	assert.Equal(Te, []float64{12.01, 16.00}, S.Kinds[0].Masses)
	mols := S.Mols.Members(0, 0)
	for i, m := range mols {
		for _, n := range mols[i+1:] {
			d, _ := clash.LowestDist(S.MolCoords(m), S.MolCoords(n), S.Boxes[0])
			assert.GreaterOrEqual(Te, d, c.Run.MinDist)
		}
	}
	C, L, err := Engines(c, S, T, nil)
	require.NoError(Te, err)
	_, ok := C.Recip.(*ewald.Engine)
	assert.True(Te, ok)
	assert.NotNil(Te, C.Tail)
	assert.Len(Te, L.Atoms(0), 20)
	_, err = C.CheckDrift(S.Potential, 1e-9)
	assert.NoError(Te, err)

	M, err := cfcmc.New(C, L, rng.New(3), cfcmc.NewGCMC(1), c.Options(), nil)
	require.NoError(Te, err)
	for i := uint64(0); i < c.Run.Moves; i++ {
		_, err := mc.Attempt(M, i)
		require.NoError(Te, err)
	}
	assert.Equal(Te, 40, S.Mols.Count(0, 0)+S.Mols.Count(0, 1))
	_, err = C.CheckDrift(S.Potential, 1e-4)
	assert.NoError(Te, err)
}

func TestBuildCrowded(Te *testing.T) {
	c := Default()
	c.Boxes[0].Molecules = []int{5000}
	c.Run.PlaceTries = 20
	_, _, err := Build(c, rng.New(1), nil)
	assert.ErrorIs(Te, err, mc.ErrConfig)
}
