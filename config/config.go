//Package config reads the YAML description of a run and builds the system,
//the force field and the energy engines it describes.
package config

import (
	"fmt"
	"log/slog"
	"os"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/calc"
	"github.com/rmera/gomc/cell"
	"github.com/rmera/gomc/cfcmc"
	"github.com/rmera/gomc/clash"
	"github.com/rmera/gomc/ewald"
	"github.com/rmera/gomc/ff"
	"github.com/rmera/gomc/pair"
	"github.com/rmera/gomc/tail"
	v3 "github.com/rmera/gomc/v3"
	"gopkg.in/yaml.v3"
)

//Config is the whole description of a run.
type Config struct {
	Temperature float64         `yaml:"temperature" json:"temperature"` //K
	Ensemble    string          `yaml:"ensemble" json:"ensemble"`
	Seed        uint64          `yaml:"seed" json:"seed"`
	Cpus        int             `yaml:"cpus" json:"cpus"` //0 means all
	Potential   PotentialConfig `yaml:"potential" json:"potential"`
	Types       []ff.LJType     `yaml:"types" json:"types"`
	Kinds       []KindConfig    `yaml:"kinds" json:"kinds"`
	Boxes       []BoxConfig     `yaml:"boxes" json:"boxes"`
	Move        MoveConfig      `yaml:"move" json:"move"`
	Run         RunConfig       `yaml:"run" json:"run"`
}

//PotentialConfig sets the cutoffs and the treatment of electrostatics.
type PotentialConfig struct {
	Cutoff         float64 `yaml:"cutoff" json:"cutoff"`       //Angstrom
	HardCore       float64 `yaml:"hard_core" json:"hard_core"` //pairs closer than this overlap
	TailCorrection bool    `yaml:"tail_correction" json:"tail_correction"`
	Electrostatics bool    `yaml:"electrostatics" json:"electrostatics"`
	Ewald          bool    `yaml:"ewald" json:"ewald"`
	Alpha          float64 `yaml:"alpha" json:"alpha"`               //1/Angstrom
	RecipCutoff    float64 `yaml:"recip_cutoff" json:"recip_cutoff"` //1/Angstrom
}

//KindConfig is a molecule kind. Atoms refer to LJ types by name, and Template
//holds one position per atom. If Masses is empty, the masses are taken from the
//element symbols that start the type names, as in "O" or "O_water".
type KindConfig struct {
	Name         string       `yaml:"name" json:"name"`
	Atoms        []string     `yaml:"atoms" json:"atoms"`
	Charges      []float64    `yaml:"charges" json:"charges"`
	Masses       []float64    `yaml:"masses" json:"masses"`
	Template     [][3]float64 `yaml:"template" json:"template"`
	ChemPot      float64      `yaml:"chem_pot" json:"chem_pot"` //K
	Transferable bool         `yaml:"transferable" json:"transferable"`
}

//BoxConfig is a simulation box. If Cell is given, it is used instead of Axis, with
//one cell vector per row. Molecules gives the initial count of each kind.
type BoxConfig struct {
	Axis           [3]float64     `yaml:"axis" json:"axis"`
	Cell           *[3][3]float64 `yaml:"cell,omitempty" json:"cell,omitempty"`
	NonInteracting bool           `yaml:"non_interacting" json:"non_interacting"`
	Molecules      []int          `yaml:"molecules" json:"molecules"`
}

//MoveConfig holds the settings of the transfer move. Reservoir is the index of
//the reservoir box in GCMC, and is ignored otherwise.
type MoveConfig struct {
	Window     int     `yaml:"window" json:"window"`
	RelaxSteps int     `yaml:"relax_steps" json:"relax_steps"`
	HistFreq   int     `yaml:"hist_freq" json:"hist_freq"`
	Flatness   float64 `yaml:"flatness" json:"flatness"`
	Nu         float64 `yaml:"nu" json:"nu"`
	NuTol      float64 `yaml:"nu_tol" json:"nu_tol"`
	MaxDisp    float64 `yaml:"max_disp" json:"max_disp"`
	MaxRot     float64 `yaml:"max_rot" json:"max_rot"`
	Reservoir  int     `yaml:"reservoir" json:"reservoir"`
	Bias       string  `yaml:"bias,omitempty" json:"bias,omitempty"` //snapshot to start from
}

//RunConfig controls the length of the run and its checkpoints.
type RunConfig struct {
	Moves      uint64  `yaml:"moves" json:"moves"`
	Checkpoint uint64  `yaml:"checkpoint" json:"checkpoint"`
	DriftTol   float64 `yaml:"drift_tol" json:"drift_tol"` //K
	MinDist    float64 `yaml:"min_dist" json:"min_dist"`   //initial placement
	PlaceTries int     `yaml:"place_tries" json:"place_tries"`
}

//Default returns a Gibbs ensemble run of Lennard-Jones argon near coexistence.
func Default() *Config {
	o := cfcmc.DefaultOptions()
	return &Config{
		Temperature: 110,
		Ensemble:    "GEMC",
		Seed:        1,
		Potential: PotentialConfig{
			Cutoff:         10,
			HardCore:       2.5,
			TailCorrection: true,
			Alpha:          0.25,
			RecipCutoff:    1.2,
		},
		Types: []ff.LJType{{Name: "Ar", Sigma: 3.405, Epsilon: 119.8}},
		Kinds: []KindConfig{{
			Name:         "Ar",
			Atoms:        []string{"Ar"},
			Charges:      []float64{0},
			Masses:       []float64{39.948},
			Template:     [][3]float64{{0, 0, 0}},
			Transferable: true,
		}},
		Boxes: []BoxConfig{
			{Axis: [3]float64{25, 25, 25}, Molecules: []int{150}},
			{Axis: [3]float64{35, 35, 35}, Molecules: []int{50}},
		},
		Move: MoveConfig{
			Window:     o.Window(),
			RelaxSteps: o.RelaxSteps(),
			HistFreq:   o.HistFreq(),
			Flatness:   o.Flatness(),
			Nu:         o.Nu(),
			NuTol:      o.NuTol(),
			MaxDisp:    o.MaxDisp(),
			MaxRot:     o.MaxRot(),
			Reservoir:  -1,
		},
		Run: RunConfig{
			Moves:      10000,
			Checkpoint: 1000,
			DriftTol:   1e-3,
			MinDist:    3,
			PlaceTries: 10000,
		},
	}
}

func errConfig(format string, a ...any) error {
	return mc.NewError(fmt.Sprintf(format, a...), true, mc.ErrConfig, "config.Validate")
}

//Validate returns a critical error describing the first problem found in c, or nil.
func (c *Config) Validate() error {
	if c.Temperature <= 0 {
		return errConfig("Temperature must be positive, got %g", c.Temperature)
	}
	ens, err := mc.ParseEnsemble(c.Ensemble)
	if err != nil {
		return err
	}
	if ens != mc.GEMC && ens != mc.GCMC {
		return errConfig("Transfers need the GEMC or GCMC ensemble, got %s", ens)
	}
	if c.Cpus < 0 {
		return errConfig("Negative number of cpus")
	}
	p := c.Potential
	if p.Cutoff <= 0 || p.HardCore < 0 || p.HardCore >= p.Cutoff {
		return errConfig("Need 0 <= hard_core < cutoff, got %g and %g", p.HardCore, p.Cutoff)
	}
	if p.Ewald && (p.Alpha <= 0 || p.RecipCutoff <= 0) {
		return errConfig("Ewald summation needs positive alpha and recip_cutoff")
	}
	if len(c.Types) == 0 {
		return errConfig("No LJ types")
	}
	names := make(map[string]bool, len(c.Types))
	for _, t := range c.Types {
		if names[t.Name] {
			return errConfig("LJ type %q given twice", t.Name)
		}
		if t.Sigma < 0 || t.Epsilon < 0 {
			return errConfig("LJ type %q has negative parameters", t.Name)
		}
		names[t.Name] = true
	}
	if len(c.Kinds) == 0 {
		return errConfig("No molecule kinds")
	}
	for _, k := range c.Kinds {
		n := len(k.Atoms)
		if n == 0 || len(k.Charges) != n || len(k.Template) != n || (len(k.Masses) != n && len(k.Masses) != 0) {
			return errConfig("Kind %q needs atoms, charges, masses and template of the same, non-zero, length", k.Name)
		}
		for _, a := range k.Atoms {
			if !names[a] {
				return errConfig("Kind %q uses the unknown LJ type %q", k.Name, a)
			}
			if _, ok := mc.Mass(a); !ok && len(k.Masses) == 0 {
				return errConfig("Kind %q: no mass given for type %q, which is not an element", k.Name, a)
			}
		}
	}
	if len(c.Boxes) < 2 {
		return errConfig("Transfers need at least 2 boxes, got %d", len(c.Boxes))
	}
	for i, b := range c.Boxes {
		if len(b.Molecules) > len(c.Kinds) {
			return errConfig("Box %d gives counts for %d kinds, there are %d", i, len(b.Molecules), len(c.Kinds))
		}
		if b.Cell != nil {
			continue
		}
		for _, a := range b.Axis {
			if a < 2*p.Cutoff {
				return errConfig("Box %d is smaller than twice the cutoff", i)
			}
		}
	}
	m := c.Move
	if m.Window < 1 || m.RelaxSteps < 0 || m.HistFreq < 1 {
		return errConfig("Need window >= 1, relax_steps >= 0 and hist_freq >= 1")
	}
	if m.Flatness <= 0 || m.Flatness > 1 || m.Nu < 0 || m.NuTol < 0 {
		return errConfig("Need 0 < flatness <= 1 and non-negative nu and nu_tol")
	}
	if ens == mc.GCMC {
		if m.Reservoir < 0 || m.Reservoir >= len(c.Boxes) {
			return errConfig("GCMC needs a reservoir box, got %d", m.Reservoir)
		}
		if !c.Boxes[m.Reservoir].NonInteracting {
			return errConfig("The reservoir box %d must be non-interacting", m.Reservoir)
		}
	}
	if c.Run.Checkpoint == 0 || c.Run.DriftTol <= 0 || c.Run.PlaceTries < 1 {
		return errConfig("Need a positive checkpoint interval, drift tolerance and number of placement tries")
	}
	return nil
}

//Load reads the YAML file at path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mc.NewError(err.Error(), true, mc.ErrConfig, "config.Load")
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, mc.NewError(fmt.Sprintf("Parsing %s: %v", path, err), true, mc.ErrConfig, "config.Load")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

//Options returns the settings of the transfer move.
func (c *Config) Options() *cfcmc.Options {
	m := c.Move
	o := cfcmc.DefaultOptions()
	o.Window(m.Window)
	o.RelaxSteps(m.RelaxSteps)
	o.HistFreq(m.HistFreq)
	o.Flatness(m.Flatness)
	o.Nu(m.Nu)
	o.NuTol(m.NuTol)
	o.MaxDisp(m.MaxDisp)
	o.MaxRot(m.MaxRot)
	return o
}

//Policy returns the acceptance policy of the ensemble.
func (c *Config) Policy() (cfcmc.Policy, error) {
	ens, err := mc.ParseEnsemble(c.Ensemble)
	if err != nil {
		return nil, err
	}
	switch ens {
	case mc.GEMC:
		return cfcmc.GEMC{}, nil
	case mc.GCMC:
		return cfcmc.NewGCMC(c.Move.Reservoir), nil
	}
	return nil, mc.NewError(fmt.Sprintf("No transfer move for the %s ensemble", ens), true, mc.ErrConfig, "config.Policy")
}

//TypeNames returns the names of the LJ types, in order.
func (c *Config) TypeNames() []string {
	names := make([]string, len(c.Types))
	for i, t := range c.Types {
		names[i] = t.Name
	}
	return names
}

//ForceField returns the parameter table described by c. The tail coefficients of
//kinds are filled in.
func (c *Config) ForceField(kinds []*mc.Kind) *ff.Table {
	p := c.Potential
	T := ff.New(c.Types, p.Cutoff)
	if p.Ewald {
		alpha := make([]float64, len(c.Boxes))
		rc := make([]float64, len(c.Boxes))
		for i := range alpha {
			alpha[i] = p.Alpha
			rc[i] = p.RecipCutoff
		}
		T.SetEwald(alpha, rc)
	} else if p.Electrostatics {
		T.SetElectrostatics(true)
	}
	T.TailCoefficients(kinds)
	return T
}

//Build returns the system described by c, with its molecules placed at random positions
//and orientations drawn from r, and the force field. c is assumed to be valid.
func Build(c *Config, r mc.Random, logger *slog.Logger) (*mc.System, *ff.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ens, err := mc.ParseEnsemble(c.Ensemble)
	if err != nil {
		return nil, nil, err
	}
	//type indexes do not depend on the electrostatics.
	T0 := ff.New(c.Types, c.Potential.Cutoff)
	kinds := make([]*mc.Kind, len(c.Kinds))
	for i, k := range c.Kinds {
		K := &mc.Kind{
			Name:         k.Name,
			Types:        make([]int, len(k.Atoms)),
			Charges:      append([]float64(nil), k.Charges...),
			Masses:       append([]float64(nil), k.Masses...),
			ChemPot:      k.ChemPot,
			Transferable: k.Transferable,
		}
		for j, a := range k.Atoms {
			if K.Types[j], err = T0.TypeIndex(a); err != nil {
				return nil, nil, err
			}
			if len(k.Masses) == 0 {
				m, _ := mc.Mass(a)
				K.Masses = append(K.Masses, m)
			}
		}
		flat := make([]float64, 0, 3*len(k.Template))
		for _, p := range k.Template {
			flat = append(flat, p[:]...)
		}
		if K.Template, err = v3.NewMatrix(flat); err != nil {
			return nil, nil, mc.NewError(err.Error(), true, mc.ErrConfig, "config.Build")
		}
		kinds[i] = K
	}
	T := c.ForceField(kinds)
	boxes := make([]*mc.Box, len(c.Boxes))
	for i, b := range c.Boxes {
		if b.Cell != nil {
			if boxes[i], err = mc.NewBox(i, *b.Cell, c.Potential.Cutoff, c.Potential.HardCore); err != nil {
				return nil, nil, err
			}
		} else {
			boxes[i] = mc.NewOrthoBox(i, b.Axis, c.Potential.Cutoff, c.Potential.HardCore)
		}
		boxes[i].Interacting = !b.NonInteracting
	}
	S := mc.NewSystem(boxes, kinds, ens, c.Temperature)
	for b, bc := range c.Boxes {
		for k, n := range bc.Molecules {
			for i := 0; i < n; i++ {
				pos, err := clash.Place(S, k, b, r, c.Run.MinDist, c.Run.PlaceTries)
				if err != nil {
					return nil, nil, err
				}
				if _, err := S.AddMolecule(k, b, pos); err != nil {
					return nil, nil, err
				}
			}
		}
		logger.Info("box built", "box", b, "volume", boxes[b].Volume(), "molecules", S.Mols.Counts(b), "interacting", boxes[b].Interacting)
	}
	return S, T, nil
}

//Engines returns the cell list and the energy calculator for S, with the
//reciprocal-space engine initialized and S.Potential set to a full recompute.
func Engines(c *Config, S *mc.System, T *ff.Table, logger *slog.Logger) (*calc.Calculator, *cell.List, error) {
	L := cell.New(S)
	po := pair.DefaultOptions()
	eo := ewald.DefaultOptions()
	if c.Cpus > 0 {
		po.Cpus(c.Cpus)
		eo.Cpus(c.Cpus)
	}
	R := ewald.For(S, T, eo, logger)
	if err := R.Init(); err != nil {
		return nil, nil, err
	}
	var lrc *tail.Model
	if c.Potential.TailCorrection {
		lrc = tail.New(S.Kinds)
	}
	C := calc.New(S, pair.New(S, L, T, po), R, lrc, nil, logger)
	P, err := C.SystemTotal()
	if err != nil {
		return nil, nil, err
	}
	S.Potential = P
	return C, L, nil
}
