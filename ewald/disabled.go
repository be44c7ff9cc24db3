package ewald

import (
	"log/slog"

	mc "github.com/rmera/gomc"
	v3 "github.com/rmera/gomc/v3"
)

//Disabled is the reciprocal capability of runs with cutoff-only (or no) electrostatics.
//Every energy, virial and force it returns is zero.
type Disabled struct{}

func (Disabled) Init() error { return nil }
func (Disabled) Rebuild(box int) error { return nil }
func (Disabled) FullStructureFactor(box int) {}
func (Disabled) Energy(box int) float64 { return 0 }
func (Disabled) MoleculeDelta(newPos *v3.Matrix, mol, box int) float64 { return 0 }
func (Disabled) InsertDelta(pos *v3.Matrix, mol, box int) float64 { return 0 }
func (Disabled) DeleteDelta(mol, box int) float64 { return 0 }
func (Disabled) SwapDelta(box int, removed, added []mc.Image) float64 { return 0 }
func (Disabled) Commit(box int) {}
func (Disabled) Revert(box int) {}
func (Disabled) SelfEnergy(box int) float64 { return 0 }
func (Disabled) KindSelf(kind, box int) float64 { return 0 }
func (Disabled) Correction(mol, box int, lambda float64) float64 { return 0 }
func (Disabled) CorrectionAt(pos *v3.Matrix, mol, box int, lambda float64) float64 { return 0 }
func (Disabled) BoxCorrection(box int) float64 { return 0 }
func (Disabled) Virial(box int) [3][3]float64 { return [3][3]float64{} }
func (Disabled) CouplingDelta(pos *v3.Matrix, lOld, lNew float64, mol, box int) float64 { return 0 }

//Forces zeroes the forces of the atoms and molecules of box.
func (Disabled) Forces(box int, atomForce, molForce *v3.Matrix) {
	atomForce.Zero()
	molForce.Zero()
}

//For returns the Ewald engine if the force field uses Ewald summation, and Disabled otherwise.
func For(S *mc.System, ff mc.ForceField, opts *Options, logger *slog.Logger) mc.ReciprocalElectrostatics {
	if ff.Electrostatics() && ff.Ewald() {
		return New(S, ff, opts, logger)
	}
	return Disabled{}
}
