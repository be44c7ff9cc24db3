/*
 * policy.go, part of gomc.
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

package cfcmc

import "math"

//Step describes one proposed step on the coupling ladder of a transfer. Old and New are
//ladder indexes, with Window meaning full coupling to the source box.
type Step struct {
	Kind    int
	Source  int
	Dest    int
	Old     int
	New     int
	Window  int
	NSource int //molecules of the kind in the source box, not counting the transferred one
	NDest   int //molecules of the kind in the destination box
	VSource float64
	VDest   float64
	Beta    float64
	ChemPot float64
}

//Policy supplies the ensemble-dependent part of the acceptance of a ladder step.
type Policy interface {
	//Coefficient multiplies the Boltzmann and bias factors of the step.
	Coefficient(s Step) float64

	//Biased returns whether the bias is learned and applied in box.
	Biased(box int) bool

	//Reservoir returns whether box is a molecule reservoir, which must
	//never run out of molecules.
	Reservoir(box int) bool
}

//proposal returns q(new->old)/q(old->new). From an end of the ladder the
//only step is inward, from any other index each direction has probability 1/2.
func proposal(s Step) float64 {
	q := func(i int) float64 {
		if i == 0 || i == s.Window {
			return 1
		}
		return 0.5
	}
	return q(s.New) / q(s.Old)
}

//boundary applies leave and enter, the factors for the molecule stopping being fully
//coupled to the source and becoming fully coupled to the destination, to the steps
//that cross those points in either direction.
func boundary(s Step, leave, enter float64) float64 {
	c := 1.0
	switch {
	case s.Old == s.Window && s.New < s.Window:
		c *= leave
	case s.Old < s.Window && s.New == s.Window:
		c /= leave
	}
	switch {
	case s.New == 0 && s.Old > 0:
		c *= enter
	case s.Old == 0 && s.New > 0:
		c /= enter
	}
	return c
}

//GEMC is the policy for the Gibbs ensemble, where both boxes exchange molecules
//and learn their bias.
type GEMC struct{}

func (GEMC) Coefficient(s Step) float64 {
	leave := float64(s.NSource+1) / s.VSource
	enter := s.VDest / float64(s.NDest+1)
	return proposal(s) * boundary(s, leave, enter)
}

func (GEMC) Biased(box int) bool { return true }

func (GEMC) Reservoir(box int) bool { return false }

//GCMC is the grand-canonical policy. The box Bath is an ideal reservoir at the
//chemical potential of each kind, it contributes no factor and learns no bias.
type GCMC struct {
	Bath int
}

//NewGCMC returns the grand-canonical policy with the given reservoir box.
func NewGCMC(reservoir int) GCMC {
	return GCMC{Bath: reservoir}
}

func (G GCMC) Coefficient(s Step) float64 {
	leave, enter := 1.0, 1.0
	if s.Source != G.Bath {
		leave = float64(s.NSource+1) / s.VSource * math.Exp(-s.Beta*s.ChemPot)
	}
	if s.Dest != G.Bath {
		enter = s.VDest / float64(s.NDest+1) * math.Exp(s.Beta*s.ChemPot)
	}
	return proposal(s) * boundary(s, leave, enter)
}

func (G GCMC) Biased(box int) bool { return box != G.Bath }

func (G GCMC) Reservoir(box int) bool { return box == G.Bath }
