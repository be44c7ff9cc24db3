/*
 * doc.go, part of gomc.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

/*Package mc is the main package of the goMC library. It provides the data model of a
Monte Carlo molecular simulation (boxes, molecule kinds and instances, coupling
parameters, the tracked system potential) and the interfaces that the energy
engines and moves are built on.


	**goMC Capabilities**


    Short-range Lennard-Jones and real-space Coulomb energies, forces and virials
	over a cell list, with single-molecule delta recomputation (package pair).

    Analytic long-range tail corrections for truncated potentials (package tail).

    Ewald reciprocal-space electrostatics for orthogonal and triclinic boxes, with
	incremental structure factors committed by swapping two generations (package ewald).

    Continuous fractional component (CFCMC) transfers of molecules between two
	boxes, with a Wang-Landau bias over the coupling ladder, relaxation sub-moves and
	grand-canonical or Gibbs-ensemble acceptance policies (package cfcmc).

    Full-system energy recomputation and drift checks (package calc).

    A command line runner configured with YAML (cmd/gomc).

Energies are in Kelvin, lengths in Angstrom and charges in elementary charges.

*/

package mc
