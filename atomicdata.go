/*
 * atomicdata.go, part of gomc.
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

package mc

import "strings"

//A map for assigning mass to elements.
//Common elements of adsorbates and solvents only.
var symbolMass = map[string]float64{
	"H":  1.008,
	"He": 4.003,
	"C":  12.01,
	"N":  14.01,
	"O":  16.00,
	"F":  18.998,
	"Ne": 20.18,
	"Na": 22.99,
	"Si": 28.08,
	"P":  30.97,
	"S":  32.06,
	"Cl": 35.45,
	"Ar": 39.948,
	"K":  39.1,
	"Br": 79.904,
	"Kr": 83.80,
	"I":  126.90,
	"Xe": 131.29,
}

//Mass returns the mass of the element with the given symbol, in amu. The symbol can
//be followed by a label, separated by an underscore, as in "O_water". The second
//value is false if the element is unknown.
func Mass(symbol string) (float64, bool) {
	s, _, _ := strings.Cut(symbol, "_")
	m, ok := symbolMass[s]
	return m, ok
}
