/*
 * geometric.go, part of gomc.
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

package mc

import (
	"math"

	v3 "github.com/rmera/gomc/v3"
	"gonum.org/v1/gonum/mat"
)

//RotationMatrix returns the matrix that rotates column vectors by angle radians
//around the unit vector axis (Rodrigues' formula). Row vectors are rotated by
//multiplying them by the transpose.
func RotationMatrix(axis [3]float64, angle float64) *mat.Dense {
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := axis[0], axis[1], axis[2]
	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
}

//RotateAbout returns a copy of coords rotated by angle radians around the axis
//that passes through center. coords are not affected.
func RotateAbout(coords *v3.Matrix, center, axis [3]float64, angle float64) *v3.Matrix {
	ret := v3.Zeros(coords.NVecs())
	ret.Translate(coords, [3]float64{-center[0], -center[1], -center[2]})
	ret.Mul(ret, RotationMatrix(axis, angle).T())
	ret.Translate(ret, center)
	return ret
}

//RandomUnitVector returns a vector uniformly distributed on the unit sphere.
func RandomUnitVector(r Random) [3]float64 {
	z := 2*r.Float64() - 1
	phi := 2 * math.Pi * r.Float64()
	s := math.Sqrt(1 - z*z)
	return [3]float64{s * math.Cos(phi), s * math.Sin(phi), z}
}

//RandomAngle returns a rotation angle in [0,pi] such that, around an axis from
//RandomUnitVector, the rotations are uniformly distributed. The density of the angle
//is (1-cos(angle))/pi.
func RandomAngle(r Random) float64 {
	for {
		a := math.Pi * r.Float64()
		if 2*r.Float64() < 1-math.Cos(a) {
			return a
		}
	}
}

//Deg2Rad converts degrees to radians
func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}
