/*
 * box.go, part of gomc.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//Box is a periodic simulation region. The cell is given by three
//row vectors a, b and c. A box with a diagonal cell is orthogonal, and
//takes the fast paths for minimum image and wrapping.
type Box struct {
	ID          int
	RCut        float64 //cutoff radius for the short-range interactions
	RCutSq      float64
	RCutLow     float64 //hard-core distance, closer contacts are overlaps
	Interacting bool    //false for an ideal-gas reservoir

	cell   [3][3]float64
	inv    [3][3]float64
	axis   [3]float64
	ortho  bool
	volume float64
	volInv float64
}

//NewOrthoBox returns an orthogonal box with the given edge lengths.
func NewOrthoBox(id int, axis [3]float64, rcut, rcutLow float64) *Box {
	var cell [3][3]float64
	for i := range axis {
		cell[i][i] = axis[i]
	}
	b, err := NewBox(id, cell, rcut, rcutLow)
	if err != nil {
		panic(ErrSingularCell)
	}
	return b
}

//NewBox returns a box with the general (triclinic) cell given, where each row
//is one cell vector. It returns an error if the cell is singular.
func NewBox(id int, cell [3][3]float64, rcut, rcutLow float64) (*Box, error) {
	B := &Box{ID: id, RCut: rcut, RCutSq: rcut * rcut, RCutLow: rcutLow, Interacting: true}
	if err := B.setCell(cell); err != nil {
		return nil, errDecorate(err, "NewBox")
	}
	return B, nil
}

func (B *Box) setCell(cell [3][3]float64) error {
	c := mat.NewDense(3, 3, nil)
	ortho := true
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c.Set(i, j, cell[i][j])
			if i != j && cell[i][j] != 0 {
				ortho = false
			}
		}
	}
	det := mat.Det(c)
	if math.Abs(det) < 1e-12 {
		return NewError(fmt.Sprintf("Singular cell for box %d", B.ID), true, ErrConfig, "setCell")
	}
	var inv mat.Dense
	if err := inv.Inverse(c); err != nil {
		return NewError(fmt.Sprintf("Can't invert cell for box %d: %v", B.ID, err), true, ErrConfig, "setCell")
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			B.inv[i][j] = inv.At(i, j)
		}
		B.axis[i] = math.Sqrt(cell[i][0]*cell[i][0] + cell[i][1]*cell[i][1] + cell[i][2]*cell[i][2])
	}
	B.cell = cell
	B.ortho = ortho
	B.volume = math.Abs(det)
	B.volInv = 1 / B.volume
	return nil
}

//Scale multiplies every cell vector by f. It is meant for volume-change moves
//and their tests; callers must rebuild the reciprocal-space state afterwards.
func (B *Box) Scale(f float64) error {
	cell := B.cell
	for i := range cell {
		for j := range cell[i] {
			cell[i][j] *= f
		}
	}
	return errDecorate(B.setCell(cell), "Scale")
}

func (B *Box) Volume() float64 { return B.volume }
func (B *Box) VolInv() float64 { return B.volInv }
func (B *Box) Orthogonal() bool { return B.ortho }
func (B *Box) Axis() [3]float64 { return B.axis }
func (B *Box) Cell() [3][3]float64 { return B.cell }

//Reciprocal returns the reciprocal basis (without the 2pi factor) as rows, so that
//row j, b_j, satisfies a_i.b_j = delta_ij.
func (B *Box) Reciprocal() [3][3]float64 {
	var r [3][3]float64
	for j := 0; j < 3; j++ {
		for c := 0; c < 3; c++ {
			r[j][c] = B.inv[c][j]
		}
	}
	return r
}

//Fractional returns the fractional coordinates of the point p.
func (B *Box) Fractional(p [3]float64) [3]float64 {
	if B.ortho {
		return [3]float64{p[0] / B.axis[0], p[1] / B.axis[1], p[2] / B.axis[2]}
	}
	var f [3]float64
	for j := 0; j < 3; j++ {
		f[j] = p[0]*B.inv[0][j] + p[1]*B.inv[1][j] + p[2]*B.inv[2][j]
	}
	return f
}

//Cartesian returns the cartesian coordinates of the fractional point f.
func (B *Box) Cartesian(f [3]float64) [3]float64 {
	if B.ortho {
		return [3]float64{f[0] * B.axis[0], f[1] * B.axis[1], f[2] * B.axis[2]}
	}
	var p [3]float64
	for j := 0; j < 3; j++ {
		p[j] = f[0]*B.cell[0][j] + f[1]*B.cell[1][j] + f[2]*B.cell[2][j]
	}
	return p
}

//MinImage returns the minimum image of the separation vector d.
func (B *Box) MinImage(d [3]float64) [3]float64 {
	if B.ortho {
		for i := 0; i < 3; i++ {
			d[i] -= B.axis[i] * math.Round(d[i]/B.axis[i])
		}
		return d
	}
	f := B.Fractional(d)
	for i := range f {
		f[i] -= math.Round(f[i])
	}
	return B.Cartesian(f)
}

//Wrap returns the periodic image of p that lies inside the cell.
func (B *Box) Wrap(p [3]float64) [3]float64 {
	if B.ortho {
		for i := 0; i < 3; i++ {
			p[i] -= B.axis[i] * math.Floor(p[i]/B.axis[i])
		}
		return p
	}
	f := B.Fractional(p)
	for i := range f {
		f[i] -= math.Floor(f[i])
	}
	return B.Cartesian(f)
}

//Unwrap returns the periodic image of p closest to ref.
func (B *Box) Unwrap(p, ref [3]float64) [3]float64 {
	d := B.MinImage([3]float64{p[0] - ref[0], p[1] - ref[1], p[2] - ref[2]})
	return [3]float64{ref[0] + d[0], ref[1] + d[1], ref[2] + d[2]}
}

//DistSq returns the squared minimum-image distance between a and b,
//and the separation vector a-b.
func (B *Box) DistSq(a, b [3]float64) (float64, [3]float64) {
	d := B.MinImage([3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]})
	return d[0]*d[0] + d[1]*d[1] + d[2]*d[2], d
}

//InRcut returns whether a and b are within the cutoff, along with
//their squared distance and separation vector.
func (B *Box) InRcut(a, b [3]float64) (bool, float64, [3]float64) {
	d2, d := B.DistSq(a, b)
	return d2 < B.RCutSq, d2, d
}
