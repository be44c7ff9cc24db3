//Package clash finds close contacts between sets of atoms under periodic boundaries, and
//places molecules in a box away from the atoms already there.
package clash

import (
	"fmt"
	"math"

	mc "github.com/rmera/gomc"
	v3 "github.com/rmera/gomc/v3"
)

//LowestDist returns the shortest minimum-image distance in box between an atom
//of test and one of clash, and the indexes of that pair.
func LowestDist(test, clash *v3.Matrix, box *mc.Box) (dist float64, indexes [2]int) {
	dist = math.Inf(1)
	for i := 0; i < test.NVecs(); i++ {
		a := test.Vec3(i)
		for j := 0; j < clash.NVecs(); j++ {
			d2, _ := box.DistSq(a, clash.Vec3(j))
			if dt := math.Sqrt(d2); dt < dist {
				dist = dt
				indexes[0] = i
				indexes[1] = j
			}
		}
	}
	return
}

//HighestOverlap returns the largest overlap, the LJ diameter of the pair minus their
//distance, between an atom of test, with LJ types ttypes, and one of clash, with
//types ctypes. sigma gives the diameter of a pair of types. The pair is also returned.
//A negative overlap means no atoms touch.
func HighestOverlap(test, clash *v3.Matrix, ttypes, ctypes []int, sigma func(ti, tj int) float64, box *mc.Box) (over float64, indexes [2]int) {
	over = math.Inf(-1)
	for i := 0; i < test.NVecs(); i++ {
		a := test.Vec3(i)
		for j := 0; j < clash.NVecs(); j++ {
			d2, _ := box.DistSq(a, clash.Vec3(j))
			if ov := sigma(ttypes[i], ctypes[j]) - math.Sqrt(d2); ov > over {
				over = ov
				indexes[0] = i
				indexes[1] = j
			}
		}
	}
	return
}

//Closest returns the shortest distance between an atom of c and an atom of the molecules
//of S in box, and the indexes of the atom of c and of the system's atom.
func Closest(S *mc.System, c *v3.Matrix, box int) (dist float64, indexes [2]int) {
	dist = math.Inf(1)
	b := S.Boxes[box]
	for k := range S.Kinds {
		for _, m := range S.Mols.Members(k, box) {
			s, _ := S.Mols.Range(m)
			d, idx := LowestDist(c, S.MolCoords(m), b)
			if d < dist {
				dist = d
				indexes = [2]int{idx[0], s + idx[1]}
			}
		}
	}
	return
}

//Place returns coordinates for a new molecule of kind in box, with a random orientation
//and position, such that no atom is closer than mindist to the atoms already in the box.
//It gives up after tries attempts, with a critical error.
func Place(S *mc.System, kind, box int, r mc.Random, mindist float64, tries int) (*v3.Matrix, error) {
	K := S.Kinds[kind]
	b := S.Boxes[box]
	com := center(K)
	for i := 0; i < tries; i++ {
		rot := mc.RotateAbout(K.Template, com, mc.RandomUnitVector(r), mc.RandomAngle(r))
		trial := S.Relocate(rot, com, r.PointInBox(b), box)
		if !b.Interacting {
			return trial, nil
		}
		if d, _ := Closest(S, trial, box); d >= mindist {
			return trial, nil
		}
	}
	return nil, mc.NewError(fmt.Sprintf("Could not place a molecule of kind %s in box %d after %d tries", K.Name, box, tries), true, mc.ErrConfig, "clash.Place")
}

//center returns the mass-weighted center of the template of K, not wrapped.
func center(K *mc.Kind) [3]float64 {
	var c [3]float64
	tot := 0.0
	for i := 0; i < K.Len(); i++ {
		w := 1.0
		if len(K.Masses) == K.Len() && K.Masses[i] > 0 {
			w = K.Masses[i]
		}
		p := K.Template.Vec3(i)
		for j := range c {
			c[j] += w * p[j]
		}
		tot += w
	}
	for j := range c {
		c[j] /= tot
	}
	return c
}
