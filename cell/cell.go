//Package cell implements a linked-cell list over the fractional coordinates of each box.
//The cells are at least one cutoff wide (measured perpendicular to the cell faces), so
//every pair within the cutoff sits in the same or in neighbouring cells. Boxes too small
//for a 3x3x3 grid fall back to a single cell.
package cell

import (
	"iter"
	"math"

	mc "github.com/rmera/gomc"
	"golang.org/x/exp/slices"
)

type boxCells struct {
	box   *mc.Box
	n     [3]int
	cells [][]int
	neigh [][]int
}

//List implements mc.CellList
type List struct {
	boxes    []*boxCells
	atomBox  []int
	atomCell []int
	slot     []int
}

//New returns a cell list with every atom of S in the box of its molecule.
func New(S *mc.System) *List {
	L := new(List)
	n := S.NAtoms()
	L.atomBox = make([]int, n)
	L.atomCell = make([]int, n)
	L.slot = make([]int, n)
	for i := range L.atomBox {
		L.atomBox[i] = -1
	}
	L.boxes = make([]*boxCells, len(S.Boxes))
	for b, box := range S.Boxes {
		L.boxes[b] = grid(box)
	}
	for m := 0; m < S.Mols.Len(); m++ {
		s, e := S.Mols.Range(m)
		box := S.Mols.Box(m)
		for i := s; i < e; i++ {
			L.AddAtom(i, box, S.Pos(i))
		}
	}
	return L
}

func grid(box *mc.Box) *boxCells {
	B := &boxCells{box: box}
	rec := box.Reciprocal()
	small := false
	for i := 0; i < 3; i++ {
		width := 1 / math.Sqrt(rec[i][0]*rec[i][0]+rec[i][1]*rec[i][1]+rec[i][2]*rec[i][2])
		B.n[i] = int(width / box.RCut)
		if B.n[i] < 3 {
			small = true
		}
	}
	if small {
		B.n = [3]int{1, 1, 1}
	}
	total := B.n[0] * B.n[1] * B.n[2]
	B.cells = make([][]int, total)
	B.neigh = make([][]int, total)
	if total == 1 {
		B.neigh[0] = []int{0}
		return B
	}
	for x := 0; x < B.n[0]; x++ {
		for y := 0; y < B.n[1]; y++ {
			for z := 0; z < B.n[2]; z++ {
				c := B.index(x, y, z)
				for dx := -1; dx <= 1; dx++ {
					for dy := -1; dy <= 1; dy++ {
						for dz := -1; dz <= 1; dz++ {
							B.neigh[c] = append(B.neigh[c], B.index(x+dx, y+dy, z+dz))
						}
					}
				}
			}
		}
	}
	return B
}

func (B *boxCells) index(x, y, z int) int {
	x = (x + B.n[0]) % B.n[0]
	y = (y + B.n[1]) % B.n[1]
	z = (z + B.n[2]) % B.n[2]
	return (x*B.n[1]+y)*B.n[2] + z
}

func (B *boxCells) cellOf(p [3]float64) int {
	if len(B.cells) == 1 {
		return 0
	}
	f := B.box.Fractional(B.box.Wrap(p))
	var c [3]int
	for i := range c {
		c[i] = int(f[i] * float64(B.n[i]))
		if c[i] >= B.n[i] {
			c[i] = B.n[i] - 1
		}
		if c[i] < 0 {
			c[i] = 0
		}
	}
	return B.index(c[0], c[1], c[2])
}

//AddAtom puts the atom at p in box. The atom must not be in any box.
func (L *List) AddAtom(atom, box int, p [3]float64) {
	if L.atomBox[atom] >= 0 {
		L.RemoveAtom(atom, L.atomBox[atom])
	}
	B := L.boxes[box]
	c := B.cellOf(p)
	L.atomBox[atom] = box
	L.atomCell[atom] = c
	L.slot[atom] = len(B.cells[c])
	B.cells[c] = append(B.cells[c], atom)
}

//RemoveAtom takes the atom out of box. It does nothing if the atom is not there.
func (L *List) RemoveAtom(atom, box int) {
	if L.atomBox[atom] != box {
		return
	}
	B := L.boxes[box]
	c := L.atomCell[atom]
	list := B.cells[c]
	s := L.slot[atom]
	last := list[len(list)-1]
	list[s] = last
	L.slot[last] = s
	B.cells[c] = list[:len(list)-1]
	L.atomBox[atom] = -1
}

//MoveAtom updates the position of the atom in box.
func (L *List) MoveAtom(atom, box int, p [3]float64) {
	L.RemoveAtom(atom, box)
	L.AddAtom(atom, box, p)
}

//Box returns the box the atom is in, or -1.
func (L *List) Box(atom int) int {
	return L.atomBox[atom]
}

//Atoms returns the sorted atoms in box.
func (L *List) Atoms(box int) []int {
	var ret []int
	for _, c := range L.boxes[box].cells {
		ret = append(ret, c...)
	}
	slices.Sort(ret)
	return ret
}

//EnumeratePairs yields each pair of atoms in neighbouring cells once, with the lower index first.
func (L *List) EnumeratePairs(box int) iter.Seq2[int, int] {
	B := L.boxes[box]
	return func(yield func(int, int) bool) {
		for c, atoms := range B.cells {
			for _, nc := range B.neigh[c] {
				for _, i := range atoms {
					for _, j := range B.cells[nc] {
						if i < j && !yield(i, j) {
							return
						}
					}
				}
			}
		}
	}
}

//EnumerateLocal yields the atoms in the cell of p and its neighbours.
func (L *List) EnumerateLocal(p [3]float64, box int) iter.Seq[int] {
	B := L.boxes[box]
	c := B.cellOf(p)
	return func(yield func(int) bool) {
		for _, nc := range B.neigh[c] {
			for _, j := range B.cells[nc] {
				if !yield(j) {
					return
				}
			}
		}
	}
}
