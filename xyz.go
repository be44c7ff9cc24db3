package mc

import (
	"fmt"
	"io"
)

//WriteXYZ writes the molecules of box in XYZ format, one line per atom, labelled with the
//name of its LJ type. Fractional molecules are written too, and the comment line gives
//the box cell.
func WriteXYZ(w io.Writer, S *System, box int, typeNames []string) error {
	var atoms []int
	for k := range S.Kinds {
		for _, m := range S.Mols.Members(k, box) {
			s, e := S.Mols.Range(m)
			for i := s; i < e; i++ {
				atoms = append(atoms, i)
			}
		}
	}
	c := S.Boxes[box].Cell()
	if _, err := fmt.Fprintf(w, "%-4d\nbox %d cell %v\n", len(atoms), box, c); err != nil {
		return err
	}
	for _, i := range atoms {
		t := S.AtomType(i)
		if t >= len(typeNames) {
			panic(ErrShape)
		}
		p := S.Pos(i)
		if _, err := fmt.Fprintf(w, "%-2s  %12.5f%12.5f%12.5f\n", typeNames[t], p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}
